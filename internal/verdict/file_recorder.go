package verdict

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileRecorder appends each record as its own YAML document
type FileRecorder struct {
	path string
	mu   sync.Mutex
}

func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{
		path: path,
	}
}

func (recorder *FileRecorder) Record(_ context.Context, record Record) error {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("encoder.Encode > %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encoder.Close > %w", err)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()

	file, err := os.OpenFile(recorder.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("os.OpenFile(%s) > %w", recorder.path, err)
	}
	defer func() {
		_ = file.Close()
	}()
	if _, err := file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("file.Write > %w", err)
	}
	return nil
}

func (recorder *FileRecorder) Close() error {
	return nil
}

// FindAll reads every record of the file; a missing file has no records
func (recorder *FileRecorder) FindAll(_ context.Context) ([]Record, error) {
	file, err := os.Open(recorder.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s) > %w", recorder.path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	var records []Record
	decoder := yaml.NewDecoder(file)
	for {
		var record Record
		err := decoder.Decode(&record)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoder.Decode(%s) > %w", recorder.path, err)
		}
		records = append(records, record)
	}
	return records, nil
}
