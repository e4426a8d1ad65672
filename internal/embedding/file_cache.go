package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FileCache stores one JSON encoded vector per model and text
type FileCache struct {
	rootDir string
}

func NewFileCache(cacheDirectory string) *FileCache {
	return &FileCache{
		rootDir: cacheDirectory,
	}
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (cache *FileCache) filePath(key string) string {
	return filepath.Join(cache.rootDir, key+".json")
}

// cache returns the stored vector for the key, or calls f and stores its result.
// An unreadable entry is treated as a miss and overwritten.
// A failed write is logged and does not fail the lookup.
func (cache *FileCache) cache(key string, f func() ([]float64, error)) ([]float64, error) {
	localFilePath := cache.filePath(key)
	vector, err := cache.read(key)
	if err == nil {
		return vector, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("ignoring an unreadable cached embedding",
			slog.String("path", localFilePath),
			slog.Any("error", err),
		)
	}

	vector, err = f()
	if err != nil {
		return nil, err
	}

	if err := cache.write(key, vector); err != nil {
		slog.Default().Warn("failed to cache an embedding",
			slog.String("path", localFilePath),
			slog.Any("error", err),
		)
	}
	return vector, nil
}

// write stores the vector in a temporary file and renames it into place,
// so readers never see a partial entry
func (cache *FileCache) write(key string, vector []float64) error {
	if err := os.MkdirAll(cache.rootDir, 0755); err != nil {
		return fmt.Errorf("os.MkdirAll > %w", err)
	}
	contents, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("json.Marshal > %w", err)
	}

	file, err := os.CreateTemp(cache.rootDir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp > %w", err)
	}
	tempPath := file.Name()
	defer func() {
		_ = os.Remove(tempPath)
	}()

	if _, err := file.Write(contents); err != nil {
		_ = file.Close()
		return fmt.Errorf("file.Write > %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("file.Close > %w", err)
	}
	if err := os.Rename(tempPath, cache.filePath(key)); err != nil {
		return fmt.Errorf("os.Rename > %w", err)
	}
	return nil
}

func (cache *FileCache) read(key string) ([]float64, error) {
	file, err := os.Open(cache.filePath(key))
	if err != nil {
		return nil, fmt.Errorf("os.Open > %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll > %w", err)
	}
	var vector []float64
	if err := json.Unmarshal(contents, &vector); err != nil {
		return nil, fmt.Errorf("json.Unmarshal > %w", err)
	}
	if len(vector) == 0 {
		return nil, errors.New("empty vector")
	}
	return vector, nil
}
