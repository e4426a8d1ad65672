// Package verdict keeps a log of assertion outcomes so unstable LLM assertions can be reviewed later.
package verdict

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/at-ishikawa/llmassert/internal/config"
	"github.com/at-ishikawa/llmassert/internal/database"
)

// Record is one evaluated assertion
type Record struct {
	ID       int64  `db:"id" yaml:"-"`
	Matcher  string `db:"matcher" yaml:"matcher"`
	Negated  bool   `db:"negated" yaml:"negated,omitempty"`
	Model    string `db:"model" yaml:"model,omitempty"`
	Received string `db:"received" yaml:"received"`
	Expected string `db:"expected" yaml:"expected"`
	Pass     bool   `db:"pass" yaml:"pass"`
	// Score is set by embedding based matchers
	Score        *float64  `db:"score" yaml:"score,omitempty"`
	ErrorMessage string    `db:"error_message" yaml:"error,omitempty"`
	TestName     string    `db:"test_name" yaml:"test,omitempty"`
	RecordedAt   time.Time `db:"recorded_at" yaml:"recorded_at"`
	CreatedAt    time.Time `db:"created_at" yaml:"-"`
}

// Failed reports whether the assertion failed, including provider errors
func (record Record) Failed() bool {
	return record.ErrorMessage != "" || record.Pass == record.Negated
}

type Recorder interface {
	Record(ctx context.Context, record Record) error
	Close() error
}

type Reader interface {
	FindAll(ctx context.Context) ([]Record, error)
}

type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Record) error { return nil }
func (NopRecorder) Close() error                         { return nil }

// MultiRecorder writes each record to every recorder
type MultiRecorder []Recorder

func (recorders MultiRecorder) Record(ctx context.Context, record Record) error {
	var errs []error
	for _, recorder := range recorders {
		if err := recorder.Record(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (recorders MultiRecorder) Close() error {
	var errs []error
	for _, recorder := range recorders {
		if err := recorder.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewRecorderFromConfig builds the recorders enabled in cfg, or a NopRecorder when none is
func NewRecorderFromConfig(ctx context.Context, cfg config.VerdictsConfig) (Recorder, error) {
	var recorders MultiRecorder
	if cfg.LogFile != "" {
		recorders = append(recorders, NewFileRecorder(cfg.LogFile))
	}
	if cfg.Database.Host != "" {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database.Open() > %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("database.Migrate() > %w", err)
		}
		recorders = append(recorders, NewDBRecorder(db))
	}

	switch len(recorders) {
	case 0:
		return NopRecorder{}, nil
	case 1:
		return recorders[0], nil
	}
	return recorders, nil
}

// FilterByMatcher returns the records of one matcher, newest first, keeping at most limit
// of them when limit is positive. records are expected in the order they were recorded.
func FilterByMatcher(records []Record, matcher string, limit int) []Record {
	var filtered []Record
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Matcher != matcher {
			continue
		}
		filtered = append(filtered, records[i])
		if limit > 0 && len(filtered) == limit {
			break
		}
	}
	return filtered
}

// Summary aggregates the records of one matcher
type Summary struct {
	Matcher string
	Total   int
	Passed  int
	Failed  int
	Errored int
	// MeanScore is the average of the recorded scores, or nil when no record has one
	MeanScore *float64
}

// Summarize groups records by matcher, sorted by matcher name
func Summarize(records []Record) []Summary {
	byMatcher := make(map[string]*Summary)
	scoreSums := make(map[string]float64)
	scoreCounts := make(map[string]int)

	for _, record := range records {
		summary, ok := byMatcher[record.Matcher]
		if !ok {
			summary = &Summary{Matcher: record.Matcher}
			byMatcher[record.Matcher] = summary
		}
		summary.Total++
		switch {
		case record.ErrorMessage != "":
			summary.Errored++
		case record.Failed():
			summary.Failed++
		default:
			summary.Passed++
		}
		if record.Score != nil {
			scoreSums[record.Matcher] += *record.Score
			scoreCounts[record.Matcher]++
		}
	}

	summaries := make([]Summary, 0, len(byMatcher))
	for matcher, summary := range byMatcher {
		if count := scoreCounts[matcher]; count > 0 {
			mean := scoreSums[matcher] / float64(count)
			summary.MeanScore = &mean
		}
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Matcher < summaries[j].Matcher
	})
	return summaries
}
