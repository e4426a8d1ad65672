package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/llmassert/internal/testutil"
	"github.com/at-ishikawa/llmassert/internal/verdict"
)

func writeVerdicts(t *testing.T, records ...verdict.Record) string {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "verdicts.yml")
	recorder := verdict.NewFileRecorder(logFile)
	for _, record := range records {
		require.NoError(t, recorder.Record(context.Background(), record))
	}
	return logFile
}

func TestNewReportCommand(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	recordedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	score := 0.5
	logFile := writeVerdicts(t,
		verdict.Record{Matcher: "SatisfyStatement", Received: "Hello", Expected: "It asks a question.", Pass: true, RecordedAt: recordedAt},
		verdict.Record{Matcher: "SemanticallyMatch", Received: "Hello", Expected: "Bye", Score: &score, TestName: "TestGreeting", RecordedAt: recordedAt},
		verdict.Record{Matcher: "SatisfyStatement", ErrorMessage: "client.Judge > response error 429", RecordedAt: recordedAt},
	)

	tests := []struct {
		name       string
		args       []string
		setup      func(t *testing.T)
		wantErr    string
		wantOutput string
	}{
		{
			name: "file flag",
			args: []string{"--file", logFile},
			wantOutput: "MATCHER            TOTAL  PASSED  FAILED  ERRORED  MEAN SCORE\n" +
				"SatisfyStatement   2      1       0       1        -\n" +
				"SemanticallyMatch  1      0       1       0        0.5000\n",
		},
		{
			name: "failures",
			args: []string{"--file", logFile, "--failures"},
			wantOutput: "MATCHER            TOTAL  PASSED  FAILED  ERRORED  MEAN SCORE\n" +
				"SatisfyStatement   2      1       0       1        -\n" +
				"SemanticallyMatch  1      0       1       0        0.5000\n" +
				"\n2025-01-01T12:00:00Z SemanticallyMatch (TestGreeting)\n" +
				"  received: \"Hello\"\n  expected: \"Bye\"\n" +
				"\n2025-01-01T12:00:00Z SatisfyStatement\n" +
				"  error: client.Judge > response error 429\n",
		},
		{
			name: "configured log file",
			setup: func(t *testing.T) {
				testutil.ClearProviderEnv(t)
				setConfigFile(t, testutil.WriteConfigFile(t, "verdicts:\n  log_file: "+logFile+"\n"))
			},
			wantOutput: "MATCHER            TOTAL  PASSED  FAILED  ERRORED  MEAN SCORE\n" +
				"SatisfyStatement   2      1       0       1        -\n" +
				"SemanticallyMatch  1      0       1       0        0.5000\n",
		},
		{
			name: "one matcher",
			args: []string{"--file", logFile, "--matcher", "SatisfyStatement"},
			wantOutput: "MATCHER           TOTAL  PASSED  FAILED  ERRORED  MEAN SCORE\n" +
				"SatisfyStatement  2      1       0       1        -\n",
		},
		{
			name: "latest verdict of one matcher",
			args: []string{"--file", logFile, "--matcher", "SatisfyStatement", "--limit", "1", "--failures"},
			wantOutput: "MATCHER           TOTAL  PASSED  FAILED  ERRORED  MEAN SCORE\n" +
				"SatisfyStatement  1      0       0       1        -\n" +
				"\n2025-01-01T12:00:00Z SatisfyStatement\n" +
				"  error: client.Judge > response error 429\n",
		},
		{
			name:    "limit without matcher",
			args:    []string{"--file", logFile, "--limit", "1"},
			wantErr: errLimitWithoutMatcher.Error(),
		},
		{
			name:       "empty log",
			args:       []string{"--file", filepath.Join(t.TempDir(), "missing.yml")},
			wantOutput: "No verdicts recorded.\n",
		},
		{
			name: "nothing configured",
			setup: func(t *testing.T) {
				testutil.ClearProviderEnv(t)
				setConfigFile(t, testutil.WriteConfigFile(t, "similarity:\n  default_rank: high\n"))
			},
			wantErr: errNoVerdictLog.Error(),
		},
		{
			name: "config error",
			setup: func(t *testing.T) {
				setConfigFile(t, setupBrokenConfigFile(t))
			},
			wantErr: "load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup(t)
			}

			var out bytes.Buffer
			cmd := newReportCommand()
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, out.String())
		})
	}
}

var verdictColumns = []string{
	"id", "matcher", "negated", "model", "received", "expected", "pass",
	"score", "error_message", "test_name", "recorded_at", "created_at",
}

func TestNewReportCommand_Database(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	recordedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		args       []string
		setupMock  func(mock sqlmock.Sqlmock)
		wantErr    string
		wantOutput string
	}{
		{
			name: "all verdicts",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM verdicts ORDER BY recorded_at, id").
					WillReturnRows(sqlmock.NewRows(verdictColumns).
						AddRow(1, "BeFactual", false, "gpt-4-turbo", "The sky is blue.", "to be factual", true, nil, "", "", recordedAt, recordedAt).
						AddRow(2, "MatchExactly", false, "", "Bob", "Alice", false, nil, "", "", recordedAt, recordedAt))
				mock.ExpectClose()
			},
			wantOutput: "MATCHER       TOTAL  PASSED  FAILED  ERRORED  MEAN SCORE\n" +
				"BeFactual     1      1       0       0        -\n" +
				"MatchExactly  1      0       1       0        -\n",
		},
		{
			name: "latest verdicts of one matcher",
			args: []string{"--matcher", "BeFactual", "--limit", "2"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM verdicts WHERE matcher = \\? ORDER BY recorded_at DESC, id DESC LIMIT \\?").
					WithArgs("BeFactual", 2).
					WillReturnRows(sqlmock.NewRows(verdictColumns).
						AddRow(3, "BeFactual", false, "gpt-4-turbo", "The sky is green.", "to be factual", false, nil, "", "", recordedAt, recordedAt).
						AddRow(1, "BeFactual", false, "gpt-4-turbo", "The sky is blue.", "to be factual", true, nil, "", "", recordedAt, recordedAt))
				mock.ExpectClose()
			},
			wantOutput: "MATCHER    TOTAL  PASSED  FAILED  ERRORED  MEAN SCORE\n" +
				"BeFactual  2      1       1       0        -\n",
		},
		{
			name: "query error",
			args: []string{"--matcher", "BeFactual"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM verdicts WHERE matcher = \\?").
					WithArgs("BeFactual").
					WillReturnError(assert.AnError)
				mock.ExpectClose()
			},
			wantErr: "read verdicts: db.SelectContext(verdicts by matcher)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := setupMockDatabase(t)
			tt.setupMock(mock)

			var out bytes.Buffer
			cmd := newReportCommand()
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOutput, out.String())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
