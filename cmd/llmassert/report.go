package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/llmassert/internal/config"
	"github.com/at-ishikawa/llmassert/internal/verdict"
)

var (
	errNoVerdictLog        = errors.New("no verdict log: set verdicts.log_file or verdicts.database in the configuration, or pass --file")
	errLimitWithoutMatcher = errors.New("--limit requires --matcher")
)

// verdictQuery narrows the report to the latest verdicts of one matcher
type verdictQuery struct {
	matcher string
	limit   int
}

func (query verdictQuery) apply(records []verdict.Record) []verdict.Record {
	if query.matcher == "" {
		return records
	}
	return verdict.FilterByMatcher(records, query.matcher, query.limit)
}

func newReportCommand() *cobra.Command {
	var file string
	var failuresOnly bool
	var query verdictQuery

	command := &cobra.Command{
		Use:   "report",
		Short: "Summarize recorded verdicts per assertion",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query.limit > 0 && query.matcher == "" {
				return errLimitWithoutMatcher
			}

			var records []verdict.Record
			if file != "" {
				var err error
				records, err = verdict.NewFileRecorder(file).FindAll(cmd.Context())
				if err != nil {
					return fmt.Errorf("read verdicts: %w", err)
				}
				records = query.apply(records)
			} else {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				records, err = findVerdicts(cmd.Context(), cfg.Verdicts, query)
				if err != nil {
					return err
				}
			}

			printSummaries(cmd.OutOrStdout(), verdict.Summarize(records))
			if failuresOnly {
				printFailures(cmd.OutOrStdout(), records)
			}
			return nil
		},
	}

	command.Flags().StringVar(&file, "file", "", "YAML verdict log, the configured log by default")
	command.Flags().BoolVar(&failuresOnly, "failures", false, "Also list every failed verdict")
	command.Flags().StringVar(&query.matcher, "matcher", "", "Only report verdicts of this matcher, newest first")
	command.Flags().IntVar(&query.limit, "limit", 0, "With --matcher, only the latest N verdicts")
	return command
}

func findVerdicts(ctx context.Context, cfg config.VerdictsConfig, query verdictQuery) ([]verdict.Record, error) {
	if cfg.LogFile != "" {
		records, err := verdict.NewFileRecorder(cfg.LogFile).FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("read verdicts: %w", err)
		}
		return query.apply(records), nil
	}
	if cfg.Database.Host == "" {
		return nil, errNoVerdictLog
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database.Open() > %w", err)
	}
	recorder := verdict.NewDBRecorder(db)
	defer func() {
		_ = recorder.Close()
	}()

	var records []verdict.Record
	if query.matcher != "" {
		records, err = recorder.FindByMatcher(ctx, query.matcher, query.limit)
	} else {
		records, err = recorder.FindAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("read verdicts: %w", err)
	}
	return records, nil
}

func printSummaries(out io.Writer, summaries []verdict.Summary) {
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No verdicts recorded.")
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "MATCHER\tTOTAL\tPASSED\tFAILED\tERRORED\tMEAN SCORE")
	for _, summary := range summaries {
		meanScore := "-"
		if summary.MeanScore != nil {
			meanScore = fmt.Sprintf("%.4f", *summary.MeanScore)
		}
		fmt.Fprintf(writer, "%s\t%d\t%s\t%s\t%s\t%s\n",
			summary.Matcher,
			summary.Total,
			green.Sprint(summary.Passed),
			red.Sprint(summary.Failed),
			yellow.Sprint(summary.Errored),
			meanScore,
		)
	}
	_ = writer.Flush()
}

func printFailures(out io.Writer, records []verdict.Record) {
	bold := color.New(color.Bold)
	for _, record := range records {
		if !record.Failed() {
			continue
		}
		fmt.Fprintln(out)
		_, _ = bold.Fprintf(out, "%s %s", record.RecordedAt.Format("2006-01-02T15:04:05Z07:00"), record.Matcher)
		if record.TestName != "" {
			fmt.Fprintf(out, " (%s)", record.TestName)
		}
		fmt.Fprintln(out)
		if record.ErrorMessage != "" {
			fmt.Fprintf(out, "  error: %s\n", record.ErrorMessage)
			continue
		}
		fmt.Fprintf(out, "  received: %q\n  expected: %q\n", record.Received, record.Expected)
		if record.Negated {
			fmt.Fprintln(out, "  negated: true")
		}
	}
}
