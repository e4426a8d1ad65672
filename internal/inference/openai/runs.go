package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/llmassert/internal/inference"
	"github.com/avast/retry-go"
)

const assistantsBetaHeader = "assistants=v2"

// errRunInFlight is returned by a poll attempt while the run can still change state
var errRunInFlight = errors.New("run is still in flight")

// GetRun retrieves the current state of an assistants run
func (client *Client) GetRun(ctx context.Context, threadID, runID string) (*inference.Run, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetHeader("OpenAI-Beta", assistantsBetaHeader).
		SetPathParams(map[string]string{
			"threadID": threadID,
			"runID":    runID,
		}).
		SetResult(&inference.Run{}).
		Get("/threads/{threadID}/runs/{runID}")
	if err != nil {
		return nil, fmt.Errorf("httpClient.Get > %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	run, ok := response.Result().(*inference.Run)
	if !ok || run == nil || run.ID == "" {
		return nil, fmt.Errorf("unexpected run response: %s", response.String())
	}
	return run, nil
}

// PollRun implements the inference.RunPoller interface.
// It keeps fetching the run while it is queued, in progress or cancelling.
func (client *Client) PollRun(ctx context.Context, threadID, runID string) (*inference.Run, error) {
	var run *inference.Run
	err := retry.Do(
		func() error {
			current, err := client.GetRun(ctx, threadID, runID)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			run = current
			if current.Status.IsInFlight() {
				return errRunInFlight
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxPollCount),
		retry.Delay(client.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Default().Debug("polling assistants run",
				"threadID", threadID,
				"runID", runID,
				"attempt", n+1,
				"error", err)
		}),
	)
	if errors.Is(err, errRunInFlight) {
		return nil, fmt.Errorf("run %s is still %s after %d polls", runID, run.Status, client.maxPollCount)
	}
	if err != nil {
		return nil, fmt.Errorf("poll run %s > %w", runID, err)
	}
	return run, nil
}
