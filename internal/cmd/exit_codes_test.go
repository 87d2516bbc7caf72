package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/spf13/pflag"

	apibind "github.com/apibind/apibind"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"help", pflag.ErrHelp, exitOK},
		{"generic", errors.New("boom"), exitGeneric},
		{"unauthorized", &apibind.APIError{StatusCode: 401}, exitAuth},
		{"forbidden", &apibind.APIError{StatusCode: 403}, exitForbidden},
		{"not found", &apibind.APIError{StatusCode: 404}, exitNotFound},
		{"too many requests", &apibind.APIError{StatusCode: 429}, exitRateLimited},
		{"server error", &apibind.APIError{StatusCode: 502}, exitServer},
		{"bad request", &apibind.APIError{StatusCode: 400}, exitUsage},
		{"unprocessable", &apibind.APIError{StatusCode: 422}, exitUsage},
		{"other 4xx", &apibind.APIError{StatusCode: 409}, exitGeneric},
		{"rate limit", &apibind.RateLimitError{RetryAfter: time.Second}, exitRateLimited},
		{"circuit open", &apibind.CircuitBreakerError{}, exitServer},
		{"invalid definition", &apibind.InvalidDefinitionError{Name: "x", Reason: "bad"}, exitUsage},
		{"illegal method", &apibind.IllegalMethodError{Method: "FETCH"}, exitUsage},
		{"wrapped api error", fmt.Errorf("call failed: %w", &apibind.APIError{StatusCode: 404}), exitNotFound},
		{"usage text", errors.New("unknown flag: --zap"), exitUsage},
		{"deadline", context.DeadlineExceeded, exitNetwork},
		{"url error", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}, exitNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
