package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/scoreline/internal/adapters/repository"
	service "github.com/okian/scoreline/internal/app"
	"github.com/okian/scoreline/internal/domain/timeline"
)

func TestError(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want string
		is   []error
	}{
		{"kind", NewKind("api.op", ErrBadRequest), "api.op: bad request", []error{ErrBadRequest}},
		{"wrap", Wrap("api.op", cause), "api.op: boom", []error{cause}},
		{"wrap kind", WrapKind("api.op", ErrBackpressure, cause), "api.op: backpressure: boom", []error{ErrBackpressure, cause}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			for _, target := range tt.is {
				if !errors.Is(tt.err, target) {
					t.Errorf("expected errors.Is(%v, %v)", tt.err, target)
				}
			}
		})
	}

	if Wrap("api.op", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestClassify(t *testing.T) {
	lookup := func(kind error, offset int) error {
		return &timeline.LookupError{Kind: kind, Offset: offset}
	}

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{lookup(timeline.ErrNoSuchTimestamp, 3), http.StatusNotFound, "no_such_timestamp"},
		{lookup(timeline.ErrOutOfRange, 4), http.StatusUnprocessableEntity, "out_of_range"},
		{repository.ErrNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("get: %w", repository.ErrNotFound), http.StatusNotFound, "not_found"},
		{service.ErrPending, http.StatusConflict, "pending"},
		{service.ErrFailed, http.StatusConflict, "failed"},
		{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
		{service.ErrInvalidCount, http.StatusBadRequest, "bad_request"},
		{service.ErrStopped, http.StatusServiceUnavailable, "unavailable"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		if status != tt.status || code != tt.code {
			t.Errorf("classify(%v) = %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
		}
	}
}

func TestMetricsMiddlewareRecordsCode(t *testing.T) {
	var seen string
	h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusUnprocessableEntity, "out_of_range", nil)
		seen = w.(*statusRecorder).code
	}, "score")

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/matches/x/score?offset=9", nil))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	if seen != "out_of_range" {
		t.Errorf("recorded code = %q, want out_of_range", seen)
	}
}

func TestSeverity(t *testing.T) {
	tests := map[string]string{
		"internal_error":    "high",
		"unavailable":       "medium",
		"backpressure":      "medium",
		"no_such_timestamp": "low",
		"http_405":          "low",
	}
	for code, want := range tests {
		if got := severity(code); got != want {
			t.Errorf("severity(%q) = %q, want %q", code, got, want)
		}
	}
}
