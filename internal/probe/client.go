package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/timeline"
	"github.com/okian/scoreline/internal/fixture"
)

// ErrUnexpectedStatus is returned when the server answers outside its contract.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client talks to the scoreline HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Health checks that /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: healthz %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// Import uploads tl as a YAML fixture and returns the match id.
func (c *Client) Import(ctx context.Context, name string, tl *timeline.Timeline) (string, bool, error) {
	var body bytes.Buffer
	if err := fixture.Encode(&body, name, tl); err != nil {
		return "", false, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/matches/import", "application/yaml", &body)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", false, statusError("import", resp)
	}
	var out struct {
		MatchID   string `json:"match_id"`
		Duplicate bool   `json:"duplicate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("decode import response: %w", err)
	}
	return out.MatchID, out.Duplicate, nil
}

// Score asks the server for the score at offset and maps the answer to an
// Outcome. Lookup misses are outcomes, not errors.
func (c *Client) Score(ctx context.Context, matchID string, offset int) (Outcome, error) {
	path := "/matches/" + url.PathEscape(matchID) + "/score?offset=" + strconv.Itoa(offset)
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return Outcome{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			Home int `json:"home"`
			Away int `json:"away"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return Outcome{}, fmt.Errorf("decode score response: %w", err)
		}
		return Outcome{Code: OutcomeOK, Score: model.Score{Home: out.Home, Away: out.Away}}, nil
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		code := errorCode(resp)
		if code == OutcomeNoSuchTimestamp || code == OutcomeOutOfRange {
			return Outcome{Code: code}, nil
		}
		return Outcome{}, fmt.Errorf("%w: score %d %s", ErrUnexpectedStatus, resp.StatusCode, code)
	default:
		return Outcome{}, statusError("score", resp)
	}
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func errorCode(resp *http.Response) string {
	var out struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ""
	}
	return out.Code
}

func statusError(op string, resp *http.Response) error {
	return fmt.Errorf("%w: %s %d %s", ErrUnexpectedStatus, op, resp.StatusCode, errorCode(resp))
}

// LocalOutcome answers offset from tl directly.
func LocalOutcome(tl *timeline.Timeline, offset int) Outcome {
	return outcomeOf(tl.ScoreAt(offset))
}

func outcomeOf(score model.Score, err error) Outcome {
	switch {
	case timeline.IsOutOfRange(err):
		return Outcome{Code: OutcomeOutOfRange}
	case timeline.IsNoSuchTimestamp(err):
		return Outcome{Code: OutcomeNoSuchTimestamp}
	default:
		return Outcome{Code: OutcomeOK, Score: score}
	}
}
