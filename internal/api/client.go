// Package api provides the client for the remote interview-session API.
// The backend owns the wire format; this client covers the three calls the
// session core depends on: start-session, next-question and end-session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"

	"github.com/preptrack/interview-console/internal/metrics"
	"github.com/preptrack/interview-console/internal/types"
	"github.com/preptrack/interview-console/internal/util"
)

const (
	startSessionPath = "/api/interview/start"
	nextQuestionPath = "/api/interview/next"
	endSessionPath   = "/api/interview/end"

	httpTimeout = 30 * time.Second

	// endSessionAttempts bounds the end-session flush retries. The flush
	// carries the violation list and must survive transient backend hiccups.
	endSessionAttempts = 3
)

// End-session retry backoff bounds; variables so tests can shrink them.
var (
	endSessionInitial = 1 * time.Second
	endSessionMax     = 10 * time.Second
)

// ErrSessionExpired indicates the bearer credential was rejected (HTTP 401).
// It is the sole signal distinguishing "expired session" from other
// failures and always routes the caller to re-authentication.
var ErrSessionExpired = errors.New("session expired")

// validate is the shared validator instance for outgoing requests.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Client talks to the remote interview-session API. The base URL is a
// single injected configuration value; no call hardcodes an endpoint host.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given backend base URL. The token
// source supplies the bearer credential attached to every call.
func NewClient(baseURL string, ts oauth2.TokenSource) *Client {
	base := &http.Client{Timeout: httpTimeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: oauth2.NewClient(ctx, ts),
	}
}

// StartSessionRequest carries the interview parameters to the backend.
type StartSessionRequest struct {
	Role                 string   `json:"role" validate:"required,max=200"`
	InterviewType        string   `json:"interview_type" validate:"required,max=100"`
	Duration             int      `json:"duration" validate:"required,gte=1,lte=240"`
	Skills               []string `json:"skills" validate:"required,min=1,dive,max=100"`
	ScheduledInterviewID string   `json:"scheduled_interview_id,omitempty" validate:"omitempty,max=100"`
}

// StartSessionResponse is the backend's reply to a session start.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// NextQuestionRequest submits one answer and asks for the next question.
type NextQuestionRequest struct {
	SessionID            string `json:"session_id" validate:"required"`
	Answer               string `json:"answer" validate:"required"`
	TimeRemaining        int    `json:"time_remaining"`
	ScheduledInterviewID string `json:"scheduled_interview_id,omitempty"`
}

// NextQuestionResponse carries the next question. An empty Question means
// the interview is complete.
type NextQuestionResponse struct {
	Question string `json:"question"`
}

// Complete reports whether the backend signalled interview completion.
func (r *NextQuestionResponse) Complete() bool {
	return r.Question == ""
}

// EndSessionRequest terminates the session and flushes the violation list.
type EndSessionRequest struct {
	SessionID            string            `json:"session_id" validate:"required"`
	Violations           []types.Violation `json:"violations"`
	CredentialID         string            `json:"credential_id,omitempty"`
	ScheduledInterviewID string            `json:"scheduled_interview_id,omitempty"`
}

// StartSession starts a new interview session and returns the session
// identity with the first question.
func (c *Client) StartSession(ctx context.Context, req *StartSessionRequest) (*StartSessionResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, util.WrapError("validate start request", err)
	}

	var resp StartSessionResponse
	if err := c.post(ctx, startSessionPath, req, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("backend returned no session id")
	}
	return &resp, nil
}

// NextQuestion submits an answer and returns the next question, or a
// completion response when the backend omits the question.
func (c *Client) NextQuestion(ctx context.Context, req *NextQuestionRequest) (*NextQuestionResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, util.WrapError("validate answer request", err)
	}

	var resp NextQuestionResponse
	if err := c.post(ctx, nextQuestionPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EndSession terminates the session, flushing accumulated violations.
// Transient failures are retried with exponential backoff; an expired
// credential is not retried.
func (c *Client) EndSession(ctx context.Context, req *EndSessionRequest) error {
	if err := validate.Struct(req); err != nil {
		return util.WrapError("validate end request", err)
	}

	backoff := util.NewBackoff(endSessionInitial, endSessionMax)

	var lastErr error
	for attempt := 1; attempt <= endSessionAttempts; attempt++ {
		lastErr = c.post(ctx, endSessionPath, req, nil)
		if lastErr == nil || errors.Is(lastErr, ErrSessionExpired) {
			return lastErr
		}

		if attempt < endSessionAttempts {
			delay := backoff.Next()
			slog.Warn("end-session flush failed, retrying",
				"attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}

// post sends a JSON request and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.DefaultMetrics.RecordAPIRequest(path, err, time.Since(start).Seconds())
	}()

	body, err := json.Marshal(in)
	if err != nil {
		return util.WrapError("marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return util.WrapError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return util.WrapError("send request", err)
	}
	defer util.SafeCloseFunc(resp.Body, "response body")()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return util.WrapError("decode response", err)
	}
	return nil
}
