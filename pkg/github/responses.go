package github

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jlrickert/ontokit/pkg/remote"
)

const backendName = "github"

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// errorMessage is the shape of GitHub's error bodies.
type errorMessage struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url,omitempty"`
}

// decodeJSONResponse unmarshals a 2xx response body into v. Any other status
// is converted into a typed error by errorFor.
func decodeJSONResponse[T any](resp *http.Response, op string, path string, sha string, v *T) error {
	if !isSuccess(resp) {
		return errorFor(resp, op, path, sha)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return remote.NewBackendError(
			backendName, op, resp.StatusCode,
			fmt.Sprintf("unexpected response body: %s", err), fmt.Errorf("%w: %w", remote.ErrParse, err), false,
		)
	}
	return nil
}

// errorFor maps a non-2xx response onto the remote error taxonomy. The server
// message is extracted from the body when present, otherwise the status text
// is used.
func errorFor(resp *http.Response, op string, path string, sha string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	message := parseErrorMessage(body)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return remote.NewBackendError(backendName, op, resp.StatusCode, message, remote.ErrNotExist, false)
	case http.StatusConflict, http.StatusPreconditionFailed:
		return remote.NewConflictError(path, sha, message)
	case http.StatusUnprocessableEntity:
		// GitHub answers 422 when a write omits the sha of an existing file.
		if op == "Put" && strings.Contains(message, "sha") {
			return remote.NewConflictError(path, sha, message)
		}
		return remote.NewBackendError(backendName, op, resp.StatusCode, message, remote.ErrInvalid, false)
	case http.StatusForbidden, http.StatusTooManyRequests:
		if wait, limited := rateLimited(resp); limited {
			return &remote.RateLimitError{RetryAfter: wait, Message: message}
		}
	}

	transient := resp.StatusCode >= 500
	return remote.NewBackendError(backendName, op, resp.StatusCode, message, nil, transient)
}

func parseErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var msg errorMessage
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != "" {
		return msg.Message
	}
	return strings.TrimSpace(string(body))
}

// rateLimited reports whether resp is a throttling response and how long the
// server asks the client to wait.
func rateLimited(resp *http.Response) (time.Duration, bool) {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second, true
		}
		return 0, true
	}
	if resp.Header.Get("X-RateLimit-Remaining") == "0" {
		if reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
			wait := time.Until(time.Unix(reset, 0))
			if wait < 0 {
				wait = 0
			}
			return wait, true
		}
		return 0, true
	}
	return 0, resp.StatusCode == http.StatusTooManyRequests
}
