package imgla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/httpclient"
	"github.com/kbukum/imgkit/logger"
	"github.com/kbukum/imgkit/observability"
	"github.com/kbukum/imgkit/storage"
	"github.com/kbukum/imgkit/validation"
)

// deleteCandidate is one API shape that may remove an image.
type deleteCandidate struct {
	name string
	path string
	body any
	// only204 rejects every status other than 204.
	only204 bool
}

func deleteCandidates(remoteKey int64) []deleteCandidate {
	ids := []int64{remoteKey}
	return []deleteCandidate{
		{name: "v2 bulk", path: "/api/v2/user/photos", body: ids, only204: true},
		{name: "v1 bulk", path: "/api/v1/user/photos", body: ids},
		{name: "v1 single", path: "/api/v1/images/" + strconv.FormatInt(remoteKey, 10)},
	}
}

// DeleteAttempt is the outcome of one candidate.
type DeleteAttempt struct {
	Endpoint string `json:"endpoint"`
	Status   int    `json:"status,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Delete removes the image with remoteKey, trying each known endpoint in
// order until one confirms. It returns the endpoint that succeeded. When
// every candidate fails the error lists each attempt.
func (c *Client) Delete(ctx context.Context, remoteKey int64) (string, error) {
	if err := validation.New().NonZero("remoteKey", remoteKey).Validate(); err != nil {
		return "", err
	}

	var attempts []DeleteAttempt
	for _, cand := range deleteCandidates(remoteKey) {
		status, reason := c.tryDelete(ctx, cand)
		var attemptErr error
		if reason != "" {
			attemptErr = fmt.Errorf("%s", reason)
		}
		c.opts.Metrics.RecordDeleteAttempt(ctx, cand.path, attemptErr)

		if reason == "" {
			c.log.Debug("image deleted", logger.Fields(
				"remote_key", remoteKey,
				logger.FieldEndpoint, cand.path,
			))
			return cand.path, nil
		}

		c.log.Warn("delete candidate failed", logger.Fields(
			"remote_key", remoteKey,
			logger.FieldEndpoint, cand.path,
			logger.FieldStatus, status,
			"reason", reason,
		))
		observability.AddSpanEvent(ctx, "delete candidate failed",
			"endpoint", cand.path,
			"reason", reason,
		)
		attempts = append(attempts, DeleteAttempt{Endpoint: cand.path, Status: status, Reason: reason})

		if ctx.Err() != nil {
			break
		}
	}

	parts := make([]string, len(attempts))
	for i, a := range attempts {
		parts[i] = a.Endpoint + ": " + a.Reason
	}
	return "", errors.Protocol("imgla delete", 0, "every endpoint failed: "+strings.Join(parts, "; ")).
		WithDetail("attempts", attempts)
}

// tryDelete sends one candidate and returns the status plus a failure
// reason, which is empty on success.
func (c *Client) tryDelete(ctx context.Context, cand deleteCandidate) (int, string) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodDelete,
		Path:    cand.path,
		Body:    cand.body,
		Timeout: c.opts.DeleteTimeout,
	})
	if resp == nil {
		return 0, errors.Message(storage.HTTPError("imgla delete", err))
	}
	return resp.StatusCode, deleteFailure(resp, cand.only204)
}

// deleteFailure applies the success rule: 204, or a 2xx whose non-empty
// JSON body has status true. A 2xx HTML page, typically a login redirect
// for a stale token, is a failure.
func deleteFailure(resp *httpclient.Response, only204 bool) string {
	if resp.StatusCode == http.StatusNoContent {
		return ""
	}
	if only204 {
		return fmt.Sprintf("HTTP %d, expected 204", resp.StatusCode)
	}
	if !resp.IsSuccess() {
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, storage.BodyReason(resp.Body))
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return fmt.Sprintf("HTTP %d with empty body", resp.StatusCode)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Sprintf("HTTP %d with non-JSON body", resp.StatusCode)
	}
	if env.Status == nil {
		return "response has no status field"
	}
	if !*env.Status {
		return env.reason()
	}
	return ""
}
