package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client is a thin HTTP client for the nabla service API.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// resultDoc mirrors the result JSON returned by the service. It is kept
// as a raw map alongside the typed fields so JSONPath checks can run
// against the exact document the service produced.
type resultDoc struct {
	TaskID   string      `json:"task_id"`
	Mode     string      `json:"mode"`
	Primal   []float64   `json:"primal"`
	Jacobian [][]float64 `json:"jacobian"`
	Error    string      `json:"error"`

	raw any
}

func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// submit posts a task and reports whether it was accepted (or flagged as
// a duplicate, which counts as accepted for the probe's purposes).
func (c *client) submit(ctx context.Context, taskID string, tc Case) error {
	payload := map[string]any{
		"task_id": taskID,
		"exprs":   tc.Exprs,
		"point":   tc.Point,
		"mode":    tc.Mode,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit task: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("submit task: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

// poll fetches the result for a task, retrying until it appears or the
// context expires.
func (c *client) poll(ctx context.Context, taskID string) (resultDoc, error) {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	for {
		doc, ok, err := c.fetch(ctx, taskID)
		if err != nil {
			return resultDoc{}, err
		}
		if ok {
			return doc, nil
		}

		select {
		case <-ctx.Done():
			return resultDoc{}, fmt.Errorf("waiting for result %s: %w", taskID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *client) fetch(ctx context.Context, taskID string) (resultDoc, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return resultDoc{}, false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return resultDoc{}, false, fmt.Errorf("fetch result: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		// Not evaluated yet.
		return resultDoc{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return resultDoc{}, false, fmt.Errorf("fetch result: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resultDoc{}, false, fmt.Errorf("read result: %w", err)
	}

	var doc resultDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return resultDoc{}, false, fmt.Errorf("decode result: %w", err)
	}
	if err := json.Unmarshal(body, &doc.raw); err != nil {
		return resultDoc{}, false, fmt.Errorf("decode result document: %w", err)
	}
	return doc, true, nil
}
