package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/petrijr/expressflow/pkg/api"
)

const maxResponseBytes = 1 << 20

// HTTPInvoker runs a task behind an HTTP endpoint. The payload is POSTed as
// JSON and the response body must be {"status": ..., "value": ...}.
type HTTPInvoker struct {
	URL    string
	Client *http.Client
	Header http.Header
}

var _ api.Invoker = (*HTTPInvoker)(nil)

// NewHTTPInvoker returns an HTTPInvoker using http.DefaultClient.
func NewHTTPInvoker(url string) *HTTPInvoker {
	return &HTTPInvoker{URL: url}
}

func (h *HTTPInvoker) Invoke(ctx context.Context, in api.Payload) (api.TaskResult, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return api.TaskResult{}, fmt.Errorf("encode task input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return api.TaskResult{}, err
	}
	for k, vs := range h.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return api.TaskResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return api.TaskResult{}, fmt.Errorf("read task response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return api.TaskResult{}, fmt.Errorf("task endpoint returned %s", resp.Status)
	}

	var res api.TaskResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return api.TaskResult{}, fmt.Errorf("decode task response: %w", err)
	}
	if !res.Status.Valid() {
		return api.TaskResult{}, errors.New("task response has no status")
	}
	return res, nil
}
