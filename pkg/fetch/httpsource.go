package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/illmade-knight/go-fetch/pkg/retry"
)

// NewJSONOperation builds a NetworkOp that GETs url and decodes the JSON
// response body into V. Failures map onto the retry taxonomy: non-2xx
// responses become *retry.HTTPError, undecodable bodies become
// *retry.DecodeError, and transport errors pass through unchanged (an HTTP
// client's url.Error already satisfies net.Error).
//
// A nil client uses http.DefaultClient. Per-attempt timeouts come from the
// context the operation is invoked with, not from the client.
func NewJSONOperation[V any](client *http.Client, url string) NetworkOp[V] {
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context) (V, error) {
		var zero V

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return zero, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return zero, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return zero, &retry.HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
		}

		var data V
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return zero, &retry.DecodeError{Err: err}
		}
		return data, nil
	}
}
