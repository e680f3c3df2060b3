package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// doPostJSON performs a POST with a JSON body against an oracle endpoint and
// unmarshals the JSON response. Any transport failure or unexpected status
// is reported as ErrOracleUnavailable.
func doPostJSON[T any](ctx context.Context, hc *http.Client, url, apiKey string, requestBody any) (*T, error) {
	return doRequestJSON[T](ctx, hc, http.MethodPost, url, apiKey, requestBody)
}

// doDelete performs a DELETE against an oracle endpoint, discarding the body.
func doDelete(ctx context.Context, hc *http.Client, url, apiKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return unavailable("could not create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := hc.Do(req)
	if err != nil {
		return unavailable("could not send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return unavailable("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	return nil
}

func doRequestJSON[T any](ctx context.Context, hc *http.Client, method, url, apiKey string, requestBody any) (*T, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, unavailable("could not marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, unavailable("could not create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, unavailable("could not send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, unavailable("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable("could not read response body: %v", err)
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, unavailable("could not unmarshal response: %v", err)
	}
	return &result, nil
}

// readErrorBody reads a truncated error body for diagnostics.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return "<unreadable body>"
	}
	return strings.TrimSpace(string(body))
}
