package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// The platform passes every parameter in the URL query string, for POST
// as well as GET, and answers JSON on every endpoint except report/serve.

// do issues one request and decodes the JSON body. The success/message
// envelope is checked before anything else is read: a success=false
// response becomes a *RemoteServiceError regardless of out. Network
// errors propagate unmodified; there are no retries.
func (s *Session) do(ctx context.Context, method, path string, params url.Values, out any) error {
	body, err := s.raw(ctx, method, path, params)
	if err != nil {
		return err
	}

	var env apiResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if !env.Success {
		return &RemoteServiceError{Message: env.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// doText issues one request and returns the body verbatim. Used for the
// report-serve endpoint, which answers raw CSV text rather than JSON.
func (s *Session) doText(ctx context.Context, method, path string, params url.Values) (string, error) {
	body, err := s.raw(ctx, method, path, params)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (s *Session) raw(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := s.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}

	requestsTotal.WithLabelValues(path).Inc()

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return body, nil
}
