package distance

import (
	"context"
	"distance-batch-service/internal/ports"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Cap on how much of an error body is kept for logs.
const maxErrorBody = 2048

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Unwrap maps a 400 onto the fatal sentinel so errors.Is works across layers.
func (e *httpStatusError) Unwrap() error {
	if e.Code == http.StatusBadRequest {
		return ports.ErrInvalidAPIKey
	}
	return nil
}

func (p *GoogleRoutesProvider) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Goog-Api-Key", p.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// do executes req and turns any non-200 answer into an httpStatusError.
func (p *GoogleRoutesProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := p.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}
