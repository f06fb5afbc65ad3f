package distance

import (
	"cmp"
	"context"
	"distance-batch-service/internal/platform/obs"
	"distance-batch-service/internal/ports"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://routes.googleapis.com"
	matrixPath     = "/distanceMatrix/v2:computeRouteMatrix"
	fieldMask      = "originIndex,destinationIndex,duration,distanceMeters,status"
)

// GoogleRoutesProvider implements DistanceProvider using the Google Routes
// computeRouteMatrix endpoint with a single origin and destination.
//
// Every GetDistance call is exactly one HTTP request. The provider does not
// retry; callers wrap it in a retry.Policy. It is safe for concurrent use.
type GoogleRoutesProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

type Option func(p *GoogleRoutesProvider)

func WithHTTPClient(c *http.Client) Option {
	return func(p *GoogleRoutesProvider) {
		p.session = c
	}
}

func WithBaseURL(u string) Option {
	return func(p *GoogleRoutesProvider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout bounds a single request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(p *GoogleRoutesProvider) {
		p.timeout = d
	}
}

// WithRateLimiter makes every request wait for a token first.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(p *GoogleRoutesProvider) {
		p.limiter = l
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *GoogleRoutesProvider) {
		p.logger = l
	}
}

func NewGoogleRoutesProvider(apiKey string, opts ...Option) (*GoogleRoutesProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google routes api key is empty")
	}

	p := &GoogleRoutesProvider{apiKey: apiKey}
	for _, opt := range opts {
		opt(p)
	}

	p.baseURL = cmp.Or(p.baseURL, defaultBaseURL)
	p.timeout = cmp.Or(p.timeout, 10*time.Second)
	p.session = cmp.Or(p.session, &http.Client{})
	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	return p, nil
}

// GetDistance resolves one pair with a single request.
//
// A 400 response is reported as ports.ErrInvalidAPIKey. Everything else that
// is not a usable 200 answer (other status codes, transport errors, malformed
// bodies, an empty array, a non-OK element status) is returned as an ordinary
// error for the caller's retry policy to judge.
func (p *GoogleRoutesProvider) GetDistance(
	ctx context.Context,
	origin string,
	destination string,
) (_ ports.DistanceResult, err error) {
	defer obs.Time(ctx, p.logger, "routes.GetDistance")(&err)

	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return ports.DistanceResult{}, errors.New("get route distance: origin and destination must be non-empty")
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return ports.DistanceResult{}, fmt.Errorf("get route distance: rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	element, err := p.fetchMatrixElement(ctx, origin, destination)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("get route distance %q -> %q: %w", origin, destination, err)
	}

	result, err := element.toResult()
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("get route distance %q -> %q: %w", origin, destination, err)
	}

	return result, nil
}
