package distance

import (
	"context"
	"distance-batch-service/internal/ports"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *GoogleRoutesProvider {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	p, err := NewGoogleRoutesProvider("test-key", WithBaseURL(srv.URL), WithTimeout(2*time.Second))
	require.NoError(t, err)
	return p
}

func TestGoogleRoutesGetDistance(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, matrixPath, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Equal(t, fieldMask, r.Header.Get("X-Goog-FieldMask"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body matrixRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		if !assert.Len(t, body.Origins, 1) || !assert.Len(t, body.Destinations, 1) {
			return
		}
		assert.Equal(t, "SW1A 1AA", body.Origins[0].Waypoint.Address)
		assert.Equal(t, "EC1A 1BB", body.Destinations[0].Waypoint.Address)
		assert.Equal(t, "DRIVE", body.TravelMode)
		assert.Equal(t, "TRAFFIC_UNAWARE", body.RoutingPreference)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"originIndex":0,"destinationIndex":0,"status":{},"distanceMeters":9300,"duration":"930s"}]`))
	})

	res, err := p.GetDistance(context.Background(), "SW1A 1AA", "EC1A 1BB")
	require.NoError(t, err)
	require.NotNil(t, res.DistanceMeters)
	require.NotNil(t, res.DurationSeconds)
	assert.Equal(t, 9300, *res.DistanceMeters)
	assert.Equal(t, 930.0, *res.DurationSeconds)
}

func TestGoogleRoutesMissingFields(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"originIndex":0,"destinationIndex":0}]`))
	})

	res, err := p.GetDistance(context.Background(), "A", "B")
	require.NoError(t, err)
	assert.Nil(t, res.DistanceMeters)
	assert.Nil(t, res.DurationSeconds)
}

func TestGoogleRoutesZeroDistanceIsKept(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"status":"OK","distanceMeters":0,"duration":"0s"}]`))
	})

	res, err := p.GetDistance(context.Background(), "A", "A")
	require.NoError(t, err)
	require.NotNil(t, res.DistanceMeters)
	assert.Equal(t, 0, *res.DistanceMeters)
	require.NotNil(t, res.DurationSeconds)
	assert.Equal(t, 0.0, *res.DurationSeconds)
}

func TestGoogleRoutesBadRequestIsInvalidKey(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":400,"message":"API key not valid"}}`, http.StatusBadRequest)
	})

	_, err := p.GetDistance(context.Background(), "A", "B")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidAPIKey)
}

func TestGoogleRoutesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"forbidden", http.StatusForbidden, `{}`},
		{"empty array", http.StatusOK, `[]`},
		{"not an array", http.StatusOK, `{"distanceMeters":1}`},
		{"element status", http.StatusOK, `[{"status":{"code":5,"message":"NOT_FOUND"}}]`},
		{"string status", http.StatusOK, `[{"status":"ROUTE_NOT_FOUND"}]`},
		{"bad duration", http.StatusOK, `[{"distanceMeters":1,"duration":"soon"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := p.GetDistance(context.Background(), "A", "B")
			require.Error(t, err)
			assert.NotErrorIs(t, err, ports.ErrInvalidAPIKey)
		})
	}
}

func TestGoogleRoutesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	p, err := NewGoogleRoutesProvider("k", WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = p.GetDistance(context.Background(), "A", "B")
	require.Error(t, err)
}

func TestNewGoogleRoutesProviderRequiresKey(t *testing.T) {
	_, err := NewGoogleRoutesProvider("  ")
	assert.Error(t, err)
}

func TestParseSeconds(t *testing.T) {
	got, err := parseSeconds("930s")
	require.NoError(t, err)
	assert.Equal(t, 930.0, got)

	got, err = parseSeconds("26.9s")
	require.NoError(t, err)
	assert.InDelta(t, 26.9, got, 1e-9)

	_, err = parseSeconds("930")
	assert.Error(t, err)
}
