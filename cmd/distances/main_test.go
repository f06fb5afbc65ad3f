package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoutes struct {
	srv   *httptest.Server
	calls atomic.Int32
}

// newFakeRoutes answers every matrix request with a 9.3 km / 15.5 min element,
// or with badStatus when set.
func newFakeRoutes(t *testing.T, badStatus int) *fakeRoutes {
	t.Helper()

	f := &fakeRoutes{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if badStatus != 0 {
			http.Error(w, `{"error":{"code":400}}`, badStatus)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"originIndex":0,"destinationIndex":0,"distanceMeters":9300,"duration":"930s"}]`))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func baseArgs(t *testing.T, url string) []string {
	t.Helper()
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("CONFIG_FILE", "")

	return []string{
		"--api-key", "test-key",
		"--base-url", url,
		"--retry-delay", "0s",
		"--log-level", "error",
	}
}

func TestRunWritesTableAndCSV(t *testing.T) {
	routes := newFakeRoutes(t, 0)
	out := filepath.Join(t.TempDir(), "out.csv")

	args := append(baseArgs(t, routes.srv.URL), "--input", "-", "--output", out)
	stdin := strings.NewReader("SW1A 1AA,EC1A 1BB\nbad line\nM1 1AE,L1 8JQ\n")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), args, stdin, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	assert.Equal(t, int32(2), routes.calls.Load())
	assert.Contains(t, stdout.String(), "SW1A 1AA")
	assert.Contains(t, stdout.String(), "Completed 2 requests.")
	assert.Contains(t, stdout.String(), "Estimated API cost: $0.01 USD")
	assert.Contains(t, stderr.String(), "Processed 2/2 (100%)")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"Origin,Destination,Distance (km),Duration (mins)\n"+
			"SW1A 1AA,EC1A 1BB,9.3,15.5\n"+
			"M1 1AE,L1 8JQ,9.3,15.5\n",
		string(b))
}

func TestRunUsesDefaultPairs(t *testing.T) {
	routes := newFakeRoutes(t, 0)
	out := filepath.Join(t.TempDir(), "out.csv")

	args := append(baseArgs(t, routes.srv.URL), "--output", out)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	assert.Equal(t, int32(3), routes.calls.Load())
	assert.Contains(t, stdout.String(), "BS1 4ST")
	assert.Contains(t, stdout.String(), "Completed 3 requests.")
}

func TestRunAbortsOnInvalidKey(t *testing.T) {
	routes := newFakeRoutes(t, http.StatusBadRequest)
	out := filepath.Join(t.TempDir(), "out.csv")

	args := append(baseArgs(t, routes.srv.URL), "--output", out)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, exitAborted, code)

	assert.Equal(t, int32(1), routes.calls.Load())
	assert.Contains(t, stderr.String(), "invalid API key")
	assert.Contains(t, stdout.String(), "Completed 0 requests.")
	assert.NoFileExists(t, out)
}

func TestRunRequiresAPIKey(t *testing.T) {
	args := baseArgs(t, "http://127.0.0.1:1")[2:]
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "API key is required")
}

func TestReadInput(t *testing.T) {
	text, err := readInput("", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultInput, text)

	text, err = readInput("-", strings.NewReader("A,B"))
	require.NoError(t, err)
	assert.Equal(t, "A,B", text)

	path := filepath.Join(t.TempDir(), "pairs.txt")
	require.NoError(t, os.WriteFile(path, []byte("C,D\n"), 0o600))
	text, err = readInput(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "C,D\n", text)

	_, err = readInput(filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Error(t, err)
}
