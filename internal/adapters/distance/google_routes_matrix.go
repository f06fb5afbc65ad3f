package distance

import (
	"bytes"
	"context"
	"distance-batch-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type waypoint struct {
	Waypoint struct {
		Address string `json:"address"`
	} `json:"waypoint"`
}

type matrixRequest struct {
	Origins           []waypoint `json:"origins"`
	Destinations      []waypoint `json:"destinations"`
	TravelMode        string     `json:"travelMode"`
	RoutingPreference string     `json:"routingPreference"`
}

// matrixElement is one entry of the computeRouteMatrix response array.
// Status is kept raw: the API sends a google.rpc.Status object, while older
// answers and proxies have been seen sending a plain string.
type matrixElement struct {
	OriginIndex      *int            `json:"originIndex"`
	DestinationIndex *int            `json:"destinationIndex"`
	Status           json.RawMessage `json:"status"`
	DistanceMeters   *int            `json:"distanceMeters"`
	Duration         *string         `json:"duration"`
}

type rpcStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var errEmptyMatrix = errors.New("invalid response structure: empty element list")

func newWaypoint(address string) waypoint {
	var w waypoint
	w.Waypoint.Address = address
	return w
}

// fetchMatrixElement requests the 1x1 matrix and returns its only element.
func (p *GoogleRoutesProvider) fetchMatrixElement(
	ctx context.Context,
	origin string,
	destination string,
) (matrixElement, error) {
	bodyObj := matrixRequest{
		Origins:           []waypoint{newWaypoint(origin)},
		Destinations:      []waypoint{newWaypoint(destination)},
		TravelMode:        "DRIVE",
		RoutingPreference: "TRAFFIC_UNAWARE",
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return matrixElement{}, fmt.Errorf("marshal matrix request: %w", err)
	}

	req, err := p.newRequest(ctx, http.MethodPost, p.baseURL+matrixPath, bytes.NewReader(payload))
	if err != nil {
		return matrixElement{}, err
	}

	resp, err := p.do(req)
	if err != nil {
		return matrixElement{}, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var elements []matrixElement
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return matrixElement{}, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(elements) == 0 {
		return matrixElement{}, errEmptyMatrix
	}

	return elements[0], nil
}

// statusOK accepts an absent, null, empty, {} or "OK" status, and an
// rpc status whose code is 0.
func (e matrixElement) statusOK() (bool, string) {
	raw := bytes.TrimSpace(e.Status)
	if len(raw) == 0 || string(raw) == "null" {
		return true, ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s == "" || s == "OK", s
	}

	var st rpcStatus
	if err := json.Unmarshal(raw, &st); err == nil {
		if st.Code == 0 {
			return true, ""
		}
		return false, fmt.Sprintf("code=%d message=%s", st.Code, st.Message)
	}

	return false, string(raw)
}

func (e matrixElement) toResult() (ports.DistanceResult, error) {
	if ok, status := e.statusOK(); !ok {
		return ports.DistanceResult{}, fmt.Errorf("api error: %s", status)
	}

	result := ports.DistanceResult{DistanceMeters: e.DistanceMeters}

	if e.Duration != nil && strings.TrimSpace(*e.Duration) != "" {
		seconds, err := parseSeconds(*e.Duration)
		if err != nil {
			return ports.DistanceResult{}, err
		}
		result.DurationSeconds = &seconds
	}

	return result, nil
}

// parseSeconds reads a protobuf Duration in JSON form, e.g. "930s" or "12.5s".
func parseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "s") {
		return 0, fmt.Errorf("parse duration %q: missing seconds suffix", s)
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}

	return d.Seconds(), nil
}
