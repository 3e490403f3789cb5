package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"directionmap/internal/domain/models"
)

type osrmResponse struct {
	Code   string      `json:"code"`
	Routes []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Geometry osrmGeometry `json:"geometry"`
}

type osrmGeometry struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

// OSRMClient fetches driving geometry from an OSRM server.
type OSRMClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOSRMClient(baseURL string) *OSRMClient {
	return &OSRMClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// DrivingPath returns the route geometry between two points as ordered
// [lng, lat] pairs, exactly as the service reports it. On any failure the
// path is empty; callers treat routing as best-effort and must not abort
// on the returned error.
func (oc *OSRMClient) DrivingPath(ctx context.Context, start, end models.Coordinate) (models.PathPoints, error) {
	reqURL := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		oc.baseURL,
		start.Lng, start.Lat,
		end.Lng, end.Lat,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.PathPoints{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := oc.httpClient.Do(req)
	if err != nil {
		return models.PathPoints{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PathPoints{}, fmt.Errorf("routing API returned status %d", resp.StatusCode)
	}

	var parsed osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.PathPoints{}, err
	}

	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return models.PathPoints{}, fmt.Errorf("no driving route found (code=%s)", parsed.Code)
	}

	coords := parsed.Routes[0].Geometry.Coordinates
	for _, p := range coords {
		if !finite(p[0]) || !finite(p[1]) {
			return models.PathPoints{}, fmt.Errorf("routing geometry contains non-finite coordinates")
		}
	}

	return models.PathPoints(coords), nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
