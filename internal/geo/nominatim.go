package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"directionmap/internal/domain"
	"directionmap/internal/domain/models"
)

const userAgent = "DirectionMapApp/1.0"

// Autocomplete suggestions are constrained to the Philippines.
const (
	suggestCountryCodes = "ph"
	suggestViewbox      = "116.9283,4.5693,126.6043,21.1207"
	suggestLimit        = 8
)

// Place is one geocoding candidate with its resolved coordinate.
type Place struct {
	DisplayName string            `json:"display_name"`
	Lat         float64           `json:"lat"`
	Lng         float64           `json:"lng"`
	Address     map[string]string `json:"address,omitempty"`
}

type nominatimResult struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// NominatimClient resolves free-text locations against a Nominatim server.
// One outbound call per invocation; no retries, no caching.
type NominatimClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewNominatimClient(baseURL string) *NominatimClient {
	return &NominatimClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Geocode resolves a location label to its best-match coordinate. Zero
// candidates is a NotFoundError; transport or decode failures are
// UpstreamErrors.
func (nc *NominatimClient) Geocode(ctx context.Context, location string) (models.Coordinate, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", location)
	q.Set("limit", "1")

	results, err := nc.search(ctx, q)
	if err != nil {
		return models.Coordinate{}, err
	}
	if len(results) == 0 {
		return models.Coordinate{}, domain.NotFoundError{
			Resource: "location",
			Msg:      fmt.Sprintf("Location not found: %s", location),
		}
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return models.Coordinate{}, domain.NotFoundError{
			Resource: "location",
			Msg:      fmt.Sprintf("Location not found: %s", location),
		}
	}

	return models.Coordinate{Lat: lat, Lng: lng}, nil
}

// Reverse resolves a coordinate to a display address.
func (nc *NominatimClient) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	reqURL := fmt.Sprintf("%s/reverse?%s", nc.baseURL, q.Encode())

	var result struct {
		DisplayName string `json:"display_name"`
	}
	if err := nc.getJSON(ctx, reqURL, &result); err != nil {
		return "", err
	}
	if result.DisplayName == "" {
		return "", domain.NotFoundError{Resource: "address"}
	}
	return result.DisplayName, nil
}

// Suggest returns up to 8 ranked candidates for an autocomplete query,
// bounded to the configured geographic region.
func (nc *NominatimClient) Suggest(ctx context.Context, query string) ([]Place, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("countrycodes", suggestCountryCodes)
	q.Set("viewbox", suggestViewbox)
	q.Set("bounded", "1")
	q.Set("limit", strconv.Itoa(suggestLimit))
	q.Set("addressdetails", "1")

	results, err := nc.search(ctx, q)
	if err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLng := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		places = append(places, Place{
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lng:         lng,
			Address:     r.Address,
		})
	}
	return places, nil
}

func (nc *NominatimClient) search(ctx context.Context, q url.Values) ([]nominatimResult, error) {
	reqURL := fmt.Sprintf("%s/search?%s", nc.baseURL, q.Encode())

	var results []nominatimResult
	if err := nc.getJSON(ctx, reqURL, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (nc *NominatimClient) getJSON(ctx context.Context, reqURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.UpstreamError{Service: "geocoding", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := nc.httpClient.Do(req)
	if err != nil {
		return domain.UpstreamError{Service: "geocoding", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.UpstreamError{
			Service: "geocoding",
			Err:     fmt.Errorf("geocoding API returned status %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return domain.UpstreamError{Service: "geocoding", Err: err}
	}
	return nil
}
