package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"directionmap/internal/geo"

	"github.com/gin-gonic/gin"
)

// LocationSearcher is the slice of the geocoding client the browser-facing
// proxy endpoints need.
type LocationSearcher interface {
	Suggest(ctx context.Context, query string) ([]geo.Place, error)
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// GeoHandler proxies autocomplete and map-click lookups for the web client.
type GeoHandler struct {
	Searcher LocationSearcher
}

// GET /api/geo/search?q=...
func (h GeoHandler) SearchLocations(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if utf8.RuneCountInString(q) < 2 {
		RespondError(c, http.StatusBadRequest, "query must be at least 2 characters", nil)
		return
	}

	places, err := h.Searcher.Suggest(c.Request.Context(), q)
	if err != nil {
		RespondDomainError(c, "geo_search", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": places})
}

// GET /api/geo/reverse?lat=...&lng=...
func (h GeoHandler) ReverseGeocode(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		RespondError(c, http.StatusBadRequest, "lat and lng must be valid numbers", nil)
		return
	}

	address, err := h.Searcher.Reverse(c.Request.Context(), lat, lng)
	if err != nil {
		RespondDomainError(c, "geo_reverse", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"display_name": address})
}
