package services

import (
	"database/sql"
	"strings"
	"testing"

	"directionmap/internal/domain"
	"directionmap/internal/domain/models"
)

func TestExportServiceGeneratesPDF(t *testing.T) {
	loader := func(routeID, userID int64) (models.Route, error) {
		return models.Route{
			ID:            routeID,
			UserID:        userID,
			StartLocation: "Manila City Hall",
			EndLocation:   "Rizal Park",
			StartLat:      14.5958, StartLng: 120.9772,
			EndLat: 14.5831, EndLng: 120.9794,
			PathCoordinates: models.PathPoints{{120.9772, 14.5958}, {120.9794, 14.5831}},
			CreatedAt:       "2025-01-02 10:00:00",
		}, nil
	}

	svc := ExportService{Loader: loader}

	pdf, filename, err := svc.GenerateRoutePDF(5, 7)
	if err != nil {
		t.Fatalf("GenerateRoutePDF returned error: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("GenerateRoutePDF returned empty data")
	}
	if !strings.HasPrefix(filename, "ROUTE_5_") || !strings.HasSuffix(filename, ".pdf") {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestExportServiceMissingRouteIsNotFound(t *testing.T) {
	loader := func(routeID, userID int64) (models.Route, error) {
		return models.Route{}, sql.ErrNoRows
	}

	svc := ExportService{Loader: loader}
	if _, _, err := svc.GenerateRoutePDF(99, 7); !domain.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
