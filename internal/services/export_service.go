package services

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"directionmap/internal/domain"
	"directionmap/internal/domain/models"
	"directionmap/internal/repositories"

	"github.com/phpdave11/gofpdf"
)

// ExportService renders a saved route as a PDF summary sheet.
type ExportService struct {
	Repo repositories.RouteRepository

	// Loader can replace the repository lookup in tests.
	Loader func(routeID, userID int64) (models.Route, error)
}

func (s ExportService) load(routeID, userID int64) (models.Route, error) {
	if s.Loader != nil {
		return s.Loader(routeID, userID)
	}
	return s.Repo.GetForUser(routeID, userID)
}

// GenerateRoutePDF builds the summary document for an owned route and
// returns the bytes plus a download filename.
func (s ExportService) GenerateRoutePDF(routeID, userID int64) ([]byte, string, error) {
	route, err := s.load(routeID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", domain.NotFoundError{Resource: "route"}
		}
		return nil, "", domain.InternalError{Msg: "failed to load route", Err: err}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Route Summary", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "ROUTE SUMMARY")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Route ID    : #%d", route.ID),
		fmt.Sprintf("From        : %s", route.StartLocation),
		fmt.Sprintf("To          : %s", route.EndLocation),
		fmt.Sprintf("Start coord : %.6f, %.6f", route.StartLat, route.StartLng),
		fmt.Sprintf("End coord   : %.6f, %.6f", route.EndLat, route.EndLng),
		fmt.Sprintf("Path points : %d", len(route.PathCoordinates)),
		fmt.Sprintf("Created     : %s", orDash(route.CreatedAt)),
		fmt.Sprintf("Exported    : %s", time.Now().Format("2006-01-02 15:04")),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	if len(route.PathCoordinates) == 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "Note: no driving path was available for this route when it was saved.", "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", domain.InternalError{Msg: "failed to render PDF", Err: err}
	}

	filename := fmt.Sprintf("ROUTE_%d_%s.pdf", route.ID, safeFilenamePart(route.StartLocation))
	return buf.Bytes(), filename, nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func safeFilenamePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	out := b.String()
	if len(out) > 40 {
		out = out[:40]
	}
	if out == "" {
		out = "route"
	}
	return out
}
