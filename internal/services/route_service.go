package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"directionmap/internal/domain"
	"directionmap/internal/domain/models"
	"directionmap/internal/repositories"
)

// User-facing operation messages.
const (
	MsgRouteAdded   = "Route added successfully."
	MsgRouteUpdated = "Route updated successfully."
	MsgRouteDeleted = "Route deleted successfully."

	MsgRouteNotOwned   = "Route not found or you do not have permission to update it."
	MsgNoRoutesDeleted = "No routes were deleted. Make sure the routes belong to you."
)

const maxLocationLength = 500

// BulkDeleteMessage reports how many routes a bulk delete removed.
func BulkDeleteMessage(count int64) string {
	return fmt.Sprintf("%d route(s) deleted successfully.", count)
}

// Geocoder resolves a free-text location to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (models.Coordinate, error)
}

// PathFinder fetches driving geometry between two coordinates. Failures
// are best-effort only and never abort a route operation.
type PathFinder interface {
	DrivingPath(ctx context.Context, start, end models.Coordinate) (models.PathPoints, error)
}

// RouteInput is the payload for create and update. Both endpoints are
// always re-resolved together; partial updates are not supported.
type RouteInput struct {
	StartLocation string `json:"start_location" binding:"required,max=500"`
	EndLocation   string `json:"end_location" binding:"required,max=500"`
}

func (in RouteInput) validate() error {
	if in.StartLocation == "" {
		return domain.ValidationError{Field: "start_location", Msg: "start location is required"}
	}
	if utf8.RuneCountInString(in.StartLocation) > maxLocationLength {
		return domain.ValidationError{Field: "start_location", Msg: "start location must not exceed 500 characters"}
	}
	if in.EndLocation == "" {
		return domain.ValidationError{Field: "end_location", Msg: "end location is required"}
	}
	if utf8.RuneCountInString(in.EndLocation) > maxLocationLength {
		return domain.ValidationError{Field: "end_location", Msg: "end location must not exceed 500 characters"}
	}
	return nil
}

// RouteService coordinates geocoding, routing, and persistence for the
// route lifecycle. Each operation runs validate -> resolve -> persist;
// nothing is written until both geocoding calls have succeeded.
type RouteService struct {
	Repo     repositories.RouteRepository
	Geocoder Geocoder
	Paths    PathFinder
}

// List returns the user's routes, newest first.
func (s RouteService) List(userID int64) ([]models.Route, error) {
	list, err := s.Repo.ListByUser(userID)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to load routes", Err: err}
	}
	return list, nil
}

// Create geocodes both endpoints, fetches the driving path best-effort,
// and persists a new route owned by the caller.
func (s RouteService) Create(ctx context.Context, userID int64, in RouteInput) (models.Route, error) {
	if err := in.validate(); err != nil {
		return models.Route{}, err
	}

	start, end, path, err := s.resolve(ctx, in)
	if err != nil {
		return models.Route{}, err
	}

	route := models.Route{
		UserID:          userID,
		StartLocation:   in.StartLocation,
		EndLocation:     in.EndLocation,
		StartLat:        start.Lat,
		StartLng:        start.Lng,
		EndLat:          end.Lat,
		EndLng:          end.Lng,
		PathCoordinates: path,
	}

	id, err := s.Repo.Insert(route)
	if err != nil {
		return models.Route{}, domain.InternalError{Msg: "failed to save route", Err: err}
	}
	route.ID = id
	return route, nil
}

// Update re-resolves both endpoints wholesale and overwrites the stored
// route. A missing id and a route owned by someone else fail identically.
func (s RouteService) Update(ctx context.Context, userID, routeID int64, in RouteInput) (models.Route, error) {
	if err := in.validate(); err != nil {
		return models.Route{}, err
	}

	existing, err := s.Repo.GetForUser(routeID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Route{}, domain.NotFoundError{Resource: "route", Msg: MsgRouteNotOwned}
		}
		return models.Route{}, domain.InternalError{Msg: "failed to load route", Err: err}
	}

	start, end, path, err := s.resolve(ctx, in)
	if err != nil {
		return models.Route{}, err
	}

	existing.StartLocation = in.StartLocation
	existing.EndLocation = in.EndLocation
	existing.StartLat = start.Lat
	existing.StartLng = start.Lng
	existing.EndLat = end.Lat
	existing.EndLng = end.Lng
	existing.PathCoordinates = path

	if err := s.Repo.Update(existing); err != nil {
		return models.Route{}, domain.InternalError{Msg: "failed to save route", Err: err}
	}
	return existing, nil
}

// Delete removes a single route after a strict ownership check.
func (s RouteService) Delete(userID, routeID int64) error {
	owner, err := s.Repo.OwnerOf(routeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundError{Resource: "route"}
		}
		return domain.InternalError{Msg: "failed to load route", Err: err}
	}
	if owner != userID {
		return domain.ForbiddenError{Resource: "route"}
	}

	if err := s.Repo.Delete(routeID); err != nil {
		return domain.InternalError{Msg: "failed to delete route", Err: err}
	}
	return nil
}

// BulkDelete removes the subset of ids owned by the caller in one
// filtered statement. Every requested id must exist (regardless of
// owner); ownership is enforced only by the final delete, so ids owned
// by other users pass validation but are simply not removed.
func (s RouteService) BulkDelete(userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, domain.ValidationError{Field: "ids", Msg: "at least one route id is required"}
	}

	unique := dedupe(ids)
	count, err := s.Repo.CountByIDs(unique)
	if err != nil {
		return 0, domain.InternalError{Msg: "failed to check routes", Err: err}
	}
	if count != len(unique) {
		return 0, domain.ValidationError{Field: "ids", Msg: "one or more routes do not exist"}
	}

	deleted, err := s.Repo.DeleteOwnedIn(userID, unique)
	if err != nil {
		return 0, domain.InternalError{Msg: "failed to delete routes", Err: err}
	}
	if deleted == 0 {
		return 0, domain.ForbiddenError{Msg: MsgNoRoutesDeleted}
	}
	return deleted, nil
}

// resolve geocodes both endpoints (either failure aborts the operation)
// and then attempts the driving path.
func (s RouteService) resolve(ctx context.Context, in RouteInput) (start, end models.Coordinate, path models.PathPoints, err error) {
	start, err = s.Geocoder.Geocode(ctx, in.StartLocation)
	if err != nil {
		return models.Coordinate{}, models.Coordinate{}, nil, err
	}
	end, err = s.Geocoder.Geocode(ctx, in.EndLocation)
	if err != nil {
		return models.Coordinate{}, models.Coordinate{}, nil, err
	}
	return start, end, s.bestEffortPath(ctx, start, end), nil
}

func (s RouteService) bestEffortPath(ctx context.Context, start, end models.Coordinate) models.PathPoints {
	path, err := s.Paths.DrivingPath(ctx, start, end)
	if err != nil {
		log.Printf("[ROUTES] driving path lookup failed, saving empty path: %v", err)
		return models.PathPoints{}
	}
	if path == nil {
		path = models.PathPoints{}
	}
	return path
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
