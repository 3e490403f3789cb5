package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"directionmap/internal/domain"
	"directionmap/internal/domain/models"
	"directionmap/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

type fakeGeocoder struct {
	coords map[string]models.Coordinate
	errs   map[string]error
	calls  int
}

func (f *fakeGeocoder) Geocode(_ context.Context, location string) (models.Coordinate, error) {
	f.calls++
	if err, ok := f.errs[location]; ok {
		return models.Coordinate{}, err
	}
	if c, ok := f.coords[location]; ok {
		return c, nil
	}
	return models.Coordinate{}, domain.NotFoundError{Resource: "location", Msg: "Location not found: " + location}
}

type fakePaths struct {
	path  models.PathPoints
	err   error
	calls int
}

func (f *fakePaths) DrivingPath(_ context.Context, _, _ models.Coordinate) (models.PathPoints, error) {
	f.calls++
	if f.err != nil {
		return models.PathPoints{}, f.err
	}
	return f.path, nil
}

func newServiceWithMock(t *testing.T, geocoder *fakeGeocoder, paths *fakePaths) (RouteService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	svc := RouteService{
		Repo:     repositories.RouteRepository{DB: db},
		Geocoder: geocoder,
		Paths:    paths,
	}
	return svc, mock, func() { db.Close() }
}

func TestCreatePersistsGeocodedRouteWithPath(t *testing.T) {
	geocoder := &fakeGeocoder{coords: map[string]models.Coordinate{
		"Manila City Hall": {Lat: 14.5958, Lng: 120.9772},
		"Rizal Park":       {Lat: 14.5831, Lng: 120.9794},
	}}
	paths := &fakePaths{path: models.PathPoints{
		{120.9772, 14.5958}, {120.9780, 14.5900}, {120.9794, 14.5831},
	}}

	svc, mock, done := newServiceWithMock(t, geocoder, paths)
	defer done()

	mock.ExpectExec("INSERT INTO routes").
		WithArgs(int64(7), "Manila City Hall", "Rizal Park",
			14.5958, 120.9772, 14.5831, 120.9794,
			`[[120.9772,14.5958],[120.978,14.59],[120.9794,14.5831]]`).
		WillReturnResult(sqlmock.NewResult(42, 1))

	route, err := svc.Create(context.Background(), 7, RouteInput{
		StartLocation: "Manila City Hall",
		EndLocation:   "Rizal Park",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if route.ID != 42 {
		t.Fatalf("route id = %d, want 42", route.ID)
	}
	if route.UserID != 7 {
		t.Fatalf("route owner = %d, want 7", route.UserID)
	}
	if route.StartLat != 14.5958 || route.StartLng != 120.9772 {
		t.Fatalf("unexpected start coordinate: %+v", route.Start())
	}
	if len(route.PathCoordinates) != 3 {
		t.Fatalf("path has %d points, want 3", len(route.PathCoordinates))
	}
	if geocoder.calls != 2 {
		t.Fatalf("geocoder called %d times, want 2", geocoder.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateGeocodeFailureWritesNothing(t *testing.T) {
	geocoder := &fakeGeocoder{coords: map[string]models.Coordinate{
		"Manila City Hall": {Lat: 14.5958, Lng: 120.9772},
	}}
	paths := &fakePaths{}

	svc, mock, done := newServiceWithMock(t, geocoder, paths)
	defer done()

	_, err := svc.Create(context.Background(), 7, RouteInput{
		StartLocation: "Manila City Hall",
		EndLocation:   "Nowhere That Exists",
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if paths.calls != 0 {
		t.Fatalf("routing should not run after a geocode failure")
	}
	// No INSERT was ever expected; any write would fail the mock.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected DB activity: %v", err)
	}
}

func TestCreateUpstreamFailureAborts(t *testing.T) {
	geocoder := &fakeGeocoder{errs: map[string]error{
		"A": domain.UpstreamError{Service: "geocoding", Err: errors.New("timeout")},
	}}
	svc, mock, done := newServiceWithMock(t, geocoder, &fakePaths{})
	defer done()

	_, err := svc.Create(context.Background(), 7, RouteInput{StartLocation: "A", EndLocation: "B"})
	if !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected DB activity: %v", err)
	}
}

func TestCreateRoutingFailureDegradesToEmptyPath(t *testing.T) {
	geocoder := &fakeGeocoder{coords: map[string]models.Coordinate{
		"A": {Lat: 1, Lng: 2},
		"B": {Lat: 3, Lng: 4},
	}}
	paths := &fakePaths{err: errors.New("osrm down")}

	svc, mock, done := newServiceWithMock(t, geocoder, paths)
	defer done()

	mock.ExpectExec("INSERT INTO routes").
		WithArgs(int64(9), "A", "B", 1.0, 2.0, 3.0, 4.0, "[]").
		WillReturnResult(sqlmock.NewResult(1, 1))

	route, err := svc.Create(context.Background(), 9, RouteInput{StartLocation: "A", EndLocation: "B"})
	if err != nil {
		t.Fatalf("routing failure must not abort create: %v", err)
	}
	if len(route.PathCoordinates) != 0 {
		t.Fatalf("expected empty path, got %d points", len(route.PathCoordinates))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateValidationRejectsBeforeAnyCall(t *testing.T) {
	geocoder := &fakeGeocoder{}
	svc, mock, done := newServiceWithMock(t, geocoder, &fakePaths{})
	defer done()

	cases := []RouteInput{
		{StartLocation: "", EndLocation: "B"},
		{StartLocation: "A", EndLocation: ""},
		{StartLocation: strings.Repeat("x", 501), EndLocation: "B"},
		{StartLocation: "A", EndLocation: strings.Repeat("y", 501)},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), 1, in); !domain.IsValidation(err) {
			t.Fatalf("input %+v: expected validation error, got %v", in, err)
		}
	}
	if geocoder.calls != 0 {
		t.Fatalf("geocoder must not run on invalid input, ran %d times", geocoder.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected DB activity: %v", err)
	}
}

func routeRows(routes ...models.Route) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "start_location", "end_location",
		"start_lat", "start_lng", "end_lat", "end_lng",
		"path_coordinates", "created_at", "updated_at",
	})
	for _, r := range routes {
		rows.AddRow(r.ID, r.UserID, r.StartLocation, r.EndLocation,
			r.StartLat, r.StartLng, r.EndLat, r.EndLng,
			"[]", "2025-01-01 00:00:00", "2025-01-01 00:00:00")
	}
	return rows
}

func TestUpdateOverwritesAllResolvedFields(t *testing.T) {
	geocoder := &fakeGeocoder{coords: map[string]models.Coordinate{
		"New Start": {Lat: 10, Lng: 20},
		"New End":   {Lat: 30, Lng: 40},
	}}
	paths := &fakePaths{path: models.PathPoints{{20, 10}, {40, 30}}}

	svc, mock, done := newServiceWithMock(t, geocoder, paths)
	defer done()

	existing := models.Route{
		ID: 5, UserID: 7,
		StartLocation: "Old Start", EndLocation: "Old End",
		StartLat: 1, StartLng: 2, EndLat: 3, EndLng: 4,
	}
	mock.ExpectQuery("SELECT (.+) FROM routes").
		WithArgs(int64(5), int64(7)).
		WillReturnRows(routeRows(existing))
	mock.ExpectExec("UPDATE routes").
		WithArgs("New Start", "New End", 10.0, 20.0, 30.0, 40.0,
			`[[20,10],[40,30]]`, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	route, err := svc.Update(context.Background(), 7, 5, RouteInput{
		StartLocation: "New Start",
		EndLocation:   "New End",
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if route.ID != 5 || route.UserID != 7 {
		t.Fatalf("id/owner must not change, got id=%d owner=%d", route.ID, route.UserID)
	}
	if route.StartLocation != "New Start" || route.EndLat != 30 {
		t.Fatalf("fields not overwritten: %+v", route)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateMissingAndNotOwnedAreIndistinguishable(t *testing.T) {
	geocoder := &fakeGeocoder{coords: map[string]models.Coordinate{
		"A": {Lat: 1, Lng: 2}, "B": {Lat: 3, Lng: 4},
	}}

	// The scoped lookup misses identically whether the id is absent or
	// owned by another user, so both cases run through the same path.
	for name, args := range map[string][]any{
		"absent id":   {int64(999), int64(7)},
		"other owner": {int64(5), int64(7)},
	} {
		svc, mock, done := newServiceWithMock(t, geocoder, &fakePaths{})

		mock.ExpectQuery("SELECT (.+) FROM routes").
			WithArgs(args[0], args[1]).
			WillReturnRows(routeRows())

		_, err := svc.Update(context.Background(), args[1].(int64), args[0].(int64), RouteInput{
			StartLocation: "A", EndLocation: "B",
		})
		if !domain.IsNotFound(err) {
			t.Fatalf("%s: expected not-found, got %v", name, err)
		}
		if err.Error() != MsgRouteNotOwned {
			t.Fatalf("%s: message = %q, want %q", name, err.Error(), MsgRouteNotOwned)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("%s: unmet expectations: %v", name, err)
		}
		done()
	}
}

func TestUpdateGeocodeFailureLeavesRecordUntouched(t *testing.T) {
	geocoder := &fakeGeocoder{}
	svc, mock, done := newServiceWithMock(t, geocoder, &fakePaths{})
	defer done()

	existing := models.Route{ID: 5, UserID: 7, StartLocation: "Old", EndLocation: "End"}
	mock.ExpectQuery("SELECT (.+) FROM routes").
		WithArgs(int64(5), int64(7)).
		WillReturnRows(routeRows(existing))

	_, err := svc.Update(context.Background(), 7, 5, RouteInput{
		StartLocation: "Unknown Place", EndLocation: "End",
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not-found from geocode, got %v", err)
	}
	// No UPDATE was expected; a write would fail the mock.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("record was touched: %v", err)
	}
}

func TestDeleteEnforcesStrictOwnership(t *testing.T) {
	svc, mock, done := newServiceWithMock(t, &fakeGeocoder{}, &fakePaths{})
	defer done()

	mock.ExpectQuery("SELECT user_id FROM routes").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(9))

	err := svc.Delete(7, 5)
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	// No DELETE expected: the store must stay unchanged.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("store mutated on forbidden delete: %v", err)
	}
}

func TestDeleteOwnedRoute(t *testing.T) {
	svc, mock, done := newServiceWithMock(t, &fakeGeocoder{}, &fakePaths{})
	defer done()

	mock.ExpectQuery("SELECT user_id FROM routes").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectExec("DELETE FROM routes").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.Delete(7, 5); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteTwiceSecondCallFails(t *testing.T) {
	svc, mock, done := newServiceWithMock(t, &fakeGeocoder{}, &fakePaths{})
	defer done()

	mock.ExpectQuery("SELECT user_id FROM routes").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectExec("DELETE FROM routes").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id FROM routes").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	if err := svc.Delete(7, 5); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := svc.Delete(7, 5); !domain.IsNotFound(err) {
		t.Fatalf("second delete: expected not-found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkDeleteRemovesOnlyOwnedSubset(t *testing.T) {
	svc, mock, done := newServiceWithMock(t, &fakeGeocoder{}, &fakePaths{})
	defer done()

	// Routes 1 and 3 belong to user 7, route 2 to user 9. All three ids
	// exist, so validation passes; the filtered delete removes two.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM routes").
		WithArgs(int64(1), int64(2), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("DELETE FROM routes WHERE user_id = \\? AND id IN").
		WithArgs(int64(7), int64(1), int64(2), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := svc.BulkDelete(7, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("BulkDelete returned error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	if got := BulkDeleteMessage(deleted); got != "2 route(s) deleted successfully." {
		t.Fatalf("message = %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkDeleteZeroDeletedIsAnError(t *testing.T) {
	svc, mock, done := newServiceWithMock(t, &fakeGeocoder{}, &fakePaths{})
	defer done()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM routes").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("DELETE FROM routes WHERE user_id = \\? AND id IN").
		WithArgs(int64(7), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.BulkDelete(7, []int64{4})
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if err.Error() != MsgNoRoutesDeleted {
		t.Fatalf("message = %q, want %q", err.Error(), MsgNoRoutesDeleted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkDeleteValidatesExistenceBeforeOwnership(t *testing.T) {
	svc, mock, done := newServiceWithMock(t, &fakeGeocoder{}, &fakePaths{})
	defer done()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM routes").
		WithArgs(int64(1), int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.BulkDelete(7, []int64{1, 999})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}
	// No DELETE expected when existence validation fails.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkDeleteRejectsEmptyIDSet(t *testing.T) {
	svc, mock, done := newServiceWithMock(t, &fakeGeocoder{}, &fakePaths{})
	defer done()

	if _, err := svc.BulkDelete(7, nil); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected DB activity: %v", err)
	}
}

func TestListReturnsOwnedRoutes(t *testing.T) {
	svc, mock, done := newServiceWithMock(t, &fakeGeocoder{}, &fakePaths{})
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM routes").
		WithArgs(int64(7)).
		WillReturnRows(routeRows(
			models.Route{ID: 2, UserID: 7, StartLocation: "C", EndLocation: "D"},
			models.Route{ID: 1, UserID: 7, StartLocation: "A", EndLocation: "B"},
		))

	list, err := svc.List(7)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 2 || list[0].ID != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
