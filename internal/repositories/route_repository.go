package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	intconfig "directionmap/internal/config"
	"directionmap/internal/domain/models"
)

type RouteRepository struct {
	DB *sql.DB
}

func (r RouteRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const routeColumns = `id, user_id, start_location, end_location, start_lat, start_lng, end_lat, end_lng, path_coordinates, created_at, updated_at`

// ListByUser returns all routes owned by a user, most recent first.
func (r RouteRepository) ListByUser(userID int64) ([]models.Route, error) {
	rows, err := r.db().Query(`
		SELECT `+routeColumns+`
		FROM routes
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Route{}
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, route)
	}
	return list, rows.Err()
}

// GetForUser fetches a route scoped by id AND owner. A miss for either
// reason comes back as sql.ErrNoRows, so callers cannot tell an absent id
// from someone else's route.
func (r RouteRepository) GetForUser(id, userID int64) (models.Route, error) {
	row := r.db().QueryRow(`
		SELECT `+routeColumns+`
		FROM routes
		WHERE id = ? AND user_id = ?
	`, id, userID)
	return scanRoute(row)
}

// OwnerOf returns the owning user id of a route.
func (r RouteRepository) OwnerOf(id int64) (int64, error) {
	var owner int64
	err := r.db().QueryRow(`SELECT user_id FROM routes WHERE id = ?`, id).Scan(&owner)
	return owner, err
}

func (r RouteRepository) Insert(route models.Route) (int64, error) {
	path, err := marshalPath(route.PathCoordinates)
	if err != nil {
		return 0, err
	}

	res, err := r.db().Exec(`
		INSERT INTO routes (user_id, start_location, end_location, start_lat, start_lng, end_lat, end_lng, path_coordinates)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, route.UserID, route.StartLocation, route.EndLocation,
		route.StartLat, route.StartLng, route.EndLat, route.EndLng, path)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update overwrites the location, coordinate, and path fields of a route.
// The id and owner are never touched.
func (r RouteRepository) Update(route models.Route) error {
	path, err := marshalPath(route.PathCoordinates)
	if err != nil {
		return err
	}

	_, err = r.db().Exec(`
		UPDATE routes
		SET start_location = ?, end_location = ?, start_lat = ?, start_lng = ?, end_lat = ?, end_lng = ?, path_coordinates = ?
		WHERE id = ?
	`, route.StartLocation, route.EndLocation,
		route.StartLat, route.StartLng, route.EndLat, route.EndLng, path, route.ID)
	return err
}

func (r RouteRepository) Delete(id int64) error {
	_, err := r.db().Exec(`DELETE FROM routes WHERE id = ?`, id)
	return err
}

// CountByIDs counts how many of the given ids exist, regardless of owner.
func (r RouteRepository) CountByIDs(ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM routes WHERE id IN (%s)`, placeholders(len(ids)))
	var count int
	err := r.db().QueryRow(query, toArgs(ids)...).Scan(&count)
	return count, err
}

// DeleteOwnedIn removes the subset of ids owned by the user in a single
// filtered statement and reports how many rows went away.
func (r RouteRepository) DeleteOwnedIn(userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`DELETE FROM routes WHERE user_id = ? AND id IN (%s)`, placeholders(len(ids)))
	args := append([]any{userID}, toArgs(ids)...)

	res, err := r.db().Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (models.Route, error) {
	var (
		route     models.Route
		rawPath   sql.NullString
		createdAt sql.NullString
		updatedAt sql.NullString
	)

	err := row.Scan(
		&route.ID,
		&route.UserID,
		&route.StartLocation,
		&route.EndLocation,
		&route.StartLat,
		&route.StartLng,
		&route.EndLat,
		&route.EndLng,
		&rawPath,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.Route{}, err
	}

	route.PathCoordinates = models.PathPoints{}
	if rawPath.Valid && strings.TrimSpace(rawPath.String) != "" {
		if err := json.Unmarshal([]byte(rawPath.String), &route.PathCoordinates); err != nil {
			return models.Route{}, fmt.Errorf("decode path_coordinates for route %d: %w", route.ID, err)
		}
	}
	if createdAt.Valid {
		route.CreatedAt = createdAt.String
	}
	if updatedAt.Valid {
		route.UpdatedAt = updatedAt.String
	}
	return route, nil
}

func marshalPath(path models.PathPoints) (string, error) {
	if path == nil {
		path = models.PathPoints{}
	}
	b, err := json.Marshal(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ids []int64) []any {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
