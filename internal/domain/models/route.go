package models

import "math"

// Coordinate is a geographic point in latitude/longitude order.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}

// PathPoints is the shape of a driving route as returned by the routing
// service: ordered [lng, lat] pairs. The ordering is preserved verbatim.
type PathPoints [][2]float64

// Route is one saved trip owned by a single user. PathCoordinates may be
// empty when routing failed; the record is still valid.
type Route struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	StartLocation   string     `json:"start_location"`
	EndLocation     string     `json:"end_location"`
	StartLat        float64    `json:"start_lat"`
	StartLng        float64    `json:"start_lng"`
	EndLat          float64    `json:"end_lat"`
	EndLng          float64    `json:"end_lng"`
	PathCoordinates PathPoints `json:"path_coordinates"`
	CreatedAt       string     `json:"created_at,omitempty"`
	UpdatedAt       string     `json:"updated_at,omitempty"`
}

func (r Route) Start() Coordinate {
	return Coordinate{Lat: r.StartLat, Lng: r.StartLng}
}

func (r Route) End() Coordinate {
	return Coordinate{Lat: r.EndLat, Lng: r.EndLng}
}
