// Package model defines the data types shared across the covariate
// extraction pipeline and the model diagnostics.
package model

// Location is a distinct observation site identified by its eBird-style
// locality id, with WGS84 coordinates in decimal degrees.
type Location struct {
	LocalityID string  `csv:"locality_id" json:"locality_id"`
	Latitude   float64 `csv:"latitude" json:"latitude"`
	Longitude  float64 `csv:"longitude" json:"longitude"`
}

// LocationYear keys one covariate extraction unit.
type LocationYear struct {
	LocalityID string `json:"locality_id"`
	Year       int    `json:"year"`
}
