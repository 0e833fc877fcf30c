package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonworks/sdm-cli/internal/model"
)

func TestBufferRadius(t *testing.T) {
	tests := []struct {
		cell float64
		want float64
	}{
		{1000, 2500},
		{999.5, 2500}, // rounded up before scaling
		{30, 75},
		{0.5, 2.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BufferRadius(tt.cell))
	}
}

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		wantErr  bool
	}{
		{"valid", 42.0, -76.0, false},
		{"poles", 90, 180, false},
		{"lat too high", 90.1, 0, true},
		{"lat too low", -90.1, 0, true},
		{"lon too high", 0, 180.1, true},
		{"lon too low", 0, -180.1, true},
		{"nan lat", math.NaN(), 0, true},
		{"nan lon", 0, math.NaN(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinate(tt.lat, tt.lon)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinate)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewIndex(t *testing.T) {
	locs := []model.Location{
		{LocalityID: "L2", Latitude: 1, Longitude: 1},
		{LocalityID: "L1", Latitude: 0, Longitude: 0},
	}

	idx, err := NewIndex(locs, 2500, SinusoidalProj4)
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"L1", "L2"}, idx.Localities())

	nb := idx.Neighborhood("L1")
	require.NotNil(t, nb)
	// (0, 0) projects to the sinusoidal origin.
	assert.InDelta(t, 0, nb.X, 1e-6)
	assert.InDelta(t, 0, nb.Y, 1e-6)

	// The buffer is a closed ring spanning center +/- radius.
	ring := nb.Buffer[0]
	require.Len(t, ring, 65)
	assert.Equal(t, ring[0], ring[64])
	b := nb.Buffer.Bounds()
	assert.InDelta(t, -2500, b.Min.X, 1)
	assert.InDelta(t, 2500, b.Max.X, 1)
	assert.InDelta(t, -2500, b.Min.Y, 1)
	assert.InDelta(t, 2500, b.Max.Y, 1)

	assert.Nil(t, idx.Neighborhood("nope"))
}

func TestNewIndex_RepeatedLocalityKeepsFirst(t *testing.T) {
	locs := []model.Location{
		{LocalityID: "L1", Latitude: 10, Longitude: 20},
		{LocalityID: "L1", Latitude: 50, Longitude: 60},
	}

	idx, err := NewIndex(locs, 100, SinusoidalProj4)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 10.0, idx.Neighborhood("L1").Location.Latitude)
}

func TestNewIndex_InvalidCoordinate(t *testing.T) {
	locs := []model.Location{{LocalityID: "L1", Latitude: 91, Longitude: 0}}
	_, err := NewIndex(locs, 100, SinusoidalProj4)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestNewIndex_BadProjection(t *testing.T) {
	locs := []model.Location{{LocalityID: "L1", Latitude: 0, Longitude: 0}}
	_, err := NewIndex(locs, 100, "+proj=nosuchthing")
	assert.ErrorIs(t, err, ErrProjection)
}

func TestNewIndex_NonPositiveRadius(t *testing.T) {
	locs := []model.Location{{LocalityID: "L1", Latitude: 0, Longitude: 0}}
	_, err := NewIndex(locs, 0, SinusoidalProj4)
	assert.Error(t, err)
}

func TestProjectCoordinates(t *testing.T) {
	pts, err := ProjectCoordinates([]float64{0, 45}, []float64{0, 0}, SinusoidalProj4)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.InDelta(t, 0, pts[0][0], 1e-6)
	assert.InDelta(t, 0, pts[0][1], 1e-6)
	// Along the central meridian x stays zero and y grows with latitude.
	assert.InDelta(t, 0, pts[1][0], 1e-3)
	assert.Greater(t, pts[1][1], 4.9e6)
}

func TestProjectCoordinates_LengthMismatch(t *testing.T) {
	_, err := ProjectCoordinates([]float64{0}, []float64{0, 1}, SinusoidalProj4)
	assert.Error(t, err)
}
