package obs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonworks/sdm-cli/internal/geometry"
	"github.com/loonworks/sdm-cli/internal/model"
)

const obsCSV = `checklist_id,observer_id,locality_id,latitude,longitude,observation_date,year,day_of_year,hour_of_day,duration_minutes,effort_distance_km,number_observers,protocol_type,observation_count
S1,obs1,L1,42.5,-76.5,2019-06-01,2019,152,6.5,60,2.5,1,Traveling,3
S2,obs1,L1,42.5,-76.5,2019-06-02,2019,153,7.0,30,1.2,2,Stationary,0
S3,obs2,L2,42.6,-76.4,2020-06-01,2020,153,5.5,45,0.8,1,Traveling,
`

func TestLoad(t *testing.T) {
	rows, err := Load(strings.NewReader(obsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "S1", rows[0].ChecklistID)
	assert.Equal(t, "L1", rows[0].LocalityID)
	assert.Equal(t, 2019, rows[0].Year)
	require.NotNil(t, rows[0].Count)
	assert.Equal(t, 3.0, *rows[0].Count)

	// Stationary checklists cannot have traveled; the recorded distance
	// is forced to zero.
	assert.Equal(t, model.ProtocolStationary, rows[1].ProtocolType)
	assert.Zero(t, rows[1].EffortDistanceKM)
	require.NotNil(t, rows[1].Count)
	assert.Zero(t, *rows[1].Count)

	// Presence-only record: count stays nil.
	assert.Nil(t, rows[2].Count)
}

func TestLoad_InvalidCoordinate(t *testing.T) {
	in := `checklist_id,observer_id,locality_id,latitude,longitude,observation_date,year,day_of_year,hour_of_day,duration_minutes,effort_distance_km,number_observers,protocol_type,observation_count
S1,obs1,L1,95.0,-76.5,2019-06-01,2019,152,6.5,60,2.5,1,Traveling,3
`
	_, err := Load(strings.NewReader(in))
	assert.ErrorIs(t, err, geometry.ErrInvalidCoordinate)
}

func TestLocations(t *testing.T) {
	rows, err := Load(strings.NewReader(obsCSV))
	require.NoError(t, err)

	locs := Locations(rows)
	require.Len(t, locs, 2)
	assert.Equal(t, "L1", locs[0].LocalityID)
	assert.Equal(t, 42.5, locs[0].Latitude)
	assert.Equal(t, "L2", locs[1].LocalityID)
}

func TestPairs(t *testing.T) {
	rows, err := Load(strings.NewReader(obsCSV))
	require.NoError(t, err)

	pairs := Pairs(rows)
	require.Len(t, pairs, 2)
	assert.Contains(t, pairs, model.LocationYear{LocalityID: "L1", Year: 2019})
	assert.Contains(t, pairs, model.LocationYear{LocalityID: "L2", Year: 2020})
}
