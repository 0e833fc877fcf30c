package model

// Protocol types as recorded in the checklist data.
const (
	ProtocolStationary = "Stationary"
	ProtocolTraveling  = "Traveling"
)

// Observation is one checklist record for one species. Count is nil when
// the observer reported presence without a count ("X" in the source data).
type Observation struct {
	ChecklistID      string   `csv:"checklist_id" json:"checklist_id"`
	ObserverID       string   `csv:"observer_id" json:"observer_id"`
	LocalityID       string   `csv:"locality_id" json:"locality_id"`
	Latitude         float64  `csv:"latitude" json:"latitude"`
	Longitude        float64  `csv:"longitude" json:"longitude"`
	ObservationDate  string   `csv:"observation_date" json:"observation_date"`
	Year             int      `csv:"year" json:"year"`
	DayOfYear        int      `csv:"day_of_year" json:"day_of_year"`
	HourOfDay        float64  `csv:"hour_of_day" json:"hour_of_day"`
	DurationMinutes  float64  `csv:"duration_minutes" json:"duration_minutes"`
	EffortDistanceKM float64  `csv:"effort_distance_km" json:"effort_distance_km"`
	NumberObservers  int      `csv:"number_observers" json:"number_observers"`
	ProtocolType     string   `csv:"protocol_type" json:"protocol_type"`
	Count            *float64 `csv:"observation_count" json:"observation_count,omitempty"`
}

// Location returns the observation site.
func (o Observation) Location() Location {
	return Location{LocalityID: o.LocalityID, Latitude: o.Latitude, Longitude: o.Longitude}
}

// Key returns the (locality, year) join key.
func (o Observation) Key() LocationYear {
	return LocationYear{LocalityID: o.LocalityID, Year: o.Year}
}
