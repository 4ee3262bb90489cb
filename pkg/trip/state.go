package trip

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPlannerStatus marks a non-200 answer from the journey planner.
	ErrPlannerStatus = errors.New("journey planner returned non-200 status")
	// ErrMissingCoordinates is returned when planning is reached without
	// both endpoints geocoded.
	ErrMissingCoordinates = errors.New("origin or destination coordinates missing")
	// ErrNoItinerary is returned when the planner found no trip patterns.
	ErrNoItinerary = errors.New("journey planner returned no itineraries")
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// State is threaded through the graph by value. A nil slot means the key is
// absent, which is different from the placeholder values "None" and "Now".
type State struct {
	Question         string      `json:"question"`
	Origin           *string     `json:"origin,omitempty"`
	Destination      *string     `json:"destination,omitempty"`
	Time             *string     `json:"time,omitempty"`
	Handicap         *string     `json:"handicap,omitempty"`
	OriginCoord      *Coordinate `json:"origin_coord,omitempty"`
	DestinationCoord *Coordinate `json:"destination_coord,omitempty"`
	Trip             *Itinerary  `json:"trip,omitempty"`
}

// Planned reports whether the run produced an itinerary.
func (s State) Planned() bool { return s.Trip != nil }

// Slots are the fields the extractor fills from the question.
type Slots struct {
	Origin      *string `json:"origin"`
	Destination *string `json:"destination"`
	Time        *string `json:"time"`
	Handicap    *string `json:"handicap"`
}

// Leg modes reported by the journey planner.
const (
	ModeFoot  = "foot"
	ModeBus   = "bus"
	ModeRail  = "rail"
	ModeTram  = "tram"
	ModeMetro = "metro"
	ModeWater = "water"
)

// Itinerary is one trip pattern. Duration is in seconds.
type Itinerary struct {
	Duration int   `json:"duration"`
	Legs     []Leg `json:"legs"`
}

type Leg struct {
	Mode              string    `json:"mode"`
	ExpectedStartTime time.Time `json:"expectedStartTime"`
	ExpectedEndTime   time.Time `json:"expectedEndTime"`
	FromPlace         Place     `json:"fromPlace"`
	ToPlace           Place     `json:"toPlace"`
	Distance          float64   `json:"distance"` // metres
	Line              *Line     `json:"line"`
}

type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Line struct {
	PublicCode string `json:"publicCode"`
	Name       string `json:"name"`
}

// Collaborators of the graph.
type (
	SlotExtractor interface {
		ExtractSlots(ctx context.Context, question string) (Slots, error)
	}
	// Geocoder returns nil without error when nothing matched.
	Geocoder interface {
		Geocode(ctx context.Context, place string) (*Coordinate, error)
	}
	// JourneyPlanner returns trip patterns in the planner's ranking.
	JourneyPlanner interface {
		PlanTrip(ctx context.Context, from, to Coordinate, at time.Time) ([]Itinerary, error)
	}
)
