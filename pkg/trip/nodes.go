package trip

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikeboe/agent-helper/pkg/metrics"
)

// localeSuffix is dropped from place names before geocoding.
const localeSuffix = "i Oslo"

// StripLocale removes a trailing "i Oslo" from a place name.
func StripLocale(place string) string {
	if strings.HasSuffix(place, localeSuffix) {
		return strings.TrimSpace(strings.TrimSuffix(place, localeSuffix))
	}
	return place
}

// ExtractData fills the slots from the question. An extraction failure leaves
// the state unchanged so the gate ends the run.
func (g *Graph) ExtractData(ctx context.Context, s State) State {
	defer metrics.ObserveStage(string(NodeExtract))()

	slots, err := g.Extractor.ExtractSlots(ctx, s.Question)
	if err != nil {
		g.logger().Error("Slot extraction failed", "error", err)
		return s
	}

	next := s
	next.Origin = slots.Origin
	next.Destination = slots.Destination
	next.Time = slots.Time
	next.Handicap = slots.Handicap
	g.logger().Info("Extracted trip slots",
		"origin", deref(next.Origin), "destination", deref(next.Destination),
		"time", deref(next.Time), "handicap", deref(next.Handicap))
	return next
}

// GetCoordinates geocodes origin and destination. A miss leaves the
// corresponding coordinate nil.
func (g *Graph) GetCoordinates(ctx context.Context, s State) State {
	defer metrics.ObserveStage(string(NodeCoordinates))()

	next := s
	if s.Origin != nil {
		next.OriginCoord = g.geocode(ctx, StripLocale(*s.Origin))
	}
	if s.Destination != nil {
		next.DestinationCoord = g.geocode(ctx, StripLocale(*s.Destination))
	}
	return next
}

func (g *Graph) geocode(ctx context.Context, place string) *Coordinate {
	c, err := g.Geocoder.Geocode(ctx, place)
	if err != nil {
		g.logger().Warn("Geocoding failed", "place", place, "error", err)
		return nil
	}
	if c == nil {
		g.logger().Warn("Could not find coordinates", "place", place)
	}
	return c
}

// PlanTrip asks the journey planner for a trip departing now. The extracted
// time slot is not used. Every failure here is returned to the caller.
func (g *Graph) PlanTrip(ctx context.Context, s State) (State, error) {
	defer metrics.ObserveStage(string(NodePlan))()

	if s.OriginCoord == nil || s.DestinationCoord == nil {
		metrics.PlannerFailures.Inc()
		return s, ErrMissingCoordinates
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	patterns, err := g.Planner.PlanTrip(ctx, *s.OriginCoord, *s.DestinationCoord, now())
	if err != nil {
		metrics.PlannerFailures.Inc()
		return s, fmt.Errorf("plan trip: %w", err)
	}
	if len(patterns) == 0 {
		metrics.PlannerFailures.Inc()
		return s, ErrNoItinerary
	}

	next := s
	first := patterns[0]
	next.Trip = &first
	g.logger().Info("Trip planned", "duration", first.Duration, "legs", len(first.Legs))
	return next, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
