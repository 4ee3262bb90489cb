package trip

import (
	"context"
	"log/slog"
	"time"

	"github.com/mikeboe/agent-helper/pkg/metrics"
)

// Node names a state of the planning graph.
type Node string

const (
	NodeExtract     Node = "extract_data"
	NodeCoordinates Node = "get_coordinates"
	NodePlan        Node = "plan_trip_entur"
	NodeEnd         Node = "end"
)

// Branch is the outcome of the validation gate after extraction.
type Branch int

const (
	Abort Branch = iota
	Continue
)

func (b Branch) String() string {
	if b == Continue {
		return "continue"
	}
	return "abort"
}

// CheckTrip gates on presence of the four slots only. Placeholder values such
// as "None" pass.
func CheckTrip(s State) Branch {
	if s.Origin == nil || s.Destination == nil || s.Time == nil || s.Handicap == nil {
		return Abort
	}
	return Continue
}

// Graph runs extract_data, the validation gate, get_coordinates and
// plan_trip_entur in that order.
type Graph struct {
	Extractor SlotExtractor
	Geocoder  Geocoder
	Planner   JourneyPlanner

	// Now is the departure time handed to the planner.
	Now    func() time.Time
	Logger *slog.Logger
	// OnTransition observes every edge taken.
	OnTransition func(from, to Node)
}

func NewGraph(extractor SlotExtractor, geocoder Geocoder, planner JourneyPlanner) *Graph {
	return &Graph{
		Extractor: extractor,
		Geocoder:  geocoder,
		Planner:   planner,
		Now:       time.Now,
		Logger:    slog.Default(),
	}
}

func (g *Graph) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// Run plans a trip for question. A node error ends the run and is returned
// together with the last state the graph reached.
func (g *Graph) Run(ctx context.Context, question string) (State, error) {
	state := State{Question: question}
	node := NodeExtract

	for node != NodeEnd {
		var next Node
		var err error

		switch node {
		case NodeExtract:
			state = g.ExtractData(ctx, state)
			switch CheckTrip(state) {
			case Continue:
				next = NodeCoordinates
			case Abort:
				g.logger().Info("Trip request incomplete, ending run", "question", question)
				next = NodeEnd
			}
		case NodeCoordinates:
			state = g.GetCoordinates(ctx, state)
			next = NodePlan
		case NodePlan:
			state, err = g.PlanTrip(ctx, state)
			next = NodeEnd
		}

		if err != nil {
			metrics.TripRuns.WithLabelValues("failed").Inc()
			return state, err
		}
		if g.OnTransition != nil {
			g.OnTransition(node, next)
		}
		node = next
	}

	if state.Planned() {
		metrics.TripRuns.WithLabelValues("planned").Inc()
	} else {
		metrics.TripRuns.WithLabelValues("aborted").Inc()
	}
	return state, nil
}
