package trip

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func ptr(s string) *string { return &s }

type fakeExtractor struct {
	slots Slots
	err   error
}

func (f fakeExtractor) ExtractSlots(context.Context, string) (Slots, error) {
	return f.slots, f.err
}

type fakeGeocoder struct {
	queries []string
	known   map[string]Coordinate
}

func (f *fakeGeocoder) Geocode(_ context.Context, place string) (*Coordinate, error) {
	f.queries = append(f.queries, place)
	if c, ok := f.known[place]; ok {
		return &c, nil
	}
	return nil, nil
}

type fakePlanner struct {
	calls    int
	at       time.Time
	patterns []Itinerary
	err      error
}

func (f *fakePlanner) PlanTrip(_ context.Context, _, _ Coordinate, at time.Time) ([]Itinerary, error) {
	f.calls++
	f.at = at
	return f.patterns, f.err
}

var (
	fixedNow  = time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	fullSlots = Slots{
		Origin:      ptr("Jernbanetorget"),
		Destination: ptr("Gladengveien 10 i Oslo"),
		Time:        ptr("12:00 i dag"),
		Handicap:    ptr("wheelchair"),
	}
	oslo = map[string]Coordinate{
		"Jernbanetorget":  {Lat: 59.9111, Lon: 10.7503},
		"Gladengveien 10": {Lat: 59.9076, Lon: 10.7937},
	}
)

func newTestGraph(ex SlotExtractor, gc *fakeGeocoder, pl *fakePlanner) *Graph {
	g := NewGraph(ex, gc, pl)
	g.Now = func() time.Time { return fixedNow }
	return g
}

func TestCheckTrip(t *testing.T) {
	full := State{Origin: ptr("a"), Destination: ptr("b"), Time: ptr("Now"), Handicap: ptr("None")}
	if got := CheckTrip(full); got != Continue {
		t.Errorf("placeholder handicap: CheckTrip() = %v, want continue", got)
	}

	missing := map[string]func(*State){
		"origin":      func(s *State) { s.Origin = nil },
		"destination": func(s *State) { s.Destination = nil },
		"time":        func(s *State) { s.Time = nil },
		"handicap":    func(s *State) { s.Handicap = nil },
	}
	for name, drop := range missing {
		t.Run(name, func(t *testing.T) {
			s := full
			drop(&s)
			if got := CheckTrip(s); got != Abort {
				t.Errorf("CheckTrip() = %v, want abort", got)
			}
		})
	}
}

func TestRunPlansTrip(t *testing.T) {
	gc := &fakeGeocoder{known: oslo}
	pl := &fakePlanner{patterns: []Itinerary{{Duration: 900}, {Duration: 1200}}}
	g := newTestGraph(fakeExtractor{slots: fullSlots}, gc, pl)

	var edges []string
	g.OnTransition = func(from, to Node) { edges = append(edges, string(from)+">"+string(to)) }

	state, err := g.Run(context.Background(), "fra Jernbanetorget til Gladengveien 10 i Oslo")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantEdges := []string{"extract_data>get_coordinates", "get_coordinates>plan_trip_entur", "plan_trip_entur>end"}
	if !reflect.DeepEqual(edges, wantEdges) {
		t.Errorf("edges = %v, want %v", edges, wantEdges)
	}
	if !reflect.DeepEqual(gc.queries, []string{"Jernbanetorget", "Gladengveien 10"}) {
		t.Errorf("geocoder queries = %v", gc.queries)
	}
	if state.Trip == nil || state.Trip.Duration != 900 {
		t.Errorf("trip = %+v, want first pattern", state.Trip)
	}
	if *state.Destination != "Gladengveien 10 i Oslo" {
		t.Errorf("destination slot should keep the original text, got %q", *state.Destination)
	}
}

func TestRunAbortsOnMissingSlot(t *testing.T) {
	slots := fullSlots
	slots.Time = nil
	gc := &fakeGeocoder{known: oslo}
	pl := &fakePlanner{}
	g := newTestGraph(fakeExtractor{slots: slots}, gc, pl)

	var edges []Node
	g.OnTransition = func(_, to Node) { edges = append(edges, to) }

	state, err := g.Run(context.Background(), "somewhere")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(edges, []Node{NodeEnd}) {
		t.Errorf("edges = %v, want straight to end", edges)
	}
	if len(gc.queries) != 0 || pl.calls != 0 {
		t.Error("aborted run must not geocode or plan")
	}
	if state.Planned() {
		t.Error("aborted run has a trip")
	}
}

func TestRunExtractionErrorAborts(t *testing.T) {
	pl := &fakePlanner{}
	g := newTestGraph(fakeExtractor{err: errors.New("model down")}, &fakeGeocoder{}, pl)

	state, err := g.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.Origin != nil || pl.calls != 0 {
		t.Errorf("state = %+v, planner calls = %d", state, pl.calls)
	}
	if state.Question != "q" {
		t.Errorf("question = %q", state.Question)
	}
}

func TestPlannerIgnoresExtractedTime(t *testing.T) {
	pl := &fakePlanner{patterns: []Itinerary{{Duration: 60}}}
	g := newTestGraph(fakeExtractor{slots: fullSlots}, &fakeGeocoder{known: oslo}, pl)

	if _, err := g.Run(context.Background(), "q"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !pl.at.Equal(fixedNow) {
		t.Errorf("planner asked for %v, want the current time %v (not %q)", pl.at, fixedNow, *fullSlots.Time)
	}
}

func TestRunPlannerErrorsAreFatal(t *testing.T) {
	tests := []struct {
		name    string
		planner *fakePlanner
		known   map[string]Coordinate
		want    error
	}{
		{"non-200", &fakePlanner{err: ErrPlannerStatus}, oslo, ErrPlannerStatus},
		{"no patterns", &fakePlanner{}, oslo, ErrNoItinerary},
		{"origin not found", &fakePlanner{}, map[string]Coordinate{"Gladengveien 10": oslo["Gladengveien 10"]}, ErrMissingCoordinates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph(fakeExtractor{slots: fullSlots}, &fakeGeocoder{known: tt.known}, tt.planner)

			state, err := g.Run(context.Background(), "q")
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run() error = %v, want %v", err, tt.want)
			}
			if state.Planned() {
				t.Error("failed run has a trip")
			}
			if state.Origin == nil {
				t.Error("last good state should keep extracted slots")
			}
			if tt.want == ErrMissingCoordinates && tt.planner.calls != 0 {
				t.Error("planner must not be called without coordinates")
			}
		})
	}
}

func TestGetCoordinatesLeavesMissesNil(t *testing.T) {
	gc := &fakeGeocoder{known: map[string]Coordinate{"Jernbanetorget": oslo["Jernbanetorget"]}}
	g := newTestGraph(nil, gc, nil)

	in := State{Origin: ptr("Jernbanetorget"), Destination: ptr("Nowhere i Oslo")}
	out := g.GetCoordinates(context.Background(), in)

	if out.OriginCoord == nil || out.DestinationCoord != nil {
		t.Errorf("coords = %+v / %+v", out.OriginCoord, out.DestinationCoord)
	}
	if in.OriginCoord != nil {
		t.Error("input state was modified")
	}
	if gc.queries[1] != "Nowhere" {
		t.Errorf("destination query = %q", gc.queries[1])
	}
}

func TestStripLocale(t *testing.T) {
	tests := map[string]string{
		"Gladengveien 10 i Oslo": "Gladengveien 10",
		"Jernbanetorget":         "Jernbanetorget",
		"Majorstuen  i Oslo":     "Majorstuen",
		"i Oslo":                 "",
		"Oslo i Oslo sentrum":    "Oslo i Oslo sentrum",
	}
	for in, want := range tests {
		if got := StripLocale(in); got != want {
			t.Errorf("StripLocale(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSlots(t *testing.T) {
	slots, err := ParseSlots(`{"origin":"A","destination":"B","handicap":"None"}`)
	if err != nil {
		t.Fatalf("ParseSlots() error = %v", err)
	}
	if slots.Time != nil {
		t.Errorf("missing key should stay nil, got %q", *slots.Time)
	}
	if *slots.Handicap != "None" {
		t.Errorf("handicap = %q", *slots.Handicap)
	}
	if _, err := ParseSlots("not json"); err == nil || !strings.Contains(err.Error(), "not json") {
		t.Errorf("ParseSlots() error = %v", err)
	}
}
