package trip

import (
	"strings"
	"testing"
	"time"
)

func TestSummary(t *testing.T) {
	cet := time.FixedZone("CEST", 2*60*60)
	s := State{
		Origin:      ptr("Jernbanetorget"),
		Destination: ptr("Gladengveien 10"),
		Trip: &Itinerary{
			Duration: 1530,
			Legs: []Leg{
				{
					Mode:              "foot",
					ExpectedStartTime: time.Date(2025, 6, 1, 12, 0, 0, 0, cet),
					ExpectedEndTime:   time.Date(2025, 6, 1, 12, 4, 0, 0, cet),
					FromPlace:         Place{Name: "Origin"},
					ToPlace:           Place{Name: "Jernbanetorget"},
					Distance:          312.4,
				},
				{
					Mode:              "tram",
					ExpectedStartTime: time.Date(2025, 6, 1, 12, 6, 0, 0, cet),
					ExpectedEndTime:   time.Date(2025, 6, 1, 12, 20, 0, 0, cet),
					FromPlace:         Place{Name: "Jernbanetorget"},
					ToPlace:           Place{Name: "Gladengveien"},
					Distance:          2876,
					Line:              &Line{PublicCode: "13", Name: "Bekkestua"},
				},
			},
		},
	}

	got := Summary(s)
	for _, want := range []string{
		"**Trip Summary:**\n\n* From: Jernbanetorget\n* To: Gladengveien 10\n* Total duration: 25 minutes\n\n**Route:**\n\n",
		"1. **Foot**: 12:00 - 12:04\n   From: Origin → To: Jernbanetorget\n   Distance: 0.31 km\n\n",
		"2. **Tram 13 (Bekkestua)**: 12:06 - 12:20\n",
		"   Distance: 2.88 km\n\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q\n%s", want, got)
		}
	}
}

func TestSummaryWithoutTrip(t *testing.T) {
	if got := Summary(State{}); got != NoTripMessage {
		t.Errorf("Summary() = %q", got)
	}
}

func TestWithAccessibility(t *testing.T) {
	tests := []struct {
		wheelchair, vision bool
		want               string
	}{
		{false, false, "til Majorstuen"},
		{true, false, "til Majorstuen (NB: I am a/an wheelchair user.)"},
		{false, true, "til Majorstuen (NB: I am a/an visually impaired.)"},
		{true, true, "til Majorstuen (NB: I am a/an wheelchair user/visually impaired.)"},
	}
	for _, tt := range tests {
		if got := WithAccessibility("til Majorstuen", tt.wheelchair, tt.vision); got != tt.want {
			t.Errorf("WithAccessibility(%v, %v) = %q, want %q", tt.wheelchair, tt.vision, got, tt.want)
		}
	}
}
