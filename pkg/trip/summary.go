package trip

import (
	"fmt"
	"strings"
)

// NoTripMessage is shown when the run produced no itinerary.
const NoTripMessage = "Could not plan trip. Please try again with more details."

// Summary renders the planned trip as Markdown.
func Summary(s State) string {
	if s.Trip == nil {
		return NoTripMessage
	}

	var b strings.Builder
	b.WriteString("**Trip Summary:**\n\n")
	fmt.Fprintf(&b, "* From: %s\n", deref(s.Origin))
	fmt.Fprintf(&b, "* To: %s\n", deref(s.Destination))
	fmt.Fprintf(&b, "* Total duration: %d minutes\n\n", s.Trip.Duration/60)
	b.WriteString("**Route:**\n\n")

	for i, leg := range s.Trip.Legs {
		mode := capitalize(leg.Mode)
		if leg.Line != nil && leg.Line.PublicCode != "" {
			mode += " " + leg.Line.PublicCode
			if leg.Line.Name != "" {
				mode += " (" + leg.Line.Name + ")"
			}
		}
		fmt.Fprintf(&b, "%d. **%s**: %s - %s\n", i+1, mode,
			leg.ExpectedStartTime.Format("15:04"), leg.ExpectedEndTime.Format("15:04"))
		fmt.Fprintf(&b, "   From: %s → To: %s\n", leg.FromPlace.Name, leg.ToPlace.Name)
		fmt.Fprintf(&b, "   Distance: %.2f km\n\n", leg.Distance/1000)
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}

// WithAccessibility appends the user's accessibility needs to the question.
func WithAccessibility(question string, wheelchair, visuallyImpaired bool) string {
	var needs []string
	if wheelchair {
		needs = append(needs, "wheelchair user")
	}
	if visuallyImpaired {
		needs = append(needs, "visually impaired")
	}
	if len(needs) == 0 {
		return question
	}
	return question + " (NB: I am a/an " + strings.Join(needs, "/") + ".)"
}
