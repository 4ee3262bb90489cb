// Package routemap turns a planned itinerary into GeoJSON map layers.
package routemap

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mikeboe/agent-helper/pkg/geo"
	"github.com/mikeboe/agent-helper/pkg/trip"
	"github.com/mikeboe/agent-helper/pkg/walkpath"
)

var ErrEmptyItinerary = errors.New("itinerary has no legs")

var modeColors = map[string]string{
	trip.ModeFoot:  "blue",
	trip.ModeMetro: "red",
	trip.ModeBus:   "green",
	trip.ModeTram:  "orange",
	trip.ModeRail:  "purple",
	"train":        "purple",
}

// ModeColor is the line colour for a leg mode.
func ModeColor(mode string) string {
	if c, ok := modeColors[strings.ToLower(mode)]; ok {
		return c
	}
	return "gray"
}

// PathFinder returns accessible walking segments in EPSG:25832 between two
// lon/lat points, or nothing.
type PathFinder interface {
	FindPath(ctx context.Context, from, to orb.Point) []walkpath.Segment
}

type Preferences struct {
	Wheelchair       bool `json:"wheelchair"`
	VisuallyImpaired bool `json:"visually_impaired"`
}

// Layers is everything a client needs to draw the trip.
type Layers struct {
	Center   orb.Point                  `json:"center"`
	Features *geojson.FeatureCollection `json:"features"`
}

type Assembler struct {
	Paths  PathFinder
	Logger *slog.Logger
}

func NewAssembler(paths PathFinder) *Assembler {
	return &Assembler{Paths: paths, Logger: slog.Default()}
}

func point(p trip.Place) orb.Point { return orb.Point{p.Longitude, p.Latitude} }

// Assemble builds the map: start and end markers, one straight line per
// transit leg, and detailed accessible geometry for walking legs. Feature
// order follows leg order.
func (a *Assembler) Assemble(ctx context.Context, it *trip.Itinerary, prefs Preferences) (*Layers, error) {
	if it == nil || len(it.Legs) == 0 {
		return nil, ErrEmptyItinerary
	}

	first, last := it.Legs[0], it.Legs[len(it.Legs)-1]
	start, end := point(first.FromPlace), point(last.ToPlace)

	fc := geojson.NewFeatureCollection()
	fc.Append(marker(start, "origin", first.FromPlace.Name, "green", "play"))

	for i, leg := range it.Legs {
		mode := strings.ToLower(leg.Mode)
		if mode == trip.ModeFoot {
			for _, f := range a.walkingLeg(ctx, i, leg, prefs) {
				fc.Append(f)
			}
			continue
		}

		if i != 0 && i != len(it.Legs)-1 {
			fc.Append(marker(point(leg.FromPlace), "transfer", leg.FromPlace.Name, "blue", "exchange"))
		}
		label := capitalize(mode)
		if leg.Line != nil && leg.Line.PublicCode != "" {
			label += " " + leg.Line.PublicCode
		}
		fc.Append(straightLine(i, leg, ModeColor(mode), fmt.Sprintf("%s: %s → %s", label, leg.FromPlace.Name, leg.ToPlace.Name)))
	}

	fc.Append(marker(end, "destination", last.ToPlace.Name, "red", "stop"))

	return &Layers{
		Center:   orb.Point{(start.Lon() + end.Lon()) / 2, (start.Lat() + end.Lat()) / 2},
		Features: fc,
	}, nil
}

// walkingLeg trims the first segment's start and the last segment's end to
// the leg's own endpoints, then reprojects to lon/lat. With no segments the
// leg is drawn straight.
func (a *Assembler) walkingLeg(ctx context.Context, idx int, leg trip.Leg, prefs Preferences) []*geojson.Feature {
	from, to := point(leg.FromPlace), point(leg.ToPlace)
	popup := fmt.Sprintf("Walk: %s → %s", leg.FromPlace.Name, leg.ToPlace.Name)

	var segments []walkpath.Segment
	if a.Paths != nil {
		segments = a.Paths.FindPath(ctx, from, to)
	}
	if len(segments) == 0 {
		a.Logger.Info("No accessible path, drawing straight walking leg", "leg", idx)
		f := straightLine(idx, leg, ModeColor(trip.ModeFoot), popup)
		setPreferences(f, prefs)
		return []*geojson.Feature{f}
	}

	sx, sy := geo.ToUTM32(from.Lon(), from.Lat())
	ex, ey := geo.ToUTM32(to.Lon(), to.Lat())

	features := make([]*geojson.Feature, 0, len(segments))
	for n, seg := range segments {
		line := seg.Geometry
		if n == 0 {
			line = geo.TrimToPoint(line, orb.Point{sx, sy}, true)
		}
		if n == len(segments)-1 {
			line = geo.TrimToPoint(line, orb.Point{ex, ey}, false)
		}

		lonlat := make(orb.LineString, len(line))
		for i, p := range line {
			lon, lat := geo.FromUTM32(p[0], p[1])
			lonlat[i] = orb.Point{lon, lat}
		}

		gate := seg.GateType
		if gate == "" {
			gate = "N/A"
		}
		f := geojson.NewFeature(lonlat)
		f.Properties["kind"] = "leg"
		f.Properties["leg"] = idx
		f.Properties["mode"] = trip.ModeFoot
		f.Properties["color"] = ModeColor(trip.ModeFoot)
		f.Properties["weight"] = 4
		f.Properties["opacity"] = 0.8
		f.Properties["gatetype"] = gate
		f.Properties["image_url"] = seg.ImageURL
		f.Properties["tooltip"] = gate
		f.Properties["popup"] = segmentPopup(gate, seg.ImageURL)
		setPreferences(f, prefs)
		features = append(features, f)
	}
	return features
}

func segmentPopup(gate, image string) string {
	body := "<i>No image</i>"
	if image != "" {
		body = fmt.Sprintf(`<img src="%s" width="250">`, html.EscapeString(image))
	}
	return fmt.Sprintf("<b>%s</b><br>%s", html.EscapeString(gate), body)
}

func straightLine(idx int, leg trip.Leg, color, popup string) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString{point(leg.FromPlace), point(leg.ToPlace)})
	f.Properties["kind"] = "leg"
	f.Properties["leg"] = idx
	f.Properties["mode"] = strings.ToLower(leg.Mode)
	f.Properties["color"] = color
	f.Properties["weight"] = 5
	f.Properties["opacity"] = 0.7
	f.Properties["popup"] = popup
	return f
}

func marker(p orb.Point, role, name, color, icon string) *geojson.Feature {
	f := geojson.NewFeature(p)
	f.Properties["kind"] = "marker"
	f.Properties["role"] = role
	f.Properties["popup"] = name
	f.Properties["color"] = color
	f.Properties["icon"] = icon
	return f
}

func setPreferences(f *geojson.Feature, prefs Preferences) {
	f.Properties["wheelchair"] = prefs.Wheelchair
	f.Properties["visually_impaired"] = prefs.VisuallyImpaired
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
