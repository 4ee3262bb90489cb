// Package entur talks to the Entur geocoder and journey planner APIs.
package entur

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mikeboe/agent-helper/pkg/trip"
)

const (
	GeocoderURL = "https://api.entur.io/geocoder/v1/autocomplete"
	PlannerURL  = "https://api.entur.io/journey-planner/v3/graphql"

	// DefaultClientName identifies this application to Entur.
	DefaultClientName = "Google-VertexAI-LLM-hackathon"
)

type Geocoder struct {
	BaseURL    string
	ClientName string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewGeocoder(clientName string) *Geocoder {
	if clientName == "" {
		clientName = DefaultClientName
	}
	return &Geocoder{
		BaseURL:    GeocoderURL,
		ClientName: clientName,
		HTTPClient: &http.Client{},
		Logger:     slog.Default(),
	}
}

type featureCollection struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode returns the top match for place, or nil when there is none.
func (g *Geocoder) Geocode(ctx context.Context, place string) (*trip.Coordinate, error) {
	params := url.Values{}
	params.Set("text", place)
	params.Set("lang", "en")
	params.Set("size", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("ET-Client-Name", g.ClientName)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(fc.Features) == 0 || len(fc.Features[0].Geometry.Coordinates) < 2 {
		g.Logger.Info("No geocoder results", "place", place)
		return nil, nil
	}

	// GeoJSON order is [lon, lat].
	c := fc.Features[0].Geometry.Coordinates
	return &trip.Coordinate{Lat: c[1], Lon: c[0]}, nil
}
