// Package walkpath fetches wheelchair-accessible walking routes from the
// Supabase A* function. Geometry comes back in EPSG:25832.
package walkpath

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/paulmach/orb"
)

const astarFunction = "/rest/v1/rpc/find_astar_path_rullestol"

// Segment is one piece of an accessible path.
type Segment struct {
	Geometry orb.LineString // EPSG:25832
	GateType string
	ImageURL string
}

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
		Logger:     slog.Default(),
	}
}

type pathRequest struct {
	StartLon float64 `json:"start_lon"`
	StartLat float64 `json:"start_lat"`
	EndLon   float64 `json:"end_lon"`
	EndLat   float64 `json:"end_lat"`
}

type pathSegment struct {
	GeomGeoJSON struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geom_geojson"`
	GateType *string `json:"gatetype"`
	Image    *string `json:"bildefil1"`
}

// FindPath returns the segments between two lon/lat points. Any failure is
// logged and yields no segments, so the caller falls back to a straight line.
func (c *Client) FindPath(ctx context.Context, from, to orb.Point) []Segment {
	segments, err := c.findPath(ctx, from, to)
	if err != nil {
		c.Logger.Error("Accessible path lookup failed", "from", from, "to", to, "error", err)
		return nil
	}
	return segments
}

func (c *Client) findPath(ctx context.Context, from, to orb.Point) ([]Segment, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is not set")
	}

	body, err := json.Marshal(pathRequest{StartLon: from.Lon(), StartLat: from.Lat(), EndLon: to.Lon(), EndLat: to.Lat()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+astarFunction, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var raw []pathSegment
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	segments := make([]Segment, 0, len(raw))
	for _, s := range raw {
		line := make(orb.LineString, 0, len(s.GeomGeoJSON.Coordinates))
		for _, xy := range s.GeomGeoJSON.Coordinates {
			if len(xy) >= 2 {
				line = append(line, orb.Point{xy[0], xy[1]})
			}
		}
		seg := Segment{Geometry: line}
		if s.GateType != nil {
			seg.GateType = *s.GateType
		}
		if s.Image != nil {
			seg.ImageURL = *s.Image
		}
		segments = append(segments, seg)
	}
	return segments, nil
}
