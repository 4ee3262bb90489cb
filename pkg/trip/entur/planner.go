package entur

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mikeboe/agent-helper/pkg/trip"
)

const tripQuery = `
query {
  trip(
    from: {
      coordinates: { latitude: %s, longitude: %s }
    }
    to: {
      coordinates: { latitude: %s, longitude: %s }
    }
    dateTime: "%s"
    arriveBy: false
    modes: {
      accessMode: foot
      egressMode: foot
      directMode: foot
      transportModes: [
        { transportMode: bus }
        { transportMode: rail }
        { transportMode: tram }
        { transportMode: metro }
        { transportMode: water }
      ]
    }
  ) {
    tripPatterns {
      duration
      legs {
        mode
        expectedStartTime
        expectedEndTime
        fromPlace {
          name
          latitude
          longitude
        }
        toPlace {
          name
          latitude
          longitude
        }
        distance
        line {
          publicCode
          name
        }
      }
    }
  }
}
`

// JourneyPlanner queries the Entur journey planner GraphQL API.
type JourneyPlanner struct {
	BaseURL    string
	ClientName string
	HTTPClient *http.Client
}

func NewJourneyPlanner(clientName string) *JourneyPlanner {
	if clientName == "" {
		clientName = DefaultClientName
	}
	return &JourneyPlanner{
		BaseURL:    PlannerURL,
		ClientName: clientName,
		HTTPClient: &http.Client{},
	}
}

// BuildQuery renders the trip query for a departure at the given instant.
func BuildQuery(from, to trip.Coordinate, at time.Time) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return fmt.Sprintf(tripQuery, f(from.Lat), f(from.Lon), f(to.Lat), f(to.Lon), at.UTC().Format(time.RFC3339))
}

type tripResponse struct {
	Data *struct {
		Trip struct {
			TripPatterns []trip.Itinerary `json:"tripPatterns"`
		} `json:"trip"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// PlanTrip returns the ranked trip patterns. A non-200 answer wraps
// trip.ErrPlannerStatus.
func (p *JourneyPlanner) PlanTrip(ctx context.Context, from, to trip.Coordinate, at time.Time) ([]trip.Itinerary, error) {
	body, err := json.Marshal(map[string]string{"query": BuildQuery(from, to, at)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("ET-Client-Name", p.ClientName)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: query failed with status code %d: %s", trip.ErrPlannerStatus, resp.StatusCode, string(raw))
	}

	var tr tripResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if tr.Data == nil {
		if len(tr.Errors) > 0 {
			return nil, fmt.Errorf("journey planner error: %s", tr.Errors[0].Message)
		}
		return nil, fmt.Errorf("journey planner response has no data")
	}
	return tr.Data.Trip.TripPatterns, nil
}
