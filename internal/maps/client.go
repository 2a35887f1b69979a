package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/halfwaymeet/meetup-server-go/internal/model"
	"github.com/halfwaymeet/meetup-server-go/internal/redis"
)

const (
	geocodingURL      = "https://maps.googleapis.com/maps/api/geocode/json"
	distanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	placesNearbyURL   = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

	requestTimeout  = 10 * time.Second
	geocodeCacheTTL = 24 * time.Hour

	// Street-level result types accepted when snapping a raw pin.
	snapResultTypes = "street_address|route|premise"

	venueSearchRadiusMeters = 800
	venueSearchType         = "cafe"
)

// SnapResult is a raw coordinate resolved to a street-level location.
type SnapResult struct {
	Snapped model.LatLng `json:"snapped"`
	Address string       `json:"address"`
}

// VenueCandidate is a place near the computed midpoint.
type VenueCandidate struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
	Rating  *float64
}

// Client talks to the Google Maps web service endpoints. The redis cache is
// optional; a nil cache disables geocode caching.
type Client struct {
	apiKey string
	client *http.Client
	cache  *redis.Client

	// Endpoint overrides for tests.
	geocodeURL string
	matrixURL  string
	placesURL  string
}

func NewClient(apiKey string, cache *redis.Client) *Client {
	return &Client{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		cache:      cache,
		geocodeURL: geocodingURL,
		matrixURL:  distanceMatrixURL,
		placesURL:  placesNearbyURL,
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location model.LatLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Snap resolves a raw coordinate to the nearest street-level location.
// A nil result means the pin could not be resolved; the caller decides
// how to reject. Resolved pins are cached for a day.
func (c *Client) Snap(ctx context.Context, point model.LatLng) (*SnapResult, error) {
	if cached := c.cachedSnap(ctx, point); cached != nil {
		return cached, nil
	}

	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", point.Lat, point.Lng))
	params.Set("result_type", snapResultTypes)

	var resp geocodeResponse
	if err := c.get(ctx, c.geocodeURL, params, &resp); err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}

	if resp.Status == "ZERO_RESULTS" || len(resp.Results) == 0 {
		return nil, nil
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("geocode status: %s", resp.Status)
	}

	result := &SnapResult{
		Snapped: resp.Results[0].Geometry.Location,
		Address: resp.Results[0].FormattedAddress,
	}

	c.storeSnap(ctx, point, result)

	return result, nil
}

func (c *Client) cachedSnap(ctx context.Context, point model.LatLng) *SnapResult {
	if c.cache == nil {
		return nil
	}

	data, err := c.cache.Get(ctx, redis.GeocodeKey(point.Lat, point.Lng)).Bytes()
	if err != nil {
		return nil
	}

	var result SnapResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

func (c *Client) storeSnap(ctx context.Context, point model.LatLng, result *SnapResult) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}

	if err := c.cache.Set(ctx, redis.GeocodeKey(point.Lat, point.Lng), data, geocodeCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to cache geocode result")
	}
}

type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// TransitTimes returns the one-way transit durations in seconds from each
// origin to the destination.
func (c *Client) TransitTimes(ctx context.Context, originA, originB, destination model.LatLng) (float64, float64, error) {
	params := url.Values{}
	params.Set("origins", fmt.Sprintf("%f,%f|%f,%f", originA.Lat, originA.Lng, originB.Lat, originB.Lng))
	params.Set("destinations", fmt.Sprintf("%f,%f", destination.Lat, destination.Lng))
	params.Set("mode", "transit")

	var resp distanceMatrixResponse
	if err := c.get(ctx, c.matrixURL, params, &resp); err != nil {
		return 0, 0, fmt.Errorf("distance matrix: %w", err)
	}

	if resp.Status != "OK" {
		return 0, 0, fmt.Errorf("distance matrix status: %s", resp.Status)
	}

	if len(resp.Rows) < 2 || len(resp.Rows[0].Elements) < 1 || len(resp.Rows[1].Elements) < 1 {
		return 0, 0, fmt.Errorf("distance matrix: malformed response")
	}

	elementA := resp.Rows[0].Elements[0]
	elementB := resp.Rows[1].Elements[0]

	if elementA.Status != "OK" {
		return 0, 0, fmt.Errorf("distance matrix element status: %s", elementA.Status)
	}
	if elementB.Status != "OK" {
		return 0, 0, fmt.Errorf("distance matrix element status: %s", elementB.Status)
	}

	return elementA.Duration.Value, elementB.Duration.Value, nil
}

type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Rating   float64 `json:"rating"`
		Geometry struct {
			Location model.LatLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NearbyVenues returns up to limit venues around the given center.
func (c *Client) NearbyVenues(ctx context.Context, center model.LatLng, limit int) ([]VenueCandidate, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lng))
	params.Set("radius", fmt.Sprintf("%d", venueSearchRadiusMeters))
	params.Set("type", venueSearchType)

	var resp placesResponse
	if err := c.get(ctx, c.placesURL, params, &resp); err != nil {
		return nil, fmt.Errorf("places nearby: %w", err)
	}

	if resp.Status == "ZERO_RESULTS" {
		return nil, nil
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("places nearby status: %s", resp.Status)
	}

	venues := make([]VenueCandidate, 0, limit)
	for _, r := range resp.Results {
		if len(venues) >= limit {
			break
		}

		v := VenueCandidate{
			Name:    r.Name,
			Address: r.Vicinity,
			Lat:     r.Geometry.Location.Lat,
			Lng:     r.Geometry.Location.Lng,
		}
		if r.Rating > 0 {
			rating := r.Rating
			v.Rating = &rating
		}
		venues = append(venues, v)
	}

	return venues, nil
}
