package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dealbase/backend/internal/config"
)

// ErrNoResult means the provider found no match for the address
var ErrNoResult = errors.New("no geocoding result")

// Location is a geocoded coordinate pair
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder resolves street addresses to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}

// MapboxGeocoder implements Geocoder against the Mapbox geocoding API with a
// Redis cache in front. Listings in the same neighborhood repeat addresses
// often enough that the cache pays for itself.
type MapboxGeocoder struct {
	accessToken string
	baseURL     string
	client      *http.Client
	cache       *redis.Client
	cacheTTL    time.Duration
}

// NewMapboxGeocoder creates a geocoder from configuration. cache may be nil
// to disable caching.
func NewMapboxGeocoder(cfg config.GeocoderConfig, cache *redis.Client) *MapboxGeocoder {
	return &MapboxGeocoder{
		accessToken: cfg.AccessToken,
		baseURL:     cfg.BaseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		cache:       cache,
		cacheTTL:    time.Duration(cfg.CacheTTL) * time.Hour,
	}
}

// geocodeResponse mirrors the provider's feature collection
type geocodeResponse struct {
	Features []struct {
		Center []float64 `json:"center"` // [longitude, latitude]
	} `json:"features"`
}

// Geocode resolves an address, consulting the cache first
func (g *MapboxGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	cacheKey := "geocode:" + address

	if g.cache != nil {
		cached, err := g.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var loc Location
			if err := json.Unmarshal([]byte(cached), &loc); err == nil {
				return &loc, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("Geocode cache read failed: %v", err)
		}
	}

	loc, err := g.lookup(ctx, address)
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		encoded, err := json.Marshal(loc)
		if err == nil {
			if err := g.cache.Set(ctx, cacheKey, encoded, g.cacheTTL).Err(); err != nil {
				log.Printf("Geocode cache write failed: %v", err)
			}
		}
	}
	return loc, nil
}

// lookup calls the provider's forward-geocoding endpoint
func (g *MapboxGeocoder) lookup(ctx context.Context, address string) (*Location, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?access_token=%s&limit=1",
		g.baseURL, url.PathEscape(address), url.QueryEscape(g.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding provider returned status %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	if len(decoded.Features) == 0 || len(decoded.Features[0].Center) < 2 {
		return nil, ErrNoResult
	}

	return &Location{
		Longitude: decoded.Features[0].Center[0],
		Latitude:  decoded.Features[0].Center[1],
	}, nil
}
