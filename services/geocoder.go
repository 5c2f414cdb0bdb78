package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prashant564/Courses24-API/logging"
	"github.com/prashant564/Courses24-API/models"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

var ErrNoGeocodeResult = errors.New("address could not be geocoded")

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Location, error)
}

type nominatimAddress struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	CountryCode string `json:"country_code"`
}

type nominatimResult struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

// NominatimGeocoder resolves addresses and postal codes through an
// OpenStreetMap Nominatim compatible search endpoint.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	country   string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
}

func NewNominatimGeocoder(baseURL, userAgent, country string, breaker *gobreaker.CircuitBreaker) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		country:   country,
		client:    &http.Client{Timeout: 5 * time.Second},
		breaker:   breaker,
	}
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (*models.Location, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		loc, err := g.search(ctx, address)
		if errors.Is(err, ErrNoGeocodeResult) {
			// an unknown address is not an upstream failure
			return (*models.Location)(nil), nil
		}
		return loc, err
	})
	if err != nil {
		return nil, err
	}
	loc := result.(*models.Location)
	if loc == nil {
		return nil, ErrNoGeocodeResult
	}
	return loc, nil
}

func (g *NominatimGeocoder) search(ctx context.Context, address string) (*models.Location, error) {
	params := url.Values{}
	params.Add("q", address)
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("limit", "1")
	if g.country != "" {
		params.Add("countrycodes", g.country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		logging.Logger.Errorf("Event ID: GEOCODE_REQUEST_FAILED, Description: Geocoder request for '%s' failed: %v", address, err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		logging.Logger.Errorf("Event ID: GEOCODE_UPSTREAM_ERROR, Description: Geocoder answered with status %d", resp.StatusCode)
		return nil, fmt.Errorf("geocoder upstream error: %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoGeocodeResult
	}
	return toLocation(results[0])
}

func toLocation(r nominatimResult) (*models.Location, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", r.Lon, err)
	}

	street := strings.TrimSpace(strings.Join([]string{r.Address.HouseNumber, r.Address.Road}, " "))
	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}

	return &models.Location{
		Type:             "Point",
		Coordinates:      []float64{lng, lat},
		FormattedAddress: r.DisplayName,
		Street:           street,
		City:             city,
		State:            r.Address.State,
		Zipcode:          r.Address.Postcode,
		Country:          strings.ToUpper(r.Address.CountryCode),
	}, nil
}

// CachedGeocoder keeps successful lookups in Redis. Cache failures are
// logged and fall through to the wrapped geocoder.
type CachedGeocoder struct {
	next   Geocoder
	client *redis.Client
	ttl    time.Duration
}

func NewCachedGeocoder(next Geocoder, client *redis.Client, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{next: next, client: client, ttl: ttl}
}

func geocodeKey(address string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(address))
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (*models.Location, error) {
	key := geocodeKey(address)

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var loc models.Location
		if jsonErr := json.Unmarshal(cached, &loc); jsonErr == nil {
			return &loc, nil
		}
	case !errors.Is(err, redis.Nil):
		logging.Logger.Warnf("Event ID: GEOCODE_CACHE_READ_FAILED, Description: Reading '%s' from cache failed: %v", key, err)
	}

	loc, err := c.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(loc); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			logging.Logger.Warnf("Event ID: GEOCODE_CACHE_WRITE_FAILED, Description: Writing '%s' to cache failed: %v", key, err)
		}
	}
	return loc, nil
}
