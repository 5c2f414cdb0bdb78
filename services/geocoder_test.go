package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prashant564/Courses24-API/utils"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nominatimBody = `[{
	"lat": "42.3508",
	"lon": "-71.1040",
	"display_name": "233, Bay State Road, Boston, Massachusetts, 02215, United States",
	"address": {
		"house_number": "233",
		"road": "Bay State Road",
		"city": "Boston",
		"state": "Massachusetts",
		"postcode": "02215",
		"country_code": "us"
	}
}]`

func nominatimServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "courses24-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNominatimGeocoder_ParsesFirstResult(t *testing.T) {
	var hits int32
	srv := nominatimServer(t, http.StatusOK, nominatimBody, &hits)
	g := NewNominatimGeocoder(srv.URL, "courses24-test", "us", utils.NewCircuitBreaker("geo-test", time.Minute))

	loc, err := g.Geocode(context.Background(), "233 Bay State Rd Boston MA")
	require.NoError(t, err)
	assert.Equal(t, "Point", loc.Type)
	assert.Equal(t, []float64{-71.1040, 42.3508}, loc.Coordinates)
	assert.Equal(t, "233 Bay State Road", loc.Street)
	assert.Equal(t, "Boston", loc.City)
	assert.Equal(t, "02215", loc.Zipcode)
	assert.Equal(t, "US", loc.Country)
}

func TestNominatimGeocoder_EmptyResultDoesNotTripBreaker(t *testing.T) {
	var hits int32
	srv := nominatimServer(t, http.StatusOK, `[]`, &hits)
	g := NewNominatimGeocoder(srv.URL, "courses24-test", "", utils.NewCircuitBreaker("geo-empty", time.Minute))

	for i := 0; i < 6; i++ {
		_, err := g.Geocode(context.Background(), "nowhere")
		assert.ErrorIs(t, err, ErrNoGeocodeResult)
	}
	assert.Equal(t, int32(6), atomic.LoadInt32(&hits))
}

func TestNominatimGeocoder_BreakerOpensOnUpstreamErrors(t *testing.T) {
	var hits int32
	srv := nominatimServer(t, http.StatusServiceUnavailable, `oops`, &hits)
	g := NewNominatimGeocoder(srv.URL, "courses24-test", "", utils.NewCircuitBreaker("geo-down", time.Minute))

	for i := 0; i < 4; i++ {
		_, err := g.Geocode(context.Background(), "02118")
		assert.Error(t, err)
	}
	_, err := g.Geocode(context.Background(), "02118")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestCachedGeocoder_ServesRepeatLookupsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var hits int32
	srv := nominatimServer(t, http.StatusOK, nominatimBody, &hits)
	next := NewNominatimGeocoder(srv.URL, "courses24-test", "", utils.NewCircuitBreaker("geo-cache", time.Minute))
	g := NewCachedGeocoder(next, client, time.Hour)

	first, err := g.Geocode(context.Background(), "02215")
	require.NoError(t, err)
	second, err := g.Geocode(context.Background(), " 02215 ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.True(t, mr.Exists("geocode:02215"))
	assert.Equal(t, time.Hour, mr.TTL("geocode:02215"))
}

func TestCachedGeocoder_FallsThroughWhenRedisIsDown(t *testing.T) {
	// nothing listens on port 1
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	var hits int32
	srv := nominatimServer(t, http.StatusOK, nominatimBody, &hits)
	next := NewNominatimGeocoder(srv.URL, "courses24-test", "", utils.NewCircuitBreaker("geo-nocache", time.Minute))
	g := NewCachedGeocoder(next, client, time.Hour)

	loc, err := g.Geocode(context.Background(), "02215")
	require.NoError(t, err)
	assert.Equal(t, "Boston", loc.City)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
