package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const osloResponse = `{
	"coord": {"lat": 59.91, "lon": 10.75},
	"weather": [{"description": "light rain", "icon": "10d"}],
	"main": {"temp": 288.15, "humidity": 72},
	"wind": {"speed": 5.0},
	"rain": {"1h": 0.4},
	"dt": 1756454400,
	"sys": {"country": "NO"},
	"name": "Oslo"
}`

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewService("test-key")
	svc.SetBaseURL(server.URL)
	return svc, server
}

func TestByCityParsesResponse(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Oslo", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		fmt.Fprint(w, osloResponse)
	})

	data, err := svc.ByCity(context.Background(), "Oslo")
	require.NoError(t, err)

	assert.Equal(t, "Oslo", data.City)
	assert.Equal(t, "NO", data.Country)
	assert.Equal(t, "Oslo, NO", data.Location)
	assert.Equal(t, "light rain", data.WeatherCondition)
	assert.Equal(t, "10d", data.Icon)
	assert.InDelta(t, 15.0, data.TempC, 0.01) // 288.15K
	assert.InDelta(t, 59.0, data.TempF, 0.01)
	assert.Equal(t, 72, data.Humidity)
	assert.InDelta(t, 8.0, data.WindSpeedKPH, 0.1)
	assert.InDelta(t, 0.4, data.PrecipitationMM, 0.001)
}

func TestByCityCachesPerCity(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, osloResponse)
	})

	_, err := svc.ByCity(context.Background(), "Oslo")
	require.NoError(t, err)
	_, err = svc.ByCity(context.Background(), "oslo") // case-insensitive key
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = svc.ByCity(context.Background(), "Bergen")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestByCoordsUsesCoordinateKey(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.NotEmpty(t, r.URL.Query().Get("lat"))
		assert.NotEmpty(t, r.URL.Query().Get("lon"))
		fmt.Fprint(w, osloResponse)
	})

	_, err := svc.ByCoords(context.Background(), 59.91, 10.75)
	require.NoError(t, err)
	_, err = svc.ByCoords(context.Background(), 59.91, 10.75)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestByCityUpstreamError(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := svc.ByCity(context.Background(), "Oslo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestByCityErrorIsNotCached(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, osloResponse)
	})

	_, err := svc.ByCity(context.Background(), "Oslo")
	require.Error(t, err)

	data, err := svc.ByCity(context.Background(), "Oslo")
	require.NoError(t, err)
	assert.Equal(t, "Oslo", data.City)
}
