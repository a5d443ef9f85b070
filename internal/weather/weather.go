// Package weather fetches current conditions from OpenWeather with a
// 30-minute cache per location.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tunetools/tunetools-api/internal/cache"
	"github.com/tunetools/tunetools-api/internal/logger"
	"github.com/tunetools/tunetools-api/internal/models"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	cacheTTL       = 30 * time.Minute
	requestTimeout = 10 * time.Second
)

// Service fetches and caches weather data
type Service struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *cache.TTL[*models.WeatherData]
}

func NewService(apiKey string) *Service {
	return &Service{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: requestTimeout},
		cache:   cache.NewTTL[*models.WeatherData](cacheTTL),
	}
}

// SetBaseURL overrides the API endpoint, for tests
func (s *Service) SetBaseURL(u string) { s.baseURL = u }

// Cache exposes the underlying cache, for tests
func (s *Service) Cache() *cache.TTL[*models.WeatherData] { return s.cache }

// ByCity returns current weather for a city name
func (s *Service) ByCity(ctx context.Context, city string) (*models.WeatherData, error) {
	key := "city:" + strings.ToLower(city)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("q", city)
	data, err := s.fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, data)
	return data, nil
}

// ByCoords returns current weather for a coordinate pair
func (s *Service) ByCoords(ctx context.Context, lat, lon float64) (*models.WeatherData, error) {
	key := fmt.Sprintf("coords:%.4f,%.4f", lat, lon)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	data, err := s.fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, data)
	return data, nil
}

type apiResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"` // Kelvin
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain map[string]float64 `json:"rain"`
	Snow map[string]float64 `json:"snow"`
	Dt   int64              `json:"dt"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Name string `json:"name"`
}

func (s *Service) fetch(ctx context.Context, params url.Values) (*models.WeatherData, error) {
	params.Set("appid", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather request failed: status %d", resp.StatusCode)
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("weather response decode failed: %w", err)
	}

	data := parse(&raw)
	logger.Debug("weather fetched", logger.Fields{
		"location":  data.Location,
		"condition": data.WeatherCondition,
	})
	return data, nil
}

func parse(raw *apiResponse) *models.WeatherData {
	tempC := raw.Main.Temp - 273.15

	condition, icon := "", ""
	if len(raw.Weather) > 0 {
		condition = raw.Weather[0].Description
		icon = raw.Weather[0].Icon
	}

	precipitation := raw.Rain["1h"] + raw.Snow["1h"]

	return &models.WeatherData{
		Location:         fmt.Sprintf("%s, %s", raw.Name, raw.Sys.Country),
		City:             raw.Name,
		Country:          raw.Sys.Country,
		TempC:            round1(tempC),
		TempF:            round1(tempC*9/5 + 32),
		WeatherCondition: condition,
		Humidity:         raw.Main.Humidity,
		WindSpeedKPH:     round1(raw.Wind.Speed * 1.60934),
		PrecipitationMM:  precipitation,
		Icon:             icon,
		LocalTime:        time.Unix(raw.Dt, 0).UTC().Format("Monday 02, January 15:04"),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
