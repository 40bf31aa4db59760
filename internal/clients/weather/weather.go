// Package weather wraps the Open-Meteo geocoding and forecast APIs.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

// Snapshot is the current weather for a city.
type Snapshot struct {
	City        string
	Temperature float64
	Units       string // "°C" or "°F"
	WindSpeed   float64
	Description string
}

// Client fetches current weather. It is a pure HTTP wrapper; callers decide
// what a lookup failure means.
type Client struct {
	http        *http.Client
	geocodeURL  string
	forecastURL string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBaseURLs overrides the API endpoints (used by tests).
func WithBaseURLs(geocode, forecast string) Option {
	return func(c *Client) {
		c.geocodeURL = geocode
		c.forecastURL = forecast
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: 8 * time.Second},
		geocodeURL:  defaultGeocodeURL,
		forecastURL: defaultForecastURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Timezone  string  `json:"timezone"`
	} `json:"results"`
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

// CurrentWeather resolves the city and fetches its current conditions.
// units is "metric" or "imperial"; metric when empty.
func (c *Client) CurrentWeather(ctx context.Context, city, units string) (*Snapshot, error) {
	lat, lon, resolved, err := c.geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current_weather", "true")
	unitLabel := "°C"
	if units == "imperial" {
		q.Set("temperature_unit", "fahrenheit")
		unitLabel = "°F"
	}

	var fr forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"?"+q.Encode(), &fr); err != nil {
		return nil, fmt.Errorf("forecast for %q: %w", city, err)
	}

	return &Snapshot{
		City:        resolved,
		Temperature: fr.CurrentWeather.Temperature,
		Units:       unitLabel,
		WindSpeed:   fr.CurrentWeather.WindSpeed,
		Description: describeWeatherCode(fr.CurrentWeather.WeatherCode),
	}, nil
}

func (c *Client) geocode(ctx context.Context, city string) (lat, lon float64, name string, err error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")

	var gr geocodeResponse
	if err := c.getJSON(ctx, c.geocodeURL+"?"+q.Encode(), &gr); err != nil {
		return 0, 0, "", fmt.Errorf("geocode %q: %w", city, err)
	}
	if len(gr.Results) == 0 {
		return 0, 0, "", fmt.Errorf("geocode %q: no match", city)
	}
	r := gr.Results[0]
	return r.Latitude, r.Longitude, r.Name, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// describeWeatherCode maps WMO weather codes to short labels.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 3:
		return "partly cloudy"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snow"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code >= 85 && code <= 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "unknown conditions"
	}
}
