// Package worldtime resolves a city's current local time.
//
// It geocodes the city through Open-Meteo (which returns an IANA timezone)
// and reads the wall clock for that zone. One HTTP round trip per lookup.
package worldtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"

// CityTime is a city's local wall-clock time.
type CityTime struct {
	City string
	Zone string
	Time time.Time
}

type Client struct {
	http       *http.Client
	geocodeURL string
	// now is swappable in tests.
	now func() time.Time
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithGeocodeURL(u string) Option {
	return func(c *Client) { c.geocodeURL = u }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: 8 * time.Second},
		geocodeURL: defaultGeocodeURL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type geocodeResponse struct {
	Results []struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
	} `json:"results"`
}

// CityTime returns the current local time in the given city.
func (c *Client) CityTime(ctx context.Context, city string) (*CityTime, error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.geocodeURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", city, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode %q: unexpected status %s", city, resp.Status)
	}

	var gr geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", city, err)
	}
	if len(gr.Results) == 0 {
		return nil, fmt.Errorf("geocode %q: no match", city)
	}
	r := gr.Results[0]

	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q for %q: %w", r.Timezone, city, err)
	}
	return &CityTime{
		City: r.Name,
		Zone: r.Timezone,
		Time: c.now().In(loc),
	}, nil
}
