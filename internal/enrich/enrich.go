// Package enrich composes the notification body for a due task, augmenting it
// with weather and local-time context for a location inferred from the task
// text. Enrichment is best-effort: it always produces a displayable string,
// substituting placeholders for unavailable sub-results.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"remindbot/internal/clients/weather"
	"remindbot/internal/clients/worldtime"
	"remindbot/internal/task"
	"remindbot/pkg/logx"
)

// WeatherProvider is the external weather collaborator.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, city, units string) (*weather.Snapshot, error)
}

// TimeProvider is the external local-time collaborator.
type TimeProvider interface {
	CityTime(ctx context.Context, city string) (*worldtime.CityTime, error)
}

const (
	weatherUnavailable = "weather unavailable"
	timeUnavailable    = "local time unavailable"
)

// defaultCities is the fallback set used when no location can be inferred.
var defaultCities = []string{"London", "New York", "Tokyo"}

type Enricher struct {
	weather WeatherProvider
	timep   TimeProvider
	locator Locator
	units   string
	log     logx.Logger
}

func New(w WeatherProvider, tp TimeProvider, locator Locator, units string, log logx.Logger) *Enricher {
	if locator == nil {
		locator = NewHeuristicLocator()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Enricher{weather: w, timep: tp, locator: locator, units: units, log: log}
}

// Enrich renders the full notification body for a due task. It never fails.
func (e *Enricher) Enrich(ctx context.Context, t task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 %s\n", t.Title)
	fmt.Fprintf(&b, "📅 %s  ⏰ %s\n", t.ReminderAt.Format("Mon, 02 Jan 2006"), t.ReminderAt.Format("15:04"))
	if desc := strings.TrimSpace(t.Description); desc != "" {
		fmt.Fprintf(&b, "📝 %s\n", desc)
	}

	if city, ok := e.locator.Extract(t.Title + " " + t.Description); ok {
		b.WriteString("\n")
		b.WriteString(e.cityBlock(ctx, city))
	} else {
		b.WriteString("\n🌍 No location found — around the world:\n")
		for _, c := range defaultCities {
			b.WriteString(e.cityBlock(ctx, c))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// cityBlock renders one city's weather/time lines, substituting placeholders
// on collaborator failure.
func (e *Enricher) cityBlock(ctx context.Context, city string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📍 %s\n", city)

	if e.weather == nil {
		fmt.Fprintf(&b, "   %s\n", weatherUnavailable)
	} else if snap, err := e.weather.CurrentWeather(ctx, city, e.units); err != nil {
		e.log.Debug("weather lookup failed", logx.String("city", city), logx.Err(err))
		fmt.Fprintf(&b, "   %s\n", weatherUnavailable)
	} else {
		fmt.Fprintf(&b, "   🌤 %.1f%s, %s, wind %.0f km/h\n", snap.Temperature, snap.Units, snap.Description, snap.WindSpeed)
	}

	if e.timep == nil {
		fmt.Fprintf(&b, "   %s\n", timeUnavailable)
	} else if ct, err := e.timep.CityTime(ctx, city); err != nil {
		e.log.Debug("time lookup failed", logx.String("city", city), logx.Err(err))
		fmt.Fprintf(&b, "   %s\n", timeUnavailable)
	} else {
		fmt.Fprintf(&b, "   🕐 %s (%s)\n", ct.Time.Format("15:04"), ct.Zone)
	}
	return b.String()
}
