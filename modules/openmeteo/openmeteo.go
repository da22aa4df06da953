// Package openmeteo implements the weather capability against the
// Open-Meteo forecast and geocoding APIs. No API key is required.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"scour/capability"
	"scour/core"
)

const forecastDays = 5

type Backend struct {
	client      *http.Client
	forecastURL string
	geocodeURL  string
	unit        string // "celsius" or "fahrenheit"
}

func New(params map[string]string) (*Backend, error) {
	unit := "celsius"
	switch params["units"] {
	case "", "metric":
	case "imperial":
		unit = "fahrenheit"
	default:
		return nil, fmt.Errorf("unknown units %q (want metric or imperial)", params["units"])
	}
	return &Backend{
		client:      &http.Client{Timeout: 30 * time.Second},
		forecastURL: "https://api.open-meteo.com/v1/forecast",
		geocodeURL:  "https://geocoding-api.open-meteo.com/v1/search",
		unit:        unit,
	}, nil
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time           []string  `json:"time"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		WeatherCode    []int     `json:"weather_code"`
	} `json:"daily"`
}

func (b *Backend) CurrentWeather(ctx context.Context, city string) (*capability.Current, error) {
	name, lat, lon, err := b.geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	result, err := b.fetchForecast(ctx, lat, lon, "current=temperature_2m,weather_code")
	if err != nil {
		return nil, err
	}

	return &capability.Current{
		City:        name,
		Temperature: result.Current.Temperature,
		Description: weatherDescription(result.Current.WeatherCode),
	}, nil
}

func (b *Backend) Forecast(ctx context.Context, city string) ([]*capability.Forecast, error) {
	name, lat, lon, err := b.geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("daily=temperature_2m_max,temperature_2m_min,weather_code&forecast_days=%d", forecastDays)
	result, err := b.fetchForecast(ctx, lat, lon, query)
	if err != nil {
		return nil, err
	}

	forecasts := make([]*capability.Forecast, 0, len(result.Daily.Time))
	for i, day := range result.Daily.Time {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("parsing forecast date %q: %w", day, err)
		}
		f := &capability.Forecast{City: name, Date: date}
		if i < len(result.Daily.TemperatureMin) {
			f.Low = result.Daily.TemperatureMin[i]
		}
		if i < len(result.Daily.TemperatureMax) {
			f.High = result.Daily.TemperatureMax[i]
		}
		if i < len(result.Daily.WeatherCode) {
			f.Description = weatherDescription(result.Daily.WeatherCode[i])
		}
		forecasts = append(forecasts, f)
	}
	return forecasts, nil
}

func (b *Backend) geocode(ctx context.Context, city string) (name string, lat, lon float64, err error) {
	u := fmt.Sprintf("%s?name=%s&count=1", b.geocodeURL, url.QueryEscape(city))

	var result geocodeResponse
	if err := b.getJSON(ctx, u, &result); err != nil {
		return "", 0, 0, fmt.Errorf("geocoding %q: %w", city, err)
	}
	if len(result.Results) == 0 {
		return "", 0, 0, fmt.Errorf("no location found for %q", city)
	}
	r := result.Results[0]
	return r.Name, r.Latitude, r.Longitude, nil
}

func (b *Backend) fetchForecast(ctx context.Context, lat, lon float64, query string) (*forecastResponse, error) {
	u := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&temperature_unit=%s&timezone=auto&%s",
		b.forecastURL, lat, lon, b.unit, query)

	var result forecastResponse
	if err := b.getJSON(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	return &result, nil
}

func (b *Backend) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Open-Meteo API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// weatherDescription maps WMO weather codes to human-readable text.
func weatherDescription(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 3:
		return "Partly cloudy"
	case code <= 48:
		return "Foggy"
	case code <= 57:
		return "Drizzle"
	case code <= 67:
		return "Rain"
	case code <= 77:
		return "Snow"
	case code <= 82:
		return "Rain showers"
	case code <= 86:
		return "Snow showers"
	case code <= 99:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}

func init() {
	core.RegisterModule(&core.Module{
		Name:         "openmeteo",
		Description:  "Weather forecasts from open-meteo.com",
		Version:      "0.3.0",
		RequiresCore: "0.3.0",
		Capabilities: []string{capability.Weather},
		New: func(params map[string]string) (any, error) {
			return New(params)
		},
	})
}
