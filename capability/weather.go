package capability

import (
	"context"
	"fmt"
	"time"

	"scour/core"
)

// Weather is the capability name for weather backends.
const Weather = "weather"

// Current is the present conditions at a location.
type Current struct {
	Record
	City        string
	Temperature float64
	Description string
}

// Forecast is one day of forecast data.
type Forecast struct {
	Record
	City        string
	Date        time.Time
	Low         float64
	High        float64
	Description string
}

// WeatherBackend is implemented by modules exposing the weather capability.
type WeatherBackend interface {
	CurrentWeather(ctx context.Context, city string) (*Current, error)
	Forecast(ctx context.Context, city string) ([]*Forecast, error)
}

// CurrentWeatherOp dispatches WeatherBackend.CurrentWeather.
func CurrentWeatherOp(city string) core.Operation {
	return func(ctx context.Context, h *core.BackendHandle) (any, error) {
		b, ok := h.Instance().(WeatherBackend)
		if !ok {
			return nil, fmt.Errorf("backend %s does not implement %s", h, Weather)
		}
		return b.CurrentWeather(ctx, city)
	}
}

// ForecastOp dispatches WeatherBackend.Forecast. The returned slice is
// published element by element.
func ForecastOp(city string) core.Operation {
	return func(ctx context.Context, h *core.BackendHandle) (any, error) {
		b, ok := h.Instance().(WeatherBackend)
		if !ok {
			return nil, fmt.Errorf("backend %s does not implement %s", h, Weather)
		}
		return b.Forecast(ctx, city)
	}
}

func init() {
	RegisterOp(Weather, "current", func(args []string) (core.Operation, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: weather current <city>")
		}
		return CurrentWeatherOp(args[0]), nil
	})
	RegisterOp(Weather, "forecast", func(args []string) (core.Operation, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: weather forecast <city>")
		}
		return ForecastOp(args[0]), nil
	})
}
