package capability

import (
	"context"
	"testing"
	"time"

	"scour/core"
)

// stubWeather is a weather backend with canned data.
type stubWeather struct{}

func (stubWeather) CurrentWeather(ctx context.Context, city string) (*Current, error) {
	return &Current{City: city, Temperature: 21.5, Description: "Clear sky"}, nil
}

func (stubWeather) Forecast(ctx context.Context, city string) ([]*Forecast, error) {
	return []*Forecast{
		{City: city, Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Low: 3, High: 9},
		{City: city, Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Low: 4, High: 11},
	}, nil
}

func init() {
	core.RegisterModule(&core.Module{
		Name:         "stubweather",
		Version:      "0.0.1",
		Capabilities: []string{Weather},
		New: func(params map[string]string) (any, error) {
			return stubWeather{}, nil
		},
	})
}

func TestBuildOpUnknownNames(t *testing.T) {
	if _, err := BuildOp("no-such-capability", "x", nil); err == nil {
		t.Error("expected error for unknown capability")
	}
	if _, err := BuildOp(Weather, "no-such-op", nil); err == nil {
		t.Error("expected error for unknown operation")
	}
}

func TestBuildOpArgValidation(t *testing.T) {
	cases := []struct {
		capability string
		op         string
		args       []string
	}{
		{Weather, "current", nil},
		{Weather, "current", []string{"a", "b"}},
		{Weather, "forecast", nil},
		{Boards, "search", nil},
		{Boards, "search", []string{"go", "zero"}},
		{Boards, "search", []string{"go", "0"}},
		{Messaging, "send", []string{"to", "subject"}},
	}
	for _, c := range cases {
		if _, err := BuildOp(c.capability, c.op, c.args); err == nil {
			t.Errorf("BuildOp(%s, %s, %v): expected error", c.capability, c.op, c.args)
		}
	}
}

func TestOpsListing(t *testing.T) {
	ops := Ops(Weather)
	if len(ops) != 2 || ops[0] != "current" || ops[1] != "forecast" {
		t.Errorf("unexpected weather ops: %v", ops)
	}
	if len(Ops("no-such-capability")) != 0 {
		t.Error("expected no ops for unknown capability")
	}
}

func TestWeatherOpsAgainstStubBackend(t *testing.T) {
	reg := core.NewRegistry()
	if _, err := reg.AddBackend("stub", "stubweather", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	op, err := BuildOp(Weather, "current", []string{"Berlin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := reg.Dispatch(op, Weather)
	var results []core.Result
	for d.Next() {
		results = append(results, d.Result())
	}
	if err := d.Err(); err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	cur, ok := results[0].Value.(*Current)
	if !ok {
		t.Fatalf("result is not *Current: %T", results[0].Value)
	}
	if cur.City != "Berlin" || cur.Temperature != 21.5 {
		t.Errorf("unexpected current weather: %+v", cur)
	}
	if cur.Source != "stub" {
		t.Errorf("expected record tagged with source 'stub', got %q", cur.Source)
	}
}

func TestForecastOpPublishesPerDay(t *testing.T) {
	reg := core.NewRegistry()
	if _, err := reg.AddBackend("stub2", "stubweather", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	op, err := BuildOp(Weather, "forecast", []string{"Berlin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := reg.Dispatch(op, Weather)
	var days []*Forecast
	for d.Next() {
		days = append(days, d.Result().Value.(*Forecast))
	}
	if err := d.Err(); err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}

	if len(days) != 2 {
		t.Fatalf("expected 2 forecast results, got %d", len(days))
	}
	if !days[0].Date.Before(days[1].Date) {
		t.Error("forecast days out of order")
	}
}

func TestOpAgainstWrongCapabilityBackend(t *testing.T) {
	reg := core.NewRegistry()
	if _, err := reg.AddBackend("stub3", "stubweather", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h, _ := reg.Backend("stub3")

	op := SearchThreadsOp("anything", 5)
	if _, err := op(context.Background(), h); err == nil {
		t.Error("expected error for backend without the boards capability")
	}
}
