package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/datalake-native/internal/record"
)

// WttrProducer collects current weather observations for one city from the
// wttr.in JSON endpoint. No API key required.
type WttrProducer struct {
	city    string
	baseURL string
	http    *resilientClient
}

func NewWttrProducer(client *http.Client, city string) *WttrProducer {
	return &WttrProducer{
		city:    city,
		baseURL: "https://wttr.in",
		http: newResilientClient(client, "wttr", BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}),
	}
}

// Collect fetches the current conditions and normalizes them into a single
// weather reading tagged with the run that produced it.
func (p *WttrProducer) Collect(ctx context.Context, runID string) ([]record.WeatherReading, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/%s?format=j1", p.baseURL, url.PathEscape(p.city))
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := p.http.do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		CurrentCondition []struct {
			TempC       string `json:"temp_C"`
			Humidity    string `json:"humidity"`
			Pressure    string `json:"pressure"`
			WeatherDesc []struct {
				Value string `json:"value"`
			} `json:"weatherDesc"`
		} `json:"current_condition"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode wttr response: %w", err)
	}
	if len(payload.CurrentCondition) == 0 {
		return nil, fmt.Errorf("wttr response contains no current conditions")
	}

	current := payload.CurrentCondition[0]

	desc := ""
	if len(current.WeatherDesc) > 0 {
		desc = current.WeatherDesc[0].Value
	}

	reading := record.WeatherReading{
		ID:           uuid.NewString(),
		City:         p.city,
		TemperatureC: parseFloat(current.TempC),
		HumidityPct:  parseFloat(current.Humidity),
		PressureHpa:  parseFloat(current.Pressure),
		Description:  desc,
		Timestamp:    time.Now().UTC(),
		SourceRunID:  runID,
	}
	return []record.WeatherReading{reading}, nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
