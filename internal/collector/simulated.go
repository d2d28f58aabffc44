package collector

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/datalake-native/internal/record"
)

var simulatedDescriptions = []string{
	"Sunny",
	"Partly cloudy",
	"Cloudy",
	"Light rain",
	"Clear",
	"Mist",
}

// SimulatedProducer generates plausible readings without calling any external
// service. Used for local development and demos.
type SimulatedProducer struct {
	city string
}

func NewSimulatedProducer(city string) *SimulatedProducer {
	return &SimulatedProducer{city: city}
}

func (p *SimulatedProducer) Collect(ctx context.Context, runID string) ([]record.WeatherReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reading := record.WeatherReading{
		ID:           uuid.NewString(),
		City:         p.city,
		TemperatureC: roundTenth(18 + rand.Float64()*14),
		HumidityPct:  roundTenth(45 + rand.Float64()*40),
		PressureHpa:  roundTenth(1010 + rand.Float64()*15),
		Description:  simulatedDescriptions[rand.Intn(len(simulatedDescriptions))],
		Timestamp:    time.Now().UTC(),
		SourceRunID:  runID,
	}
	return []record.WeatherReading{reading}, nil
}

func roundTenth(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
