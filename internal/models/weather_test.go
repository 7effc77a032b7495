package models

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestParsedStationReadingKnownAndMissing(t *testing.T) {
	tests := []struct {
		name        string
		reading     ParsedStationReading
		wantKnown   int
		wantMissing int
	}{
		{"Empty", ParsedStationReading{}, 0, 6},
		{"Temperature only", ParsedStationReading{Temperature: ptr(72.5)}, 1, 5},
		{"Observed zeros count as known", ParsedStationReading{
			Temperature:   ptr(0.0),
			Humidity:      ptr(0.0),
			Pressure:      ptr(0.0),
			WindSpeed:     ptr(0.0),
			WindDirection: ptr(0),
			Rainfall:      ptr(0.0),
		}, 6, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.reading.Known(); got != tt.wantKnown {
				t.Errorf("Expected %d known fields, got %d", tt.wantKnown, got)
			}
			if got := len(tt.reading.Missing()); got != tt.wantMissing {
				t.Errorf("Expected %d missing fields, got %d: %v", tt.wantMissing, got, tt.reading.Missing())
			}
		})
	}
}

func TestFillZero(t *testing.T) {
	reading := ParsedStationReading{
		Temperature:   ptr(72.5),
		WindDirection: ptr(180),
	}

	filled := reading.Fill(ZeroFill)

	want := FilledReading{Temperature: 72.5, WindDirection: 180}
	if filled != want {
		t.Errorf("Expected %+v, got %+v", want, filled)
	}

	if nilPolicy := reading.Fill(nil); nilPolicy != want {
		t.Errorf("Expected nil policy to zero fill, got %+v", nilPolicy)
	}
}

func TestFillCustomPolicy(t *testing.T) {
	var asked []string
	policy := func(field string) float64 {
		asked = append(asked, field)
		return -1
	}

	filled := ParsedStationReading{Humidity: ptr(40.0)}.Fill(policy)

	if filled.Humidity != 40 {
		t.Errorf("Expected humidity 40, got %v", filled.Humidity)
	}
	if filled.Temperature != -1 || filled.WindDirection != -1 {
		t.Errorf("Expected policy value for unknown fields, got %+v", filled)
	}
	if len(asked) != 5 {
		t.Errorf("Expected policy to be consulted for 5 fields, got %v", asked)
	}
}

func TestNewWeatherReadingUsesUTC(t *testing.T) {
	loc := time.FixedZone("MST", -7*3600)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, loc)

	reading := NewWeatherReading(FilledReading{Temperature: 50}, 25, at)

	if reading.Timestamp.Location() != time.UTC {
		t.Errorf("Expected UTC timestamp, got %v", reading.Timestamp.Location())
	}
	if !reading.Timestamp.Equal(at) {
		t.Errorf("Expected instant %v, got %v", at, reading.Timestamp)
	}
	if reading.CloudCoverage != 25 || reading.Temperature != 50 {
		t.Errorf("Unexpected reading %+v", reading)
	}
}
