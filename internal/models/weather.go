package models

import "time"

// Field names used when filling readings and in log output.
const (
	FieldTemperature   = "temperature"
	FieldHumidity      = "humidity"
	FieldPressure      = "pressure"
	FieldWindSpeed     = "wind_speed"
	FieldWindDirection = "wind_direction"
	FieldRainfall      = "rainfall"
)

// ParsedStationReading is the subset of a gateway payload the relay uses.
// A nil field means the gateway did not report it.
type ParsedStationReading struct {
	Temperature   *float64 `json:"temperature,omitempty"`    // °F
	Humidity      *float64 `json:"humidity,omitempty"`       // %
	Pressure      *float64 `json:"pressure,omitempty"`       // inHg
	WindSpeed     *float64 `json:"wind_speed,omitempty"`     // mph
	WindDirection *int     `json:"wind_direction,omitempty"` // degrees, 0-359
	Rainfall      *float64 `json:"rainfall,omitempty"`       // inches, event total
}

// Known returns the number of fields the gateway reported.
func (p ParsedStationReading) Known() int {
	n := 0
	for _, v := range []*float64{p.Temperature, p.Humidity, p.Pressure, p.WindSpeed, p.Rainfall} {
		if v != nil {
			n++
		}
	}
	if p.WindDirection != nil {
		n++
	}
	return n
}

// Missing lists the names of unreported fields.
func (p ParsedStationReading) Missing() []string {
	var missing []string
	if p.Temperature == nil {
		missing = append(missing, FieldTemperature)
	}
	if p.Humidity == nil {
		missing = append(missing, FieldHumidity)
	}
	if p.Pressure == nil {
		missing = append(missing, FieldPressure)
	}
	if p.WindSpeed == nil {
		missing = append(missing, FieldWindSpeed)
	}
	if p.WindDirection == nil {
		missing = append(missing, FieldWindDirection)
	}
	if p.Rainfall == nil {
		missing = append(missing, FieldRainfall)
	}
	return missing
}

// FillPolicy supplies the value used for a field the gateway did not report.
type FillPolicy func(field string) float64

// ZeroFill substitutes 0 for every unknown field. This makes an unreported
// sensor indistinguishable from one that read zero once uploaded.
func ZeroFill(string) float64 { return 0 }

// FilledReading is a station reading with every field resolved.
type FilledReading struct {
	Temperature   float64
	Humidity      float64
	Pressure      float64
	WindSpeed     float64
	WindDirection int
	Rainfall      float64
}

// Fill resolves unknown fields through policy. A nil policy means ZeroFill.
func (p ParsedStationReading) Fill(policy FillPolicy) FilledReading {
	if policy == nil {
		policy = ZeroFill
	}
	value := func(v *float64, field string) float64 {
		if v != nil {
			return *v
		}
		return policy(field)
	}

	filled := FilledReading{
		Temperature: value(p.Temperature, FieldTemperature),
		Humidity:    value(p.Humidity, FieldHumidity),
		Pressure:    value(p.Pressure, FieldPressure),
		WindSpeed:   value(p.WindSpeed, FieldWindSpeed),
		Rainfall:    value(p.Rainfall, FieldRainfall),
	}
	if p.WindDirection != nil {
		filled.WindDirection = *p.WindDirection
	} else {
		filled.WindDirection = int(policy(FieldWindDirection))
	}
	return filled
}

// WeatherReading is the combined reading uploaded once per cycle.
type WeatherReading struct {
	Temperature   float64   `json:"temperature"`    // °F
	Humidity      float64   `json:"humidity"`       // %
	Pressure      float64   `json:"pressure"`       // inHg
	WindSpeed     float64   `json:"wind_speed"`     // mph
	WindDirection int       `json:"wind_direction"` // degrees
	Rainfall      float64   `json:"rainfall"`       // inches
	CloudCoverage int       `json:"cloud_coverage"` // %
	Timestamp     time.Time `json:"timestamp"`      // UTC, set when the reading is assembled
}

// NewWeatherReading combines a filled station reading with cloud coverage.
func NewWeatherReading(station FilledReading, cloudCoverage int, at time.Time) WeatherReading {
	return WeatherReading{
		Temperature:   station.Temperature,
		Humidity:      station.Humidity,
		Pressure:      station.Pressure,
		WindSpeed:     station.WindSpeed,
		WindDirection: station.WindDirection,
		Rainfall:      station.Rainfall,
		CloudCoverage: cloudCoverage,
		Timestamp:     at.UTC(),
	}
}
