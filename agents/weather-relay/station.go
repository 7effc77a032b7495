package weatherrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"station-relay/internal/models"
	"station-relay/shared/config"
)

var (
	// ErrStationUnavailable covers transport failures and non-2xx replies from the gateway.
	ErrStationUnavailable = errors.New("station gateway unavailable")
	// ErrMalformedPayload means the gateway body could not be decoded at all.
	ErrMalformedPayload = errors.New("malformed station payload")
	// ErrUnexpectedPayload means the body is valid JSON but not an object.
	ErrUnexpectedPayload = errors.New("unexpected station payload")
)

// StationClient reads the local Ecowitt gateway.
type StationClient struct {
	baseURL string
	client  *resty.Client
	logger  *slog.Logger
}

func NewStationClient(cfg *config.StationConfig, logger *slog.Logger) *StationClient {
	return &StationClient{
		baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		client:  resty.New().SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		logger:  logger.With("source", "station"),
	}
}

// Fetch returns the fields the gateway reported. Fields that are absent or
// unreadable are left nil; only a transport failure or an undecodable body is
// an error.
func (s *StationClient) Fetch(ctx context.Context) (models.ParsedStationReading, error) {
	url := s.baseURL + "/get_stations"

	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		err = transportError(ErrStationUnavailable, err)
		s.logger.Error("gateway request failed", "url", url, "error", err)
		return models.ParsedStationReading{}, err
	}
	if !resp.IsSuccess() {
		s.logger.Error("gateway returned error status", "url", url, "status", resp.StatusCode())
		return models.ParsedStationReading{}, fmt.Errorf("%w: status %d", ErrStationUnavailable, resp.StatusCode())
	}

	reading, err := parseStationPayload(resp.Body())
	if err != nil {
		if errors.Is(err, ErrMalformedPayload) {
			s.logger.Error("gateway body could not be decoded", "error", err, "bytes", len(resp.Body()))
		} else {
			s.logger.Error("gateway body has unexpected shape", "error", err)
		}
		return models.ParsedStationReading{}, err
	}

	if missing := reading.Missing(); len(missing) > 0 {
		s.logger.Warn("gateway payload incomplete", "missing", missing, "known", reading.Known())
	} else {
		s.logger.Info("retrieved data from gateway")
	}
	return reading, nil
}

// stationPayload is the top level of the gateway's JSON document. Only the
// paths below are read; everything else is ignored.
type stationPayload map[string]json.RawMessage

func parseStationPayload(body []byte) (models.ParsedStationReading, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return models.ParsedStationReading{}, fmt.Errorf("%w: body is not valid JSON", ErrMalformedPayload)
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return models.ParsedStationReading{}, fmt.Errorf("%w: body is null", ErrMalformedPayload)
	}

	var payload stationPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return models.ParsedStationReading{}, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
	}

	reading := models.ParsedStationReading{
		Temperature: payload.number("outdoor", "temperature"),
		Humidity:    payload.number("outdoor", "humidity"),
		Pressure:    payload.number("pressure"),
		WindSpeed:   payload.number("wind", "windspeed"),
		Rainfall:    payload.number("rain", "rainevent"),
	}
	if dir := payload.number("wind", "winddir"); dir != nil {
		d := normalizeDirection(*dir)
		reading.WindDirection = &d
	}
	return reading, nil
}

// number follows path through nested objects and parses the leaf. A missing
// step, a non-object step, or an unreadable leaf all yield nil.
func (p stationPayload) number(path ...string) *float64 {
	raw, ok := p[path[0]]
	if !ok {
		return nil
	}
	for _, key := range path[1:] {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil
		}
		if raw, ok = obj[key]; !ok {
			return nil
		}
	}
	return parseNumber(raw)
}

// parseNumber accepts a JSON number or a string whose first token is a number
// ("29.92 inHg").
func parseNumber(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "%"), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func normalizeDirection(deg float64) int {
	d := int(math.Round(deg)) % 360
	if d < 0 {
		d += 360
	}
	return d
}
