package weatherrelay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"station-relay/internal/models"
	"station-relay/shared/config"
)

var (
	// ErrUploadUnavailable is a transport failure or non-2xx reply.
	ErrUploadUnavailable = errors.New("upload target unavailable")
	// ErrUploadRejected means the target answered 2xx without acknowledging the reading.
	ErrUploadRejected = errors.New("upload rejected")
)

const (
	uploadPath     = "/weatherstation/updateweatherstation.php"
	successMarker  = "success"
	dateUTCLayout  = "2006-01-02 15:04:05"
	uploadAction   = "updateraw"
	uploadRealtime = "1"
)

// UploadClient publishes readings to Weather Underground's PWS protocol.
type UploadClient struct {
	url        string
	stationID  string
	stationKey string
	rtfreq     int
	client     *resty.Client
	logger     *slog.Logger
}

func NewUploadClient(cfg *config.UploadConfig, logger *slog.Logger) *UploadClient {
	return &UploadClient{
		url:        strings.TrimRight(cfg.BaseURL, "/") + uploadPath,
		stationID:  cfg.StationID,
		stationKey: cfg.StationKey,
		rtfreq:     cfg.UpdateFrequency,
		client:     resty.New().SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		logger:     logger.With("source", "upload"),
	}
}

// Upload sends one reading. It returns nil when the target acknowledged it,
// an ErrUploadRejected error when the target answered without the success
// marker, and an ErrUploadUnavailable error otherwise.
func (u *UploadClient) Upload(ctx context.Context, reading models.WeatherReading) error {
	resp, err := u.client.R().
		SetContext(ctx).
		SetQueryParams(u.Params(reading)).
		Get(u.url)
	if err != nil {
		err = transportError(ErrUploadUnavailable, err)
		u.logger.Error("upload request failed", "error", err)
		return err
	}
	if !resp.IsSuccess() {
		u.logger.Error("upload target returned error status", "status", resp.StatusCode())
		return fmt.Errorf("%w: status %d", ErrUploadUnavailable, resp.StatusCode())
	}

	body := strings.TrimSpace(resp.String())
	if !strings.Contains(strings.ToLower(body), successMarker) {
		u.logger.Warn("upload rejected by target", "response", body)
		return fmt.Errorf("%w: %q", ErrUploadRejected, body)
	}

	u.logger.Info("uploaded reading", "station_id", u.stationID, "dateutc", reading.Timestamp.Format(dateUTCLayout))
	return nil
}

// Params renders a reading into the target's query parameters.
func (u *UploadClient) Params(reading models.WeatherReading) map[string]string {
	return map[string]string{
		"ID":           u.stationID,
		"PASSWORD":     u.stationKey,
		"dateutc":      reading.Timestamp.UTC().Format(dateUTCLayout),
		"tempf":        formatFloat(reading.Temperature),
		"humidity":     formatFloat(reading.Humidity),
		"baromin":      formatFloat(reading.Pressure),
		"windspeedmph": formatFloat(reading.WindSpeed),
		"winddir":      strconv.Itoa(reading.WindDirection),
		"rainin":       formatFloat(reading.Rainfall),
		"clouds":       strconv.Itoa(reading.CloudCoverage),
		"action":       uploadAction,
		"realtime":     uploadRealtime,
		"rtfreq":       strconv.Itoa(u.rtfreq),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
