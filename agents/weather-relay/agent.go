package weatherrelay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"station-relay/internal/models"
	"station-relay/shared/config"
	"station-relay/shared/scheduler"
)

// CycleOutcome is the overall result of one fetch, enrich, upload cycle.
type CycleOutcome int

const (
	Uploaded CycleOutcome = iota
	SkippedNoLocalData
	SkippedParseFailure
	UploadRejected
	UploadUnavailable
)

func (o CycleOutcome) String() string {
	switch o {
	case Uploaded:
		return "uploaded"
	case SkippedNoLocalData:
		return "skipped_no_local_data"
	case SkippedParseFailure:
		return "skipped_parse_failure"
	case UploadRejected:
		return "upload_rejected"
	case UploadUnavailable:
		return "upload_unavailable"
	default:
		return fmt.Sprintf("CycleOutcome(%d)", int(o))
	}
}

// StationSource supplies the local station reading.
type StationSource interface {
	Fetch(ctx context.Context) (models.ParsedStationReading, error)
}

// CloudSource supplies cloud coverage for a location.
type CloudSource interface {
	FetchCloudCoverage(ctx context.Context, lat, lon float64) (int, error)
}

// Uploader delivers a combined reading.
type Uploader interface {
	Upload(ctx context.Context, reading models.WeatherReading) error
}

// ReadingPublisher receives accepted readings. Optional.
type ReadingPublisher interface {
	PublishReading(stationID string, reading models.WeatherReading) error
}

// CycleResult describes one cycle. Reading is set whenever an upload was attempted.
type CycleResult struct {
	Outcome CycleOutcome
	Reading *models.WeatherReading
	// Degraded is set when cloud coverage was unavailable and 0 was used.
	Degraded bool
	// Err is the failure that ended or degraded the cycle.
	Err error
}

// RelayMetrics implements scheduler.Metrics for one cycle.
type RelayMetrics struct {
	StationFetched bool         `json:"station_fetched"`
	CloudsFetched  bool         `json:"clouds_fetched"`
	Uploaded       bool         `json:"uploaded"`
	Outcome        CycleOutcome `json:"outcome"`
}

func (m RelayMetrics) GetSummary() string {
	switch {
	case m.Uploaded && m.CloudsFetched:
		return "reading uploaded with cloud coverage"
	case m.Uploaded:
		return "reading uploaded without cloud coverage"
	default:
		return fmt.Sprintf("no upload (%s)", m.Outcome)
	}
}

// WeatherRelayAgent implements the scheduler.Agent interface
type WeatherRelayAgent struct {
	config   *config.Config
	logger   *slog.Logger
	station  StationSource
	clouds   CloudSource
	uploader Uploader
	mirror   ReadingPublisher
	fill     models.FillPolicy
	now      func() time.Time
}

type Option func(*WeatherRelayAgent)

func WithStationSource(s StationSource) Option { return func(a *WeatherRelayAgent) { a.station = s } }
func WithCloudSource(c CloudSource) Option     { return func(a *WeatherRelayAgent) { a.clouds = c } }
func WithUploader(u Uploader) Option           { return func(a *WeatherRelayAgent) { a.uploader = u } }

// WithMirror publishes every accepted reading to p as well.
func WithMirror(p ReadingPublisher) Option { return func(a *WeatherRelayAgent) { a.mirror = p } }

// WithFillPolicy replaces the default zero fill for unreported fields.
func WithFillPolicy(f models.FillPolicy) Option { return func(a *WeatherRelayAgent) { a.fill = f } }

func NewWeatherRelayAgent(cfg *config.Config, logger *slog.Logger, opts ...Option) *WeatherRelayAgent {
	a := &WeatherRelayAgent{
		config: cfg,
		logger: logger,
		fill:   models.ZeroFill,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *WeatherRelayAgent) Name() string {
	return "Weather Relay Agent"
}

func (a *WeatherRelayAgent) Initialize() error {
	a.logger.Info("initializing agent", "agent", a.Name())

	if a.station == nil {
		a.station = NewStationClient(&a.config.Station, a.logger)
		a.logger.Info("station client initialized", "host", a.config.Station.Host, "port", a.config.Station.Port)
	}
	if a.clouds == nil {
		a.clouds = NewCloudClient(&a.config.Enrichment, a.logger)
		a.logger.Info("cloud client initialized")
	}
	if a.uploader == nil {
		a.uploader = NewUploadClient(&a.config.Upload, a.logger)
		a.logger.Info("upload client initialized", "station_id", a.config.Upload.StationID)
	}

	if a.config.Enrichment.Latitude == 0 || a.config.Enrichment.Longitude == 0 {
		return fmt.Errorf("station coordinates must be configured (latitude and longitude)")
	}

	a.logger.Info("configured station location",
		"latitude", a.config.Enrichment.Latitude,
		"longitude", a.config.Enrichment.Longitude)
	return nil
}

// RunCycle fetches, enriches and uploads one reading. It never returns an
// error: every failure is folded into the result's outcome.
func (a *WeatherRelayAgent) RunCycle(ctx context.Context) CycleResult {
	parsed, err := a.station.Fetch(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnexpectedPayload):
			a.logger.Error("failed to parse station data", "error", err)
			return CycleResult{Outcome: SkippedParseFailure, Err: err}
		case errors.Is(err, ErrMalformedPayload):
			a.logger.Error("failed to get station data, body undecodable", "error", err)
		default:
			a.logger.Error("failed to get station data", "error", err)
		}
		return CycleResult{Outcome: SkippedNoLocalData, Err: err}
	}
	if parsed.Known() == 0 {
		err := fmt.Errorf("station payload had none of the expected fields")
		a.logger.Error("failed to parse station data", "error", err)
		return CycleResult{Outcome: SkippedParseFailure, Err: err}
	}

	result := CycleResult{}
	coverage, err := a.clouds.FetchCloudCoverage(ctx, a.config.Enrichment.Latitude, a.config.Enrichment.Longitude)
	if err != nil {
		a.logger.Warn("could not get cloud coverage, using 0", "error", err)
		coverage = 0
		result.Degraded = true
		result.Err = err
	}

	if missing := parsed.Missing(); len(missing) > 0 {
		a.logger.Debug("filling unreported fields", "fields", missing)
	}
	reading := models.NewWeatherReading(parsed.Fill(a.fill), coverage, a.now())
	result.Reading = &reading

	a.logger.Info("combined weather data",
		"temperature", reading.Temperature,
		"humidity", reading.Humidity,
		"pressure", reading.Pressure,
		"wind_speed", reading.WindSpeed,
		"wind_direction", reading.WindDirection,
		"rainfall", reading.Rainfall,
		"cloud_coverage", reading.CloudCoverage,
		"timestamp", reading.Timestamp)

	if err := a.uploader.Upload(ctx, reading); err != nil {
		result.Err = err
		if errors.Is(err, ErrUploadRejected) {
			result.Outcome = UploadRejected
		} else {
			result.Outcome = UploadUnavailable
		}
		return result
	}
	result.Outcome = Uploaded

	if a.mirror != nil {
		if err := a.mirror.PublishReading(a.config.Upload.StationID, reading); err != nil {
			a.logger.Warn("failed to mirror reading", "error", err)
		}
	}
	return result
}

func (a *WeatherRelayAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()

	result := a.RunCycle(ctx)
	metrics := RelayMetrics{
		StationFetched: result.Outcome != SkippedNoLocalData,
		CloudsFetched:  result.Reading != nil && !result.Degraded,
		Uploaded:       result.Outcome == Uploaded,
		Outcome:        result.Outcome,
	}

	if result.Outcome != Uploaded {
		return fmt.Errorf("cycle %s: %w", result.Outcome, result.Err)
	}

	duration := time.Since(startTime)
	if result.Degraded && events != nil && events.OnPartialFailure != nil {
		events.OnPartialFailure(fmt.Errorf("failed to fetch cloud coverage: %w", result.Err), duration)
	}
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	a.logger.Info("weather relay cycle complete", "outcome", result.Outcome, "degraded", result.Degraded)
	return nil
}
