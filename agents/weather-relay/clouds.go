package weatherrelay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"station-relay/shared/config"
)

var ErrCloudsUnavailable = errors.New("cloud coverage unavailable")

// CloudClient fetches sky cloud coverage from OpenWeatherMap.
type CloudClient struct {
	baseURL string
	apiKey  string
	client  *resty.Client
	logger  *slog.Logger
}

// owmResponse is the part of the current-weather response we need.
type owmResponse struct {
	Clouds struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
}

func NewCloudClient(cfg *config.EnrichmentConfig, logger *slog.Logger) *CloudClient {
	return &CloudClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  resty.New().SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		logger:  logger.With("source", "clouds"),
	}
}

// FetchCloudCoverage returns cloud coverage in percent, 0-100.
func (c *CloudClient) FetchCloudCoverage(ctx context.Context, lat, lon float64) (int, error) {
	url := c.baseURL + "/data/2.5/weather"

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":   strconv.FormatFloat(lon, 'f', -1, 64),
			"appid": c.apiKey,
		}).
		Get(url)
	if err != nil {
		err = transportError(ErrCloudsUnavailable, err)
		c.logger.Error("failed to retrieve cloud data", "error", err)
		return 0, err
	}
	if !resp.IsSuccess() {
		c.logger.Error("cloud API returned error status", "status", resp.StatusCode())
		return 0, fmt.Errorf("%w: status %d", ErrCloudsUnavailable, resp.StatusCode())
	}

	var apiResp owmResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		c.logger.Error("failed to decode cloud response", "error", err)
		return 0, fmt.Errorf("%w: decode: %v", ErrCloudsUnavailable, err)
	}

	// The API always sends clouds.all with a 200; treat its absence as clear sky.
	coverage := 0
	if apiResp.Clouds.All != nil {
		coverage = clampPercent(*apiResp.Clouds.All)
	}

	c.logger.Info("cloud coverage", "percent", coverage)
	return coverage, nil
}

func clampPercent(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v + 0.5)
	}
}
