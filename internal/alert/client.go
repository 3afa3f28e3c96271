package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

// Dispatcher delivers alerts to whoever handles them downstream
type Dispatcher interface {
	Dispatch(ctx context.Context, a models.Alert) error
}

// Client posts alerts to the alert service over HTTP
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient creates an alert service client
func NewClient(baseURL string, timeout time.Duration, retryCount int, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// Dispatch sends the alert. Non-2xx responses are errors.
func (c *Client) Dispatch(ctx context.Context, a models.Alert) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(a).
		Post("/api/alerts")
	if err != nil {
		c.logger.Error("alert service call failed",
			zap.String("alert_id", a.ID),
			zap.Int64("station_id", a.StationID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to call alert service: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("alert service returned error",
			zap.String("alert_id", a.ID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("alert service error: status %d", resp.StatusCode())
	}

	c.logger.Info("alert dispatched",
		zap.String("alert_id", a.ID),
		zap.Int64("station_id", a.StationID),
		zap.String("severity", string(a.Severity)),
	)
	return nil
}

// LogDispatcher only logs alerts. Used when no alert service is configured.
type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(_ context.Context, a models.Alert) error {
	d.logger.Warn("water quality alert",
		zap.String("alert_id", a.ID),
		zap.Int64("station_id", a.StationID),
		zap.String("type", string(a.Type)),
		zap.String("severity", string(a.Severity)),
		zap.String("title", a.Title),
		zap.Float64("score", a.Score),
	)
	return nil
}
