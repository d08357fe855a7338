package alexa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/airmonitor/airmonitor/internal/model"
)

// Options is the immutable request setup shared by every fetch
type Options struct {
	StateURL    string
	UserAgent   string
	Credentials model.Credentials
	// Timeout of zero keeps the HTTP client default
	Timeout time.Duration
}

// Client fetches device state from the Alexa phoenix API
type Client struct {
	http     *resty.Client
	stateURL string
	logger   *slog.Logger
}

// NewClient creates a client that impersonates the Alexa iOS app, since the
// API rejects unrecognised clients
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json").
		SetCookies([]*http.Cookie{
			{Name: "at-acbuk", Value: opts.Credentials.ATACBUK},
			{Name: "ubid-acbuk", Value: opts.Credentials.UBIDACBUK},
		}).
		SetCookieJar(nil).
		SetRetryCount(0).
		SetLogger(restyLogger{logger: logger})

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &Client{
		http:     client,
		stateURL: opts.StateURL,
		logger:   logger.With("component", "alexa"),
	}
}

// FetchState returns the capability values of one device keyed by instance id
func (c *Client) FetchState(ctx context.Context, deviceID string) (model.CapabilityMap, error) {
	if deviceID == "" {
		return nil, upstreamErrorf(0, "device id is required")
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(stateRequestBody{
			StateRequests: []stateRequest{{EntityID: deviceID, EntityType: entityTypeAppliance}},
		}).
		Post(c.stateURL)
	if err != nil {
		return nil, &UpstreamError{Message: "request to amazon failed", Err: err}
	}

	caps, err := parseStateResponse(resp.StatusCode(), resp.Body())
	if err != nil {
		c.logger.Debug("Device state rejected",
			"device_id", deviceID,
			"status", resp.StatusCode(),
			"error", err,
		)
		return nil, err
	}

	c.logger.Debug("Device state fetched",
		"device_id", deviceID,
		"status", resp.StatusCode(),
		"capabilities", len(caps),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return caps, nil
}

// parseStateResponse validates the outer document and decodes each
// string-encoded capability state
func parseStateResponse(status int, body []byte) (model.CapabilityMap, error) {
	if status != http.StatusOK {
		return nil, upstreamErrorf(status, "unexpected response from amazon, code %d: %s", status, body)
	}

	var state stateResponse
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, &UpstreamError{
			StatusCode: status,
			Message:    fmt.Sprintf("failed to decode response from amazon: %s", body),
			Err:        err,
		}
	}

	if present(state.Errors) {
		return nil, upstreamErrorf(status, "got an error from amazon: %s", state.Errors)
	}
	if len(state.DeviceStates) == 0 {
		return nil, upstreamErrorf(status, "expected deviceStates, got %s", body)
	}

	device := state.DeviceStates[0]
	if present(device.Error) {
		return nil, upstreamErrorf(status, "got error in deviceStates: %s", body)
	}
	if device.CapabilityStates == nil {
		return nil, upstreamErrorf(status, "expected capabilityStates, got %s", body)
	}

	caps := make(model.CapabilityMap, len(*device.CapabilityStates))
	for i, encoded := range *device.CapabilityStates {
		var cs capabilityState
		if err := json.Unmarshal([]byte(encoded), &cs); err != nil {
			return nil, &UpstreamError{
				StatusCode: status,
				Message:    fmt.Sprintf("failed to decode capability state %d", i),
				Err:        err,
			}
		}
		instance, ok := cs.instanceID()
		if !ok {
			continue
		}
		// duplicates: last one wins
		caps[instance] = cs.Value
	}

	return caps, nil
}

// restyLogger routes resty's internal logging through slog
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}
