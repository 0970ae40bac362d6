package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	resty "gopkg.in/resty.v1"

	"tarediiran-industries.com/bus-timetable/internal/common"
)

type HTTPConfig struct {
	BaseURL string

	// Zero leaves the client without a deadline beyond the request context.
	Timeout time.Duration

	// Upstream quota protection. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// HTTPSource issues `GET <base-url>?direction=<direction>` and decodes the
// `{"values": [...]}` envelope. It never retries.
type HTTPSource struct {
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
	metrics *common.Metrics
}

func NewHTTPSource(cfg HTTPConfig, metrics *common.Metrics) *HTTPSource {
	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &HTTPSource{
		baseURL: cfg.BaseURL,
		client:  client,
		limiter: limiter,
		metrics: metrics,
	}
}

func (source *HTTPSource) FetchSchedule(ctx context.Context, direction Direction) (Response, error) {
	if !direction.Valid() {
		return Response{}, fmt.Errorf("fetch schedule: unknown direction %q", direction)
	}

	if err := source.limiter.Wait(ctx); err != nil {
		return Response{}, source.fail(direction, err)
	}

	response, err := source.client.R().
		SetContext(ctx).
		SetQueryParam("direction", direction.String()).
		Get(source.baseURL)
	if err != nil {
		return Response{}, source.fail(direction, err)
	}

	body := response.Body()
	source.metrics.ObserveFetch(direction.String(), response.Time(), len(body))

	if !response.IsSuccess() {
		return Response{}, source.fail(direction, fmt.Errorf("unexpected status %s", response.Status()))
	}

	envelope, err := decodeResponse(body)
	if err != nil {
		return Response{}, source.fail(direction, err)
	}

	log.Debug().
		Str("direction", direction.String()).
		Int("rows", len(envelope.Values)).
		Dur("took", response.Time()).
		Msg("fetched schedule")

	return envelope, nil
}

func (source *HTTPSource) fail(direction Direction, err error) error {
	source.metrics.FetchFailed(direction.String())
	return &TransportError{Direction: direction, Err: err}
}

var errMissingValues = errors.New("response has no values field")

func decodeResponse(body []byte) (Response, error) {
	var envelope struct {
		Values *[]RawSlot `json:"values"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if envelope.Values == nil {
		return Response{}, errMissingValues
	}
	return Response{Values: *envelope.Values}, nil
}
