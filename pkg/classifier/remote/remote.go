// Package remote implements classifier.Classifier against a hosted
// classification service over HTTP.
//
// The service is called with POST {target}/classify and a JSON body
// {"sentence": ..., "entities": [...]}; it answers with a JSON array of
// {"name": ..., "value": ...} predictions. Transient failures (network
// errors and 5xx answers) are retried with exponential backoff, and a
// circuit breaker stops hammering a service that keeps failing.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	"github.com/papercomputeco/parley/pkg/classifier"
	"github.com/papercomputeco/parley/pkg/entity"
	"github.com/papercomputeco/parley/pkg/logger"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
)

// Config holds configuration for the remote classifier.
type Config struct {
	// Target is the base URL of the classification service.
	Target string

	// Timeout bounds every single HTTP attempt. Defaults to 10s.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts per Compute call.
	// Defaults to 3.
	MaxAttempts uint

	// InitialBackoff is the wait before the second attempt. Defaults to the
	// backoff library default.
	InitialBackoff time.Duration

	Logger *slog.Logger
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("classifier returned status %d: %s", e.StatusCode, e.Body)
}

// Classifier is the HTTP classifier client.
type Classifier struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

type classifyRequest struct {
	Sentence string          `json:"sentence"`
	Entities []entity.Entity `json:"entities"`
}

// New creates a remote classifier.
func New(c Config) (*Classifier, error) {
	if c.Target == "" {
		return nil, errors.New("classifier target is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = defaultMaxAttempts
	}

	l := logger.OrNop(c.Logger)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Client errors are the caller's fault, not the service's.
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Classifier{
		config:     c,
		httpClient: &http.Client{Timeout: c.Timeout},
		breaker:    breaker,
		logger:     l,
	}, nil
}

// Init checks that the service answers on {target}/health.
func (c *Classifier) Init(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Target+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return nil
}

// Compute classifies sentence. Predictions are ranked best first.
func (c *Classifier) Compute(ctx context.Context, sentence string, entities []entity.Entity) ([]classifier.Prediction, error) {
	body, err := json.Marshal(classifyRequest{Sentence: sentence, Entities: entities})
	if err != nil {
		return nil, fmt.Errorf("marshaling classify request: %w", err)
	}

	expo := backoff.NewExponentialBackOff()
	if c.config.InitialBackoff > 0 {
		expo.InitialInterval = c.config.InitialBackoff
	}

	predictions, err := backoff.Retry(ctx, func() ([]classifier.Prediction, error) {
		result, err := c.breaker.Execute(func() (any, error) {
			return c.classify(ctx, body)
		})
		if err != nil {
			if ctx.Err() != nil || !retryable(err) {
				return nil, backoff.Permanent(err)
			}
			c.logger.Debug("classifier attempt failed", "error", err)
			return nil, err
		}
		return result.([]classifier.Prediction), nil
	},
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.config.MaxAttempts),
	)
	if err != nil {
		return nil, err
	}

	classifier.Rank(predictions)
	return predictions, nil
}

func (c *Classifier) classify(ctx context.Context, body []byte) ([]classifier.Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Target+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var predictions []classifier.Prediction
	if err := json.NewDecoder(resp.Body).Decode(&predictions); err != nil {
		return nil, fmt.Errorf("decoding classify response: %w", err)
	}

	return predictions, nil
}

// retryable reports whether err is worth another attempt. Server errors and
// transport failures are retried; client errors and open breakers are not.
func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}

	return true
}

var _ classifier.Classifier = (*Classifier)(nil)
