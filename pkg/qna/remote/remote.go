// Package remote implements qna.Matcher against a hosted QnA service.
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
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/qna"
)

const defaultTimeout = 10 * time.Second

// Config holds configuration for the remote QnA matcher. Credentials are
// mandatory: a matcher without them would fail every call.
type Config struct {
	// Endpoint is the base URL of the QnA service.
	Endpoint string `validate:"required,url"`

	AppID  string `validate:"required"`
	AppKey string `validate:"required"`

	// Timeout bounds every HTTP call. Defaults to 10s.
	Timeout time.Duration `validate:"gte=0"`

	Logger *slog.Logger `validate:"-"`
}

// ConfigError reports an invalid matcher configuration.
type ConfigError struct {
	Fields []string
	err    error
}

func (e *ConfigError) Error() string {
	return "invalid qna configuration: " + strings.Join(e.Fields, ", ")
}

func (e *ConfigError) Unwrap() error {
	return e.err
}

// Matcher is the HTTP QnA client.
type Matcher struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

type classifyRequest struct {
	Sentence string `json:"sentence"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New validates c and creates a matcher.
func New(c Config) (*Matcher, error) {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Field())
			}
			return nil, &ConfigError{Fields: fields, err: err}
		}
		return nil, err
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}

	l := logger.OrNop(c.Logger)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "qna",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var statusErr *qna.StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Matcher{
		config:     c,
		httpClient: &http.Client{Timeout: c.Timeout},
		breaker:    breaker,
		logger:     l,
	}, nil
}

// GetMatchingQnas posts sentence to {endpoint}/classify and returns the
// matched QnAs. Non-2xx answers are returned as *qna.StatusError.
func (m *Matcher) GetMatchingQnas(ctx context.Context, sentence string) ([]qna.QnA, error) {
	result, err := m.breaker.Execute(func() (any, error) {
		return m.classify(ctx, sentence)
	})
	if err != nil {
		return nil, err
	}

	qnas := result.([]qna.QnA)
	m.logger.Debug("qna matched", "count", len(qnas))
	return qnas, nil
}

func (m *Matcher) classify(ctx context.Context, sentence string) ([]qna.QnA, error) {
	body, err := json.Marshal(classifyRequest{Sentence: sentence})
	if err != nil {
		return nil, fmt.Errorf("marshaling qna request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(m.config.Endpoint, "/")+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating qna request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("App-Id", m.config.AppID)
	req.Header.Set("App-Key", m.config.AppKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending qna request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &qna.StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	qnas := []qna.QnA{}
	if err := json.NewDecoder(resp.Body).Decode(&qnas); err != nil {
		return nil, fmt.Errorf("decoding qna response: %w", err)
	}

	return qnas, nil
}

var _ qna.Matcher = (*Matcher)(nil)
