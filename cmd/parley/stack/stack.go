// Package stack assembles the parley components described by a config.Config:
// the brain and its storage driver, the NLU with its classifier, QnA matcher
// and extractors, the event publisher and the bot on top of them.
package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/parley/pkg/bot"
	"github.com/papercomputeco/parley/pkg/brain"
	"github.com/papercomputeco/parley/pkg/classifier"
	"github.com/papercomputeco/parley/pkg/classifier/keyword"
	classifierremote "github.com/papercomputeco/parley/pkg/classifier/remote"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/corpus"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/eventstream/kafka"
	"github.com/papercomputeco/parley/pkg/eventstream/nop"
	"github.com/papercomputeco/parley/pkg/extractor"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/metrics"
	"github.com/papercomputeco/parley/pkg/nlu"
	"github.com/papercomputeco/parley/pkg/qna"
	qnaremote "github.com/papercomputeco/parley/pkg/qna/remote"
	"github.com/papercomputeco/parley/pkg/storage"
	"github.com/papercomputeco/parley/pkg/storage/inmemory"
	"github.com/papercomputeco/parley/pkg/storage/postgres"
	"github.com/papercomputeco/parley/pkg/storage/sqlite"
	"github.com/papercomputeco/parley/pkg/worker"
)

// MetricsNamespace prefixes every parley metric.
const MetricsNamespace = "parley"

// Options tweak how the stack is built.
type Options struct {
	// SQLitePath is used when the brain provider is sqlite and the config
	// leaves brain.sqlite_path empty.
	SQLitePath string

	// Publisher overrides the configured event publisher.
	Publisher eventstream.Publisher

	// Classifier overrides the configured classifier.
	Classifier classifier.Classifier

	// QnA overrides the configured QnA matcher.
	QnA qna.Matcher

	Logger *slog.Logger
}

// Stack holds every running component.
type Stack struct {
	Config  *config.Config
	Brain   *brain.Brain
	Nlu     *nlu.Nlu
	Bot     *bot.Bot
	Events  *worker.Pool
	Metrics *metrics.Collector

	// Corpora are the file-backed corpora, watched by Watch.
	Corpora []*corpus.File

	logger *slog.Logger
}

// OpenBrain opens the storage driver configured by cfg and returns an
// initialized brain on top of it. sqlitePath is used when the provider is
// sqlite and cfg leaves brain.sqlite_path empty.
func OpenBrain(ctx context.Context, cfg *config.Config, sqlitePath string, log *slog.Logger, opts ...brain.Option) (*brain.Brain, error) {
	duration, err := cfg.ConversationDuration()
	if err != nil {
		return nil, err
	}

	log = logger.OrNop(log)
	driver, err := newStorageDriver(ctx, cfg, sqlitePath, log)
	if err != nil {
		return nil, err
	}

	b := brain.New(driver, brain.Config{ConversationDuration: duration},
		append([]brain.Option{brain.WithLogger(log)}, opts...)...,
	)
	if err := b.Init(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("initializing brain: %w", err)
	}
	return b, nil
}

// Build validates cfg and assembles the stack. The caller must Close it.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Stack, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	log := logger.OrNop(opts.Logger)
	s := &Stack{
		Config:  cfg,
		Metrics: metrics.NewCollector(MetricsNamespace),
		logger:  log,
	}

	var err error
	s.Brain, err = OpenBrain(ctx, cfg, opts.SQLitePath, log, brain.WithMetrics(s.Metrics))
	if err != nil {
		return nil, err
	}

	if err := s.buildNlu(ctx, opts); err != nil {
		s.Brain.Close()
		return nil, err
	}

	publisher := opts.Publisher
	if publisher == nil {
		publisher, err = newPublisher(cfg)
		if err != nil {
			s.Brain.Close()
			return nil, err
		}
	}
	s.Events, err = worker.NewPool(&worker.Config{
		Publisher: publisher,
		Metrics:   s.Metrics,
		Logger:    log,
	})
	if err != nil {
		s.Brain.Close()
		return nil, err
	}

	s.Bot, err = bot.New(bot.Config{
		Brain:   s.Brain,
		Nlu:     s.Nlu,
		Events:  s.Events,
		Metrics: s.Metrics,
		Locale:  cfg.Locale,
		Logger:  log,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Stack) buildNlu(ctx context.Context, opts Options) error {
	cfg := s.Config

	cls := opts.Classifier
	if cls == nil {
		var err error
		cls, err = newClassifier(cfg, s.logger)
		if err != nil {
			return err
		}
	}

	var (
		qnaCfg  *nlu.QnAConfig
		matcher = opts.QnA
	)
	if cfg.NLU.QnA.Enabled {
		qnaCfg = &nlu.QnAConfig{When: cfg.NLU.QnA.When, Strict: cfg.NLU.QnA.Strict}
		if matcher == nil {
			m, err := qnaremote.New(qnaremote.Config{
				Endpoint: cfg.NLU.QnA.Target,
				AppID:    cfg.NLU.QnA.AppID,
				AppKey:   cfg.NLU.QnA.AppKey,
				Logger:   s.logger,
			})
			if err != nil {
				var cfgErr *qnaremote.ConfigError
				if errors.As(err, &cfgErr) {
					return &nlu.ConfigurationError{Reason: "qna", Err: err}
				}
				return err
			}
			matcher = m
		}
	}

	ext, err := s.buildExtractor()
	if err != nil {
		return err
	}

	s.Nlu, err = nlu.New(nlu.Config{
		IntentThreshold: cfg.NLU.IntentThreshold,
		QnA:             qnaCfg,
		MultiIntent:     cfg.MultiIntent,
		Locale:          cfg.Locale,
	}, nlu.Deps{
		Extractor:  ext,
		Classifier: cls,
		QnA:        matcher,
		Logger:     s.logger,
	})
	if err != nil {
		return err
	}

	if err := s.Nlu.Init(ctx); err != nil {
		return fmt.Errorf("initializing nlu: %w", err)
	}
	return nil
}

// buildExtractor combines the system boolean extractor with one corpus
// extractor per configured corpus file.
func (s *Stack) buildExtractor() (extractor.Extractor, error) {
	boolean, err := extractor.NewBooleanExtractor(s.Config.Locale, s.logger)
	if err != nil {
		return nil, err
	}
	extractors := []extractor.Extractor{boolean}

	for _, c := range s.Config.NLU.Corpora {
		f, err := corpus.LoadFile(c.Path)
		if err != nil {
			return nil, fmt.Errorf("loading corpus for %s: %w", c.Dimension, err)
		}
		s.Corpora = append(s.Corpora, f)
		extractors = append(extractors, extractor.NewCorpusExtractor(extractor.CorpusConfig{
			Dimension: c.Dimension,
			Corpus:    f,
			Logger:    s.logger,
		}))
	}

	for _, p := range s.Config.NLU.Patterns {
		ext, err := extractor.NewRegexExtractor(p.Dimension, p.Pattern)
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, ext)
	}

	return extractor.NewCompositeExtractor(extractors...), nil
}

// Watch reloads every corpus file when it changes, until ctx is done.
func (s *Stack) Watch(ctx context.Context) error {
	var g errgroup.Group
	for _, f := range s.Corpora {
		g.Go(func() error {
			if err := f.Watch(ctx, s.logger); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Close drains pending events and releases the storage driver.
func (s *Stack) Close() error {
	if s.Events != nil {
		s.Events.Close()
	}
	if s.Brain != nil {
		return s.Brain.Close()
	}
	return nil
}

func newStorageDriver(ctx context.Context, cfg *config.Config, sqlitePath string, log *slog.Logger) (storage.Driver, error) {
	switch cfg.Brain.Provider {
	case "sqlite":
		path := cfg.Brain.SQLitePath
		if path == "" {
			path = sqlitePath
		}
		if path == "" {
			return nil, errors.New("brain.sqlite_path is required for the sqlite brain")
		}
		driver, err := sqlite.NewDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite brain: %w", err)
		}
		log.Info("using SQLite brain", "path", path)
		return driver, nil

	case "postgres":
		driver, err := postgres.NewDriver(ctx, cfg.Brain.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL brain: %w", err)
		}
		log.Info("using PostgreSQL brain")
		return driver, nil

	default:
		log.Info("using in-memory brain")
		return inmemory.NewDriver(), nil
	}
}

func newClassifier(cfg *config.Config, log *slog.Logger) (classifier.Classifier, error) {
	switch cfg.NLU.Classifier.Provider {
	case "remote":
		return classifierremote.New(classifierremote.Config{
			Target: cfg.NLU.Classifier.Target,
			Logger: log,
		})
	default:
		return keyword.NewFromFile(cfg.NLU.Classifier.IntentsPath), nil
	}
}

func newPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	switch cfg.EventStream.Provider {
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: cfg.EventStream.Brokers,
			Topic:   cfg.EventStream.Topic,
		})
	default:
		return nop.NewPublisher(), nil
	}
}
