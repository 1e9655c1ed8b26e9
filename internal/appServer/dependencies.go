package appServer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/renatodap/snapmod-sub000/config"
	"github.com/renatodap/snapmod-sub000/internal/database"
	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/events"
	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
	"github.com/renatodap/snapmod-sub000/internal/pkg/kafka"
	"github.com/renatodap/snapmod-sub000/internal/pkg/postgres"
	"github.com/renatodap/snapmod-sub000/internal/pkg/rabbitMQ"
	"github.com/renatodap/snapmod-sub000/internal/pkg/redis"
	"github.com/renatodap/snapmod-sub000/internal/pkg/storage"
	"github.com/renatodap/snapmod-sub000/internal/pkg/store"
	"github.com/sirupsen/logrus"
)

// Dependencies is everything the HTTP server and the render processor share.
type Dependencies struct {
	Repos     *database.Repositories
	Renderer  *filters.Renderer
	Publisher events.Publisher

	closers []func() error
}

// BuildDependencies connects the configured storage backend and event bus and
// opens the stores. An empty storage backend leaves the stores unconfigured:
// the application starts and every store call reports it.
func BuildDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	d := &Dependencies{Renderer: NewRenderer(cfg.Filters)}

	factory, err := d.backendFactory(&cfg.Storage, cfg)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Repos = database.NewRepositories(factory, database.Limits{
		VersionCapacity: cfg.Stores.VersionCapacity,
		VersionSlack:    cfg.Stores.VersionSlack,
		HistoryCapacity: cfg.Stores.HistoryCapacity,
		HistorySlack:    cfg.Stores.HistorySlack,
		PresetCapacity:  cfg.Stores.PresetCapacity,
	})
	switch err := d.Repos.Open(ctx); {
	case errors.Is(err, store.ErrUnconfigured):
		logrus.Warn("no storage backend configured, stores are unavailable")
	case err != nil:
		d.Close()
		return nil, fmt.Errorf("failed to open stores: %w", err)
	default:
		d.closers = append(d.closers, d.Repos.Close)
	}

	if d.Publisher, err = NewPublisher(&cfg.Events); err != nil {
		d.Close()
		return nil, err
	}
	d.closers = append(d.closers, d.Publisher.Close)

	logrus.WithFields(logrus.Fields{
		"storage":   cfg.Storage.Backend,
		"events":    d.Publisher.State().String(),
		"rendering": d.Renderer.Available(),
	}).Info("dependencies ready")
	return d, nil
}

func (d *Dependencies) backendFactory(cfg *config.StorageConfig, root *config.Config) (database.BackendFactory, error) {
	switch strings.ToLower(cfg.Backend) {
	case "":
		return func(string) store.Backend { return store.NewUnconfiguredBackend() }, nil
	case "memory":
		return func(string) store.Backend { return store.NewMemoryBackend() }, nil
	case "file":
		fs := storage.NewFileStorage(cfg.Path)
		return func(ns string) store.Backend { return store.NewFileBackend(fs, ns) }, nil
	case "redis":
		client := redis.NewRedisClient(&root.Redis)
		d.closers = append(d.closers, client.Close)
		prefix := root.Redis.KeyPrefix
		return func(ns string) store.Backend { return store.NewRedisBackend(client, prefix, ns) }, nil
	case "postgres":
		db, err := postgres.NewPostgresDB(&root.Database)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, db.Close)
		return func(ns string) store.Backend { return store.NewPostgresBackend(db, ns) }, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewRenderer builds the exact renderer. With rendering switched off the
// renderer reports filters.ErrRenderingUnavailable.
func NewRenderer(cfg config.FiltersConfig) *filters.Renderer {
	opts := filters.RendererOptions{
		MaxDimension:  cfg.MaxDimension,
		ThumbnailSize: cfg.ThumbnailSize,
	}
	if !cfg.Rendering {
		return filters.NewRenderer(nil, opts)
	}
	return filters.NewRenderer(filters.NewCodec(filters.OutputFormat(strings.ToLower(cfg.OutputFormat)), cfg.JPEGQuality), opts)
}

// NewPublisher connects the configured event bus. An empty driver gives the
// unconfigured publisher.
func NewPublisher(cfg *config.EventsConfig) (events.Publisher, error) {
	switch strings.ToLower(cfg.Driver) {
	case "":
		return events.NewUnconfigured("no event driver configured"), nil
	case "kafka":
		return kafka.NewProducer(cfg.Kafka.Brokers, entity.TopicRenderTasks, entity.TopicVersionCommitted)
	case "rabbitmq":
		return rabbitMQ.NewRabbitMQ(rabbitMQ.RabbitMQConfig{
			URL:          cfg.RabbitMQ.URL,
			ExchangeName: cfg.RabbitMQ.Exchange,
		})
	default:
		return nil, fmt.Errorf("unknown event driver %q", cfg.Driver)
	}
}

// NewTaskConsumer subscribes to queued render tasks on the configured bus.
// It returns nil when no bus is reachable: async renders are then refused
// with ErrEventsDisabled by the publisher side.
func NewTaskConsumer(cfg *config.EventsConfig) (events.Consumer, error) {
	switch strings.ToLower(cfg.Driver) {
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, nil
		}
		return kafka.NewConsumer(cfg.Kafka.Brokers, entity.TopicRenderTasks, cfg.Kafka.GroupID), nil
	case "rabbitmq":
		if cfg.RabbitMQ.URL == "" {
			return nil, nil
		}
		consumer, err := rabbitMQ.NewConsumer(rabbitMQ.RabbitMQConfig{
			URL:          cfg.RabbitMQ.URL,
			ExchangeName: cfg.RabbitMQ.Exchange,
			Queue:        cfg.RabbitMQ.Queue,
		}, entity.TopicRenderTasks)
		if err != nil {
			return nil, err
		}
		return consumer, nil
	default:
		return nil, nil
	}
}

// Close releases everything in reverse order of acquisition.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
