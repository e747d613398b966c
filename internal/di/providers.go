package di

import (
	"context"
	"fmt"
	"time"

	"FairVal/internal/domain/repository"
	"FairVal/internal/handler/api"
	internalrepo "FairVal/internal/repository"
	"FairVal/internal/service/finnhub"
	"FairVal/internal/service/ratelimit"
	"FairVal/internal/service/yahoo"
	"FairVal/internal/usecase"
	"FairVal/internal/valuation"
	"FairVal/pkg/cache"
	pkgch "FairVal/pkg/clickhouse"
	"FairVal/pkg/config"
	pkgkafka "FairVal/pkg/kafka"
	"FairVal/pkg/logger"
	"FairVal/pkg/metrics"
	"FairVal/pkg/server"
)

// ProvideLogger creates the application logger: console output in
// development, JSON otherwise.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	lcfg := &logger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lcfg.Level = "debug"
		lcfg.Format = "console"
	}
	return logger.New(lcfg)
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLimiter creates the shared outbound rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideFinnhub creates the Finnhub client.
func ProvideFinnhub(cfg *config.Config, limiter *ratelimit.Limiter) *finnhub.Client {
	fh := cfg.Providers.Finnhub
	return finnhub.New(fh.APIKey, fh.BaseURL, fh.Timeout, limiter, fh.RateCapacity, fh.RatePerSecond)
}

// ProvideYahoo creates the Yahoo Finance client.
func ProvideYahoo(cfg *config.Config) *yahoo.Client {
	yh := cfg.Providers.Yahoo
	return yahoo.New(yh.BaseURL, yh.Range, yh.Interval, yh.Timeout)
}

// ProvideCache creates the provider-response cache. Returns nil when caching
// is disabled; Redis-backed configs get the layered memory+Redis cache.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvideHistoryStore creates the JSONL search-history store.
func ProvideHistoryStore(cfg *config.Config) repository.HistoryStore {
	return internalrepo.NewFileHistoryStore(cfg.History.Path, cfg.History.Limit)
}

// ProvideClickHouseClient connects to ClickHouse and applies the archive
// schema. Returns nil when archiving is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	ch := cfg.Archive.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(5, 2),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SnapshotSchema(ch.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSnapshotArchive creates the ClickHouse archive, nil when disabled.
func ProvideSnapshotArchive(chClient *pkgch.Client, cfg *config.Config) repository.SnapshotArchive {
	if chClient == nil {
		return nil
	}
	table := cfg.Archive.ClickHouse.Database + ".snapshots"
	return internalrepo.NewClickHouseSnapshotArchive(chClient.DB(), table)
}

// ProvideKafkaProducer creates the Kafka producer, nil when events are
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	k := cfg.Events.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithTimeouts(k.WriteTimeout, k.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher creates the lookup-event publisher and attaches it
// as the log collector sink. Nil when events are disabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config, log *logger.Logger) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	pub := internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Kafka.Topic)
	log.AddCollector(&logger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          cfg.Events.Kafka.Topic + ".logs",
		Publisher:      pub,
	})
	return pub
}

// ProvideLookupUseCase wires the lookup flow: Finnhub for the price and
// fundamentals, Yahoo for the fundamental-rich snapshot and charts.
func ProvideLookupUseCase(
	fh *finnhub.Client,
	yh *yahoo.Client,
	history repository.HistoryStore,
	archive repository.SnapshotArchive,
	events repository.EventPublisher,
	cacheSvc cache.Service,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.LookupUseCase {
	return usecase.NewLookupUseCase(
		fh, yh, fh, yh,
		history, archive, events, cacheSvc, m, log,
		usecase.LookupConfig{
			DefaultWeight:        cfg.Valuation.DefaultWeight,
			DefaultHistoryGrowth: cfg.Valuation.DefaultHistoryGrowth,
			Params: valuation.Params{
				ReferencePEG: cfg.Valuation.ReferencePEG,
				Tolerance:    cfg.Valuation.Tolerance,
			},
			QuoteTTL:        cfg.Cache.TTL.Quote,
			FundamentalsTTL: cfg.Cache.TTL.Fundamentals,
			ChartTTL:        cfg.Cache.TTL.Chart,
		},
	)
}

// ProvideDashboardHandler creates the REST handler.
func ProvideDashboardHandler(lookup *usecase.LookupUseCase, log *logger.Logger) *api.DashboardHandler {
	return api.NewDashboardHandler(lookup, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler *api.DashboardHandler,
	history repository.HistoryStore,
	events repository.EventPublisher,
	chClient *pkgch.Client,
	log *logger.Logger,
) *server.App {
	return server.New(cfg, handler, history, events, chClient, log)
}
