package qasvc

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/resume-qa/internal/qa/biz"
	"github.com/kart-io/resume-qa/internal/qa/store"
	"github.com/kart-io/resume-qa/pkg/component/milvus"
	"github.com/kart-io/resume-qa/pkg/infra/app"
	"github.com/kart-io/resume-qa/pkg/infra/tracing"
	"github.com/kart-io/resume-qa/pkg/llm"
	// 注册 OpenAI 供应商
	_ "github.com/kart-io/resume-qa/pkg/llm/openai"
	qaopts "github.com/kart-io/resume-qa/pkg/options/qa"
)

// resources 持有需要在退出时释放的外部连接。
type resources struct {
	store    store.VectorStore
	embed    llm.EmbeddingProvider
	registry biz.Registry
	redis    *biz.RedisRegistry
	closers  []func(context.Context) error
}

func (r *resources) onClose(fn func(context.Context) error) {
	r.closers = append(r.closers, fn)
}

// close 按打开的逆序释放资源。
func (r *resources) close(ctx context.Context) error {
	var errs []error
	for _, fn := range slices.Backward(r.closers) {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// initLogger 初始化全局日志。
func (cfg *Config) initLogger(service string) error {
	cfg.LogOptions.AddInitialField("service.name", service)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initTracing 初始化链路追踪，未启用时不注册任何 exporter。
func (cfg *Config) initTracing(ctx context.Context, res *resources, service string) error {
	if cfg.TracingOptions == nil {
		return nil
	}
	provider, err := tracing.NewProvider(ctx, cfg.TracingOptions, service, app.GetVersion())
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	res.onClose(provider.Shutdown)
	if cfg.TracingOptions.Enabled {
		logger.Infow("Tracing initialized",
			"exporter", cfg.TracingOptions.ExporterType,
			"endpoint", cfg.TracingOptions.Endpoint,
		)
	}
	return nil
}

// openResources 创建向量库、Embedding 供应商与索引登记表。
func (cfg *Config) openResources(ctx context.Context, res *resources) error {
	switch cfg.QAOptions.Store {
	case qaopts.StoreMilvus:
		client, err := milvus.New(ctx, cfg.MilvusOptions)
		if err != nil {
			return fmt.Errorf("failed to initialize milvus: %w", err)
		}
		res.store = store.NewMilvusStore(client)
		logger.Infow("Milvus vector store initialized", "address", cfg.MilvusOptions.Address)
	default:
		res.store = store.NewMemoryStore()
		logger.Info("In-memory vector store initialized")
	}
	res.onClose(res.store.Close)

	embed, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	res.embed = embed
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
	)

	if reg := cfg.openRegistry(ctx, res); reg != nil {
		res.redis = reg
		res.registry = reg
	}
	return nil
}

// openRegistry 连接 Redis 索引登记表。内存向量库每次启动都为空，不使用登记表。
func (cfg *Config) openRegistry(ctx context.Context, res *resources) *biz.RedisRegistry {
	if cfg.RedisOptions == nil || !cfg.RedisOptions.Enabled {
		logger.Info("Index registry is disabled")
		return nil
	}
	if cfg.QAOptions.Store == qaopts.StoreMemory {
		logger.Warn("Index registry is ignored for the memory store")
		return nil
	}

	client := goredis.NewClient(cfg.RedisOptions.ClientOptions())
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnw("failed to connect to redis, index registry will be disabled",
			"addr", cfg.RedisOptions.Addr(),
			"error", err.Error(),
		)
		_ = client.Close()
		return nil
	}
	res.onClose(func(context.Context) error { return client.Close() })

	logger.Infow("Index registry initialized", "redis", cfg.RedisOptions.String())
	return biz.NewRedisRegistry(client, cfg.RedisOptions.KeyPrefix)
}

// newIndexer 根据配置创建索引器。
func (cfg *Config) newIndexer(res *resources) (*biz.Indexer, error) {
	qa := cfg.QAOptions
	return biz.NewIndexer(res.store, res.embed, res.registry, &biz.IndexerConfig{
		Collection:     qa.Collection,
		EmbeddingDim:   qa.EmbeddingDim,
		ChunkSize:      qa.ChunkSize,
		ChunkOverlap:   qa.ChunkOverlap,
		TokenizerModel: qa.TokenizerModel,
		BatchSize:      qa.EmbedBatchSize,
		Workers:        qa.IndexWorkers,
	})
}
