package qasvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/resume-qa/internal/qa/biz"
	qaopts "github.com/kart-io/resume-qa/pkg/options/qa"
	qaerrors "github.com/kart-io/resume-qa/pkg/utils/errors"
)

// IndexName is the name of the offline indexing command.
const IndexName = "resume-qa-index"

// ErrEphemeralStore is returned when offline indexing targets the memory store.
var ErrEphemeralStore = errors.New("offline indexing needs a persistent store, set --qa.store=milvus")

// RunIndex indexes the documents directory into the configured store and
// exits. With force set, the index registry is cleared first so every
// document is embedded again.
func (cfg *Config) RunIndex(ctx context.Context, force bool) (stats *biz.IndexStats, err error) {
	if cfg.QAOptions.Store == qaopts.StoreMemory {
		return nil, ErrEphemeralStore
	}

	if err := cfg.initLogger(IndexName); err != nil {
		return nil, err
	}

	res := &resources{}
	defer func() {
		if cerr := res.close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warnw("failed to release resources", "error", cerr.Error())
		}
	}()

	if err := cfg.initTracing(ctx, res, IndexName); err != nil {
		return nil, err
	}
	if err := cfg.openResources(ctx, res); err != nil {
		return nil, err
	}

	if force && res.redis != nil {
		if err := res.redis.Forget(ctx, cfg.QAOptions.Collection); err != nil {
			return nil, fmt.Errorf("failed to clear index registry: %w", err)
		}
		logger.Infow("Index registry cleared", "collection", cfg.QAOptions.Collection)
	}

	indexer, err := cfg.newIndexer(res)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize indexer: %w", err)
	}
	defer indexer.Close()

	stats, err = indexer.IndexDirectory(ctx, cfg.QAOptions.DocumentsDir)
	if err != nil {
		return stats, qaerrors.ErrQAIndexing.WithMessagef("failed to index %s", cfg.QAOptions.DocumentsDir).WithCause(err)
	}
	return stats, nil
}
