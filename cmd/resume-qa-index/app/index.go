// Package app provides the offline resume indexing command.
package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"

	"github.com/kart-io/resume-qa/cmd/resume-qa-index/app/options"
	qasvc "github.com/kart-io/resume-qa/internal/qa"
	"github.com/kart-io/resume-qa/pkg/infra/app"
)

const commandDesc = `Resume QA Indexer

Splits the resume documents (.md, .txt) of --qa.documents-dir into token
chunks, embeds them and writes them to the Milvus collection used by the
resume-qa server. With --redis.enabled, documents whose content did not
change since the last run are skipped; --force embeds everything again.`

// NewApp creates the indexing command.
func NewApp() *app.App {
	opts := options.NewIndexOptions()
	return app.NewApp(
		app.WithName(qasvc.IndexName),
		app.WithShortDescription("Index resume documents into the vector store"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.IndexOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		stats, err := cfg.RunIndex(ctx, opts.Force)
		if stats != nil {
			logger.Infow("Index run finished",
				"run_id", stats.RunID,
				"files", stats.Files,
				"indexed", stats.Indexed,
				"skipped", stats.Skipped,
				"failed", stats.Failed,
				"chunks", stats.Chunks,
			)
		}
		return err
	}
}
