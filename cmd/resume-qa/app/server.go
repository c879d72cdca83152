// Package app provides the resume QA server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/resume-qa/cmd/resume-qa/app/options"
	qasvc "github.com/kart-io/resume-qa/internal/qa"
	"github.com/kart-io/resume-qa/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `Resume QA Server

Answers questions about a candidate's resume over HTTP.

Each question goes through a fixed pipeline:
  - rewrite the question into a standalone question using the conversation history
  - retrieve resume passages for the standalone question
  - answer the original question from the passages and the history

Endpoints:
  POST /ask      {"question": "...", "conv_history": [...]} -> {"answer": "..."}
  GET  /         chat page
  GET  /healthz  liveness
  GET  /metrics  pipeline counters`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	application := app.NewApp(
		app.WithName(qasvc.Name),
		app.WithShortDescription("Resume question-answering server"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)

	return application
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return server.Run(ctx)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
