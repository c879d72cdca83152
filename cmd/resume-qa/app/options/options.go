// Package options contains flags and options for initializing the resume QA server.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	qasvc "github.com/kart-io/resume-qa/internal/qa"
	"github.com/kart-io/resume-qa/pkg/infra/tracing"
	"github.com/kart-io/resume-qa/pkg/options"
	llmopts "github.com/kart-io/resume-qa/pkg/options/llm"
	logopts "github.com/kart-io/resume-qa/pkg/options/logger"
	milvusopts "github.com/kart-io/resume-qa/pkg/options/milvus"
	qaopts "github.com/kart-io/resume-qa/pkg/options/qa"
	redisopts "github.com/kart-io/resume-qa/pkg/options/redis"
	httpopts "github.com/kart-io/resume-qa/pkg/options/server/http"
)

var _ options.CliOptions = (*ServerOptions)(nil)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// MilvusOptions contains Milvus database configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// RedisOptions contains the index registry connection.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// QAOptions contains pipeline and indexing configuration.
	QAOptions *qaopts.Options `json:"qa" mapstructure:"qa"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracing.Options `json:"tracing" mapstructure:"tracing"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:      httpopts.NewOptions(),
		LogOptions:       logopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		RedisOptions:     redisopts.NewOptions(),
		QAOptions:        qaopts.NewOptions(),
		TracingOptions:   tracing.NewOptions(),
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss options.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.QAOptions.AddFlags(fss.FlagSet("qa"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.HTTPOptions.Complete(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.RedisOptions.Complete(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := o.QAOptions.Complete(); err != nil {
		return fmt.Errorf("qa: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	if o.QAOptions.Store == qaopts.StoreMilvus {
		errs = append(errs, o.MilvusOptions.Validate()...)
	}
	errs = append(errs, prefixed("embedding", o.EmbeddingOptions.Validate())...)
	errs = append(errs, prefixed("chat", o.ChatOptions.Validate())...)
	errs = append(errs, o.RedisOptions.Validate()...)
	errs = append(errs, o.QAOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)

	return utilerrors.NewAggregate(errs)
}

// Config builds a qasvc.Config based on ServerOptions.
func (o *ServerOptions) Config() (*qasvc.Config, error) {
	return &qasvc.Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		MilvusOptions:    o.MilvusOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		RedisOptions:     o.RedisOptions,
		QAOptions:        o.QAOptions,
		TracingOptions:   o.TracingOptions,
	}, nil
}

// prefixed names the flag section of provider errors, which share field names.
func prefixed(section string, errs []error) []error {
	for i, err := range errs {
		errs[i] = fmt.Errorf("%s: %w", section, err)
	}
	return errs
}
