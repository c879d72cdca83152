// Package options contains flags and options of the offline indexer.
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
)

var _ options.CliOptions = (*IndexOptions)(nil)

// IndexOptions contains the configuration options of the indexer.
type IndexOptions struct {
	LogOptions       *logopts.Options         `json:"log" mapstructure:"log"`
	MilvusOptions    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	RedisOptions     *redisopts.Options       `json:"redis" mapstructure:"redis"`
	QAOptions        *qaopts.Options          `json:"qa" mapstructure:"qa"`
	TracingOptions   *tracing.Options         `json:"tracing" mapstructure:"tracing"`

	// Force re-embeds documents the index registry reports as unchanged.
	Force bool `json:"force" mapstructure:"force"`
}

// NewIndexOptions creates an IndexOptions instance with default values.
// Offline indexing only makes sense against a persistent store.
func NewIndexOptions() *IndexOptions {
	qa := qaopts.NewOptions()
	qa.Store = qaopts.StoreMilvus
	qa.IndexOnStart = false

	return &IndexOptions{
		LogOptions:       logopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		RedisOptions:     redisopts.NewOptions(),
		QAOptions:        qa,
		TracingOptions:   tracing.NewOptions(),
	}
}

// Flags returns the indexer flags by section name.
func (o *IndexOptions) Flags() (fss options.NamedFlagSets) {
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.QAOptions.AddFlags(fss.FlagSet("qa"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))

	fs := fss.FlagSet("misc")
	fs.BoolVar(&o.Force, "force", o.Force, "Embed every document again, ignoring the index registry.")
	return fss
}

// Complete completes all the required options.
func (o *IndexOptions) Complete() error {
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.RedisOptions.Complete(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return o.QAOptions.Complete()
}

// Validate checks whether the options are valid.
func (o *IndexOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.MilvusOptions.Validate()...)
	for _, err := range o.EmbeddingOptions.Validate() {
		errs = append(errs, fmt.Errorf("embedding: %w", err))
	}
	errs = append(errs, o.RedisOptions.Validate()...)
	if o.QAOptions.Store != qaopts.StoreMilvus {
		errs = append(errs, qasvc.ErrEphemeralStore)
	} else {
		errs = append(errs, o.QAOptions.Validate()...)
	}
	errs = append(errs, o.TracingOptions.Validate()...)

	return utilerrors.NewAggregate(errs)
}

// Config builds a qasvc.Config based on IndexOptions.
func (o *IndexOptions) Config() (*qasvc.Config, error) {
	return &qasvc.Config{
		LogOptions:       o.LogOptions,
		MilvusOptions:    o.MilvusOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		RedisOptions:     o.RedisOptions,
		QAOptions:        o.QAOptions,
		TracingOptions:   o.TracingOptions,
	}, nil
}
