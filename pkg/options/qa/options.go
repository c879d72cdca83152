// Package qa provides the options of the resume question-answering pipeline.
package qa

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/resume-qa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Store backends.
const (
	StoreMemory = "memory"
	StoreMilvus = "milvus"
)

// Options contains pipeline, retrieval and indexing configuration.
type Options struct {
	// Store selects the vector store backend (memory|milvus).
	Store string `json:"store" mapstructure:"store"`

	// Collection is the vector collection holding resume chunks.
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// TopK is the number of passages returned by the retriever.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// DocumentsDir holds the resume documents (.md, .txt) to index.
	DocumentsDir string `json:"documents-dir" mapstructure:"documents-dir"`

	// ChunkSize is the chunk size in tokens.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the overlap between consecutive chunks in tokens.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// TokenizerModel picks the tiktoken encoding used for chunking.
	TokenizerModel string `json:"tokenizer-model" mapstructure:"tokenizer-model"`

	// IndexOnStart indexes DocumentsDir before the server starts listening.
	IndexOnStart bool `json:"index-on-start" mapstructure:"index-on-start"`

	// IndexWorkers bounds concurrent embedding batches during indexing.
	IndexWorkers int `json:"index-workers" mapstructure:"index-workers"`

	// EmbedBatchSize is the number of chunks per embedding request.
	EmbedBatchSize int `json:"embed-batch-size" mapstructure:"embed-batch-size"`

	// StaticDir is the static site root; empty serves the built-in page.
	StaticDir string `json:"static-dir" mapstructure:"static-dir"`

	// RewriteTemplate overrides the standalone-question prompt.
	RewriteTemplate string `json:"rewrite-template" mapstructure:"rewrite-template"`

	// AnswerTemplate overrides the answer prompt.
	AnswerTemplate string `json:"answer-template" mapstructure:"answer-template"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Store:          StoreMemory,
		Collection:     "resume",
		EmbeddingDim:   1536,
		TopK:           4,
		DocumentsDir:   "data",
		ChunkSize:      256,
		ChunkOverlap:   32,
		TokenizerModel: "text-embedding-3-small",
		IndexOnStart:   true,
		IndexWorkers:   4,
		EmbedBatchSize: 16,
	}
}

// AddFlags adds flags for QA options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "qa."
	fs.StringVar(&o.Store, p+"store", o.Store, "Vector store backend (memory|milvus).")
	fs.StringVar(&o.Collection, p+"collection", o.Collection, "Vector collection name.")
	fs.IntVar(&o.EmbeddingDim, p+"embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of passages retrieved per question.")
	fs.StringVar(&o.DocumentsDir, p+"documents-dir", o.DocumentsDir, "Directory of resume documents to index.")
	fs.IntVar(&o.ChunkSize, p+"chunk-size", o.ChunkSize, "Chunk size in tokens.")
	fs.IntVar(&o.ChunkOverlap, p+"chunk-overlap", o.ChunkOverlap, "Overlap between chunks in tokens.")
	fs.StringVar(&o.TokenizerModel, p+"tokenizer-model", o.TokenizerModel, "Model whose tokenizer is used for chunking.")
	fs.BoolVar(&o.IndexOnStart, p+"index-on-start", o.IndexOnStart, "Index the documents directory before serving.")
	fs.IntVar(&o.IndexWorkers, p+"index-workers", o.IndexWorkers, "Concurrent embedding batches while indexing.")
	fs.IntVar(&o.EmbedBatchSize, p+"embed-batch-size", o.EmbedBatchSize, "Chunks per embedding request.")
	fs.StringVar(&o.StaticDir, p+"static-dir", o.StaticDir, "Static site root served at /. Empty serves the built-in page.")
	fs.StringVar(&o.RewriteTemplate, p+"rewrite-template", o.RewriteTemplate, "Override of the standalone-question prompt (placeholders: {conv_history}, {question}).")
	fs.StringVar(&o.AnswerTemplate, p+"answer-template", o.AnswerTemplate, "Override of the answer prompt (placeholders: {context}, {conv_history}, {question}).")
}

// Complete completes the QA options with defaults.
func (o *Options) Complete() error {
	if o.Store == "" {
		o.Store = StoreMemory
	}
	if o.IndexWorkers <= 0 {
		o.IndexWorkers = 1
	}
	return nil
}

// Validate validates the QA options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Store != StoreMemory && o.Store != StoreMilvus {
		errs = append(errs, fmt.Errorf("qa.store must be %q or %q, got %q", StoreMemory, StoreMilvus, o.Store))
	}
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("qa.collection is required"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("qa.top-k must be positive"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("qa.embedding-dim must be positive"))
	}
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("qa.chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("qa.chunk-overlap must be in [0, chunk-size)"))
	}
	if o.EmbedBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("qa.embed-batch-size must be positive"))
	}
	if o.Store == StoreMemory && !o.IndexOnStart {
		errs = append(errs, fmt.Errorf("qa.index-on-start must be true for the memory store"))
	}
	return errs
}
