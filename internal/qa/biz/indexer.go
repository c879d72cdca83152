package biz

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kart-io/logger"

	"github.com/kart-io/resume-qa/internal/pkg/qa/textutil"
	"github.com/kart-io/resume-qa/internal/qa/store"
	"github.com/kart-io/resume-qa/pkg/infra/pool"
	"github.com/kart-io/resume-qa/pkg/llm"
	"github.com/kart-io/resume-qa/pkg/utils/id"
)

// 支持索引的文件扩展名。
var indexExtensions = []string{".md", ".txt"}

// IndexerConfig 索引器配置。
type IndexerConfig struct {
	// Collection 集合名称。
	Collection string
	// EmbeddingDim 嵌入向量维度。
	EmbeddingDim int
	// ChunkSize 块大小（token）。
	ChunkSize int
	// ChunkOverlap 块重叠（token）。
	ChunkOverlap int
	// TokenizerModel 切块使用的分词模型。
	TokenizerModel string
	// BatchSize 每次嵌入请求的块数。
	BatchSize int
	// Workers 并发嵌入请求数。
	Workers int
}

// IndexStats 一次索引运行的统计。
type IndexStats struct {
	RunID   string
	Files   int
	Indexed int
	Skipped int
	Failed  int
	Chunks  int
}

// Indexer 负责把简历文档切块、嵌入并写入向量库。
type Indexer struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	registry      Registry
	splitter      *textutil.TokenSplitter
	workers       *pool.Pool
	config        *IndexerConfig
}

// NewIndexer 创建索引器。registry 为 nil 时每次都重建全部文件。
func NewIndexer(vectorStore store.VectorStore, embedProvider llm.EmbeddingProvider, registry Registry, config *IndexerConfig) (*Indexer, error) {
	splitter, err := textutil.NewTokenSplitter(config.TokenizerModel, config.ChunkSize, config.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	poolConfig := pool.DefaultConfig()
	poolConfig.Capacity = max(config.Workers, 1)
	workers, err := pool.NewPool("qa-indexer", poolConfig)
	if err != nil {
		return nil, err
	}

	if registry == nil {
		registry = noopRegistry{}
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 16
	}

	return &Indexer{
		store:         vectorStore,
		embedProvider: embedProvider,
		registry:      registry,
		splitter:      splitter,
		workers:       workers,
		config:        config,
	}, nil
}

// Close 释放工作池。
func (i *Indexer) Close() {
	i.workers.Release()
}

// IndexDirectory 索引目录下的全部文档。内容未变化的文件被跳过。
// 单个文件失败不会中断其余文件，但最终返回汇总错误。
func (i *Indexer) IndexDirectory(ctx context.Context, dir string) (*IndexStats, error) {
	stats := &IndexStats{RunID: id.NewULID()}
	logger.Infow("Indexing documents", "dir", dir, "collection", i.config.Collection, "run_id", stats.RunID)

	collectionConfig := &store.CollectionConfig{
		Name:        i.config.Collection,
		Description: "Resume chunks",
		Dimension:   i.config.EmbeddingDim,
	}
	if err := i.store.CreateCollection(ctx, collectionConfig); err != nil {
		return stats, fmt.Errorf("failed to create collection: %w", err)
	}

	files, err := findFiles(dir, indexExtensions)
	if err != nil {
		return stats, fmt.Errorf("failed to find files: %w", err)
	}
	stats.Files = len(files)
	logger.Infof("Found %d resume files", len(files))

	var errs []error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rel, err := filepath.Rel(dir, file)
		if err != nil {
			rel = filepath.Base(file)
		}
		n, skipped, err := i.indexFile(ctx, file, filepath.ToSlash(rel), stats.RunID)
		switch {
		case err != nil:
			stats.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
			logger.Warnw("Failed to index file", "file", rel, "error", err)
		case skipped:
			stats.Skipped++
			logger.Debugw("File unchanged, skipped", "file", rel)
		default:
			stats.Indexed++
			stats.Chunks += n
			logger.Infow("Indexed file", "file", rel, "chunks", n)
		}
	}

	logger.Infow("Indexing completed",
		"run_id", stats.RunID,
		"files", stats.Files,
		"indexed", stats.Indexed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"chunks", stats.Chunks,
	)
	return stats, errors.Join(errs...)
}

// indexFile 索引单个文件，返回写入的块数以及是否因未变化而跳过。
func (i *Indexer) indexFile(ctx context.Context, path, rel, runID string) (int, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, false, err
	}

	docID := textutil.Fingerprint(rel)
	fingerprint := textutil.Fingerprint(string(content))

	rec, err := i.registry.Lookup(ctx, i.config.Collection, docID)
	if err != nil {
		return 0, false, err
	}
	if rec != nil && rec.Fingerprint == fingerprint {
		return 0, true, nil
	}

	chunks, err := i.parseAndChunk(string(content), docID, filepath.Base(rel))
	if err != nil {
		return 0, false, err
	}

	if err := i.embed(ctx, chunks); err != nil {
		return 0, false, err
	}

	// 先删除旧版本的块，避免同一文档新旧内容并存。
	if err := i.store.DeleteDocument(ctx, i.config.Collection, docID); err != nil {
		return 0, false, fmt.Errorf("failed to delete previous chunks: %w", err)
	}
	if len(chunks) > 0 {
		if _, err := i.store.Insert(ctx, i.config.Collection, chunks); err != nil {
			return 0, false, fmt.Errorf("failed to insert chunks: %w", err)
		}
	}

	err = i.registry.Record(ctx, i.config.Collection, &IndexRecord{
		DocumentID:   docID,
		DocumentName: filepath.Base(rel),
		Fingerprint:  fingerprint,
		Chunks:       len(chunks),
		RunID:        runID,
		IndexedAt:    time.Now().UTC(),
	})
	if err != nil {
		return 0, false, err
	}
	return len(chunks), false, nil
}

// parseAndChunk 按章节切分文档，再按 token 切块。
func (i *Indexer) parseAndChunk(content, docID, docName string) ([]*store.Chunk, error) {
	defaultTitle := strings.TrimSuffix(docName, filepath.Ext(docName))

	var chunks []*store.Chunk
	for _, section := range textutil.ExtractSections(content, defaultTitle) {
		parts, err := i.splitter.Split(section.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to split section %q: %w", section.Title, err)
		}
		for _, part := range parts {
			chunks = append(chunks, &store.Chunk{
				DocumentID:   docID,
				DocumentName: truncate(docName, 255),
				Section:      truncate(section.Title, 255),
				Content:      truncate(part, 65535),
			})
		}
	}
	return chunks, nil
}

// embed 在工作池中并发生成嵌入，每批一次请求。
func (i *Indexer) embed(ctx context.Context, chunks []*store.Chunk) error {
	g, _ := i.workers.NewGroup(ctx)
	for start := 0; start < len(chunks); start += i.config.BatchSize {
		batch := chunks[start:min(start+i.config.BatchSize, len(chunks))]
		g.Go(func(ctx context.Context) error {
			texts := make([]string, len(batch))
			for idx, chunk := range batch {
				texts[idx] = chunk.Content
			}
			embeddings, err := i.embedProvider.Embed(ctx, texts)
			if err != nil {
				return fmt.Errorf("failed to generate embeddings: %w", err)
			}
			if len(embeddings) != len(batch) {
				return fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(batch))
			}
			for idx, chunk := range batch {
				chunk.Embedding = embeddings[idx]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// 父 ctx 取消时未执行的批次不会返回错误。
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func findFiles(dir string, exts []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// truncate 按字节截断，不切断多字节字符。
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
