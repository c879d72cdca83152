package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kart-io/resume-qa/internal/pkg/qa/textutil"
	"github.com/kart-io/resume-qa/pkg/utils/id"
)

// MemoryStore 进程内向量存储，线性扫描计算余弦相似度。
// 数据随进程退出丢失，仅用于开发与测试。
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dimension int
	chunks    []*Chunk
}

// NewMemoryStore 创建进程内存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// CreateCollection 创建集合。
func (s *MemoryStore) CreateCollection(_ context.Context, config *CollectionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[config.Name]; !ok {
		s.collections[config.Name] = &memoryCollection{dimension: config.Dimension}
	}
	return nil
}

func (s *MemoryStore) collection(name string) (*memoryCollection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", name)
	}
	return c, nil
}

// Insert 插入文档块，向量维度必须与集合一致。
func (s *MemoryStore) Insert(_ context.Context, collection string, chunks []*Chunk) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		if c.dimension > 0 && len(chunk.Embedding) != c.dimension {
			return nil, fmt.Errorf("chunk %d: embedding dimension %d, collection expects %d", i, len(chunk.Embedding), c.dimension)
		}
	}
	for i, chunk := range chunks {
		stored := *chunk
		if stored.ID == "" {
			stored.ID = id.NewULID()
		}
		c.chunks = append(c.chunks, &stored)
		ids[i] = stored.ID
	}
	return ids, nil
}

// Search 返回最相似的 topK 个文档块。
func (s *MemoryStore) Search(_ context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []*SearchResult{}, nil
	}

	results := make([]*SearchResult, 0, len(c.chunks))
	for _, chunk := range c.chunks {
		results = append(results, &SearchResult{
			ID:           chunk.ID,
			DocumentID:   chunk.DocumentID,
			DocumentName: chunk.DocumentName,
			Section:      chunk.Section,
			Content:      chunk.Content,
			Score:        float32(textutil.CosineSimilarity(embedding, chunk.Embedding)),
		})
	}

	// 分数相同时按插入顺序，保证结果稳定。
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteDocument 删除某文档的全部文档块。
func (s *MemoryStore) DeleteDocument(_ context.Context, collection, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(collection)
	if err != nil {
		return err
	}

	kept := c.chunks[:0]
	for _, chunk := range c.chunks {
		if chunk.DocumentID != documentID {
			kept = append(kept, chunk)
		}
	}
	clear(c.chunks[len(kept):])
	c.chunks = kept
	return nil
}

// GetStats 返回文档块数量。
func (s *MemoryStore) GetStats(_ context.Context, collection string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	return int64(len(c.chunks)), nil
}

// Close 无需释放资源。
func (s *MemoryStore) Close(context.Context) error {
	return nil
}

var _ VectorStore = (*MemoryStore)(nil)
