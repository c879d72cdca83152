package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kart-io/resume-qa/pkg/component/milvus"
	"github.com/kart-io/resume-qa/pkg/utils/id"
)

// Milvus 元数据字段。
const (
	fieldDocumentID   = "document_id"
	fieldDocumentName = "document_name"
	fieldSection      = "section"
	fieldContent      = "content"
)

var outputFields = []string{fieldDocumentID, fieldDocumentName, fieldSection, fieldContent}

// MilvusStore 实现基于 Milvus 的向量存储。
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// CreateCollection 创建 Milvus 集合。
func (s *MilvusStore) CreateCollection(ctx context.Context, config *CollectionConfig) error {
	return s.client.CreateCollection(ctx, &milvus.CollectionSchema{
		Name:        config.Name,
		Description: config.Description,
		Dimension:   config.Dimension,
		MetaFields: []milvus.MetaField{
			{Name: fieldDocumentID, MaxLen: 64},
			{Name: fieldDocumentName, MaxLen: 255},
			{Name: fieldSection, MaxLen: 255},
			{Name: fieldContent, MaxLen: 65535},
		},
	})
}

// Insert 批量插入文档块到 Milvus。
func (s *MilvusStore) Insert(ctx context.Context, collection string, chunks []*Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	data := toInsertData(chunks)
	if err := s.client.Insert(ctx, collection, data); err != nil {
		return nil, fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return data.IDs, nil
}

func toInsertData(chunks []*Chunk) *milvus.InsertData {
	data := &milvus.InsertData{
		IDs:        make([]string, len(chunks)),
		Embeddings: make([][]float32, len(chunks)),
		Metadata: map[string][]string{
			fieldDocumentID:   make([]string, len(chunks)),
			fieldDocumentName: make([]string, len(chunks)),
			fieldSection:      make([]string, len(chunks)),
			fieldContent:      make([]string, len(chunks)),
		},
	}
	for i, chunk := range chunks {
		data.IDs[i] = chunk.ID
		if data.IDs[i] == "" {
			data.IDs[i] = id.NewULID()
		}
		data.Embeddings[i] = chunk.Embedding
		data.Metadata[fieldDocumentID][i] = chunk.DocumentID
		data.Metadata[fieldDocumentName][i] = chunk.DocumentName
		data.Metadata[fieldSection][i] = chunk.Section
		data.Metadata[fieldContent][i] = chunk.Content
	}
	return data
}

// Search 执行向量相似度搜索。
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error) {
	results, err := s.client.Search(ctx, collection, embedding, topK, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	searchResults := make([]*SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = &SearchResult{
			ID:           r.ID,
			DocumentID:   r.Metadata[fieldDocumentID],
			DocumentName: r.Metadata[fieldDocumentName],
			Section:      r.Metadata[fieldSection],
			Content:      r.Metadata[fieldContent],
			Score:        r.Score,
		}
	}
	return searchResults, nil
}

// DeleteDocument 删除某文档的全部文档块。
func (s *MilvusStore) DeleteDocument(ctx context.Context, collection, documentID string) error {
	return s.client.DeleteWhere(ctx, collection, fieldDocumentID+" == "+strconv.Quote(documentID))
}

// GetStats 获取集合统计信息。
func (s *MilvusStore) GetStats(ctx context.Context, collection string) (int64, error) {
	return s.client.GetCollectionStats(ctx, collection)
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

var _ VectorStore = (*MilvusStore)(nil)
