package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// ModelIndexer 维护模型的搜索索引
// 索引维护是尽力而为的：写入失败只记录日志，不阻塞目录操作
type ModelIndexer interface {
	Index(ctx context.Context, model *models.Model) error
	Remove(ctx context.Context, modelID uint64) error
	// Search 按名称和描述做全文检索，返回按相关度排序的模型 ID
	Search(ctx context.Context, keyword string, limit int) ([]uint64, error)
}

// modelDocument 是写入索引的扁平文档
type modelDocument struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UploadedBy  uint64 `json:"uploadedBy"`
}

type esModelIndexer struct {
	client *elasticsearch.Client
	index  string
}

var _ ModelIndexer = (*esModelIndexer)(nil)

// NewESModelIndexer 创建基于 Elasticsearch 的索引器
func NewESModelIndexer(client *elasticsearch.Client, index string) ModelIndexer {
	return &esModelIndexer{client: client, index: index}
}

func (i *esModelIndexer) Index(ctx context.Context, model *models.Model) error {
	doc := modelDocument{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		UploadedBy:  model.UploadedBy,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化模型文档失败: %w", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithDocumentID(strconv.FormatUint(model.ID, 10)),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("写入搜索索引失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("写入搜索索引失败: %s", res.Status())
	}
	return nil
}

func (i *esModelIndexer) Remove(ctx context.Context, modelID uint64) error {
	res, err := i.client.Delete(
		i.index,
		strconv.FormatUint(modelID, 10),
		i.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("删除搜索索引文档失败: %w", err)
	}
	defer res.Body.Close()

	// 文档不存在视为删除成功
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("删除搜索索引文档失败: %s", res.Status())
	}
	return nil
}

func (i *esModelIndexer) Search(ctx context.Context, keyword string, limit int) ([]uint64, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  keyword,
				"fields": []string{"name^2", "description"},
			},
		},
		"size": limit,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("构造搜索请求失败: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("搜索请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		// 索引尚未创建时返回空结果而不是报错
		if res.StatusCode == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("搜索请求失败: %s", res.Status())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source modelDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析搜索响应失败: %w", err)
	}

	ids := make([]uint64, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, nil
}

// noopModelIndexer 在未配置 Elasticsearch 时使用
type noopModelIndexer struct{}

var _ ModelIndexer = (*noopModelIndexer)(nil)

// NewNoopModelIndexer 创建空实现的索引器
func NewNoopModelIndexer() ModelIndexer {
	logger.Warn("Elasticsearch 未配置，模型搜索功能不可用", zap.String("component", "ModelIndexer"))
	return &noopModelIndexer{}
}

func (noopModelIndexer) Index(ctx context.Context, model *models.Model) error { return nil }
func (noopModelIndexer) Remove(ctx context.Context, modelID uint64) error    { return nil }
func (noopModelIndexer) Search(ctx context.Context, keyword string, limit int) ([]uint64, error) {
	return nil, nil
}
