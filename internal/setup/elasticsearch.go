package setup

import (
	"fmt"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// InitElasticsearch 初始化 Elasticsearch 客户端
// 未配置地址时返回 nil，搜索功能降级为空实现
func InitElasticsearch(cfg *config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	if len(cfg.Addresses) == 0 {
		logger.Warn("Elasticsearch 未配置，跳过初始化")
		return nil, nil
	}

	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	// 尝试连接并获取集群信息，验证连接是否成功
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error connecting to Elasticsearch: %s", res.Status())
	}

	logger.Info("Elasticsearch client initialized successfully.", zap.String("status", res.Status()))
	return client, nil
}
