package storage

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"go.uber.org/zap"
)

type AliyunOSSStorageService struct {
	client *oss.Client
	cfg    *config.AliyunOSSConfig // 阿里云OSS的配置信息
}

var _ StorageService = (*AliyunOSSStorageService)(nil)

// NewAliyunOSSStorageService 创建并返回一个 AliyunOSSStorageService 实例
func NewAliyunOSSStorageService(cfg *config.AliyunOSSConfig) (*AliyunOSSStorageService, error) {
	// OSS Endpoint 应该包含 http:// 或 https:// 前缀
	ossClient, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		logger.Error("初始化阿里云OSS客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化阿里云OSS客户端: %w", err)
	}
	logger.Info("阿里云OSS客户端初始化成功", zap.String("endpoint", cfg.Endpoint))
	return &AliyunOSSStorageService{
		client: ossClient,
		cfg:    cfg,
	}, nil
}

// PutObject 实现 StorageService 接口的 PutObject 方法
func (s *AliyunOSSStorageService) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (PutObjectResult, error) {
	bucket, err := s.client.Bucket(bucketName)
	if err != nil {
		return PutObjectResult{}, fmt.Errorf("获取OSS存储桶失败: %w", err)
	}

	options := []oss.Option{
		oss.ContentType(contentType),
	}
	err = bucket.PutObject(objectName, reader, options...)
	if err != nil {
		return PutObjectResult{}, fmt.Errorf("阿里云OSS上传文件失败: %w", err)
	}

	// PutObject 本身不返回对象信息，如需精确 ETag 需要再调用 GetObjectMeta
	return PutObjectResult{
		Bucket: bucketName,
		Key:    objectName,
		Size:   objectSize,
	}, nil
}

// GetObject 实现 StorageService 接口的 GetObject 方法
func (s *AliyunOSSStorageService) GetObject(ctx context.Context, bucketName, objectName string) (GetObjectResult, error) {
	bucket, err := s.client.Bucket(bucketName)
	if err != nil {
		return GetObjectResult{}, fmt.Errorf("获取OSS存储桶失败: %w", err)
	}

	reader, err := bucket.GetObject(objectName)
	if err != nil {
		return GetObjectResult{}, fmt.Errorf("阿里云OSS获取文件失败: %w", err)
	}

	// 获取对象元数据以获取Size和MimeType
	props, err := bucket.GetObjectDetailedMeta(objectName)
	if err != nil {
		logger.Warn("获取OSS对象元数据失败", zap.String("object", objectName), zap.Error(err))
	}

	size := int64(0)
	if val := props.Get(oss.HTTPHeaderContentLength); val != "" {
		size, _ = strconv.ParseInt(val, 10, 64)
	}
	mimeType := ""
	if mt := props.Get(oss.HTTPHeaderContentType); mt != "" {
		mimeType = mt
	}

	return GetObjectResult{
		Reader:   reader,
		Size:     size,
		MimeType: mimeType,
	}, nil
}

// RemoveObject 实现 StorageService 接口的 RemoveObject 方法
func (s *AliyunOSSStorageService) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	bucket, err := s.client.Bucket(bucketName)
	if err != nil {
		return fmt.Errorf("获取OSS存储桶失败: %w", err)
	}
	err = bucket.DeleteObject(objectName)
	if err != nil {
		return fmt.Errorf("阿里云OSS删除文件失败: %w", err)
	}
	return nil
}

// IsBucketExist 实现 StorageService 接口的 IsBucketExist 方法
func (s *AliyunOSSStorageService) IsBucketExist(ctx context.Context, bucketName string) (bool, error) {
	found, err := s.client.IsBucketExist(bucketName)
	if err != nil {
		return false, fmt.Errorf("检查阿里云OSS存储桶存在性失败: %w", err)
	}
	return found, nil
}

// MakeBucket 实现 StorageService 接口的 MakeBucket 方法
func (s *AliyunOSSStorageService) MakeBucket(ctx context.Context, bucketName string) error {
	err := s.client.CreateBucket(bucketName)
	if err != nil {
		exists, errBucketExists := s.client.IsBucketExist(bucketName)
		if errBucketExists == nil && exists {
			logger.Info("OSS 存储桶已存在，无需创建", zap.String("bucket", bucketName))
			return nil
		}
		return fmt.Errorf("创建阿里云OSS存储桶失败: %w", err)
	}
	logger.Info("OSS 存储桶创建成功", zap.String("bucket", bucketName))
	return nil
}

// GetObjectURL 实现 StorageService 接口的 GetObjectURL 方法
func (s *AliyunOSSStorageService) GetObjectURL(bucketName, objectName string) string {
	scheme := "https"
	if !s.cfg.UseSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s.%s/%s", scheme, bucketName, s.cfg.Endpoint, objectName)
}
