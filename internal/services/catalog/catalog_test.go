package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/storage"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// memStorage 是测试用的内存存储后端
type memStorage struct {
	objects map[string][]byte
	puts    int
	removes int
}

var _ storage.StorageService = (*memStorage)(nil)

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (storage.PutObjectResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.PutObjectResult{}, err
	}
	m.objects[objectName] = data
	m.puts++
	return storage.PutObjectResult{Bucket: bucketName, Key: objectName, Size: int64(len(data))}, nil
}

func (m *memStorage) GetObject(ctx context.Context, bucketName, objectName string) (storage.GetObjectResult, error) {
	data, ok := m.objects[objectName]
	if !ok {
		return storage.GetObjectResult{}, fmt.Errorf("object %s not found", objectName)
	}
	return storage.GetObjectResult{
		Reader:   io.NopCloser(bytes.NewReader(data)),
		Size:     int64(len(data)),
		MimeType: "model/gltf-binary",
	}, nil
}

func (m *memStorage) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	delete(m.objects, objectName)
	m.removes++
	return nil
}

func (m *memStorage) IsBucketExist(ctx context.Context, bucketName string) (bool, error) {
	return true, nil
}

func (m *memStorage) MakeBucket(ctx context.Context, bucketName string) error { return nil }

func (m *memStorage) GetObjectURL(bucketName, objectName string) string {
	return "mem://" + bucketName + "/" + objectName
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Model{},
		&models.ShareLink{},
	))
	return db
}

func newModelService(t *testing.T) (ModelService, *memStorage, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	store := newMemStorage()
	cfg := &config.Config{
		Storage: config.StorageConfig{Type: "minio", BucketName: "test-bucket"},
		Upload: config.UploadConfig{
			MaxFileSize:       50 * 1024 * 1024,
			AllowedExtensions: []string{".glb"},
		},
	}
	svc := NewModelService(
		repositories.NewModelRepository(db),
		repositories.NewTagRepository(db),
		repositories.NewCategoryRepository(db),
		store,
		NewNoopModelIndexer(),
		cfg,
	)
	return svc, store, db
}

func glbUpload(name string, size int64) UploadModelInput {
	payload := bytes.Repeat([]byte("x"), int(size))
	return UploadModelInput{
		Name:        name,
		Description: "a test model",
		FileName:    name + ".glb",
		FileSize:    size,
		ContentType: "model/gltf-binary",
		Reader:      bytes.NewReader(payload),
	}
}

func TestUpload_StoresFileAndRecord(t *testing.T) {
	svc, store, _ := newModelService(t)

	model, err := svc.Upload(context.Background(), 1, glbUpload("Cube", 128))
	require.NoError(t, err)

	assert.Equal(t, "Cube", model.Name)
	assert.EqualValues(t, 1, model.UploadedBy)
	assert.Equal(t, "model/gltf-binary", model.MimeType)
	assert.True(t, model.IsActive)
	assert.Equal(t, 1, store.puts)
	assert.Contains(t, model.FilePath, "models/")
}

func TestUpload_RejectsWrongType(t *testing.T) {
	svc, _, _ := newModelService(t)

	input := glbUpload("Cube", 128)
	input.FileName = "Cube.obj"
	input.ContentType = "text/plain"

	_, err := svc.Upload(context.Background(), 1, input)
	assert.ErrorIs(t, err, xerr.ErrFileTypeInvalid)
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	svc, _, _ := newModelService(t)

	input := glbUpload("Cube", 16)
	input.FileSize = 51 * 1024 * 1024

	_, err := svc.Upload(context.Background(), 1, input)
	assert.ErrorIs(t, err, xerr.ErrFileTooLarge)
}

func TestUpload_UnknownCategory(t *testing.T) {
	svc, _, _ := newModelService(t)

	input := glbUpload("Cube", 16)
	missing := uint64(42)
	input.CategoryID = &missing

	_, err := svc.Upload(context.Background(), 1, input)
	assert.ErrorIs(t, err, xerr.ErrCategoryNotFound)
}

func TestUpload_UnknownTag(t *testing.T) {
	svc, _, _ := newModelService(t)

	input := glbUpload("Cube", 16)
	input.TagIDs = []uint64{99}

	_, err := svc.Upload(context.Background(), 1, input)
	assert.ErrorIs(t, err, xerr.ErrTagNotFound)
}

func TestUpload_WithCategoryAndTags(t *testing.T) {
	svc, _, db := newModelService(t)
	ctx := context.Background()

	category := &models.Category{Name: "props"}
	require.NoError(t, db.Create(category).Error)
	tag := &models.Tag{Name: "low-poly"}
	require.NoError(t, db.Create(tag).Error)

	input := glbUpload("Cube", 64)
	input.CategoryID = &category.ID
	input.TagIDs = []uint64{tag.ID}

	model, err := svc.Upload(ctx, 1, input)
	require.NoError(t, err)

	require.NotNil(t, model.Category)
	assert.Equal(t, "props", model.Category.Name)
	require.Len(t, model.Tags, 1)
	assert.Equal(t, "low-poly", model.Tags[0].Name)
}

func TestUpdate_ChangesMetadata(t *testing.T) {
	svc, _, db := newModelService(t)
	ctx := context.Background()

	model, err := svc.Upload(ctx, 1, glbUpload("Cube", 64))
	require.NoError(t, err)

	tag := &models.Tag{Name: "scene"}
	require.NoError(t, db.Create(tag).Error)

	newName := "Better Cube"
	inactive := false
	tagIDs := []uint64{tag.ID}
	updated, err := svc.Update(ctx, model.ID, UpdateModelInput{
		Name:     &newName,
		IsActive: &inactive,
		TagIDs:   &tagIDs,
	})
	require.NoError(t, err)

	assert.Equal(t, "Better Cube", updated.Name)
	assert.False(t, updated.IsActive)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "scene", updated.Tags[0].Name)
}

func TestDelete_RemovesRecordAndFile(t *testing.T) {
	svc, store, _ := newModelService(t)
	ctx := context.Background()

	model, err := svc.Upload(ctx, 1, glbUpload("Cube", 64))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, model.ID))
	assert.Equal(t, 1, store.removes)

	_, err = svc.GetByID(ctx, model.ID)
	assert.ErrorIs(t, err, xerr.ErrModelNotFound)
}

func TestGetContent_StreamsStoredBytes(t *testing.T) {
	svc, _, _ := newModelService(t)
	ctx := context.Background()

	model, err := svc.Upload(ctx, 1, glbUpload("Cube", 64))
	require.NoError(t, err)

	content, err := svc.GetContent(ctx, model.ID)
	require.NoError(t, err)
	defer content.Reader.Close()

	data, err := io.ReadAll(content.Reader)
	require.NoError(t, err)
	assert.Len(t, data, 64)
	assert.Equal(t, "model/gltf-binary", content.MimeType)
}

func TestGetContent_InactiveModelHidden(t *testing.T) {
	svc, _, _ := newModelService(t)
	ctx := context.Background()

	model, err := svc.Upload(ctx, 1, glbUpload("Cube", 64))
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, model.ID, UpdateModelInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.GetContent(ctx, model.ID)
	assert.ErrorIs(t, err, xerr.ErrModelNotFound)
}

func TestList_FiltersByCategory(t *testing.T) {
	svc, _, db := newModelService(t)
	ctx := context.Background()

	category := &models.Category{Name: "props"}
	require.NoError(t, db.Create(category).Error)

	inCat := glbUpload("Cube", 16)
	inCat.CategoryID = &category.ID
	_, err := svc.Upload(ctx, 1, inCat)
	require.NoError(t, err)
	_, err = svc.Upload(ctx, 1, glbUpload("Sphere", 16))
	require.NoError(t, err)

	all, err := svc.List(ctx, repositories.ModelFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.List(ctx, repositories.ModelFilter{CategoryID: &category.ID})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Cube", filtered[0].Name)
}

func TestCategoryService_CRUD(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(repositories.NewCategoryRepository(db))
	ctx := context.Background()

	created, err := svc.Create(ctx, "vehicles", "cars and such")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	// 重名冲突
	_, err = svc.Create(ctx, "vehicles", "")
	assert.ErrorIs(t, err, xerr.ErrCategoryAlreadyExists)

	newName := "vehicles-v2"
	updated, err := svc.Update(ctx, created.ID, &newName, nil)
	require.NoError(t, err)
	assert.Equal(t, "vehicles-v2", updated.Name)
	assert.Equal(t, "cars and such", updated.Description)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, xerr.ErrCategoryNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), xerr.ErrCategoryNotFound)
}

func TestTagService_CRUD(t *testing.T) {
	db := newTestDB(t)
	svc := NewTagService(repositories.NewTagRepository(db))
	ctx := context.Background()

	created, err := svc.Create(ctx, "stylized")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "stylized")
	assert.ErrorIs(t, err, xerr.ErrTagAlreadyExists)

	other, err := svc.Create(ctx, "realistic")
	require.NoError(t, err)

	// 改名为已占用的名字
	_, err = svc.Update(ctx, created.ID, "realistic")
	assert.ErrorIs(t, err, xerr.ErrTagAlreadyExists)

	updated, err := svc.Update(ctx, created.ID, "hand-painted")
	require.NoError(t, err)
	assert.Equal(t, "hand-painted", updated.Name)

	require.NoError(t, svc.Delete(ctx, other.ID))
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
