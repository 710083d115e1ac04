package share

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var authKeyPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 内存库跟随连接，限制为单连接避免池中出现空库
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

func newTestService(t *testing.T) (ShareService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{
		Share: config.ShareConfig{BaseURL: "http://localhost:8080"},
	}
	svc := NewShareService(
		repositories.NewShareLinkRepository(db),
		repositories.NewModelRepository(db),
		cfg,
	)
	return svc, db
}

func seedModel(t *testing.T, db *gorm.DB, name string) *models.Model {
	t.Helper()
	m := &models.Model{
		Name:        name,
		Description: "test model",
		FilePath:    "models/" + name + ".glb",
		FileSize:    1024,
		MimeType:    "model/gltf-binary",
		UploadedBy:  1,
		IsActive:    true,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func TestIssueOrReuse_CreatesLink(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	ctx := context.Background()

	view, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)

	assert.Regexp(t, authKeyPattern, view.AuthKey)
	assert.Equal(t, "http://localhost:8080/api/shared/view/"+view.AuthKey, view.ShareURL)
	assert.True(t, view.IsActive)
	assert.Zero(t, view.AccessCount)

	// 过期时间应落在 30 天附近
	expectedExpiry := time.Now().Add(config.DefaultShareTTL)
	assert.WithinDuration(t, expectedExpiry, view.ExpiresAt, time.Minute)
}

func TestIssueOrReuse_ReusesActiveShare(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	ctx := context.Background()

	first, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)

	second, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)

	// 同一密钥、同一过期时间，不是新链接
	assert.Equal(t, first.AuthKey, second.AuthKey)
	assert.WithinDuration(t, first.ExpiresAt, second.ExpiresAt, time.Second)

	var count int64
	require.NoError(t, db.Model(&models.ShareLink{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// 复用推进了 lastAccessedAt
	var link models.ShareLink
	require.NoError(t, db.Where("auth_key = ?", first.AuthKey).First(&link).Error)
	require.NotNil(t, link.LastAccessedAt)
}

func TestIssueOrReuse_DifferentCallersGetDifferentLinks(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	ctx := context.Background()

	first, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)
	second, err := svc.IssueOrReuse(ctx, model.ID, 2)
	require.NoError(t, err)

	assert.NotEqual(t, first.AuthKey, second.AuthKey)
}

func TestIssueOrReuse_ModelMissing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.IssueOrReuse(context.Background(), 999, 1)
	assert.ErrorIs(t, err, xerr.ErrModelNotFound)
}

func TestResolve_CountsEachAccess(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	ctx := context.Background()

	view, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)

	for i := int64(1); i <= 3; i++ {
		resolved, rv, err := svc.Resolve(ctx, view.AuthKey)
		require.NoError(t, err)
		assert.Equal(t, model.ID, resolved.ID)
		assert.Equal(t, i, rv.AccessCount)
	}

	var link models.ShareLink
	require.NoError(t, db.Where("auth_key = ?", view.AuthKey).First(&link).Error)
	assert.EqualValues(t, 3, link.AccessCount)
	require.NotNil(t, link.LastAccessedAt)
}

func TestResolve_UnknownKey(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Resolve(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, xerr.ErrShareNotFound)
}

func TestResolve_DisabledShareIsGone(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	ctx := context.Background()

	view, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Disable(ctx, model.ID, 1))

	_, _, err = svc.Resolve(ctx, view.AuthKey)
	assert.ErrorIs(t, err, xerr.ErrShareGone)
}

func TestResolve_ExpiredShareIsGone(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	ctx := context.Background()

	view, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)

	// 将过期时间改到过去
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.ShareLink{}).
		Where("auth_key = ?", view.AuthKey).
		Update("expires_at", past).Error)

	_, _, err = svc.Resolve(ctx, view.AuthKey)
	assert.ErrorIs(t, err, xerr.ErrShareGone)

	// 失败的访问不计数
	var link models.ShareLink
	require.NoError(t, db.Where("auth_key = ?", view.AuthKey).First(&link).Error)
	assert.Zero(t, link.AccessCount)
}

func TestDisable_NoActiveShare(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	ctx := context.Background()

	err := svc.Disable(ctx, model.ID, 1)
	assert.ErrorIs(t, err, xerr.ErrShareNotFound)

	// 禁用后再次禁用同样报 404
	_, err = svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Disable(ctx, model.ID, 1))
	err = svc.Disable(ctx, model.ID, 1)
	assert.ErrorIs(t, err, xerr.ErrShareNotFound)
}

func TestDisable_NotScopedToIssuer(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	ctx := context.Background()

	view, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)

	// 其他用户也可以禁用该模型的分享
	require.NoError(t, svc.Disable(ctx, model.ID, 2))

	_, _, err = svc.Resolve(ctx, view.AuthKey)
	assert.ErrorIs(t, err, xerr.ErrShareGone)
}

func TestGetStatus_NeverShared(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")

	status, err := svc.GetStatus(context.Background(), model.ID)
	require.NoError(t, err)

	assert.False(t, status.IsShared)
	assert.False(t, status.IsActive)
	assert.Zero(t, status.AccessCount)
	assert.Nil(t, status.ShareURL)
	assert.Nil(t, status.ExpiresAt)
	assert.Nil(t, status.LastAccessedAt)
}

func TestGetStatus_ActiveShare(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	ctx := context.Background()

	view, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)
	_, _, err = svc.Resolve(ctx, view.AuthKey)
	require.NoError(t, err)

	status, err := svc.GetStatus(ctx, model.ID)
	require.NoError(t, err)

	assert.True(t, status.IsShared)
	assert.True(t, status.IsActive)
	assert.EqualValues(t, 1, status.AccessCount)
	require.NotNil(t, status.ShareURL)
	assert.Equal(t, view.ShareURL, *status.ShareURL)
	require.NotNil(t, status.LastAccessedAt)
}

func TestGetStatus_DisabledShareReportsInactive(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	ctx := context.Background()

	_, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Disable(ctx, model.ID, 1))

	status, err := svc.GetStatus(ctx, model.ID)
	require.NoError(t, err)

	assert.True(t, status.IsShared)
	assert.False(t, status.IsActive)
}

func TestListAll_Pagination(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		model := seedModel(t, db, fmt.Sprintf("model-%02d", i))
		_, err := svc.IssueOrReuse(ctx, model.ID, 1)
		require.NoError(t, err)
	}

	links, meta, err := svc.ListAll(ctx, 3, 10)
	require.NoError(t, err)

	assert.Len(t, links, 5)
	assert.Equal(t, 3, meta.CurrentPage)
	assert.Equal(t, 3, meta.TotalPages)
	assert.EqualValues(t, 25, meta.TotalItems)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	page1, meta1, err := svc.ListAll(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page1, 10)
	assert.True(t, meta1.HasNext)
	assert.False(t, meta1.HasPrev)
}

func TestValidateViewKey(t *testing.T) {
	svc, db := newTestService(t)
	model := seedModel(t, db, "Cube")
	other := seedModel(t, db, "Sphere")
	ctx := context.Background()

	view, err := svc.IssueOrReuse(ctx, model.ID, 1)
	require.NoError(t, err)

	assert.NoError(t, svc.ValidateViewKey(ctx, model.ID, view.AuthKey))
	// 密钥属于另一个模型时无效
	assert.ErrorIs(t, svc.ValidateViewKey(ctx, other.ID, view.AuthKey), xerr.ErrShareNotFound)
	assert.ErrorIs(t, svc.ValidateViewKey(ctx, model.ID, "bogus"), xerr.ErrShareNotFound)

	require.NoError(t, svc.Disable(ctx, model.ID, 1))
	assert.ErrorIs(t, svc.ValidateViewKey(ctx, model.ID, view.AuthKey), xerr.ErrShareNotFound)
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(2, 10, 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	empty := NewPaginationMeta(1, 10, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}
