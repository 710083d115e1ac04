package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/repositories"
	"github.com/3Eeeecho/go-modelhub/internal/services/share"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// envelope 镜像统一响应结构，便于断言
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func newShareTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Tag{},
		&models.Model{}, &models.ShareLink{},
	))

	cfg := &config.Config{Share: config.ShareConfig{BaseURL: "http://localhost:8080"}}
	shareService := share.NewShareService(
		repositories.NewShareLinkRepository(db),
		repositories.NewModelRepository(db),
		cfg,
	)
	shareHandler := NewShareHandler(shareService)
	viewerHandler := NewViewerHandler(shareService)

	// 测试中直接注入用户身份，跳过 JWT 解析
	fakeAuth := func(c *gin.Context) {
		c.Set("userID", uint64(1))
		c.Next()
	}

	router := gin.New()
	shared := router.Group("/api/shared")
	shared.GET("/view/:authKey", viewerHandler.View)
	withAuth := shared.Group("/", fakeAuth)
	withAuth.POST("/generate/:modelId", shareHandler.Generate)
	withAuth.POST("/disable/:modelId", shareHandler.Disable)
	withAuth.GET("/status/:modelId", shareHandler.Status)
	withAuth.GET("/my-shares", shareHandler.MyShares)

	return router, db
}

func seedModel(t *testing.T, db *gorm.DB, name string) *models.Model {
	t.Helper()
	m := &models.Model{
		Name:        name,
		Description: "test model",
		FilePath:    "models/" + name + ".glb",
		FileSize:    256,
		MimeType:    "model/gltf-binary",
		UploadedBy:  1,
		IsActive:    true,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestGenerateShareRoute(t *testing.T) {
	router, db := newShareTestRouter(t)
	seedModel(t, db, "Cube")

	w := doRequest(router, http.MethodPost, "/api/shared/generate/1")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)

	var view share.ShareLinkView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Regexp(t, `^[0-9a-f]{64}$`, view.AuthKey)
	assert.Contains(t, view.ShareURL, "/api/shared/view/"+view.AuthKey)
	assert.True(t, view.IsActive)
}

func TestGenerateShareRoute_ModelMissing(t *testing.T) {
	router, _ := newShareTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/shared/generate/99")
	assert.Equal(t, http.StatusNotFound, w.Code)

	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestShareStatusRoute_NeverShared(t *testing.T) {
	router, db := newShareTestRouter(t)
	seedModel(t, db, "Cube")

	w := doRequest(router, http.MethodGet, "/api/shared/status/1")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)

	var status share.ShareStatusView
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.IsShared)
	assert.Zero(t, status.AccessCount)
}

func TestViewerRoute_Lifecycle(t *testing.T) {
	router, db := newShareTestRouter(t)
	seedModel(t, db, "Cube")

	// 生成分享
	w := doRequest(router, http.MethodPost, "/api/shared/generate/1")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	var view share.ShareLinkView
	require.NoError(t, json.Unmarshal(env.Data, &view))

	// 公开访问返回查看器页面
	w = doRequest(router, http.MethodGet, "/api/shared/view/"+view.AuthKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Cube")

	// 未知密钥是 404 HTML
	w = doRequest(router, http.MethodGet, "/api/shared/view/unknownkey")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Share Link Not Found")

	// 禁用后访问是 410 HTML
	w = doRequest(router, http.MethodPost, "/api/shared/disable/1")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/shared/view/"+view.AuthKey)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "Share Link Expired")

	// 再次禁用报 404
	w = doRequest(router, http.MethodPost, "/api/shared/disable/1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMySharesRoute_Pagination(t *testing.T) {
	router, db := newShareTestRouter(t)

	for i := 0; i < 25; i++ {
		m := seedModel(t, db, "model")
		w := doRequest(router, http.MethodPost, "/api/shared/generate/"+strconv.FormatUint(m.ID, 10))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(router, http.MethodGet, "/api/shared/my-shares?page=3&pageSize=10")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)

	var payload struct {
		Shares     []models.ShareLink   `json:"shares"`
		Pagination share.PaginationMeta `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))

	assert.Len(t, payload.Shares, 5)
	assert.Equal(t, 3, payload.Pagination.CurrentPage)
	assert.EqualValues(t, 25, payload.Pagination.TotalItems)
	assert.False(t, payload.Pagination.HasNext)
	assert.True(t, payload.Pagination.HasPrev)
}
