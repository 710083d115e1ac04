package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-modelhub/internal/services/share"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ViewerHandler 渲染面向浏览器的模型查看页面
// 该路径的消费者是浏览器而不是 API 客户端，错误也用 HTML 页面呈现
type ViewerHandler struct {
	shareService share.ShareService
	viewerTmpl   *template.Template
	errorTmpl    *template.Template
}

func NewViewerHandler(shareService share.ShareService) *ViewerHandler {
	return &ViewerHandler{
		shareService: shareService,
		viewerTmpl:   template.Must(template.New("viewer").Parse(viewerPageHTML)),
		errorTmpl:    template.Must(template.New("viewerError").Parse(errorPageHTML)),
	}
}

type viewerPageData struct {
	ModelName        string
	ModelDescription string
	SharedBy         uint64
	AccessCount      int64
	ModelURL         string
}

type errorPageData struct {
	Title   string
	Message string
}

// View resolves a share link and renders the Three.js viewer page.
// @Summary 查看分享的模型
// @Description 公开访问分享的模型，成功时返回查看器 HTML 页面并累加访问计数
// @Tags 查看器
// @Produce html
// @Param authKey path string true "分享密钥"
// @Success 200 {string} string "查看器页面"
// @Failure 404 {string} string "分享不存在页面"
// @Failure 410 {string} string "分享已失效页面"
// @Router /api/shared/view/{authKey} [get]
func (h *ViewerHandler) View(c *gin.Context) {
	authKey := c.Param("authKey")

	model, view, err := h.shareService.Resolve(c.Request.Context(), authKey)
	if err != nil {
		switch {
		case errors.Is(err, xerr.ErrShareNotFound), errors.Is(err, xerr.ErrModelNotFound):
			h.renderError(c, http.StatusNotFound, errorPageData{
				Title:   "Share Link Not Found",
				Message: "The share link you're looking for doesn't exist or has been removed.",
			})
		case errors.Is(err, xerr.ErrShareGone):
			h.renderError(c, http.StatusGone, errorPageData{
				Title:   "Share Link Expired",
				Message: "This share link has expired or been disabled.",
			})
		default:
			logger.Error("View: 解析分享链接失败", zap.Error(err))
			h.renderError(c, http.StatusInternalServerError, errorPageData{
				Title:   "Error",
				Message: "An unexpected error occurred while loading this model.",
			})
		}
		return
	}

	data := viewerPageData{
		ModelName:        model.Name,
		ModelDescription: model.Description,
		SharedBy:         model.UploadedBy,
		AccessCount:      view.AccessCount,
		ModelURL:         fmt.Sprintf("/api/view/%d/model?token=%s", model.ID, view.AuthKey),
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.viewerTmpl.Execute(c.Writer, data); err != nil {
		logger.Error("View: 渲染查看器页面失败", zap.Error(err))
	}
}

func (h *ViewerHandler) renderError(c *gin.Context, status int, data errorPageData) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.errorTmpl.Execute(c.Writer, data); err != nil {
		logger.Error("renderError: 渲染错误页面失败", zap.Error(err))
	}
}

const errorPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; background: #1a1a1a; color: white; }
        .error { color: #e74c3c; }
    </style>
</head>
<body>
    <h1 class="error">{{.Title}}</h1>
    <p>{{.Message}}</p>
</body>
</html>`

const viewerPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>3D Model Viewer - {{.ModelName}}</title>
    <style>
        body { margin: 0; padding: 0; background: #1a1a1a; font-family: Arial, sans-serif; overflow: hidden; }
        #container { width: 100vw; height: 100vh; position: relative; }
        #info {
            position: absolute; top: 20px; left: 20px;
            background: rgba(0,0,0,0.8); color: white; padding: 15px;
            border-radius: 8px; max-width: 300px; z-index: 100;
            backdrop-filter: blur(10px);
        }
        #controls {
            position: absolute; bottom: 20px; left: 50%;
            transform: translateX(-50%);
            background: rgba(0,0,0,0.8); color: white; padding: 10px 20px;
            border-radius: 25px; z-index: 100; backdrop-filter: blur(10px);
        }
        #loading {
            position: absolute; top: 50%; left: 50%;
            transform: translate(-50%, -50%);
            color: white; font-size: 18px; z-index: 100; text-align: center;
        }
        .spinner {
            border: 3px solid rgba(255,255,255,0.3); border-radius: 50%;
            border-top: 3px solid white; width: 30px; height: 30px;
            animation: spin 1s linear infinite; margin: 0 auto 10px;
        }
        @keyframes spin { 0% { transform: rotate(0deg); } 100% { transform: rotate(360deg); } }
        .hidden { display: none; }
        #close-info {
            position: absolute; top: 5px; right: 10px;
            background: none; border: none; color: white;
            font-size: 18px; cursor: pointer;
        }
    </style>
</head>
<body>
    <div id="container">
        <div id="loading">
            <div class="spinner"></div>
            Loading 3D Model...
        </div>
        <div id="info" class="hidden">
            <button id="close-info">&times;</button>
            <h3>{{.ModelName}}</h3>
            <p>{{.ModelDescription}}</p>
            <p><small>Shared by: user #{{.SharedBy}}</small></p>
            <p><small>Views: {{.AccessCount}}</small></p>
        </div>
        <div id="controls" class="hidden">
            <span>🖱️ Drag to rotate • 🔍 Scroll to zoom • Right-click to pan</span>
        </div>
    </div>

    <script src="https://cdnjs.cloudflare.com/ajax/libs/three.js/r128/three.min.js"></script>
    <script src="https://cdn.jsdelivr.net/npm/three@0.128.0/examples/js/loaders/GLTFLoader.js"></script>
    <script src="https://cdn.jsdelivr.net/npm/three@0.128.0/examples/js/controls/OrbitControls.js"></script>

    <script>
        let scene, camera, renderer, controls, model;
        const container = document.getElementById('container');
        const loading = document.getElementById('loading');
        const info = document.getElementById('info');
        const controlsDiv = document.getElementById('controls');
        const closeInfo = document.getElementById('close-info');

        function init() {
            scene = new THREE.Scene();
            scene.background = new THREE.Color(0x2c2c2c);

            camera = new THREE.PerspectiveCamera(75, window.innerWidth / window.innerHeight, 0.1, 1000);
            camera.position.set(0, 0, 5);

            renderer = new THREE.WebGLRenderer({ antialias: true });
            renderer.setSize(window.innerWidth, window.innerHeight);
            renderer.shadowMap.enabled = true;
            renderer.shadowMap.type = THREE.PCFSoftShadowMap;
            container.appendChild(renderer.domElement);

            controls = new THREE.OrbitControls(camera, renderer.domElement);
            controls.enableDamping = true;
            controls.dampingFactor = 0.05;

            const ambientLight = new THREE.AmbientLight(0x404040, 0.6);
            scene.add(ambientLight);

            const directionalLight = new THREE.DirectionalLight(0xffffff, 0.8);
            directionalLight.position.set(10, 10, 5);
            directionalLight.castShadow = true;
            scene.add(directionalLight);

            loadModel('{{.ModelURL}}');

            window.addEventListener('resize', onWindowResize);
            closeInfo.addEventListener('click', () => {
                info.classList.add('hidden');
            });
        }

        function loadModel(url) {
            const loader = new THREE.GLTFLoader();
            loader.load(
                url,
                function(gltf) {
                    model = gltf.scene;
                    scene.add(model);

                    const box = new THREE.Box3().setFromObject(model);
                    const center = box.getCenter(new THREE.Vector3());
                    const size = box.getSize(new THREE.Vector3());
                    const maxDim = Math.max(size.x, size.y, size.z);
                    const scale = 2 / maxDim;

                    model.scale.setScalar(scale);
                    model.position.sub(center.multiplyScalar(scale));

                    loading.classList.add('hidden');
                    info.classList.remove('hidden');
                    controlsDiv.classList.remove('hidden');

                    animate();
                },
                function(progress) {
                    const percent = Math.round((progress.loaded / progress.total * 100));
                    loading.innerHTML = '<div class="spinner"></div>Loading 3D Model... ' + percent + '%';
                },
                function(error) {
                    console.error('Error loading model:', error);
                    loading.innerHTML = '<div style="color: #e74c3c;">Error loading 3D model</div><p>Please check if the model file exists and is accessible.</p>';
                }
            );
        }

        function animate() {
            requestAnimationFrame(animate);
            controls.update();
            renderer.render(scene, camera);
        }

        function onWindowResize() {
            camera.aspect = window.innerWidth / window.innerHeight;
            camera.updateProjectionMatrix();
            renderer.setSize(window.innerWidth, window.innerHeight);
        }

        init();
    </script>
</body>
</html>`
