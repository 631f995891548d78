package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/keramy/formula-backend/internal/pm/service"
)

// UploadHandler 图纸文件上传处理器
type UploadHandler struct {
	files *service.FileService
}

// NewUploadHandler 创建文件上传处理器
func NewUploadHandler(files *service.FileService) *UploadHandler {
	return &UploadHandler{files: files}
}

// Upload 处理文件上传，返回可用于file_ref/cad_file_ref的引用
// POST /upload
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "无法解析上传文件: "+err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		// 也尝试获取单文件
		files = form.File["file"]
	}
	if len(files) == 0 {
		BadRequest(c, "没有上传文件")
		return
	}

	var uploaded []service.StoredFile

	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			InternalError(c, "读取上传文件失败: "+err.Error())
			return
		}

		stored, err := h.files.Store(
			c.Request.Context(),
			fileHeader.Filename,
			src,
			fileHeader.Size,
			fileHeader.Header.Get("Content-Type"),
		)
		src.Close()
		if err != nil {
			InternalError(c, "保存文件失败: "+err.Error())
			return
		}
		uploaded = append(uploaded, *stored)
	}

	Created(c, gin.H{"files": uploaded})
}
