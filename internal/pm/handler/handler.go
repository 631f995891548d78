package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/keramy/formula-backend/internal/pm/repository"
	"github.com/keramy/formula-backend/internal/pm/service"
)

// Handlers 处理器集合
type Handlers struct {
	Drawing *DrawingHandler
	Upload  *UploadHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, repos *repository.Repositories) *Handlers {
	return &Handlers{
		Drawing: NewDrawingHandler(svc, repos),
		Upload:  NewUploadHandler(svc.File),
	}
}

// RegisterRoutes 注册认证后的API路由
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/scope-items/:itemId/drawing/revisions", h.Drawing.UploadRevision)
	api.PUT("/scope-items/:itemId/drawing/revisions/current", h.Drawing.ReplaceFile)
	api.POST("/scope-items/:itemId/drawing/send", h.Drawing.SendToClient)
	api.POST("/scope-items/:itemId/drawing/response", h.Drawing.RecordClientResponse)
	api.POST("/scope-items/:itemId/drawing/override", h.Drawing.PMOverride)
	api.POST("/scope-items/:itemId/drawing/not-required", h.Drawing.MarkNotRequired)
	api.GET("/scope-items/:itemId/drawing", h.Drawing.GetDrawing)
	api.GET("/scope-items/:itemId/drawing/activity", h.Drawing.ListActivity)
	api.GET("/projects/:id/drawings", h.Drawing.ListProjectDrawings)
	api.POST("/projects/:id/drawings/send-all", h.Drawing.BulkSend)
	api.POST("/upload", h.Upload.Upload)
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// 流程错误分类对应的业务码
var workflowErrorCodes = map[service.ErrorKind]int{
	service.KindValidation:           40000,
	service.KindAuthorization:        40300,
	service.KindNotFound:             40400,
	service.KindConflict:             40900,
	service.KindInvalidTransition:    42200,
	service.KindConfirmationRequired: 42201,
}

// WorkflowError 流程错误统一映射为HTTP响应
func WorkflowError(c *gin.Context, err error) {
	if code, ok := workflowErrorCodes[service.KindOf(err)]; ok {
		Error(c, code, err.Error())
		return
	}
	InternalError(c, err.Error())
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
