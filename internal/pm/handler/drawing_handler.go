package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/keramy/formula-backend/internal/pm/entity"
	"github.com/keramy/formula-backend/internal/pm/repository"
	"github.com/keramy/formula-backend/internal/pm/service"
)

// DrawingHandler 图纸审批流程接口
type DrawingHandler struct {
	workflow    *service.DrawingWorkflowService
	bulkSend    *service.BulkSendService
	identity    *service.IdentityService
	drawingRepo *repository.DrawingRepository
	scopeRepo   *repository.ScopeItemRepository
	logRepo     *repository.ActivityLogRepository
}

// NewDrawingHandler 创建图纸流程处理器
func NewDrawingHandler(svc *service.Services, repos *repository.Repositories) *DrawingHandler {
	return &DrawingHandler{
		workflow:    svc.Workflow,
		bulkSend:    svc.BulkSend,
		identity:    svc.Identity,
		drawingRepo: repos.Drawing,
		scopeRepo:   repos.ScopeItem,
		logRepo:     repos.ActivityLog,
	}
}

// actor 从JWT身份解析出显式Actor传给流程服务
func (h *DrawingHandler) actor(c *gin.Context) (service.Actor, bool) {
	actor, err := h.identity.ResolveActor(c.Request.Context(), GetUserID(c))
	if err != nil {
		WorkflowError(c, err)
		return service.Actor{}, false
	}
	return actor, true
}

// UploadRevision POST /scope-items/:itemId/drawing/revisions
// 首版或新版上传：图纸不存在时创建并分配修订版A，存在时分配下一个字母
func (h *DrawingHandler) UploadRevision(c *gin.Context) {
	itemID := c.Param("itemId")

	var req struct {
		FileRef    string `json:"file_ref" binding:"required"`
		CADFileRef string `json:"cad_file_ref"`
		Confirmed  bool   `json:"confirmed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	existing, err := h.drawingRepo.FindByScopeItem(c.Request.Context(), itemID)
	if err != nil {
		InternalError(c, "查询图纸失败: "+err.Error())
		return
	}

	var drawing *entity.Drawing
	if existing == nil {
		drawing, err = h.workflow.UploadFirstRevision(c.Request.Context(), actor, itemID, req.FileRef, req.CADFileRef)
	} else {
		drawing, err = h.workflow.UploadNewRevision(c.Request.Context(), actor, itemID, req.FileRef, req.CADFileRef, req.Confirmed)
	}
	if err != nil {
		WorkflowError(c, err)
		return
	}
	Created(c, drawing)
}

// ReplaceFile PUT /scope-items/:itemId/drawing/revisions/current
// 原地替换当前修订版的文件，不分配新字母
func (h *DrawingHandler) ReplaceFile(c *gin.Context) {
	itemID := c.Param("itemId")

	var req struct {
		FileRef    string `json:"file_ref"`
		CADFileRef string `json:"cad_file_ref"`
		Confirmed  bool   `json:"confirmed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	drawing, err := h.workflow.ReplaceFile(c.Request.Context(), actor, itemID, req.FileRef, req.CADFileRef, req.Confirmed)
	if err != nil {
		WorkflowError(c, err)
		return
	}
	Success(c, drawing)
}

// SendToClient POST /scope-items/:itemId/drawing/send
func (h *DrawingHandler) SendToClient(c *gin.Context) {
	itemID := c.Param("itemId")

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	drawing, err := h.workflow.SendToClient(c.Request.Context(), actor, itemID)
	if err != nil {
		WorkflowError(c, err)
		return
	}
	Success(c, drawing)
}

// RecordClientResponse POST /scope-items/:itemId/drawing/response
func (h *DrawingHandler) RecordClientResponse(c *gin.Context) {
	itemID := c.Param("itemId")

	var req struct {
		Outcome   string `json:"outcome" binding:"required"`
		Comments  string `json:"comments"`
		MarkupRef string `json:"markup_ref"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	drawing, err := h.workflow.RecordClientResponse(c.Request.Context(), actor, itemID, req.Outcome, req.Comments, req.MarkupRef)
	if err != nil {
		WorkflowError(c, err)
		return
	}
	Success(c, drawing)
}

// PMOverride POST /scope-items/:itemId/drawing/override
func (h *DrawingHandler) PMOverride(c *gin.Context) {
	itemID := c.Param("itemId")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	drawing, err := h.workflow.PMOverride(c.Request.Context(), actor, itemID, req.Reason)
	if err != nil {
		WorkflowError(c, err)
		return
	}
	Success(c, drawing)
}

// MarkNotRequired POST /scope-items/:itemId/drawing/not-required
func (h *DrawingHandler) MarkNotRequired(c *gin.Context) {
	itemID := c.Param("itemId")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	drawing, err := h.workflow.MarkNotRequired(c.Request.Context(), actor, itemID, req.Reason)
	if err != nil {
		WorkflowError(c, err)
		return
	}
	Success(c, drawing)
}

// GetDrawing GET /scope-items/:itemId/drawing
// 返回图纸及全部修订版
func (h *DrawingHandler) GetDrawing(c *gin.Context) {
	itemID := c.Param("itemId")

	drawing, err := h.drawingRepo.FindByScopeItemWithRevisions(c.Request.Context(), itemID)
	if err != nil {
		InternalError(c, "查询图纸失败: "+err.Error())
		return
	}
	if drawing == nil {
		NotFound(c, "图纸不存在")
		return
	}
	Success(c, drawing)
}

// ListActivity GET /scope-items/:itemId/drawing/activity
// 图纸操作日志，按时间倒序分页
func (h *DrawingHandler) ListActivity(c *gin.Context) {
	itemID := c.Param("itemId")

	drawing, err := h.drawingRepo.FindByScopeItem(c.Request.Context(), itemID)
	if err != nil {
		InternalError(c, "查询图纸失败: "+err.Error())
		return
	}
	if drawing == nil {
		NotFound(c, "图纸不存在")
		return
	}

	page, pageSize := GetPagination(c)
	logs, total, err := h.logRepo.FindByEntity(c.Request.Context(), entity.ActivityEntityDrawing, drawing.ID, page, pageSize)
	if err != nil {
		InternalError(c, "查询操作日志失败: "+err.Error())
		return
	}

	Success(c, gin.H{
		"items": logs,
		"total": total,
	})
}

// ListProjectDrawings GET /projects/:id/drawings
// 项目图纸看板：项目内所有范围条目及其图纸状态
func (h *DrawingHandler) ListProjectDrawings(c *gin.Context) {
	projectID := c.Param("id")

	items, err := h.scopeRepo.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		InternalError(c, "查询范围条目失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// BulkSend POST /projects/:id/drawings/send-all
// 批量发送，逐张处理，单张失败不影响其余
func (h *DrawingHandler) BulkSend(c *gin.Context) {
	projectID := c.Param("id")

	var req struct {
		DrawingIDs []string `json:"drawing_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.bulkSend.SendAllUploadedToClient(c.Request.Context(), actor, projectID, req.DrawingIDs)
	if err != nil {
		WorkflowError(c, err)
		return
	}
	Success(c, result)
}
