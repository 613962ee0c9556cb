package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type teacherService interface {
	List(ctx context.Context, rootCode int64) ([]models.Teacher, error)
	Get(ctx context.Context, rootCode, code int64) (*models.Teacher, error)
	Create(ctx context.Context, rootCode int64, req service.TeacherRequest) (*models.Teacher, error)
	Update(ctx context.Context, rootCode, code int64, req service.TeacherRequest) (*models.Teacher, error)
	Delete(ctx context.Context, rootCode, code int64) error
	ListTeaches(ctx context.Context, rootCode, teacherCode int64) ([]models.Teach, error)
	CreateTeach(ctx context.Context, rootCode int64, req service.TeachRequest) (*models.Teach, error)
	DeleteTeach(ctx context.Context, rootCode, teachCode int64) error
}

// TeacherHandler wires teacher management to HTTP routes.
type TeacherHandler struct {
	teachers teacherService
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(teachers teacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher-management/teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	teachers, err := h.teachers.List(c.Request.Context(), root)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, teachers, nil)
}

// Get godoc
// @Summary Get teacher detail
// @Tags Teachers
// @Produce json
// @Param code path int true "Teacher code"
// @Success 200 {object} response.Envelope
// @Router /teacher-management/teachers/{code} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.teachers.Get(c.Request.Context(), root, code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create godoc
// @Summary Create teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.TeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teacher-management/teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid teacher payload"))
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), root, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Update godoc
// @Summary Update teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param code path int true "Teacher code"
// @Param payload body service.TeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /teacher-management/teachers/{code} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid teacher payload"))
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), root, code, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Delete godoc
// @Summary Delete teacher
// @Tags Teachers
// @Param code path int true "Teacher code"
// @Success 204
// @Router /teacher-management/teachers/{code} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.teachers.Delete(c.Request.Context(), root, code); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTeaches godoc
// @Summary List teacher subject assignments
// @Tags Teachers
// @Produce json
// @Param teacher_code query int false "Teacher filter"
// @Success 200 {object} response.Envelope
// @Router /teacher-management/teaches [get]
func (h *TeacherHandler) ListTeaches(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := queryCode(c, "teacher_code")
	if err != nil {
		response.Error(c, err)
		return
	}
	teaches, err := h.teachers.ListTeaches(c.Request.Context(), root, teacher)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, teaches, nil)
}

// CreateTeach godoc
// @Summary Assign teacher to subject
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.TeachRequest true "Teach payload"
// @Success 201 {object} response.Envelope
// @Router /teacher-management/teaches [post]
func (h *TeacherHandler) CreateTeach(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TeachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid teach payload"))
		return
	}
	teach, err := h.teachers.CreateTeach(c.Request.Context(), root, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teach)
}

// DeleteTeach godoc
// @Summary Remove teacher subject assignment
// @Tags Teachers
// @Param code path int true "Teach code"
// @Success 204
// @Router /teacher-management/teaches/{code} [delete]
func (h *TeacherHandler) DeleteTeach(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.teachers.DeleteTeach(c.Request.Context(), root, code); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
