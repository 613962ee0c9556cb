package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type studentExamService interface {
	List(ctx context.Context, session models.Session) ([]service.ExamListItem, error)
	Start(ctx context.Context, session models.Session, examCode int64) (*service.StartedExam, error)
	Session(session models.Session, examCode int64) (*service.ExamSessionView, error)
	Submit(ctx context.Context, session models.Session, examCode int64, req service.SubmitExamRequest) (*service.ExamResult, error)
}

type examRenderer interface {
	ExamList(items []service.ExamListItem) ([]byte, error)
}

// StudentExamHandler serves the exam-taking flow of the signed-in student.
type StudentExamHandler struct {
	service studentExamService
	views   examRenderer
}

// NewStudentExamHandler constructs a StudentExamHandler.
func NewStudentExamHandler(svc studentExamService, views examRenderer) *StudentExamHandler {
	return &StudentExamHandler{service: svc, views: views}
}

// List godoc
// @Summary List the student's exams with score badges
// @Tags Student Exams
// @Produce json,html
// @Param format query string false "html for a list fragment"
// @Success 200 {object} response.Envelope
// @Router /student-exams [get]
func (h *StudentExamHandler) List(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.List(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	if wantsHTML(c) && h.views != nil {
		fragment, err := h.views.ExamList(items)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render exams"))
			return
		}
		response.HTML(c, http.StatusOK, fragment)
		return
	}
	response.List(c, items, nil)
}

// Start godoc
// @Summary Open an exam and start its countdown
// @Description Reopening a running exam resumes the existing session.
// @Tags Student Exams
// @Produce json
// @Param examCode path int true "Exam code"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student-exams/{examCode}/start [post]
func (h *StudentExamHandler) Start(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "examCode")
	if err != nil {
		response.Error(c, err)
		return
	}
	started, err := h.service.Start(c.Request.Context(), session, code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, started, nil)
}

// Session godoc
// @Summary Remaining time of the open exam session
// @Tags Student Exams
// @Produce json
// @Param examCode path int true "Exam code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student-exams/{examCode}/session [get]
func (h *StudentExamHandler) Session(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "examCode")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.Session(session, code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Submit godoc
// @Summary Submit the answer sheet
// @Description Unanswered questions need confirmed=true on a manual submit; they score zero.
// @Tags Student Exams
// @Accept json
// @Produce json
// @Param examCode path int true "Exam code"
// @Param payload body service.SubmitExamRequest true "Answers"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student-exams/{examCode}/submit [post]
func (h *StudentExamHandler) Submit(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "examCode")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SubmitExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid answer sheet"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), session, code, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
