package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/middleware"
	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/i18n"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type walletService interface {
	List(ctx context.Context, session models.Session, filter models.WalletFilter, f *i18n.Formatter) (*service.WalletList, error)
	Get(ctx context.Context, session models.Session, code int64, f *i18n.Formatter) (*service.WalletView, error)
	Create(ctx context.Context, session models.Session, draft service.WalletDraft) (*models.WalletExam, error)
	Update(ctx context.Context, session models.Session, code int64, draft service.WalletDraft) (*models.WalletExam, *models.WalletExam, error)
	Delete(ctx context.Context, session models.Session, code int64) error
}

type walletRenderer interface {
	WalletRows(rows []service.WalletView) ([]byte, error)
}

// WalletHandler exposes wallet exam rows.
type WalletHandler struct {
	service walletService
	views   walletRenderer
}

// NewWalletHandler constructs a WalletHandler.
func NewWalletHandler(svc walletService, views walletRenderer) *WalletHandler {
	return &WalletHandler{service: svc, views: views}
}

// List godoc
// @Summary List wallet exam rows
// @Description Filters never drop data server side; meta.total is the unfiltered row count.
// @Tags Wallet
// @Produce json,html
// @Param code query string false "Code substring"
// @Param status query string false "active or inactive"
// @Param expiry query string false "expired, expiring or valid"
// @Param root query int false "Root filter (super admin)"
// @Param format query string false "html for a table fragment"
// @Success 200 {object} response.Envelope
// @Router /wallet-exams [get]
func (h *WalletHandler) List(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	root, err := queryCode(c, "root")
	if err != nil {
		response.Error(c, err)
		return
	}
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if status != "" && status != "active" && status != "inactive" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be active or inactive"))
		return
	}
	filter := models.WalletFilter{
		Code:     strings.TrimSpace(c.Query("code")),
		Status:   status,
		Expiry:   models.ExpiryBucket(strings.ToLower(strings.TrimSpace(c.Query("expiry")))),
		RootCode: root,
	}

	list, err := h.service.List(c.Request.Context(), session, filter, middleware.Formatter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if wantsHTML(c) && h.views != nil {
		fragment, err := h.views.WalletRows(list.Rows)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render wallet rows"))
			return
		}
		response.HTML(c, http.StatusOK, fragment)
		return
	}
	response.List(c, list.Rows, nil, map[string]interface{}{"total": list.Total, "shown": len(list.Rows)})
}

// Get godoc
// @Summary Get wallet exam row
// @Tags Wallet
// @Produce json
// @Param code path int true "Wallet code"
// @Success 200 {object} response.Envelope
// @Router /wallet-exams/{code} [get]
func (h *WalletHandler) Get(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	row, err := h.service.Get(c.Request.Context(), session, code, middleware.Formatter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Create godoc
// @Summary Create wallet exam row
// @Tags Wallet
// @Accept json
// @Produce json
// @Param payload body service.WalletDraft true "Row cells"
// @Success 201 {object} response.Envelope
// @Router /wallet-exams [post]
func (h *WalletHandler) Create(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var draft service.WalletDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, invalidPayload(err, "invalid wallet payload"))
		return
	}
	wallet, err := h.service.Create(c.Request.Context(), session, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wallet)
}

// Update godoc
// @Summary Save an edited wallet exam row
// @Description On failure the unedited row is returned under meta.original.
// @Tags Wallet
// @Accept json
// @Produce json
// @Param code path int true "Wallet code"
// @Param payload body service.WalletDraft true "Row cells"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wallet-exams/{code} [put]
func (h *WalletHandler) Update(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	var draft service.WalletDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, invalidPayload(err, "invalid wallet payload"))
		return
	}
	saved, original, err := h.service.Update(c.Request.Context(), session, code, draft)
	if err != nil {
		if original != nil {
			response.Error(c, err, originalMeta(original))
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}

// Delete godoc
// @Summary Delete wallet exam row
// @Tags Wallet
// @Param code path int true "Wallet code"
// @Success 204
// @Router /wallet-exams/{code} [delete]
func (h *WalletHandler) Delete(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), session, code); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
