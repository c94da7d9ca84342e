package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/internal/service"
	appErrors "github.com/dedekind-labs/sua-api/pkg/errors"
	"github.com/dedekind-labs/sua-api/pkg/response"
)

// AppealHandler exposes appeal submission and resolution endpoints.
type AppealHandler struct {
	service *service.AppealService
	metrics *service.MetricsService
}

// NewAppealHandler creates a new handler.
func NewAppealHandler(svc *service.AppealService, metrics *service.MetricsService) *AppealHandler {
	return &AppealHandler{service: svc, metrics: metrics}
}

// Submit godoc
// @Summary Submit an appeal
// @Description Object to a roster entry while its publicity window accepts appeals
// @Tags Appeals
// @Accept json
// @Produce json
// @Param payload body models.SubmitAppealRequest true "Appeal payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /appeals [post]
func (h *AppealHandler) Submit(c *gin.Context) {
	var req models.SubmitAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appeal payload"))
		return
	}

	detail, err := h.service.Submit(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordAppealEvent("submitted")
	response.Created(c, detail)
}

// SubmitForPublicity godoc
// @Summary Submit an appeal against a publicity
// @Description Nested form of appeal submission; the publicity ID comes from the path
// @Tags Appeals
// @Accept json
// @Produce json
// @Param id path string true "Publicity ID"
// @Param payload body models.SubmitAppealRequest true "Appeal payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /publicities/{id}/appeals [post]
func (h *AppealHandler) SubmitForPublicity(c *gin.Context) {
	var req models.SubmitAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appeal payload"))
		return
	}
	req.PublicityID = c.Param("id")

	detail, err := h.service.Submit(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordAppealEvent("submitted")
	response.Created(c, detail)
}

// List godoc
// @Summary List appeals
// @Description Staff see the unchecked queue; students their own history
// @Tags Appeals
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /appeals [get]
func (h *AppealHandler) List(c *gin.Context) {
	details, err := h.service.List(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Get godoc
// @Summary Get an appeal
// @Tags Appeals
// @Produce json
// @Param id path string true "Appeal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /appeals/{id} [get]
func (h *AppealHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Resolve godoc
// @Summary Resolve an appeal
// @Description Apply a staff verdict; an appeal is resolved at most once
// @Tags Appeals
// @Accept json
// @Produce json
// @Param id path string true "Appeal ID"
// @Param payload body models.ReviewRequest true "Verdict payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /appeals/{id}/resolve [post]
func (h *AppealHandler) Resolve(c *gin.Context) {
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}

	detail, err := h.service.Resolve(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if *req.Approve {
		h.metrics.RecordAppealEvent("approved")
	} else {
		h.metrics.RecordAppealEvent("rejected")
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
