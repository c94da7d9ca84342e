package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/internal/service"
	appErrors "github.com/dedekind-labs/sua-api/pkg/errors"
	"github.com/dedekind-labs/sua-api/pkg/response"
)

// ClaimHandler exposes claim submission, listing, and review endpoints.
type ClaimHandler struct {
	service *service.ClaimService
	metrics *service.MetricsService
}

// NewClaimHandler creates a new handler.
func NewClaimHandler(svc *service.ClaimService, metrics *service.MetricsService) *ClaimHandler {
	return &ClaimHandler{service: svc, metrics: metrics}
}

// Submit godoc
// @Summary Submit a service-hour claim
// @Description Record hours for an activity, pending staff review
// @Tags Claims
// @Accept json
// @Produce json
// @Param payload body models.SubmitClaimRequest true "Claim payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /claims [post]
func (h *ClaimHandler) Submit(c *gin.Context) {
	var req models.SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid claim payload"))
		return
	}

	detail, err := h.service.Submit(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordClaimSubmitted()
	response.Created(c, detail)
}

// List godoc
// @Summary List claims
// @Description Staff see the review queue; students see their own claims
// @Tags Claims
// @Produce json
// @Param checked query bool false "Filter by review state"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /claims [get]
func (h *ClaimHandler) List(c *gin.Context) {
	filter := models.ApplicationFilter{
		Status: models.ClaimStatus(c.Query("status")),
	}
	if raw := c.Query("checked"); raw != "" {
		checked, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "checked must be a boolean"))
			return
		}
		filter.Checked = &checked
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	details, total, err := h.service.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, details, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get a claim
// @Tags Claims
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /claims/{id} [get]
func (h *ClaimHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Review godoc
// @Summary Review a claim
// @Description Apply a staff verdict; a claim is reviewed at most once
// @Tags Claims
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.ReviewRequest true "Verdict payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /claims/{id}/review [post]
func (h *ClaimHandler) Review(c *gin.Context) {
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	detail, err := h.service.Review(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordClaimReviewed(*req.Approve)
	response.JSON(c, http.StatusOK, detail, nil)
}

// Records godoc
// @Summary List own service-hour records
// @Description Returns the acting student's Sua records, newest first
// @Tags Claims
// @Produce json
// @Param valid_only query bool false "Only validated records"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /claims/records [get]
func (h *ClaimHandler) Records(c *gin.Context) {
	validOnly, _ := strconv.ParseBool(c.DefaultQuery("valid_only", "false"))
	records, err := h.service.ListRecords(c.Request.Context(), actorFromContext(c), validOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
