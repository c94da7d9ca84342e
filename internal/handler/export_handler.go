package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/internal/service"
	appErrors "github.com/dedekind-labs/sua-api/pkg/errors"
	"github.com/dedekind-labs/sua-api/pkg/response"
)

// ExportHandler exposes the synchronous transcript download and the
// asynchronous roster export pipeline.
type ExportHandler struct {
	transcripts *service.TranscriptService
	exports     *service.ExportService
	metrics     *service.MetricsService
}

// NewExportHandler creates a new handler.
func NewExportHandler(transcripts *service.TranscriptService, exports *service.ExportService, metrics *service.MetricsService) *ExportHandler {
	return &ExportHandler{transcripts: transcripts, exports: exports, metrics: metrics}
}

// Transcript godoc
// @Summary Download a transcript
// @Description Renders the student's validated records synchronously
// @Tags Exports
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(pdf)
// @Param student_id query string false "Student ID (staff only)"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/transcript [get]
func (h *ExportHandler) Transcript(c *gin.Context) {
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatPDF)))
	file, err := h.transcripts.Render(c.Request.Context(), actorFromContext(c), c.Query("student_id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// CreateRosterJob godoc
// @Summary Queue a roster export
// @Description Returns the job; poll its status for the download URL
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body models.ExportRosterRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/roster [post]
func (h *ExportHandler) CreateRosterJob(c *gin.Context) {
	var req models.ExportRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	job, err := h.exports.CreateJob(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordExportQueued()
	response.JSON(c, http.StatusAccepted, job, nil)
}

// JobStatus godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/jobs/{id} [get]
func (h *ExportHandler) JobStatus(c *gin.Context) {
	job, err := h.exports.GetStatus(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download an export result
// @Description The signed token is the credential; no session required
// @Tags Exports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	result, err := h.exports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close()

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}

	contentType := "text/csv"
	if result.Format == models.ExportFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.DataFromReader(http.StatusOK, info.Size(), contentType, result.File, nil)
}
