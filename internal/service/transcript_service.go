package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dedekind-labs/sua-api/internal/models"
	appErrors "github.com/dedekind-labs/sua-api/pkg/errors"
	"github.com/dedekind-labs/sua-api/pkg/export"
)

type transcriptStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type transcriptSuaRepository interface {
	ListByStudent(ctx context.Context, studentID string, validOnly bool) ([]models.SuaDetail, error)
}

// TranscriptFile is a rendered transcript ready for download.
type TranscriptFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// TranscriptService renders a student's validated service-hour records into
// a downloadable document, synchronously.
type TranscriptService struct {
	students transcriptStudentRepository
	suas     transcriptSuaRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewTranscriptService constructs a TranscriptService.
func NewTranscriptService(students transcriptStudentRepository, suas transcriptSuaRepository, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &TranscriptService{students: students, suas: suas, csv: csv, pdf: pdf, logger: logger}
}

var transcriptHeaders = []string{"Title", "Group", "Hours"}

// Render produces the transcript for a student. Students export their own;
// staff may name any student. Only validated records appear, newest first,
// and the rendered rows keep exactly that order.
func (s *TranscriptService) Render(ctx context.Context, actor models.ActorView, studentID string, format models.ExportFormat) (*TranscriptFile, error) {
	switch {
	case studentID == "" && actor.HasStudent():
		studentID = *actor.StudentID
	case studentID == "":
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "account has no student record")
	case !actor.IsStaff() && (!actor.HasStudent() || studentID != *actor.StudentID):
		return nil, appErrors.Clone(appErrors.ErrForbidden, "transcript belongs to another student")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	records, err := s.suas.ListByStudent(ctx, studentID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load records")
	}

	data := export.Dataset{Headers: transcriptHeaders}
	for _, record := range records {
		data.Rows = append(data.Rows, map[string]string{
			"Title": record.ActivityTitle,
			"Group": record.ActivityGroup,
			"Hours": fmt.Sprintf("%.1f", record.SuaHours),
		})
	}

	switch format {
	case models.ExportFormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		return &TranscriptFile{
			Filename:    fmt.Sprintf("transcript-%s.csv", student.Number),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case models.ExportFormatPDF:
		content, err := s.pdf.RenderTranscript(data, export.TranscriptHeader{
			Name:       student.Name,
			Number:     student.Number,
			TotalHours: student.SuaHours,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		return &TranscriptFile{
			Filename:    fmt.Sprintf("transcript-%s.pdf", student.Number),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
