package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dedekind-labs/sua-api/internal/models"
	appErrors "github.com/dedekind-labs/sua-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByNumber(ctx context.Context, number string, excludeID string) (bool, error)
	CreateWithUser(ctx context.Context, student *models.Student, user *models.User) error
	Update(ctx context.Context, student *models.Student) error
}

// StudentService manages student enrollment and profiles.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, total, nil
}

// Get returns one student. Students only see their own profile.
func (s *StudentService) Get(ctx context.Context, actor models.ActorView, id string) (*models.Student, error) {
	if !actor.IsStaff() && (!actor.HasStudent() || *actor.StudentID != id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "profile belongs to another student")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create enrolls a student with a linked STUDENT account in one transaction.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	taken, err := s.repo.ExistsByNumber(ctx, req.Number, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student number already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	student := &models.Student{
		Name:      req.Name,
		Number:    req.Number,
		Grade:     req.Grade,
		ClassType: req.ClassType,
		Phone:     req.Phone,
	}
	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Active:       true,
	}
	if err := s.repo.CreateWithUser(ctx, student, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", student.ID),
		zap.String("number", student.Number))
	return student, nil
}

// Update edits a student profile.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if req.Number != student.Number {
		taken, err := s.repo.ExistsByNumber(ctx, req.Number, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student number already in use")
		}
	}

	student.Name = req.Name
	student.Number = req.Number
	student.Grade = req.Grade
	student.ClassType = req.ClassType
	student.Phone = req.Phone

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}
