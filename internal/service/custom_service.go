package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deadline-intel/internal/model"
	"deadline-intel/internal/repository"
)

// CustomDeadlineInput represents data required to create a custom deadline.
type CustomDeadlineInput struct {
	Title       string
	Date        model.Date
	Description string
}

// Validate is called by the shells before Add.
func (in CustomDeadlineInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return model.ErrTitleRequired
	}
	if in.Date.IsZero() {
		return model.ErrDateRequired
	}
	return nil
}

// CustomService manages user-authored deadlines.
type CustomService struct {
	mu    sync.Mutex
	repo  *repository.StateRepository
	log   *zap.Logger
	newID func() string
}

func NewCustomService(repo *repository.StateRepository, log *zap.Logger) *CustomService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CustomService{
		repo:  repo,
		log:   log,
		newID: func() string { return model.CustomIDPrefix + uuid.NewString() },
	}
}

// Add stores a new record. The input is expected to have passed Validate.
func (s *CustomService) Add(ctx context.Context, input CustomDeadlineInput) (model.Deadline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := model.Deadline{
		ID:          s.newID(),
		Title:       strings.TrimSpace(input.Title),
		Subject:     model.SubjectAll,
		Type:        model.TypeCustom,
		Date:        input.Date,
		Description: strings.TrimSpace(input.Description),
		Priority:    model.CustomPriority,
		IsCustom:    true,
	}

	records := s.repo.LoadCustom(ctx)
	records = append(records, record)
	if err := s.repo.SaveCustom(ctx, records); err != nil {
		return model.Deadline{}, err
	}

	s.log.Info("custom deadline added", zap.String("id", record.ID), zap.String("date", record.Date.String()))
	return record, nil
}

// Delete removes the record with id. Unknown ids are ignored.
func (s *CustomService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.repo.LoadCustom(ctx)
	kept := records[:0]
	for _, rec := range records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return nil
	}
	if err := s.repo.SaveCustom(ctx, kept); err != nil {
		return err
	}

	s.log.Info("custom deadline deleted", zap.String("id", id))
	return nil
}

func (s *CustomService) List(ctx context.Context) []model.Deadline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.LoadCustom(ctx)
}
