package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"deadline-intel/internal/catalog"
	"deadline-intel/internal/model"
	"deadline-intel/internal/repository"
)

// DeadlineService owns the main persisted state and derives dashboard snapshots from it.
type DeadlineService struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	custom  *CustomService
	repo    *repository.StateRepository
	clock   Clock
	log     *zap.Logger
}

func NewDeadlineService(cat *catalog.Catalog, custom *CustomService, repo *repository.StateRepository, clock Clock, log *zap.Logger) *DeadlineService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeadlineService{catalog: cat, custom: custom, repo: repo, clock: clock, log: log}
}

func (s *DeadlineService) Term() string { return s.catalog.Term() }

func (s *DeadlineService) Today() model.Date { return s.clock.Today() }

// Records returns the catalog followed by the custom records. Ids are unique
// across both: the catalog rejects the custom- prefix and stored custom
// records without it are dropped on load.
func (s *DeadlineService) Records(ctx context.Context) []model.Deadline {
	records := s.catalog.Deadlines()
	return append(records, s.custom.List(ctx)...)
}

func (s *DeadlineService) State(ctx context.Context) model.DeadlineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.LoadState(ctx)
}

func (s *DeadlineService) Snapshot(ctx context.Context) Snapshot {
	records := s.Records(ctx)

	s.mu.Lock()
	state := s.repo.LoadState(ctx)
	s.mu.Unlock()

	return Derive(records, state, s.clock.Today())
}

// Find looks a record up by id regardless of the course filter.
func (s *DeadlineService) Find(ctx context.Context, id string) (model.Deadline, bool) {
	if d, ok := s.catalog.Get(id); ok {
		return d, true
	}
	for _, d := range s.custom.List(ctx) {
		if d.ID == id {
			return d, true
		}
	}
	return model.Deadline{}, false
}

// Toggle flips completion of id and reports the new status. Completing an item
// advances the streak at most once per day; un-completing never rewinds it.
// Ids of records that no longer exist can still be un-completed.
func (s *DeadlineService) Toggle(ctx context.Context, id string) (bool, error) {
	_, exists := s.Find(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.repo.LoadState(ctx)
	done := state.CompletedSet()
	if !exists && !done[id] {
		return false, fmt.Errorf("toggle %s: %w", id, model.ErrDeadlineNotFound)
	}

	today := s.clock.Today()
	completed := !done[id]
	if completed {
		state.CompletedIDs = append(state.CompletedIDs, id)
		last := state.LastCompletionDate
		if last == nil || today.After(*last) {
			state.Streak++
			state.LastCompletionDate = &today
		}
	} else {
		kept := make([]string, 0, len(state.CompletedIDs))
		for _, cid := range state.CompletedIDs {
			if cid != id {
				kept = append(kept, cid)
			}
		}
		state.CompletedIDs = kept
	}

	if err := s.repo.SaveState(ctx, state); err != nil {
		return !completed, err
	}
	s.log.Info("deadline toggled", zap.String("id", id), zap.Bool("completed", completed), zap.Int("streak", state.Streak))
	return completed, nil
}

// SetSelectedCourses replaces the course filter and marks setup as done.
func (s *DeadlineService) SetSelectedCourses(ctx context.Context, courses []model.Subject) error {
	seen := make(map[model.Subject]bool, len(courses))
	selected := make([]model.Subject, 0, len(courses))
	for _, c := range courses {
		if _, ok := model.LookupCourse(c); !ok {
			return fmt.Errorf("select %s: %w", c, model.ErrUnknownCourse)
		}
		if !seen[c] {
			seen[c] = true
			selected = append(selected, c)
		}
	}
	model.SortSubjects(selected)

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.repo.LoadState(ctx)
	state.SelectedCourses = selected
	state.HasConfiguredCourses = true
	return s.repo.SaveState(ctx, state)
}

func (s *DeadlineService) SetTheme(ctx context.Context, theme model.Theme) error {
	if !theme.IsValid() {
		return model.ErrInvalidTheme
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.repo.LoadState(ctx)
	state.Theme = theme
	return s.repo.SaveState(ctx, state)
}

// Reset clears completions and the streak. Theme and course setup are kept.
func (s *DeadlineService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.repo.LoadState(ctx)
	state.CompletedIDs = []string{}
	state.Streak = 0
	state.LastCompletionDate = nil
	if err := s.repo.SaveState(ctx, state); err != nil {
		return err
	}
	s.log.Info("progress reset")
	return nil
}
