package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/testguru/timelines/internal/model"
	"github.com/testguru/timelines/internal/repository"
)

type TimelineService struct {
	timelineRepo repository.TimelineRepository
	typeRepo     repository.TimelineTypeRepository
}

func NewTimelineService(timelineRepo repository.TimelineRepository, typeRepo repository.TimelineTypeRepository) *TimelineService {
	return &TimelineService{
		timelineRepo: timelineRepo,
		typeRepo:     typeRepo,
	}
}

// Create persists a new timeline owned by the caller. The (owner, name)
// pair must be unique among the caller's timelines; other users may reuse
// the same name freely.
func (s *TimelineService) Create(user *model.User, name string) (*model.Timeline, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErrorf("name is required")
	}
	if len(name) > 100 {
		return nil, validationErrorf("name must be at most 100 characters")
	}

	now := time.Now()
	timeline := &model.Timeline{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.timelineRepo.Create(timeline)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTimelineName) {
			return nil, ErrTimelineNameTaken
		}
		return nil, fmt.Errorf("failed to create timeline: %w", err)
	}

	return timeline, nil
}

func (s *TimelineService) Get(user *model.User, id string) (*model.Timeline, error) {
	timeline, err := s.timelineRepo.ByIDAndUser(id, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTimelineNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return timeline, nil
}

// ListMine returns the caller's non-deleted timelines, newest first.
func (s *TimelineService) ListMine(user *model.User) ([]*model.Timeline, error) {
	return s.timelineRepo.AllByUser(user.ID)
}

// SoftDelete marks a caller-owned timeline deleted. Idempotent.
func (s *TimelineService) SoftDelete(user *model.User, id string) error {
	err := s.timelineRepo.SoftDelete(id, user.ID, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrTimelineNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Types returns the read-only timeline type reference data.
func (s *TimelineService) Types() ([]*model.TimelineType, error) {
	return s.typeRepo.All()
}
