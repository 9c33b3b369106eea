package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testguru/timelines/internal/model"
)

var (
	ErrTimelineNotFound      = errors.New("timeline not found")
	ErrDuplicateTimelineName = errors.New("timeline name already exists")
)

type TimelineRepository interface {
	Create(timeline *model.Timeline) error
	ByIDAndUser(id, userID string) (*model.Timeline, error)
	AllByUser(userID string) ([]*model.Timeline, error)
	SoftDelete(id, userID string, now time.Time) error
}

type timelineRepository struct {
	db *sqlx.DB
}

func NewTimelineRepository(db *sqlx.DB) TimelineRepository {
	return &timelineRepository{db: db}
}

func (r *timelineRepository) Create(timeline *model.Timeline) error {
	query := `INSERT INTO timelines (id, user_id, name, created_at, updated_at, is_deleted)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query,
		timeline.ID,
		timeline.UserID,
		timeline.Name,
		timeline.CreatedAt,
		timeline.UpdatedAt,
		timeline.IsDeleted,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateTimelineName
	}

	return err
}

// ByIDAndUser looks up a timeline with ownership folded into the predicate,
// so a foreign id is indistinguishable from a missing one.
func (r *timelineRepository) ByIDAndUser(id, userID string) (*model.Timeline, error) {
	timeline := &model.Timeline{}
	query := `SELECT * FROM timelines WHERE id = $1 AND user_id = $2`

	err := r.db.Get(timeline, query, id, userID)
	if err == sql.ErrNoRows {
		return nil, ErrTimelineNotFound
	}

	return timeline, err
}

func (r *timelineRepository) AllByUser(userID string) ([]*model.Timeline, error) {
	var timelines []*model.Timeline
	query := `SELECT * FROM timelines WHERE user_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC`

	err := r.db.Select(&timelines, query, userID)
	if err != nil {
		return nil, err
	}

	return timelines, nil
}

func (r *timelineRepository) SoftDelete(id, userID string, now time.Time) error {
	query := `UPDATE timelines SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND user_id = $3`

	result, err := r.db.Exec(query, now, id, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTimelineNotFound
	}

	return nil
}
