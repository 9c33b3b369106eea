package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/testguru/timelines/internal/model"
)

type TimelineTypeRepository interface {
	All() ([]*model.TimelineType, error)
}

type timelineTypeRepository struct {
	db *sqlx.DB
}

func NewTimelineTypeRepository(db *sqlx.DB) TimelineTypeRepository {
	return &timelineTypeRepository{db: db}
}

func (r *timelineTypeRepository) All() ([]*model.TimelineType, error) {
	var types []*model.TimelineType
	query := `SELECT * FROM timeline_types ORDER BY name`

	err := r.db.Select(&types, query)
	if err != nil {
		return nil, err
	}

	return types, nil
}
