package model

import (
	"time"
)

type Timeline struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
}

// TimelineType is read-only reference data, seeded by migrations.
type TimelineType struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
