package model

import (
	"math/rand/v2"
	"time"
)

// Weight is stored as an integer count of tenths of a gram so a physical
// measurement never touches floating point in the database.
// 750 = 75.0 g = 0.75 kg.
const (
	WeightRandomMin = 700
	WeightRandomMax = 850
)

type KeyPhoto struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	Filename         string    `db:"filename" json:"filename"`
	StoragePath      string    `db:"storage_path" json:"storage_path"`
	PresignedURL     string    `db:"presigned_url" json:"presigned_url"`
	PhotoTakenAt     time.Time `db:"photo_taken_at" json:"photo_taken_at"`
	WeightCentigrams int       `db:"weight_centigrams" json:"weight_centigrams"`
	Size             *int64    `db:"size" json:"size,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
	IsDeleted        bool      `db:"is_deleted" json:"is_deleted"`
}

func (p *KeyPhoto) WeightGrams() float64 {
	return float64(p.WeightCentigrams) / 10
}

func (p *KeyPhoto) WeightKg() float64 {
	return float64(p.WeightCentigrams) / 1000
}

// GenerateRandomWeight returns a default measurement for uploads that
// arrive without one, uniform over [WeightRandomMin, WeightRandomMax].
func GenerateRandomWeight() int {
	return WeightRandomMin + rand.IntN(WeightRandomMax-WeightRandomMin+1)
}
