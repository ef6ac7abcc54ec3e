package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/risetutor-api/internal/models"
)

// CounterRepository hands out values from named sequences.
type CounterRepository interface {
	Next(ctx context.Context, name string) (int64, error)
	Current(ctx context.Context, name string) (int64, error)
}

type counterRepository struct {
	db *gorm.DB
}

// NewCounterRepository constructs a counter repository.
func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := incrementCounter(tx, name, time.Now().UTC())
		if err != nil {
			return err
		}
		value = next
		return nil
	})
	return value, err
}

func (r *counterRepository) Current(ctx context.Context, name string) (int64, error) {
	var counter models.Counter
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&counter).Error
	if err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// incrementCounter bumps the sequence with a single upsert. The row stays locked
// until tx commits, so the read below sees this transaction's own increment.
func incrementCounter(tx *gorm.DB, name string, now time.Time) (int64, error) {
	seed := models.Counter{Name: name, Value: 1, UpdatedAt: now}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      gorm.Expr("counters.value + 1"),
			"updated_at": now,
		}),
	}).Create(&seed).Error
	if err != nil {
		return 0, err
	}

	var counter models.Counter
	if err := tx.Where("name = ?", name).Take(&counter).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}
