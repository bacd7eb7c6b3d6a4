package planstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flumeopt/optimizer/pkg/optimizer"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists optimizer plans keyed by a caller-supplied cache key,
// implementing optimizer.PlanCache.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already-opened, already-migrated GORM connection (see
// NewDB) as an optimizer.PlanCache.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get implements optimizer.PlanCache.
func (s *Store) Get(ctx context.Context, key string) (*optimizer.Plan, bool, error) {
	var row CachedPlan
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load cached plan: %w", err)
	}

	var dto planDTO
	if err := json.Unmarshal(row.Data, &dto); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached plan: %w", err)
	}

	return fromDTO(dto), true, nil
}

// Put implements optimizer.PlanCache.
func (s *Store) Put(ctx context.Context, key string, plan *optimizer.Plan) error {
	data, err := json.Marshal(toDTO(plan))
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	row := CachedPlan{Key: key, Data: data}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to persist cached plan: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
