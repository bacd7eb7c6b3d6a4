package planstore

import (
	"database/sql/driver"
	"errors"
	"time"
)

// CachedPlan represents the plan_cache table: one row per cache key,
// holding the JSON-encoded plan DTO.
type CachedPlan struct {
	Key       string    `gorm:"column:key;type:varchar(256);primaryKey"`
	Data      JSONField `gorm:"column:data;type:json"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for CachedPlan.
func (CachedPlan) TableName() string {
	return "plan_cache"
}

// JSONField stores an opaque JSON payload, matching the teacher's
// repository.JSONField Value/Scan pattern.
type JSONField []byte

// Value implements driver.Valuer.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}
