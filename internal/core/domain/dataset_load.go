package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Load statuses
const (
	LoadStatusLoaded = "loaded"
	LoadStatusEmpty  = "empty"
	LoadStatusFailed = "failed"
)

// DatasetLoad is one journal entry describing a dataset load attempt
type DatasetLoad struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DatasetID    string    `gorm:"type:varchar(100);not null;index:idx_dataset_loads_dataset" json:"dataset_id"`
	SourceHandle string    `gorm:"type:text;not null" json:"source_handle"`
	ContentHash  string    `gorm:"type:varchar(64);index:idx_dataset_loads_hash" json:"content_hash"`
	Format       string    `gorm:"type:varchar(20)" json:"format"`
	Status       string    `gorm:"type:varchar(20);not null;default:'loaded'" json:"status"`
	TotalRows    int       `gorm:"default:0" json:"total_rows"`
	SkippedRows  int       `gorm:"default:0" json:"skipped_rows"`
	ColumnCount  int       `gorm:"default:0" json:"column_count"`
	CacheHit     bool      `gorm:"default:false" json:"cache_hit"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_dataset_loads_created" json:"created_at"`
}

// TableName specifies the table name for GORM
func (DatasetLoad) TableName() string {
	return "dataset_loads"
}

// BeforeCreate GORM hook - called before creating a record
func (l *DatasetLoad) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ValidLoadStatuses returns list of valid load statuses
func ValidLoadStatuses() []string {
	return []string{
		LoadStatusLoaded,
		LoadStatusEmpty,
		LoadStatusFailed,
	}
}

// IsValidLoadStatus checks if a status is valid
func IsValidLoadStatus(status string) bool {
	for _, s := range ValidLoadStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Succeeded reports whether the load replaced the displayed dataset
func (l *DatasetLoad) Succeeded() bool {
	return l.Status == LoadStatusLoaded
}
