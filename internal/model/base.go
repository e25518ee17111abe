package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordBase is embedded by append-only records; rows are never updated.
type RecordBase struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (b *RecordBase) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = GenerateUUID()
	}
	return nil
}

// GenerateUUID is used for record, view and note IDs.
func GenerateUUID() string {
	return uuid.NewString()
}
