package model

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is file metadata; the bytes live behind URL.
type Attachment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TaskID     uuid.UUID `gorm:"type:uuid;not null;index"`
	UploadedBy uuid.UUID `gorm:"type:uuid;not null"`
	FileName   string    `gorm:"not null"`
	URL        string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}
