package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PriorityNone   = "none"
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ColumnID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"not null"`
	Description string
	AssignedTo  *uuid.UUID `gorm:"type:uuid"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	DueDate     *time.Time
	Priority    string `gorm:"not null;default:none"`
	Position    int    `gorm:"not null"`

	Column      Column       `gorm:"foreignKey:ColumnID"`
	Assignee    *User        `gorm:"foreignKey:AssignedTo"`
	Creator     User         `gorm:"foreignKey:CreatedBy"`
	Comments    []Comment    `gorm:"foreignKey:TaskID"`
	Attachments []Attachment `gorm:"foreignKey:TaskID"`
}
