package model

import (
	"github.com/google/uuid"
)

type Column struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Title    string    `gorm:"not null"`
	Color    string
	Position int `gorm:"not null"`
	// FlowStatus is one of the flow.Status values; empty means normal.
	FlowStatus string `gorm:"not null;default:normal"`
	// Version increases on every write that changes the order of the
	// column's tasks. It starts at 1 because clients send 0 to mean
	// "unconditional".
	Version int64 `gorm:"not null;default:1"`

	Board Board `gorm:"foreignKey:BoardID"`
}
