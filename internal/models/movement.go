package models

import (
	"time"

	"gorm.io/gorm"
)

// MovementType is the direction of a currency operation from the office's side
type MovementType string

const (
	MovementPurchase MovementType = "purchase"
	MovementSale     MovementType = "sale"
)

// Valid reports whether t is a known movement type
func (t MovementType) Valid() bool {
	return t == MovementPurchase || t == MovementSale
}

// Movement represents a purchase or sale of foreign currency for a client
type Movement struct {
	ID         string       `json:"id" gorm:"primaryKey"`
	ClientID   string       `json:"clientId" gorm:"column:client_id;not null;index"`
	Type       MovementType `json:"type" gorm:"not null"`
	Currency   string       `json:"currency" gorm:"not null;size:3"`
	Amount     float64      `json:"amount" gorm:"not null"`
	Rate       float64      `json:"rate" gorm:"not null"`
	OccurredAt time.Time    `json:"occurredAt" gorm:"column:occurred_at;index"`
	Notes      string       `json:"notes"`
	gorm.Model
}

// TableName specifies the table name for Movement Model
func (Movement) TableName() string {
	return "movements"
}
