package models

import (
	"gorm.io/gorm"
)

// Client represents a customer of the exchange office
type Client struct {
	ID    string `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"not null;index"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
	gorm.Model
}

// TableName specifies the table name for Client Model
func (Client) TableName() string {
	return "clients"
}
