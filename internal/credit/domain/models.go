// Package domain contains the prepaid credit account model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Account holds the prepaid credit balance for one user, keyed by email.
type Account struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	Email         string       `gorm:"type:text;not null;uniqueIndex:ux_accounts_email"`
	CreditBalance int64        `gorm:"not null;default:0"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }
