package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget represents an allocation of money for a user, optionally scoped to
// a single category. Amount is the original allocation; RemainingAmount is
// the running balance maintained by transaction reconciliation.
type Budget struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID      *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name            string          `gorm:"not null" json:"name"`
	Amount          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	RemainingAmount decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"remaining_amount"`
	StartDate       *time.Time      `json:"start_date,omitempty"`
	EndDate         *time.Time      `json:"end_date,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
