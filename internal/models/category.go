package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// CategoryStatus represents the lifecycle state of a category. Categories
// are never hard-deleted; they move between active and inactive.
type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "active"
	CategoryStatusInactive CategoryStatus = "inactive"
)

// Category represents a transaction category. Categories are global and
// shared by every user; only their status changes over time.
type Category struct {
	Base
	Name   string         `gorm:"uniqueIndex;not null" json:"name"`
	Type   CategoryType   `gorm:"not null" json:"type"`
	Status CategoryStatus `gorm:"not null;default:active" json:"status"`

	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
	Budgets      []Budget      `gorm:"foreignKey:CategoryID" json:"budgets,omitempty"`
}

// Deactivate transitions the category to inactive. It reports false when the
// category is already inactive, so callers can reject the repeat transition.
func (c *Category) Deactivate() bool {
	if c.Status == CategoryStatusInactive {
		return false
	}
	c.Status = CategoryStatusInactive
	return true
}

// Activate transitions the category back to active. It reports false when
// the category is already active.
func (c *Category) Activate() bool {
	if c.Status == CategoryStatusActive {
		return false
	}
	c.Status = CategoryStatusActive
	return true
}
