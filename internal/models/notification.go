package models

// Notification is an in-app message for a user, such as an over-budget
// warning written during reconciliation.
type Notification struct {
	Base
	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`
	Title   string `gorm:"not null" json:"title"`
	Message string `gorm:"not null" json:"message"`
	Read    bool   `gorm:"default:false" json:"read"`
}
