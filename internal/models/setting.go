package models

// Setting is a per-user preference stored as a key/value pair.
type Setting struct {
	Base
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_settings_user_key" json:"user_id"`
	Key    string `gorm:"not null;uniqueIndex:idx_settings_user_key" json:"key"`
	Value  string `gorm:"not null" json:"value"`
}
