package models

// UserRole represents a user's access level in the system
type UserRole string

const (
	RoleUser    UserRole = "user"
	RolePremium UserRole = "premium"
	RoleAdmin   UserRole = "admin"
)

// User represents the user model in the database
type User struct {
	Base
	Name     string   `gorm:"not null" json:"name"`
	Email    string   `gorm:"uniqueIndex;not null" json:"email"`
	Password string   `gorm:"not null" json:"-"`
	Role     UserRole `gorm:"not null;default:user" json:"role"`
	IsActive bool     `gorm:"default:true" json:"is_active"`

	Budgets       []Budget       `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
	Transactions  []Transaction  `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
	Settings      []Setting      `gorm:"foreignKey:UserID" json:"settings,omitempty"`
}
