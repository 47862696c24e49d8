package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(name, email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	UpdateRole(userID string, role models.UserRole) (*models.User, error)
	DeactivateUser(userID string) (*models.User, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(name string, categoryType models.CategoryType) (*models.Category, error)
	GetActiveCategories() ([]models.Category, error)
	GetAllCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoriesByType(categoryType models.CategoryType) ([]models.Category, error)
	GetCategoryByID(categoryID string) (*models.Category, error)
	UpdateCategory(categoryID string, fields CategoryUpdateFields) (*models.Category, error)
	DeactivateCategory(categoryID string) (*models.Category, error)
}

// CategoryUpdateFields holds the optional fields of a category update.
// Nil pointers leave the current value unchanged.
type CategoryUpdateFields struct {
	Name   *string
	Type   *models.CategoryType
	Status *models.CategoryStatus
}

// BudgetUpdateFields holds the optional fields of a budget update.
// Nil pointers leave the current value unchanged.
type BudgetUpdateFields struct {
	Name      *string
	Amount    *decimal.Decimal
	StartDate *time.Time
	EndDate   *time.Time
}

// BudgetSummary compares a budget's stored running balance against the
// balance recomputed from the transaction history it should reflect.
type BudgetSummary struct {
	BudgetID          string          `json:"budget_id"`
	Allocated         decimal.Decimal `json:"allocated"`
	StoredRemaining   decimal.Decimal `json:"stored_remaining"`
	ComputedRemaining decimal.Decimal `json:"computed_remaining"`
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalExpense      decimal.Decimal `json:"total_expense"`
	InSync            bool            `json:"in_sync"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, categoryID *string, name string, amount decimal.Decimal, startDate, endDate *time.Time) (*models.Budget, error)
	GetUserBudgets(userID string, categoryID *string) ([]models.Budget, error)
	GetBudgetByID(budgetID string) (*models.Budget, error)
	UpdateBudget(budgetID string, fields BudgetUpdateFields) (*models.Budget, error)
	DeleteBudget(budgetID string) error
	GetBudgetSummary(budgetID string) (*BudgetSummary, error)
}

// TransactionUpdateFields holds the optional fields of a transaction
// update. Nil pointers leave the current value unchanged; for CategoryID,
// the outer pointer distinguishes "unchanged" from "set or clear".
type TransactionUpdateFields struct {
	CategoryID  **string
	Type        *models.TransactionType
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
}

// TransactionResult is the outcome of a reconciled transaction mutation:
// the persisted record plus the affected budget's remaining amount, or nil
// when no budget is associated with the transaction's category.
type TransactionResult struct {
	Transaction *models.Transaction
	Remaining   *decimal.Decimal
}

// TransactionSummary is the trimmed representation used in grouped lists.
type TransactionSummary struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category"`
}

// GroupedTransactions is a user's transactions split by type.
type GroupedTransactions struct {
	UserID   string               `json:"user_id"`
	UserName string               `json:"user_name"`
	Income   []TransactionSummary `json:"income"`
	Expense  []TransactionSummary `json:"expense"`
}

// BalanceSummary is a user's overall income minus expense, independent of
// any per-category budget.
type BalanceSummary struct {
	UserID       string          `json:"user_id"`
	UserName     string          `json:"user_name"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
}

// TransactionServicer defines the contract for transaction-related business
// logic, including budget reconciliation.
type TransactionServicer interface {
	CreateTransaction(userID string, categoryID *string, txType models.TransactionType, amount decimal.Decimal, description string, date time.Time) (*TransactionResult, error)
	GetUserTransactionsGrouped(actorID string, actorRole models.UserRole, userID string) (*GroupedTransactions, error)
	GetBalance(actorID string, actorRole models.UserRole, userID string) (*BalanceSummary, error)
	GetTransactionByID(actorID string, actorRole models.UserRole, transactionID string) (*models.Transaction, error)
	UpdateTransaction(actorID string, actorRole models.UserRole, transactionID string, fields TransactionUpdateFields) (*TransactionResult, error)
	DeleteTransaction(actorID string, actorRole models.UserRole, transactionID string) error
}

// NotificationServicer defines the contract for in-app notifications.
type NotificationServicer interface {
	Create(tx *gorm.DB, userID, title, message string) error
	GetUserNotifications(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	MarkRead(userID, notificationID string) (*models.Notification, error)
}

// SettingServicer defines the contract for per-user settings.
type SettingServicer interface {
	UpsertSetting(userID, key, value string) (*models.Setting, error)
	GetUserSettings(userID string) ([]models.Setting, error)
	DeleteSetting(userID, key string) error
}
