package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/ledger"
	"fintrack/internal/models"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// validateDateSpan rejects windows whose end precedes their start.
func validateDateSpan(startDate, endDate *time.Time) error {
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return apperrors.ErrInvalidDateSpan
	}
	return nil
}

// sumTransactions returns the total amount of the user's transactions of
// the given type within a category.
func sumTransactions(db *gorm.DB, userID, categoryID string, txType models.TransactionType) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND category_id = ? AND type = ?", userID, categoryID, txType).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// recomputeRemaining derives a budget's remaining balance from the full
// transaction history of its category: the allocation, minus all expenses,
// plus all incomes.
func recomputeRemaining(db *gorm.DB, budget *models.Budget, allocation decimal.Decimal) (decimal.Decimal, error) {
	remaining := ledger.Truncate(allocation)
	if budget.CategoryID == nil {
		return remaining, nil
	}

	totalExpense, err := sumTransactions(db, budget.UserID, *budget.CategoryID, models.TransactionTypeExpense)
	if err != nil {
		return decimal.Zero, err
	}
	totalIncome, err := sumTransactions(db, budget.UserID, *budget.CategoryID, models.TransactionTypeIncome)
	if err != nil {
		return decimal.Zero, err
	}

	remaining = ledger.ApplyEffect(remaining, models.TransactionTypeExpense, totalExpense)
	remaining = ledger.ApplyEffect(remaining, models.TransactionTypeIncome, totalIncome)
	return remaining, nil
}

// CreateBudget creates a new budget. The remaining amount starts equal to
// the allocation.
func (s *budgetService) CreateBudget(
	userID string,
	categoryID *string,
	name string,
	amount decimal.Decimal,
	startDate, endDate *time.Time,
) (*models.Budget, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}
	if err := validateDateSpan(startDate, endDate); err != nil {
		return nil, err
	}

	if categoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ?", *categoryID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	budget := &models.Budget{
		UserID:          userID,
		CategoryID:      categoryID,
		Name:            name,
		Amount:          ledger.Truncate(amount),
		RemainingAmount: ledger.Truncate(amount),
		StartDate:       startDate,
		EndDate:         endDate,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetUserBudgets returns a user's budgets, optionally filtered by category.
func (s *budgetService) GetUserBudgets(userID string, categoryID *string) ([]models.Budget, error) {
	base := s.db.Where("user_id = ?", userID)
	if categoryID != nil {
		base = base.Where("category_id = ?", *categoryID)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").
		Order("start_date DESC").Order("created_at DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// GetBudgetByID returns a budget by ID.
func (s *budgetService) GetBudgetByID(budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ?", budgetID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields. When the allocation
// changes, the remaining amount is recomputed from the transaction history
// within the same database transaction, so an allocation edit cannot leave
// the running balance out of sync.
func (s *budgetService) UpdateBudget(budgetID string, fields BudgetUpdateFields) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(budgetID)
	if err != nil {
		return nil, err
	}

	// Validate the resulting window, falling back to stored dates for
	// sides the patch leaves untouched.
	startDate := budget.StartDate
	if fields.StartDate != nil {
		startDate = fields.StartDate
	}
	endDate := budget.EndDate
	if fields.EndDate != nil {
		endDate = fields.EndDate
	}
	if err := validateDateSpan(startDate, endDate); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.StartDate != nil {
		updates["start_date"] = fields.StartDate
	}
	if fields.EndDate != nil {
		updates["end_date"] = fields.EndDate
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if fields.Amount != nil {
			if fields.Amount.IsNegative() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
			}
			remaining, err := recomputeRemaining(tx, budget, *fields.Amount)
			if err != nil {
				return err
			}
			updates["amount"] = ledger.Truncate(*fields.Amount)
			updates["remaining_amount"] = remaining
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(budget).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return budget, nil
}

// DeleteBudget removes a budget. Deletion does not touch the transaction
// history; transactions simply stop affecting any budget.
func (s *budgetService) DeleteBudget(budgetID string) error {
	budget, err := s.GetBudgetByID(budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetSummary reports the stored remaining balance next to the balance
// recomputed from transaction history, exposing any drift introduced by
// direct budget edits.
func (s *budgetService) GetBudgetSummary(budgetID string) (*BudgetSummary, error) {
	budget, err := s.GetBudgetByID(budgetID)
	if err != nil {
		return nil, err
	}

	summary := &BudgetSummary{
		BudgetID:        budget.ID,
		Allocated:       budget.Amount,
		StoredRemaining: budget.RemainingAmount,
		TotalIncome:     decimal.Zero,
		TotalExpense:    decimal.Zero,
	}

	if budget.CategoryID != nil {
		summary.TotalExpense, err = sumTransactions(s.db, budget.UserID, *budget.CategoryID, models.TransactionTypeExpense)
		if err != nil {
			return nil, err
		}
		summary.TotalIncome, err = sumTransactions(s.db, budget.UserID, *budget.CategoryID, models.TransactionTypeIncome)
		if err != nil {
			return nil, err
		}
	}

	summary.ComputedRemaining, err = recomputeRemaining(s.db, budget, budget.Amount)
	if err != nil {
		return nil, err
	}
	summary.InSync = summary.StoredRemaining.Equal(summary.ComputedRemaining)

	return summary, nil
}
