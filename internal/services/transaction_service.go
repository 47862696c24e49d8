package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/ledger"
	"fintrack/internal/models"
)

// transactionService handles transaction-related business logic, including
// the budget reconciliation that runs alongside every mutation.
type transactionService struct {
	db            *gorm.DB
	notifications NotificationServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, notifications NotificationServicer) TransactionServicer {
	return &transactionService{db: db, notifications: notifications}
}

// lockForUpdate adds a row-level write lock where the dialect supports it.
// SQLite serializes writers on its own and rejects FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// findBudgetForUpdate locks and returns the user's budget for a category,
// or nil when no budget tracks it.
func findBudgetForUpdate(tx *gorm.DB, userID string, categoryID *string) (*models.Budget, error) {
	if categoryID == nil {
		return nil, nil
	}

	var budget models.Budget
	err := lockForUpdate(tx).
		Where("user_id = ? AND category_id = ?", userID, *categoryID).
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// applyToBudget shifts a locked budget's remaining balance by one
// transaction's effect and persists it. When the balance dips below zero,
// an over-budget notification is written in the same database transaction.
func (s *transactionService) applyToBudget(
	tx *gorm.DB,
	budget *models.Budget,
	txType models.TransactionType,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	remaining := ledger.ApplyEffect(budget.RemainingAmount, txType, amount)

	if err := tx.Model(budget).Update("remaining_amount", remaining).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.RemainingAmount = remaining

	if remaining.IsNegative() {
		msg := fmt.Sprintf("Budget %q is over its allocation: %s remaining.", budget.Name, remaining.StringFixed(2))
		if err := s.notifications.Create(tx, budget.UserID, "Budget exceeded", msg); err != nil {
			return decimal.Zero, err
		}
	}

	return remaining, nil
}

// reverseFromBudget undoes a transaction's effect on a locked budget.
func reverseFromBudget(
	tx *gorm.DB,
	budget *models.Budget,
	txType models.TransactionType,
	amount decimal.Decimal,
) error {
	remaining := ledger.ReverseEffect(budget.RemainingAmount, txType, amount)

	if err := tx.Model(budget).Update("remaining_amount", remaining).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.RemainingAmount = remaining
	return nil
}

// CreateTransaction records a transaction and reconciles the owning budget's
// remaining balance in the same database transaction.
func (s *transactionService) CreateTransaction(
	userID string,
	categoryID *string,
	txType models.TransactionType,
	amount decimal.Decimal,
	description string,
	date time.Time,
) (*TransactionResult, error) {
	if !txType.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if date.IsZero() {
		date = time.Now()
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

	transaction := &models.Transaction{
		UserID:      userID,
		CategoryID:  categoryID,
		Description: description,
		Amount:      ledger.Truncate(amount),
		Type:        txType,
		Date:        date,
	}

	result := &TransactionResult{Transaction: transaction}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		budget, err := findBudgetForUpdate(tx, userID, categoryID)
		if err != nil {
			return err
		}
		if budget == nil {
			return nil
		}

		remaining, err := s.applyToBudget(tx, budget, transaction.Type, transaction.Amount)
		if err != nil {
			return err
		}
		result.Remaining = &remaining
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetTransactionByID returns a transaction visible to the actor.
func (s *transactionService) GetTransactionByID(actorID string, actorRole models.UserRole, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := authorize(actorID, actorRole, transaction.UserID); err != nil {
		return nil, err
	}
	return &transaction, nil
}

// UpdateTransaction patches a transaction and re-reconciles budgets: the old
// effect is reversed against the old budget, then the new effect is applied
// against whichever budget matches the updated transaction.
func (s *transactionService) UpdateTransaction(
	actorID string,
	actorRole models.UserRole,
	transactionID string,
	fields TransactionUpdateFields,
) (*TransactionResult, error) {
	transaction, err := s.GetTransactionByID(actorID, actorRole, transactionID)
	if err != nil {
		return nil, err
	}

	if fields.Type != nil && !fields.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if fields.Amount != nil && !fields.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}

	newCategoryID := transaction.CategoryID
	if fields.CategoryID != nil {
		newCategoryID = *fields.CategoryID
	}
	if newCategoryID != nil && fields.CategoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ?", *newCategoryID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	result := &TransactionResult{Transaction: transaction}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		oldBudget, err := findBudgetForUpdate(tx, transaction.UserID, transaction.CategoryID)
		if err != nil {
			return err
		}
		if oldBudget != nil {
			if err := reverseFromBudget(tx, oldBudget, transaction.Type, transaction.Amount); err != nil {
				return err
			}
		}

		updates := make(map[string]interface{})
		if fields.CategoryID != nil {
			updates["category_id"] = *fields.CategoryID
		}
		if fields.Type != nil {
			updates["type"] = *fields.Type
			transaction.Type = *fields.Type
		}
		if fields.Amount != nil {
			truncated := ledger.Truncate(*fields.Amount)
			updates["amount"] = truncated
			transaction.Amount = truncated
		}
		if fields.Description != nil {
			updates["description"] = *fields.Description
			transaction.Description = *fields.Description
		}
		if fields.Date != nil {
			updates["date"] = *fields.Date
			transaction.Date = *fields.Date
		}
		transaction.CategoryID = newCategoryID

		if len(updates) > 0 {
			if err := tx.Model(transaction).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		// Re-fetch rather than reuse oldBudget: the category may have
		// changed, and even when it hasn't the reversal above already
		// moved the stored balance.
		newBudget, err := findBudgetForUpdate(tx, transaction.UserID, transaction.CategoryID)
		if err != nil {
			return err
		}
		if newBudget == nil {
			return nil
		}

		remaining, err := s.applyToBudget(tx, newBudget, transaction.Type, transaction.Amount)
		if err != nil {
			return err
		}
		result.Remaining = &remaining
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteTransaction removes a transaction, restoring its effect to the
// owning budget in the same database transaction.
func (s *transactionService) DeleteTransaction(actorID string, actorRole models.UserRole, transactionID string) error {
	transaction, err := s.GetTransactionByID(actorID, actorRole, transactionID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		budget, err := findBudgetForUpdate(tx, transaction.UserID, transaction.CategoryID)
		if err != nil {
			return err
		}
		if budget != nil {
			if err := reverseFromBudget(tx, budget, transaction.Type, transaction.Amount); err != nil {
				return err
			}
		}

		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// GetUserTransactionsGrouped returns a user's transactions split into income
// and expense lists, newest first.
func (s *transactionService) GetUserTransactionsGrouped(actorID string, actorRole models.UserRole, userID string) (*GroupedTransactions, error) {
	if err := authorize(actorID, actorRole, userID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := s.db.Preload("Category").
		Where("user_id = ?", userID).
		Order("date DESC").Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(transactions) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "no transactions found for user")
	}

	grouped := &GroupedTransactions{
		UserID:   user.ID,
		UserName: user.Name,
		Income:   []TransactionSummary{},
		Expense:  []TransactionSummary{},
	}

	for _, t := range transactions {
		summary := TransactionSummary{
			ID:          t.ID,
			Description: t.Description,
			Amount:      t.Amount,
			Date:        t.Date,
		}
		if t.Category != nil {
			summary.Category = t.Category.Name
		}
		switch t.Type {
		case models.TransactionTypeIncome:
			grouped.Income = append(grouped.Income, summary)
		case models.TransactionTypeExpense:
			grouped.Expense = append(grouped.Expense, summary)
		}
	}

	return grouped, nil
}

// GetBalance returns a user's overall income, expense, and net balance.
func (s *transactionService) GetBalance(actorID string, actorRole models.UserRole, userID string) (*BalanceSummary, error) {
	if err := authorize(actorID, actorRole, userID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sumByType := func(txType models.TransactionType) (decimal.Decimal, error) {
		var total decimal.Decimal
		err := s.db.Model(&models.Transaction{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("user_id = ? AND type = ?", userID, txType).
			Scan(&total).Error
		if err != nil {
			return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return total, nil
	}

	totalIncome, err := sumByType(models.TransactionTypeIncome)
	if err != nil {
		return nil, err
	}
	totalExpense, err := sumByType(models.TransactionTypeExpense)
	if err != nil {
		return nil, err
	}

	return &BalanceSummary{
		UserID:       user.ID,
		UserName:     user.Name,
		TotalIncome:  totalIncome,
		TotalExpense: totalExpense,
		Balance:      totalIncome.Sub(totalExpense),
	}, nil
}
