package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// failingNotifier forces an error out of the notification step so tests can
// verify that the surrounding database transaction rolls back completely.
type failingNotifier struct{}

func (failingNotifier) Create(*gorm.DB, string, string, string) error {
	return errors.New("notification store unavailable")
}

func (failingNotifier) GetUserNotifications(string, pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	return nil, nil
}

func (failingNotifier) MarkRead(string, string) (*models.Notification, error) {
	return nil, nil
}

func TestCreateTransaction(t *testing.T) {
	t.Run("expense_reduces_remaining", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, &category.ID, "100.00")

		result, err := txSvc.CreateTransaction(user.ID, &category.ID, models.TransactionTypeExpense, dec("30.00"), "Groceries", time.Now())
		testutil.AssertNoError(t, err)

		if result.Transaction.ID == "" {
			t.Fatal("expected a generated transaction ID")
		}
		if result.Remaining == nil {
			t.Fatal("expected a remaining balance for a budgeted category")
		}
		if !result.Remaining.Equal(dec("70.00")) {
			t.Errorf("expected remaining 70.00, got %s", result.Remaining)
		}

		var updated models.Budget
		testutil.AssertNoError(t, db.First(&updated, "id = ?", budget.ID).Error)
		if !updated.RemainingAmount.Equal(dec("70.00")) {
			t.Errorf("expected stored remaining 70.00, got %s", updated.RemainingAmount)
		}
	})

	t.Run("income_increases_remaining", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)
		testutil.CreateTestBudget(t, db, user.ID, &category.ID, "100.00")

		result, err := txSvc.CreateTransaction(user.ID, &category.ID, models.TransactionTypeIncome, dec("25.50"), "Refund", time.Now())
		testutil.AssertNoError(t, err)

		if result.Remaining == nil || !result.Remaining.Equal(dec("125.50")) {
			t.Errorf("expected remaining 125.50, got %v", result.Remaining)
		}
	})

	t.Run("no_budget_leaves_remaining_nil", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		result, err := txSvc.CreateTransaction(user.ID, &category.ID, models.TransactionTypeExpense, dec("30.00"), "Untracked", time.Now())
		testutil.AssertNoError(t, err)

		if result.Remaining != nil {
			t.Errorf("expected nil remaining without a budget, got %s", result.Remaining)
		}
	})

	t.Run("no_category_leaves_remaining_nil", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)

		result, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeExpense, dec("12.00"), "Cash", time.Now())
		testutil.AssertNoError(t, err)

		if result.Remaining != nil {
			t.Errorf("expected nil remaining without a category, got %s", result.Remaining)
		}
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)

		_, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionType("transfer"), dec("10.00"), "", time.Now())
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)

		_, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeExpense, decimal.Zero, "", time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)

		_, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeExpense, dec("-5.00"), "", time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)
		missing := "0198a2f0-0000-7000-8000-000000000000"

		_, err := txSvc.CreateTransaction(user.ID, &missing, models.TransactionTypeExpense, dec("10.00"), "", time.Now())
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("over_budget_creates_notification", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		testutil.CreateTestBudget(t, db, user.ID, &category.ID, "50.00")

		result, err := txSvc.CreateTransaction(user.ID, &category.ID, models.TransactionTypeExpense, dec("80.00"), "Dinner", time.Now())
		testutil.AssertNoError(t, err)

		if result.Remaining == nil || !result.Remaining.Equal(dec("-30.00")) {
			t.Fatalf("expected remaining -30.00, got %v", result.Remaining)
		}

		var count int64
		testutil.AssertNoError(t, db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&count).Error)
		if count != 1 {
			t.Errorf("expected 1 notification, got %d", count)
		}
	})

	t.Run("rolls_back_when_notification_fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, failingNotifier{})
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, &category.ID, "50.00")

		_, err := txSvc.CreateTransaction(user.ID, &category.ID, models.TransactionTypeExpense, dec("80.00"), "Dinner", time.Now())
		if err == nil {
			t.Fatal("expected an error when the notification write fails")
		}

		var txCount int64
		testutil.AssertNoError(t, db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&txCount).Error)
		if txCount != 0 {
			t.Errorf("expected transaction insert to roll back, found %d rows", txCount)
		}

		var updated models.Budget
		testutil.AssertNoError(t, db.First(&updated, "id = ?", budget.ID).Error)
		if !updated.RemainingAmount.Equal(dec("50.00")) {
			t.Errorf("expected remaining to stay 50.00, got %s", updated.RemainingAmount)
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("amount_change_rebalances_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, &category.ID, "100.00")

		created, err := txSvc.CreateTransaction(user.ID, &category.ID, models.TransactionTypeExpense, dec("30.00"), "Groceries", time.Now())
		testutil.AssertNoError(t, err)

		newAmount := dec("50.00")
		result, err := txSvc.UpdateTransaction(user.ID, models.RoleUser, created.Transaction.ID, TransactionUpdateFields{Amount: &newAmount})
		testutil.AssertNoError(t, err)

		if result.Remaining == nil || !result.Remaining.Equal(dec("50.00")) {
			t.Errorf("expected remaining 50.00, got %v", result.Remaining)
		}

		var updated models.Budget
		testutil.AssertNoError(t, db.First(&updated, "id = ?", budget.ID).Error)
		if !updated.RemainingAmount.Equal(dec("50.00")) {
			t.Errorf("expected stored remaining 50.00, got %s", updated.RemainingAmount)
		}
	})

	t.Run("type_flip_reverses_and_reapplies", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		testutil.CreateTestBudget(t, db, user.ID, &category.ID, "100.00")

		created, err := txSvc.CreateTransaction(user.ID, &category.ID, models.TransactionTypeExpense, dec("30.00"), "Groceries", time.Now())
		testutil.AssertNoError(t, err)

		income := models.TransactionTypeIncome
		result, err := txSvc.UpdateTransaction(user.ID, models.RoleUser, created.Transaction.ID, TransactionUpdateFields{Type: &income})
		testutil.AssertNoError(t, err)

		// 100 - 30 = 70, reversed to 100, then +30 as income.
		if result.Remaining == nil || !result.Remaining.Equal(dec("130.00")) {
			t.Errorf("expected remaining 130.00, got %v", result.Remaining)
		}
	})

	t.Run("moving_category_moves_the_effect", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)
		groceries := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		travel := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		groceriesBudget := testutil.CreateTestBudget(t, db, user.ID, &groceries.ID, "100.00")
		travelBudget := testutil.CreateTestBudget(t, db, user.ID, &travel.ID, "200.00")

		created, err := txSvc.CreateTransaction(user.ID, &groceries.ID, models.TransactionTypeExpense, dec("40.00"), "Taxi", time.Now())
		testutil.AssertNoError(t, err)

		newCategory := &travel.ID
		result, err := txSvc.UpdateTransaction(user.ID, models.RoleUser, created.Transaction.ID, TransactionUpdateFields{CategoryID: &newCategory})
		testutil.AssertNoError(t, err)

		if result.Remaining == nil || !result.Remaining.Equal(dec("160.00")) {
			t.Errorf("expected travel remaining 160.00, got %v", result.Remaining)
		}

		var restored models.Budget
		testutil.AssertNoError(t, db.First(&restored, "id = ?", groceriesBudget.ID).Error)
		if !restored.RemainingAmount.Equal(dec("100.00")) {
			t.Errorf("expected groceries remaining restored to 100.00, got %s", restored.RemainingAmount)
		}

		var charged models.Budget
		testutil.AssertNoError(t, db.First(&charged, "id = ?", travelBudget.ID).Error)
		if !charged.RemainingAmount.Equal(dec("160.00")) {
			t.Errorf("expected travel remaining 160.00, got %s", charged.RemainingAmount)
		}
	})

	t.Run("other_user_forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)

		created, err := txSvc.CreateTransaction(owner.ID, nil, models.TransactionTypeExpense, dec("10.00"), "", time.Now())
		testutil.AssertNoError(t, err)

		desc := "hijacked"
		_, err = txSvc.UpdateTransaction(intruder.ID, models.RoleUser, created.Transaction.ID, TransactionUpdateFields{Description: &desc})
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("admin_can_update_any", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		owner := testutil.CreateTestUser(t, db)
		admin := testutil.CreateTestAdmin(t, db)

		created, err := txSvc.CreateTransaction(owner.ID, nil, models.TransactionTypeExpense, dec("10.00"), "", time.Now())
		testutil.AssertNoError(t, err)

		desc := "corrected by support"
		result, err := txSvc.UpdateTransaction(admin.ID, models.RoleAdmin, created.Transaction.ID, TransactionUpdateFields{Description: &desc})
		testutil.AssertNoError(t, err)
		if result.Transaction.Description != desc {
			t.Errorf("expected description %q, got %q", desc, result.Transaction.Description)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)

		desc := "nope"
		_, err := txSvc.UpdateTransaction(user.ID, models.RoleUser, "0198a2f0-0000-7000-8000-000000000000", TransactionUpdateFields{Description: &desc})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("invalid_patch_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)

		created, err := txSvc.CreateTransaction(user.ID, nil, models.TransactionTypeExpense, dec("10.00"), "", time.Now())
		testutil.AssertNoError(t, err)

		bad := dec("-1.00")
		_, err = txSvc.UpdateTransaction(user.ID, models.RoleUser, created.Transaction.ID, TransactionUpdateFields{Amount: &bad})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("restores_remaining", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, &category.ID, "100.00")

		created, err := txSvc.CreateTransaction(user.ID, &category.ID, models.TransactionTypeExpense, dec("30.00"), "Groceries", time.Now())
		testutil.AssertNoError(t, err)

		err = txSvc.DeleteTransaction(user.ID, models.RoleUser, created.Transaction.ID)
		testutil.AssertNoError(t, err)

		var updated models.Budget
		testutil.AssertNoError(t, db.First(&updated, "id = ?", budget.ID).Error)
		if !updated.RemainingAmount.Equal(dec("100.00")) {
			t.Errorf("expected remaining restored to 100.00, got %s", updated.RemainingAmount)
		}

		_, err = txSvc.GetTransactionByID(user.ID, models.RoleUser, created.Transaction.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("other_user_forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)

		created, err := txSvc.CreateTransaction(owner.ID, nil, models.TransactionTypeExpense, dec("10.00"), "", time.Now())
		testutil.AssertNoError(t, err)

		err = txSvc.DeleteTransaction(intruder.ID, models.RoleUser, created.Transaction.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)

		err := txSvc.DeleteTransaction(user.ID, models.RoleUser, "0198a2f0-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestGetUserTransactionsGrouped(t *testing.T) {
	t.Run("splits_income_and_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		testutil.CreateTestTransaction(t, db, user.ID, &category.ID, models.TransactionTypeExpense, "20.00")
		testutil.CreateTestTransaction(t, db, user.ID, nil, models.TransactionTypeIncome, "500.00")
		testutil.CreateTestTransaction(t, db, user.ID, &category.ID, models.TransactionTypeExpense, "15.00")

		grouped, err := txSvc.GetUserTransactionsGrouped(user.ID, models.RoleUser, user.ID)
		testutil.AssertNoError(t, err)

		if grouped.UserName != user.Name {
			t.Errorf("expected user name %q, got %q", user.Name, grouped.UserName)
		}
		if len(grouped.Income) != 1 {
			t.Errorf("expected 1 income entry, got %d", len(grouped.Income))
		}
		if len(grouped.Expense) != 2 {
			t.Errorf("expected 2 expense entries, got %d", len(grouped.Expense))
		}
		if len(grouped.Expense) == 2 && grouped.Expense[0].Category != category.Name {
			t.Errorf("expected category %q on expense entry, got %q", category.Name, grouped.Expense[0].Category)
		}
	})

	t.Run("no_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)

		_, err := txSvc.GetUserTransactionsGrouped(user.ID, models.RoleUser, user.ID)
		testutil.AssertAppError(t, err, "NOT_FOUND")
	})

	t.Run("other_user_forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)

		_, err := txSvc.GetUserTransactionsGrouped(intruder.ID, models.RoleUser, owner.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("admin_can_view_any", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		owner := testutil.CreateTestUser(t, db)
		admin := testutil.CreateTestAdmin(t, db)

		testutil.CreateTestTransaction(t, db, owner.ID, nil, models.TransactionTypeIncome, "10.00")

		grouped, err := txSvc.GetUserTransactionsGrouped(admin.ID, models.RoleAdmin, owner.ID)
		testutil.AssertNoError(t, err)
		if len(grouped.Income) != 1 {
			t.Errorf("expected 1 income entry, got %d", len(grouped.Income))
		}
	})
}

func TestGetBalance(t *testing.T) {
	t.Run("net_of_income_and_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestTransaction(t, db, user.ID, nil, models.TransactionTypeIncome, "500.00")
		testutil.CreateTestTransaction(t, db, user.ID, nil, models.TransactionTypeExpense, "120.50")
		testutil.CreateTestTransaction(t, db, user.ID, nil, models.TransactionTypeExpense, "30.00")

		balance, err := txSvc.GetBalance(user.ID, models.RoleUser, user.ID)
		testutil.AssertNoError(t, err)

		if !balance.TotalIncome.Equal(dec("500.00")) {
			t.Errorf("expected income 500.00, got %s", balance.TotalIncome)
		}
		if !balance.TotalExpense.Equal(dec("150.50")) {
			t.Errorf("expected expense 150.50, got %s", balance.TotalExpense)
		}
		if !balance.Balance.Equal(dec("349.50")) {
			t.Errorf("expected balance 349.50, got %s", balance.Balance)
		}
	})

	t.Run("empty_history_is_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		user := testutil.CreateTestUser(t, db)

		balance, err := txSvc.GetBalance(user.ID, models.RoleUser, user.ID)
		testutil.AssertNoError(t, err)
		if !balance.Balance.IsZero() {
			t.Errorf("expected zero balance, got %s", balance.Balance)
		}
	})

	t.Run("unknown_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		admin := testutil.CreateTestAdmin(t, db)

		_, err := txSvc.GetBalance(admin.ID, models.RoleAdmin, "0198a2f0-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("other_user_forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc := NewTransactionService(db, NewNotificationService(db))
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)

		_, err := txSvc.GetBalance(intruder.ID, models.RoleUser, owner.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}
