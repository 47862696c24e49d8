// Package ledger holds the budget-effect arithmetic shared by every
// transaction mutation. Keeping the forward and reverse rules in one place
// guarantees that create, update, and delete cannot drift apart.
package ledger

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/models"
)

// Truncate normalizes a remaining-amount value to the money scale used by
// the budget columns: two decimal places, truncated toward zero.
func Truncate(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(2)
}

// ApplyEffect returns the remaining amount after a transaction takes effect
// on a budget: expenses decrease the balance, incomes increase it. The
// result is truncated after the step so repeated applications stay on the
// stored scale.
func ApplyEffect(remaining decimal.Decimal, txType models.TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch txType {
	case models.TransactionTypeExpense:
		return Truncate(remaining.Sub(amount))
	case models.TransactionTypeIncome:
		return Truncate(remaining.Add(amount))
	}
	return Truncate(remaining)
}

// ReverseEffect undoes a previously applied transaction effect. It is the
// exact inverse of ApplyEffect for any income or expense amount on the
// stored scale.
func ReverseEffect(remaining decimal.Decimal, txType models.TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch txType {
	case models.TransactionTypeExpense:
		return Truncate(remaining.Add(amount))
	case models.TransactionTypeIncome:
		return Truncate(remaining.Sub(amount))
	}
	return Truncate(remaining)
}
