package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// BudgetHandler handles budget-related requests
type BudgetHandler struct {
	budgetService services.BudgetServicer
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService services.BudgetServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// CreateBudgetRequest represents the budget creation payload
type CreateBudgetRequest struct {
	Name       string          `json:"name" binding:"required,max=100"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	CategoryID *string         `json:"category_id" binding:"omitempty,uuid"`
	StartDate  *time.Time      `json:"start_date"`
	EndDate    *time.Time      `json:"end_date"`
}

// UpdateBudgetRequest represents the budget update payload
type UpdateBudgetRequest struct {
	Name      *string          `json:"name" binding:"omitempty,max=100"`
	Amount    *decimal.Decimal `json:"amount"`
	StartDate *time.Time       `json:"start_date"`
	EndDate   *time.Time       `json:"end_date"`
}

// requireOwnership loads a budget and rejects actors who neither own it nor
// hold the admin role.
func (h *BudgetHandler) requireOwnership(c *gin.Context, budgetID string) (*models.Budget, error) {
	actorID, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	role, err := getUserRole(c)
	if err != nil {
		return nil, err
	}

	budget, err := h.budgetService.GetBudgetByID(budgetID)
	if err != nil {
		return nil, err
	}
	if budget.UserID != actorID && role != models.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}
	return budget, nil
}

// CreateBudget creates a budget for the authenticated user
// @Summary     Create budget
// @Description Create a budget. The remaining amount starts equal to the allocation.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget data"
// @Success     201 {object} models.Budget "Created budget"
// @Failure     400 {object} ErrorResponse "Invalid input or date span"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, req.CategoryID, req.Name, req.Amount, req.StartDate, req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetUserBudgets lists a user's budgets
// @Summary     List user budgets
// @Description Get a user's budgets, optionally filtered by category
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       userId path string true "User ID"
// @Param       category_id query string false "Filter by category ID"
// @Success     200 {array} models.Budget "Budgets"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /budgets/user/{userId} [get]
func (h *BudgetHandler) GetUserBudgets(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	role, err := getUserRole(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID, err := parsePathID(c, "userId")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if userID != actorID && role != models.RoleAdmin {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	var categoryID *string
	if v, ok := c.GetQuery("category_id"); ok {
		categoryID = &v
	}

	budgets, err := h.budgetService.GetUserBudgets(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// GetBudget returns a single budget
// @Summary     Get budget
// @Description Get a budget by ID
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.requireOwnership(c, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetBudgetSummary compares stored and recomputed remaining balances
// @Summary     Get budget summary
// @Description Get a budget's allocation, stored remaining balance, and the balance recomputed from transaction history
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetSummary "Budget summary"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/summary [get]
func (h *BudgetHandler) GetBudgetSummary(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.requireOwnership(c, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.GetBudgetSummary(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// UpdateBudget updates a budget's fields
// @Summary     Update budget
// @Description Update a budget's name, allocation, or date window. Changing the allocation recomputes the remaining balance.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to update"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input or date span"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [patch]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.requireOwnership(c, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateBudget(budgetID, services.BudgetUpdateFields{
		Name:      req.Name,
		Amount:    req.Amount,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget removes a budget
// @Summary     Delete budget
// @Description Delete a budget. Transaction history is left untouched.
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     204 "Budget deleted"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.requireOwnership(c, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
