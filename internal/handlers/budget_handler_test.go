package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

type mockBudgetService struct {
	createFn     func(userID string, categoryID *string, name string, amount decimal.Decimal, startDate, endDate *time.Time) (*models.Budget, error)
	userBudgets  func(userID string, categoryID *string) ([]models.Budget, error)
	getByIDFn    func(budgetID string) (*models.Budget, error)
	updateFn     func(budgetID string, fields services.BudgetUpdateFields) (*models.Budget, error)
	deleteFn     func(budgetID string) error
	summaryFn    func(budgetID string) (*services.BudgetSummary, error)
}

func (m *mockBudgetService) CreateBudget(userID string, categoryID *string, name string, amount decimal.Decimal, startDate, endDate *time.Time) (*models.Budget, error) {
	if m.createFn != nil {
		return m.createFn(userID, categoryID, name, amount, startDate, endDate)
	}
	return &models.Budget{UserID: userID}, nil
}

func (m *mockBudgetService) GetUserBudgets(userID string, categoryID *string) ([]models.Budget, error) {
	if m.userBudgets != nil {
		return m.userBudgets(userID, categoryID)
	}
	return []models.Budget{}, nil
}

func (m *mockBudgetService) GetBudgetByID(budgetID string) (*models.Budget, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(budgetID)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}, UserID: testUserID}, nil
}

func (m *mockBudgetService) UpdateBudget(budgetID string, fields services.BudgetUpdateFields) (*models.Budget, error) {
	if m.updateFn != nil {
		return m.updateFn(budgetID, fields)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}}, nil
}

func (m *mockBudgetService) DeleteBudget(budgetID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(budgetID)
	}
	return nil
}

func (m *mockBudgetService) GetBudgetSummary(budgetID string) (*services.BudgetSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(budgetID)
	}
	return &services.BudgetSummary{BudgetID: budgetID}, nil
}

func setupBudgetRouter(handler *BudgetHandler, uid string, role models.UserRole) *gin.Engine {
	r := gin.New()
	auth := injectUser(uid, role)
	r.POST("/budgets", auth, handler.CreateBudget)
	r.GET("/budgets/user/:userId", auth, handler.GetUserBudgets)
	r.GET("/budgets/:id", auth, handler.GetBudget)
	r.GET("/budgets/:id/summary", auth, handler.GetBudgetSummary)
	r.PATCH("/budgets/:id", auth, handler.UpdateBudget)
	r.DELETE("/budgets/:id", auth, handler.DeleteBudget)
	return r
}

func TestBudgetHandler_Create(t *testing.T) {
	t.Run("returns 201", func(t *testing.T) {
		svc := &mockBudgetService{
			createFn: func(userID string, _ *string, name string, amount decimal.Decimal, _, _ *time.Time) (*models.Budget, error) {
				return &models.Budget{
					Base:            models.Base{ID: testOtherID},
					UserID:          userID,
					Name:            name,
					Amount:          amount,
					RemainingAmount: amount,
				}, nil
			},
		}
		handler := NewBudgetHandler(svc)
		r := setupBudgetRouter(handler, testUserID, models.RoleUser)

		rec := doRequest(r, "POST", "/budgets", `{"name":"Groceries","amount":"250.00"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["remaining_amount"] != "250" {
			t.Errorf("expected remaining_amount 250, got %v", budget["remaining_amount"])
		}
	})

	t.Run("returns 400 on invalid date span", func(t *testing.T) {
		svc := &mockBudgetService{
			createFn: func(string, *string, string, decimal.Decimal, *time.Time, *time.Time) (*models.Budget, error) {
				return nil, apperrors.ErrInvalidDateSpan
			},
		}
		handler := NewBudgetHandler(svc)
		r := setupBudgetRouter(handler, testUserID, models.RoleUser)

		rec := doRequest(r, "POST", "/budgets",
			`{"name":"Groceries","amount":"250.00","start_date":"2026-02-01T00:00:00Z","end_date":"2026-01-01T00:00:00Z"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_DATE_SPAN")
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{})
		r := setupBudgetRouter(handler, testUserID, models.RoleUser)

		rec := doRequest(r, "POST", "/budgets", `{"amount":"250.00"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetUserBudgets(t *testing.T) {
	t.Run("owner can list", func(t *testing.T) {
		var gotCategory *string
		svc := &mockBudgetService{
			userBudgets: func(userID string, categoryID *string) ([]models.Budget, error) {
				gotCategory = categoryID
				return []models.Budget{{UserID: userID}}, nil
			},
		}
		handler := NewBudgetHandler(svc)
		r := setupBudgetRouter(handler, testUserID, models.RoleUser)

		rec := doRequest(r, "GET", "/budgets/user/"+testUserID+"?category_id="+testOtherID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotCategory == nil || *gotCategory != testOtherID {
			t.Errorf("expected category filter forwarded, got %v", gotCategory)
		}
	})

	t.Run("other user forbidden", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{})
		r := setupBudgetRouter(handler, testUserID, models.RoleUser)

		rec := doRequest(r, "GET", "/budgets/user/"+testOtherID, "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin can list anyone", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{})
		r := setupBudgetRouter(handler, testUserID, models.RoleAdmin)

		rec := doRequest(r, "GET", "/budgets/user/"+testOtherID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_Ownership(t *testing.T) {
	t.Run("non-owner cannot read", func(t *testing.T) {
		svc := &mockBudgetService{
			getByIDFn: func(budgetID string) (*models.Budget, error) {
				return &models.Budget{Base: models.Base{ID: budgetID}, UserID: testOtherID}, nil
			},
		}
		handler := NewBudgetHandler(svc)
		r := setupBudgetRouter(handler, testUserID, models.RoleUser)

		rec := doRequest(r, "GET", "/budgets/"+testOtherID, "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin can read any", func(t *testing.T) {
		svc := &mockBudgetService{
			getByIDFn: func(budgetID string) (*models.Budget, error) {
				return &models.Budget{Base: models.Base{ID: budgetID}, UserID: testOtherID}, nil
			},
		}
		handler := NewBudgetHandler(svc)
		r := setupBudgetRouter(handler, testUserID, models.RoleAdmin)

		rec := doRequest(r, "GET", "/budgets/"+testOtherID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		svc := &mockBudgetService{
			getByIDFn: func(budgetID string) (*models.Budget, error) {
				return &models.Budget{Base: models.Base{ID: budgetID}, UserID: testOtherID}, nil
			},
		}
		handler := NewBudgetHandler(svc)
		r := setupBudgetRouter(handler, testUserID, models.RoleUser)

		rec := doRequest(r, "DELETE", "/budgets/"+testOtherID, "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_Summary(t *testing.T) {
	svc := &mockBudgetService{
		summaryFn: func(budgetID string) (*services.BudgetSummary, error) {
			return &services.BudgetSummary{
				BudgetID:          budgetID,
				Allocated:         decimal.RequireFromString("100.00"),
				StoredRemaining:   decimal.RequireFromString("70.00"),
				ComputedRemaining: decimal.RequireFromString("70.00"),
				InSync:            true,
			}, nil
		},
	}
	handler := NewBudgetHandler(svc)
	r := setupBudgetRouter(handler, testUserID, models.RoleUser)

	rec := doRequest(r, "GET", "/budgets/"+testOtherID+"/summary", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	summary := parseJSON(t, rec)["summary"].(map[string]interface{})
	if summary["in_sync"] != true {
		t.Errorf("expected in_sync true, got %v", summary["in_sync"])
	}
}

func TestBudgetHandler_Delete(t *testing.T) {
	handler := NewBudgetHandler(&mockBudgetService{})
	r := setupBudgetRouter(handler, testUserID, models.RoleUser)

	rec := doRequest(r, "DELETE", "/budgets/"+testOtherID, "")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
