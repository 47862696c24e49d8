package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// categoryService handles category-related business logic. Categories are
// global: one namespace shared by every user, managed by privileged roles.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new active category
func (s *categoryService) CreateCategory(name string, categoryType models.CategoryType) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.ErrInvalidCategoryType
	}

	// Category names are unique across the whole system
	var count int64
	if err := s.db.Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategoryName
	}

	category := &models.Category{
		Name:   name,
		Type:   categoryType,
		Status: models.CategoryStatusActive,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetActiveCategories retrieves all active categories.
func (s *categoryService) GetActiveCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Where("status = ?", models.CategoryStatusActive).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetAllCategories retrieves a paginated list of all categories, active
// and inactive.
func (s *categoryService) GetAllCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoriesByType retrieves active categories of the given type.
func (s *categoryService) GetCategoriesByType(categoryType models.CategoryType) ([]models.Category, error) {
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.ErrInvalidCategoryType
	}

	var categories []models.Category
	if err := s.db.Where("type = ? AND status = ?", categoryType, models.CategoryStatusActive).
		Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category's name, type, or status.
func (s *categoryService) UpdateCategory(categoryID string, fields CategoryUpdateFields) (*models.Category, error) {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if fields.Name != nil && *fields.Name != "" {
		// Uniqueness re-checked, excluding the category itself
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("name = ? AND id <> ?", *fields.Name, categoryID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateCategoryName
		}
		updates["name"] = *fields.Name
	}

	if fields.Type != nil {
		if *fields.Type != models.CategoryTypeIncome && *fields.Type != models.CategoryTypeExpense {
			return nil, apperrors.ErrInvalidCategoryType
		}
		updates["type"] = *fields.Type
	}

	if fields.Status != nil {
		if *fields.Status != models.CategoryStatusActive && *fields.Status != models.CategoryStatusInactive {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be active or inactive")
		}
		updates["status"] = *fields.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeactivateCategory transitions a category to inactive. Deactivating an
// already-inactive category is rejected.
func (s *categoryService) DeactivateCategory(categoryID string) (*models.Category, error) {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return nil, err
	}

	if !category.Deactivate() {
		return nil, apperrors.ErrCategoryInactive
	}

	if err := s.db.Model(category).Update("status", category.Status).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}
