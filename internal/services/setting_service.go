package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// settingService handles per-user key/value settings.
type settingService struct {
	db *gorm.DB
}

// NewSettingService creates a new SettingServicer.
func NewSettingService(db *gorm.DB) SettingServicer {
	return &settingService{db: db}
}

// UpsertSetting creates a setting or overwrites its value when the key
// already exists for the user.
func (s *settingService) UpsertSetting(userID, key, value string) (*models.Setting, error) {
	if key == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "setting key is required")
	}

	var setting models.Setting
	err := s.db.Where("user_id = ? AND key = ?", userID, key).First(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		setting = models.Setting{UserID: userID, Key: key, Value: value}
		if err := s.db.Create(&setting).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &setting, nil
	}

	if setting.Value != value {
		if err := s.db.Model(&setting).Update("value", value).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		setting.Value = value
	}

	return &setting, nil
}

// GetUserSettings returns all of a user's settings ordered by key.
func (s *settingService) GetUserSettings(userID string) ([]models.Setting, error) {
	var settings []models.Setting
	if err := s.db.Where("user_id = ?", userID).Order("key ASC").Find(&settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return settings, nil
}

// DeleteSetting removes one of the user's settings by key.
func (s *settingService) DeleteSetting(userID, key string) error {
	var setting models.Setting
	err := s.db.Where("user_id = ? AND key = ?", userID, key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrSettingNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Delete(&setting).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
