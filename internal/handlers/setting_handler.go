package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/services"
)

// SettingHandler handles per-user settings requests
type SettingHandler struct {
	settingService services.SettingServicer
}

// NewSettingHandler creates a new SettingHandler
func NewSettingHandler(settingService services.SettingServicer) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// UpsertSettingRequest represents the setting value payload
type UpsertSettingRequest struct {
	Value string `json:"value" binding:"required,max=500"`
}

// GetSettings lists the authenticated user's settings
// @Summary     List settings
// @Description Get all of the authenticated user's settings
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Setting "Settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /settings [get]
func (h *SettingHandler) GetSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	settings, err := h.settingService.GetUserSettings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpsertSetting creates or overwrites a setting
// @Summary     Upsert setting
// @Description Create a setting or overwrite its value when the key already exists
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       key path string true "Setting key"
// @Param       request body UpsertSettingRequest true "Setting value"
// @Success     200 {object} models.Setting "Stored setting"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /settings/{key} [put]
func (h *SettingHandler) UpsertSetting(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	setting, err := h.settingService.UpsertSetting(userID, c.Param("key"), req.Value)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"setting": setting})
}

// DeleteSetting removes a setting
// @Summary     Delete setting
// @Description Delete one of the authenticated user's settings by key
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Param       key path string true "Setting key"
// @Success     204 "Setting deleted"
// @Failure     404 {object} ErrorResponse "Setting not found"
// @Router      /settings/{key} [delete]
func (h *SettingHandler) DeleteSetting(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.settingService.DeleteSetting(userID, c.Param("key")); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
