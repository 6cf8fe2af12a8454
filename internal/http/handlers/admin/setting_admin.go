package admin

import (
	"errors"

	"github.com/fulfil-next/internal/http/response"
	"github.com/fulfil-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetSiteSettings 站点信息
func (h *Handler) GetSiteSettings(c *gin.Context) {
	settings, err := h.SettingService.GetSiteSettings()
	if err != nil {
		respondError(c, response.CodeInternal, "error.settings_fetch_failed", err)
		return
	}
	response.Success(c, settings)
}

// UpdateSiteSettings 局部更新站点信息
func (h *Handler) UpdateSiteSettings(c *gin.Context) {
	var patch service.SiteSettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	settings, err := h.SettingService.UpdateSiteSettings(patch)
	if err != nil {
		if errors.Is(err, service.ErrSiteConfigInvalid) {
			respondError(c, response.CodeBadRequest, "error.settings_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.settings_save_failed", err)
		return
	}
	requestLog(c).Infow("admin_site_settings_updated", "operator", c.GetString("operator"))
	response.Success(c, settings)
}
