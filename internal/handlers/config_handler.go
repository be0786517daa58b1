package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fschubi/shutterpilot/internal/database/repository"
	"github.com/fschubi/shutterpilot/internal/models"
	"github.com/fschubi/shutterpilot/internal/services"
)

type ConfigHandler struct {
	syncService *services.SyncService
	versionRepo repository.SnapshotVersionRepository
}

func NewConfigHandler(syncService *services.SyncService, versionRepo repository.SnapshotVersionRepository) *ConfigHandler {
	return &ConfigHandler{
		syncService: syncService,
		versionRepo: versionRepo,
	}
}

// GetConfig godoc
// @Summary Get the current configuration snapshot
// @Description Returns the last good configuration snapshot with derived per-profile state
// @Tags config
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ConfigSnapshot
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/config [get]
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncService.Snapshot())
}

// RefreshConfig godoc
// @Summary Reload the configuration from the backend
// @Description Triggers a load; a load already in flight is coalesced and the last snapshot is returned
// @Tags config
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ConfigSnapshot
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/config/refresh [post]
func (h *ConfigHandler) RefreshConfig(c *gin.Context) {
	snap, err := h.syncService.Load(context.Background())
	if err != nil {
		var unavailable *models.BackendUnavailableError
		var malformed *models.MalformedConfigError
		switch {
		case errors.As(err, &unavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "snapshot": snap})
		case errors.As(err, &malformed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "snapshot": snap})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload configuration", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ListVersions godoc
// @Summary List archived configuration snapshots
// @Description Returns the most recent archived snapshot versions, newest first
// @Tags config
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of versions (default: 50)"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/config/versions [get]
func (h *ConfigHandler) ListVersions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	versions, err := h.versionRepo.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list versions", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions, "count": len(versions)})
}

// GetVersion godoc
// @Summary Get one archived configuration snapshot
// @Tags config
// @Produce json
// @Security BearerAuth
// @Param id path string true "Version ID"
// @Success 200 {object} models.SnapshotVersion
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/config/versions/{id} [get]
func (h *ConfigHandler) GetVersion(c *gin.Context) {
	version, err := h.versionRepo.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
		return
	}

	c.JSON(http.StatusOK, version)
}
