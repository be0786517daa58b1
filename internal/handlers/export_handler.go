package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fschubi/shutterpilot/internal/services"
	"github.com/fschubi/shutterpilot/internal/services/excel"
)

type ExportHandler struct {
	syncService   *services.SyncService
	exportService *excel.Service
}

func NewExportHandler(syncService *services.SyncService, exportService *excel.Service) *ExportHandler {
	return &ExportHandler{
		syncService:   syncService,
		exportService: exportService,
	}
}

// ExportConfig godoc
// @Summary Export the configuration to Excel
// @Description Writes the current snapshot to an xlsx workbook and returns it as a download
// @Tags config
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 "xlsx file"
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/config/export [get]
func (h *ExportHandler) ExportConfig(c *gin.Context) {
	result, err := h.exportService.ExportSnapshot(h.syncService.Snapshot())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export configuration", "details": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.File(result.Path)
}
