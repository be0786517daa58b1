package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fschubi/shutterpilot/internal/models"
	"github.com/fschubi/shutterpilot/internal/services"
)

type SessionHandler struct {
	editService *services.EditService
	viewService *services.ViewService
}

func NewSessionHandler(editService *services.EditService, viewService *services.ViewService) *SessionHandler {
	return &SessionHandler{
		editService: editService,
		viewService: viewService,
	}
}

// OpenSession godoc
// @Summary Open an edit session
// @Description Opens an edit dialog for an existing profile/area or, with target_key "new", a fresh one. An already open session is replaced and its draft discarded.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.OpenSessionRequest true "Edit target"
// @Success 200 {object} models.EditSession
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/session [post]
func (h *SessionHandler) OpenSession(c *gin.Context) {
	var req models.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	session, err := h.editService.Open(&req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSession godoc
// @Summary Get the active edit session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.EditSession
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/session [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	session := h.editService.Session()
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrNoActiveSession.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

// SetTab godoc
// @Summary Switch the active form tab
// @Description Merges the submitted values of the tab being left into the draft, then switches. Unchecked booleans become explicit false.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SetTabRequest true "Target tab and the leaving tab's field values"
// @Success 200 {object} models.EditSession
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/session/tab [put]
func (h *SessionHandler) SetTab(c *gin.Context) {
	var req models.SetTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	session, err := h.editService.SetActiveTab(&req)
	if err != nil {
		if errors.Is(err, models.ErrNoActiveSession) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, session)
}

// CommitSession godoc
// @Summary Commit the edit session
// @Description Validates the draft and saves the whole configuration. On validation or save failure the session stays open for retry.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CommitSessionRequest true "Final field values of the active tab"
// @Success 200 {object} models.ConfigSnapshot
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/session/commit [post]
func (h *SessionHandler) CommitSession(c *gin.Context) {
	var req models.CommitSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	snap, err := h.editService.Commit(context.Background(), &req)
	if err != nil {
		var validation *models.ValidationError
		var saveFailed *models.SaveFailedError
		switch {
		case errors.Is(err, models.ErrNoActiveSession):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrSaveInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.As(err, &validation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "fields": validation.Fields})
		case errors.As(err, &saveFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, snap)
}

// CancelSession godoc
// @Summary Cancel the edit session
// @Description Discards the draft unconditionally. No backend interaction.
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/session [delete]
func (h *SessionHandler) CancelSession(c *gin.Context) {
	h.editService.Cancel()
	c.JSON(http.StatusOK, gin.H{"message": "Session cancelled"})
}

// GetView godoc
// @Summary Get the current view state
// @Tags view
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.ViewState
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/view [get]
func (h *SessionHandler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, h.viewService.State())
}

// SetViewTab godoc
// @Summary Switch the main view tab
// @Tags view
// @Produce json
// @Security BearerAuth
// @Param tab path string true "Tab name (profiles, areas, settings)"
// @Success 200 {object} services.ViewState
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/view/tab/{tab} [put]
func (h *SessionHandler) SetViewTab(c *gin.Context) {
	state, err := h.viewService.SetActiveTab(c.Param("tab"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// SelectTarget godoc
// @Summary Select a profile or area
// @Tags view
// @Produce json
// @Security BearerAuth
// @Param kind path string true "Selection kind (profile, area)"
// @Param key path string true "Profile name or area key"
// @Success 200 {object} services.ViewState
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/view/select/{kind}/{key} [put]
func (h *SessionHandler) SelectTarget(c *gin.Context) {
	state, err := h.viewService.Select(c.Param("kind"), c.Param("key"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// ClearSelection godoc
// @Summary Clear the current selection
// @Tags view
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.ViewState
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/view/select [delete]
func (h *SessionHandler) ClearSelection(c *gin.Context) {
	c.JSON(http.StatusOK, h.viewService.ClearSelection())
}
