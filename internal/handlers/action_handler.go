package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fschubi/shutterpilot/internal/models"
	"github.com/fschubi/shutterpilot/internal/services"
)

type ActionHandler struct {
	dispatcher *services.DispatcherService
}

func NewActionHandler(dispatcher *services.DispatcherService) *ActionHandler {
	return &ActionHandler{
		dispatcher: dispatcher,
	}
}

// InvokeAction godoc
// @Summary Invoke a global action
// @Description Fires one of the backend actions: all_up, all_down, stop, recalculate_now. No automatic retry.
// @Tags actions
// @Produce json
// @Security BearerAuth
// @Param name path string true "Action name"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/actions/{name} [post]
func (h *ActionHandler) InvokeAction(c *gin.Context) {
	name := c.Param("name")
	if err := h.dispatcher.Invoke(context.Background(), name); err != nil {
		h.actionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Action dispatched", "action": name})
}

// SetAutomation godoc
// @Summary Enable or disable the global automation
// @Tags actions
// @Produce json
// @Security BearerAuth
// @Param state path string true "Target state (on, off)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/automation/{state} [put]
func (h *ActionHandler) SetAutomation(c *gin.Context) {
	on, ok := parseOnOff(c.Param("state"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be on or off"})
		return
	}

	if err := h.dispatcher.SetGlobalAutomation(context.Background(), on); err != nil {
		h.actionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Automation toggled", "on": on})
}

// SetProfileEnabled godoc
// @Summary Enable or disable one profile
// @Description Toggles the profile's enable switch; a follow-up configuration load is scheduled after a short settle delay.
// @Tags actions
// @Produce json
// @Security BearerAuth
// @Param name path string true "Profile name"
// @Param state path string true "Target state (on, off)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/profiles/{name}/enabled/{state} [put]
func (h *ActionHandler) SetProfileEnabled(c *gin.Context) {
	on, ok := parseOnOff(c.Param("state"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be on or off"})
		return
	}

	if err := h.dispatcher.SetProfileEnabled(context.Background(), c.Param("name"), on); err != nil {
		h.actionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile toggled", "profile": c.Param("name"), "on": on})
}

func (h *ActionHandler) actionError(c *gin.Context, err error) {
	var actionFailed *models.ActionFailedError
	if errors.As(err, &actionFailed) {
		c.JSON(http.StatusBadGateway, gin.H{"error": actionFailed.Error(), "action": actionFailed.Action})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func parseOnOff(s string) (bool, bool) {
	switch s {
	case "on":
		return true, true
	case "off":
		return false, true
	}
	return false, false
}
