package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planfill/planfill-server/internal/plans"
	"github.com/planfill/planfill-server/pkg/logger"
)

// PlansHandler serves the plan catalogue and the per-plan automation scripts.
type PlansHandler struct {
	repo    plans.Repository
	version string
}

func NewPlansHandler(repo plans.Repository, version string) *PlansHandler {
	return &PlansHandler{repo: repo, version: version}
}

// Register routes; the group is expected to carry the auth middleware.
func (h *PlansHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/plans", h.ListPlans)
	rg.GET("/scripts/:planId", h.GetScripts)
	rg.GET("/about", h.About)
}

// ListPlans returns the catalogue of supported portals
func (h *PlansHandler) ListPlans(c *gin.Context) {
	list, err := h.repo.ListPlans(c.Request.Context())
	if err != nil {
		logger.Errorf("plan listing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load plans"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": list})
}

// GetScripts returns the automation script bundle for one plan,
// keyed by script group.
func (h *PlansHandler) GetScripts(c *gin.Context) {
	planID := c.Param("planId")
	scripts, err := h.repo.GetScripts(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, plans.ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		logger.Errorf("script load failed for plan %s: %v", planID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load scripts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": scripts})
}

// About reports the running service version
func (h *PlansHandler) About(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": "planfill-server", "version": h.version})
}
