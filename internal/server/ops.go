package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/memory/episodic"
	"github.com/mohammad-safakhou/researcher/internal/memory/semantic"
)

// OpsHandler serves system statistics and the configuration status.
type OpsHandler struct {
	Config   *config.Config
	Sessions SessionReader
	Memory   MemoryReader
	Reports  ReportLister
}

// StatsResponse combines both memories' statistics
type StatsResponse struct {
	KnowledgeGraph episodic.Stats `json:"knowledge_graph"`
	VectorMemory   semantic.Stats `json:"vector_memory"`
}

func (h *OpsHandler) Register(g *echo.Group) {
	g.GET("/stats", h.stats)
	g.GET("/config/status", h.configStatus)
	g.GET("/reports", h.reports)
}

func (h *OpsHandler) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, StatsResponse{
		KnowledgeGraph: h.Sessions.AgentStats(),
		VectorMemory:   h.Memory.Stats(c.Request().Context()),
	})
}

func (h *OpsHandler) configStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Config.Status())
}

func (h *OpsHandler) reports(c echo.Context) error {
	if h.Reports == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"reports": []string{}})
	}
	names, err := h.Reports.List()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing reports failed")
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"reports": names})
}
