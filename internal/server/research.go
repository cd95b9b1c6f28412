package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// ResearchHandler starts research runs and reports the ones in flight.
type ResearchHandler struct {
	Researcher Researcher
	Timeout    time.Duration
	Logger     *log.Logger
}

type researchRequest struct {
	Query string `json:"query"`
}

func (h *ResearchHandler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("/active", h.active)
}

// create runs a research session synchronously and returns its result.
func (h *ResearchHandler) create(c echo.Context) error {
	var req researchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	ctx := c.Request().Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	res, err := h.Researcher.Research(ctx, req.Query)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Printf("research %q failed: %v", req.Query, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return echo.NewHTTPError(http.StatusGatewayTimeout, "research timed out")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "research failed")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ResearchHandler) active(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"runs": h.Researcher.Active()})
}
