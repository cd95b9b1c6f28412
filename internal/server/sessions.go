package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/researcher/internal/memory/episodic"
)

// SessionsHandler exposes the episodic session log.
type SessionsHandler struct {
	Sessions SessionReader
}

type sessionSummary struct {
	ID          string `json:"id"`
	Query       string `json:"query"`
	Status      string `json:"status"`
	Started     string `json:"started"`
	Ended       string `json:"ended,omitempty"`
	ActionCount int    `json:"action_count"`
}

func (h *SessionsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

// list returns sessions newest first; ?limit=N caps the list.
func (h *SessionsHandler) list(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}
	all := h.Sessions.Sessions()
	out := make([]sessionSummary, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, summarizeSession(all[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": out})
}

func (h *SessionsHandler) get(c echo.Context) error {
	sess, ok := h.Sessions.SessionHistory(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, sess)
}

func summarizeSession(s episodic.Session) sessionSummary {
	out := sessionSummary{
		ID:          s.ID,
		Query:       s.Query,
		Status:      s.Status,
		Started:     s.Started.Format("2006-01-02T15:04:05Z07:00"),
		ActionCount: len(s.Actions),
	}
	if s.Ended != nil {
		out.Ended = s.Ended.Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}
