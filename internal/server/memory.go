package server

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/memory/semantic"
)

const maxTopK = 50

// MemoryHandler exposes semantic memory search.
type MemoryHandler struct {
	memory MemoryReader
	topK   int
	logger *log.Logger
}

func NewMemoryHandler(cfg *config.Config, memory MemoryReader, logger *log.Logger) *MemoryHandler {
	topK := 5
	if cfg != nil && cfg.Memory.SearchTopK > 0 {
		topK = cfg.Memory.SearchTopK
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[MEMORY] ", log.LstdFlags)
	}
	return &MemoryHandler{memory: memory, topK: topK, logger: logger}
}

func (h *MemoryHandler) Register(g *echo.Group) {
	g.GET("/search", h.search)
}

type memorySearchResponse struct {
	Query   string            `json:"query"`
	Mode    string            `json:"mode"`
	TopK    int               `json:"top_k"`
	Results []semantic.Record `json:"results"`
}

// search handles GET /api/memory/search?q=&k=&mode=vector|keyword|hybrid
func (h *MemoryHandler) search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	topK := h.topK
	if raw := c.QueryParam("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be a positive integer")
		}
		topK = n
	}
	if topK > maxTopK {
		topK = maxTopK
	}
	mode := strings.ToLower(strings.TrimSpace(c.QueryParam("mode")))
	if mode == "" {
		mode = semantic.ModeVector
	}
	switch mode {
	case semantic.ModeVector, semantic.ModeKeyword, semantic.ModeHybrid:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be vector, keyword or hybrid")
	}

	results, err := h.memory.Find(q, topK, mode)
	if err != nil {
		h.logger.Printf("memory search failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "memory search failed")
	}
	if results == nil {
		results = []semantic.Record{}
	}
	return c.JSON(http.StatusOK, memorySearchResponse{Query: q, Mode: mode, TopK: topK, Results: results})
}
