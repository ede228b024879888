package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zubairashfaque/FuturNod-Agents/internal/middleware"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

type listHistoryController struct {
	sessions Sessions
	limit    int
}

func NewListHistoryController(s Sessions, defaultLimit int) *listHistoryController {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &listHistoryController{sessions: s, limit: defaultLimit}
}

func (h *listHistoryController) Handle(c *gin.Context) {
	recs, err := facadeFor(c, h.sessions).PersistedHistory(c.Request.Context(), parseLimit(c.Query("limit"), h.limit))
	if err != nil {
		middleware.Logger(c).Error("list history failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": recs})
}

type loadHistoryController struct{ sessions Sessions }

func NewLoadHistoryController(s Sessions) *loadHistoryController {
	return &loadHistoryController{sessions: s}
}

// Handle makes a history item the current result.
func (h *loadHistoryController) Handle(c *gin.Context) {
	sr, err := facadeFor(c, h.sessions).LoadHistoryItem(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		middleware.Logger(c).Error("load history failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, sr)
}
