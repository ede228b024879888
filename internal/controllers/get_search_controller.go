package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

type getSearchController struct{ sessions Sessions }

func NewGetSearchController(s Sessions) *getSearchController {
	return &getSearchController{sessions: s}
}

// Handle returns one search. With ?wait=<duration> it long-polls until the
// search is terminal or the wait elapses.
func (h *getSearchController) Handle(c *gin.Context) {
	wait, err := parseWait(c.Query("wait"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'wait'"})
		return
	}
	f := facadeFor(c, h.sessions)
	id := c.Param("id")
	sr, ok := f.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrNotFound.Error()})
		return
	}
	if wait > 0 && !sr.Terminal() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
		defer cancel()
		sr, err = f.Wait(ctx, id)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
	}
	writeSearch(c, sr)
}
