package controllers

import (
	"io"

	"github.com/gin-gonic/gin"
)

type streamStateController struct{ sessions Sessions }

func NewStreamStateController(s Sessions) *streamStateController {
	return &streamStateController{sessions: s}
}

// Handle streams state snapshots as server-sent "state" events until the
// client disconnects.
func (h *streamStateController) Handle(c *gin.Context) {
	states, cancel := facadeFor(c, h.sessions).Subscribe()
	defer cancel()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case st, ok := <-states:
			if !ok {
				return false
			}
			c.SSEvent("state", st)
			return true
		}
	})
}
