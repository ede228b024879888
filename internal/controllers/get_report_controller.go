package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

type getReportController struct{ sessions Sessions }

func NewGetReportController(s Sessions) *getReportController {
	return &getReportController{sessions: s}
}

// Handle serves the file_output of a successful search as markdown.
func (h *getReportController) Handle(c *gin.Context) {
	sr, ok := facadeFor(c, h.sessions).Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrNotFound.Error()})
		return
	}
	if sr.Status != domain.StatusSuccess || sr.Result == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "search has no report", "status": sr.Status})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+sr.ID+`.md"`)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(sr.Result.FileOutput))
}
