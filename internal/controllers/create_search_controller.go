package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createSearchController struct{ sessions Sessions }

func NewCreateSearchController(s Sessions) *createSearchController {
	return &createSearchController{sessions: s}
}

// createSearchReq is the free-form form. Company doubles as the agent
// discriminator, product may carry a JSON payload for specialist agents.
type createSearchReq struct {
	Company string `json:"company"`
	Product string `json:"product"`
}

func (h *createSearchController) Handle(c *gin.Context) {
	var req createSearchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sr, err := facadeFor(c, h.sessions).Submit(c.Request.Context(), req.Company, req.Product)
	if err != nil {
		writeSubmitError(c, err)
		return
	}
	writeSearch(c, sr)
}
