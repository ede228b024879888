package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

type createAgentSearchController struct{ sessions Sessions }

func NewCreateAgentSearchController(s Sessions) *createAgentSearchController {
	return &createAgentSearchController{sessions: s}
}

func (h *createAgentSearchController) Handle(c *gin.Context) {
	agent := domain.Agent(c.Param("agent"))
	if !agent.Known() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown agent", "agents": domain.KnownAgents()})
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	params, err := domain.DecodeParams(agent, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sr, err := facadeFor(c, h.sessions).SubmitStructured(c.Request.Context(), agent, params)
	if err != nil {
		writeSubmitError(c, err)
		return
	}
	writeSearch(c, sr)
}
