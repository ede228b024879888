package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type getStateController struct{ sessions Sessions }

func NewGetStateController(s Sessions) *getStateController {
	return &getStateController{sessions: s}
}

func (h *getStateController) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, facadeFor(c, h.sessions).State())
}
