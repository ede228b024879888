package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zubairashfaque/FuturNod-Agents/internal/middleware"
	"github.com/zubairashfaque/FuturNod-Agents/internal/services"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

const maxWait = 60 * time.Second

// Sessions hands out the Façade of a user.
type Sessions interface {
	For(userID string) *services.Facade
}

func facadeFor(c *gin.Context, s Sessions) *services.Facade {
	return s.For(middleware.UserID(c))
}

func writeSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnhealthy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		middleware.Logger(c).Error("submit failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func writeSearch(c *gin.Context, sr domain.SearchResult) {
	status := http.StatusOK
	if !sr.Terminal() {
		status = http.StatusAccepted
	}
	c.JSON(status, sr)
}

// parseWait accepts a Go duration ("30s") or plain seconds ("30").
func parseWait(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		n, aerr := strconv.Atoi(v)
		if aerr != nil {
			return 0, err
		}
		d = time.Duration(n) * time.Second
	}
	if d < 0 {
		return 0, errors.New("negative wait")
	}
	if d > maxWait {
		d = maxWait
	}
	return d, nil
}

func parseLimit(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	if n > 500 {
		return 500
	}
	return n
}
