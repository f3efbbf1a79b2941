package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pomo1231/solbombs2/internal/middleware"
	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/services"
)

var statusByKind = map[string]int{
	"WagerTooSmall":               http.StatusBadRequest,
	"InvalidBombCount":            http.StatusBadRequest,
	"InvalidWinner":               http.StatusBadRequest,
	"BadAuthority":                http.StatusForbidden,
	"GameNotFound":                http.StatusNotFound,
	"AlreadyResolved":             http.StatusConflict,
	"GameExists":                  http.StatusConflict,
	"AlreadyHasJoiner":            http.StatusConflict,
	"HumanJoinNotAllowedForRobot": http.StatusConflict,
	"TooManySafeRevealed":         http.StatusUnprocessableEntity,
	"NoSafeRevealed":              http.StatusUnprocessableEntity,
	"InsufficientTreasury":        http.StatusUnprocessableEntity,
	"InsufficientFunds":           http.StatusUnprocessableEntity,
	"MathOverflow":                http.StatusUnprocessableEntity,
}

// respondError writes a settlement failure as {"error": kind, "details": msg}.
func respondError(c *gin.Context, err error) {
	kind := services.ErrorKind(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
		kind = "Internal"
		if errors.Is(err, services.ErrTxConflict) {
			status = http.StatusServiceUnavailable
			kind = "Busy"
		}
		log.Error().Err(err).Str("path", c.FullPath()).Msg("settlement failed")
	}

	c.JSON(status, gin.H{
		"error":   kind,
		"details": err.Error(),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"details": err.Error(),
	})
}

// caller returns the identity AuthMiddleware attested for this request.
func caller(c *gin.Context) (models.Address, bool) {
	v, ok := c.Get(middleware.CallerKey)
	if !ok {
		return models.ZeroAddress, false
	}
	addr, ok := v.(models.Address)
	return addr, ok
}

func requireCaller(c *gin.Context) (models.Address, bool) {
	addr, ok := caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return addr, ok
}
