package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/services"
)

type GameHandler struct {
	gameEngine *services.GameEngine
}

func NewGameHandler(gameEngine *services.GameEngine) *GameHandler {
	return &GameHandler{gameEngine: gameEngine}
}

func (h *GameHandler) StartSolo(c *gin.Context) {
	owner, ok := requireCaller(c)
	if !ok {
		return
	}

	var req models.StartSoloRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.gameEngine.StartSolo(c.Request.Context(), owner, *req.Nonce, req.Wager, req.Bombs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) RevealSafe(c *gin.Context) {
	h.settleSolo(c, h.gameEngine.RevealSafe)
}

func (h *GameHandler) CashOut(c *gin.Context) {
	h.settleSolo(c, h.gameEngine.CashOut)
}

func (h *GameHandler) ResolveLoss(c *gin.Context) {
	h.settleSolo(c, h.gameEngine.ResolveLoss)
}

type soloOp func(ctx context.Context, caller, owner models.Address, nonce uint8) (*models.SoloResult, error)

func (h *GameHandler) settleSolo(c *gin.Context, op soloOp) {
	who, ok := requireCaller(c)
	if !ok {
		return
	}

	var req models.SoloKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := op(c.Request.Context(), who, req.Owner, *req.Nonce)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"result":     result,
		"multiplier": models.FormatMultiplier(result.MultiplierBps),
	})
}

func (h *GameHandler) GetSolo(c *gin.Context) {
	owner, nonce, err := gameKeyParams(c, "owner")
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.gameEngine.GetSolo(c.Request.Context(), owner, nonce)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":     result,
		"multiplier": models.FormatMultiplier(result.MultiplierBps),
	})
}

// gameKeyParams reads the /:<identity>/:nonce path pair that keys a game.
func gameKeyParams(c *gin.Context, identity string) (models.Address, uint8, error) {
	addr, err := models.ParseAddress(c.Param(identity))
	if err != nil {
		return models.ZeroAddress, 0, fmt.Errorf("%s: %w", identity, err)
	}
	nonce, err := strconv.ParseUint(c.Param("nonce"), 10, 8)
	if err != nil {
		return models.ZeroAddress, 0, fmt.Errorf("nonce: %w", err)
	}
	return addr, uint8(nonce), nil
}
