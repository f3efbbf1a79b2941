package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/services"
)

func (h *GameHandler) StartPvp(c *gin.Context) {
	creator, ok := requireCaller(c)
	if !ok {
		return
	}

	var req models.StartPvpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.gameEngine.StartPvp(c.Request.Context(), creator, *req.Nonce, req.Wager, req.VsRobot)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) ConvertToRobot(c *gin.Context) {
	who, ok := requireCaller(c)
	if !ok {
		return
	}

	var req models.PvpKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.gameEngine.ConvertToRobot(c.Request.Context(), who, req.Creator, *req.Nonce)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) JoinPvp(c *gin.Context) {
	joiner, ok := requireCaller(c)
	if !ok {
		return
	}

	var req models.PvpKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.gameEngine.JoinPvp(c.Request.Context(), joiner, req.Creator, *req.Nonce)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) ResolvePvp(c *gin.Context) {
	who, ok := requireCaller(c)
	if !ok {
		return
	}

	var req models.ResolvePvpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.gameEngine.ResolvePvp(c.Request.Context(), who, services.ResolvePvpParams{
		Creator:        req.Creator,
		Nonce:          *req.Nonce,
		WinnerSide:     models.WinnerSide(*req.WinnerSide),
		CreatorAccount: req.CreatorAccount,
		JoinerAccount:  req.JoinerAccount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"result":    result,
		"robot_won": result.Payee == nil,
	})
}

func (h *GameHandler) GetPvp(c *gin.Context) {
	creator, nonce, err := gameKeyParams(c, "creator")
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.gameEngine.GetPvp(c.Request.Context(), creator, nonce)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
