package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/recorder"
)

func (h *GameHandler) GetTreasury(c *gin.Context) {
	balance, err := h.gameEngine.TreasuryBalance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"treasury": models.BalanceResponse{Address: h.gameEngine.Treasury(), Balance: balance},
		"coins":    models.FormatAmount(balance),
	})
}

// GetBalance returns the caller's wallet balance.
func (h *GameHandler) GetBalance(c *gin.Context) {
	who, ok := requireCaller(c)
	if !ok {
		return
	}

	balance, err := h.gameEngine.Balance(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet": models.BalanceResponse{Address: who, Balance: balance},
		"coins":  models.FormatAmount(balance),
	})
}

// GetHistory lists recent settlements for ?address=, defaulting to the caller.
func (h *GameHandler) GetHistory(c *gin.Context) {
	who, ok := requireCaller(c)
	if !ok {
		return
	}
	if q := c.Query("address"); q != "" {
		addr, err := models.ParseAddress(q)
		if err != nil {
			badRequest(c, err)
			return
		}
		who = addr
	}

	limit := recorder.DefaultHistoryLimit
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			badRequest(c, err)
			return
		}
		limit = n
	}

	events, err := h.gameEngine.History(who, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get history",
			"details": err.Error(),
		})
		return
	}
	if events == nil {
		events = []*models.SettlementEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"address": who,
		"events":  events,
		"count":   len(events),
	})
}

// GetStats totals wagers and payouts for ?address=, defaulting to the caller.
func (h *GameHandler) GetStats(c *gin.Context) {
	who, ok := requireCaller(c)
	if !ok {
		return
	}
	if q := c.Query("address"); q != "" {
		addr, err := models.ParseAddress(q)
		if err != nil {
			badRequest(c, err)
			return
		}
		who = addr
	}

	stats, err := h.gameEngine.Stats(who)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get stats",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":         stats,
		"wagered_coins": models.FormatAmount(stats.TotalWagered),
		"paid_coins":    models.FormatAmount(stats.TotalPaidOut),
	})
}

// Fund credits an account from the faucet. Only routed outside production.
func (h *GameHandler) Fund(c *gin.Context) {
	var req models.FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.gameEngine.FundAccount(c.Request.Context(), req.Address, req.Amount); err != nil {
		respondError(c, err)
		return
	}

	balance, err := h.gameEngine.Balance(c.Request.Context(), req.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"wallet":  models.BalanceResponse{Address: req.Address, Balance: balance},
	})
}
