package handlers

import (
	"crypto/ed25519"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/services"
)

// LoginSkew bounds how far a login timestamp may drift from server time.
const LoginSkew = 5 * time.Minute

type AuthHandler struct {
	jwtService *services.JWTService
	now        func() time.Time
}

func NewAuthHandler(jwtService *services.JWTService) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		now:        time.Now,
	}
}

// IssueToken exchanges a signed login message for a session token. The
// address is an ed25519 public key; the signature covers LoginMessage.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	signedAt := time.Unix(req.Timestamp, 0)
	if d := h.now().Sub(signedAt); d > LoginSkew || d < -LoginSkew {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login message expired"})
		return
	}

	sig, err := hex.DecodeString(req.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}
	msg := []byte(models.LoginMessage(req.Address, req.Timestamp))
	if !ed25519.Verify(ed25519.PublicKey(req.Address[:]), msg, sig) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	token, claims, err := h.jwtService.GenerateToken(req.Address)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"address":    req.Address,
		"session_id": claims.SessionID,
		"expires_at": claims.ExpiresAt.Time,
	})
}
