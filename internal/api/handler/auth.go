package handler

import (
	"net/http"
	"time"

	"github.com/Basit2121/OneSuite/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// generateGuestJWT signs a token carrying the guest identity.
func (h *Handler) generateGuestJWT(guestID string) (string, error) {
	claims := jwt.MapClaims{
		"guest_id": guestID,
		"exp":      time.Now().Add(time.Hour * 72).Unix(),
		"iss":      "onesuite-meetings",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

// GuestToken handles GET /guest-token. A display name yields the synthetic
// guest identity the signaling protocol expects; without one a random UUID
// identity is issued. Identity is otherwise handled by the external auth
// service, so this is the only identity endpoint the core carries.
func (h *Handler) GuestToken(c *gin.Context) {
	var guestID string
	if name := c.Query("name"); name != "" {
		guestID = models.GuestIdentity(name).String()
	} else {
		guestID = uuid.New().String()
	}

	token, err := h.generateGuestJWT(guestID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "guest_id": guestID})
}
