package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Jaykim98z/jandibat-live-draft/internal/profile"
)

// ProfileHandler proxies the external station API so the client can resolve
// and validate a handle before creating or joining a room.
type ProfileHandler struct {
	client *profile.Client
}

func NewProfileHandler(client *profile.Client) *ProfileHandler {
	return &ProfileHandler{client: client}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	handle := strings.TrimSpace(c.Param("handle"))
	if handle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle is required"})
		return
	}
	p, err := h.client.Load(c, handle)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (h *ProfileHandler) Validate(c *gin.Context) {
	handle := strings.TrimSpace(c.Param("handle"))
	if handle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle is required"})
		return
	}
	ok, p := h.client.Validate(c, handle)
	c.JSON(http.StatusOK, gin.H{"isValid": ok, "profile": p})
}
