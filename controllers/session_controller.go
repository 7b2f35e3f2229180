package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sannylab/minifeed/identity"
	"github.com/sannylab/minifeed/utils"
)

const sessionDuration = 24 * time.Hour

// SessionController issues session tokens for asserted display names. There
// is no credential check: the name is taken at face value, exactly as the
// trust model demands.
type SessionController struct {
	resolver *identity.Resolver
}

// NewSessionController creates a SessionController over the given resolver.
func NewSessionController(resolver *identity.Resolver) *SessionController {
	return &SessionController{resolver: resolver}
}

// Open starts a session for the supplied display name.
func (s *SessionController) Open(ctx *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	name := strings.TrimSpace(utils.SanitizeName(req.Name))
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, "name cannot be empty")
		return
	}
	if len(name) > 64 {
		utils.Error(ctx, http.StatusBadRequest, 40012, "name too long")
		return
	}

	role := s.resolver.Resolve(name)
	token, err := utils.GenerateToken(name, string(role), sessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to issue session token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"name":  name,
		"role":  role,
	})
}
