package v1

import (
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/auth"
	httpHandler "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/presentation/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, validator *auth.Validator, deps httpHandler.Dependencies) {
	v1 := r.Group("/api/v1", validator.Middleware())
	httpHandler.RegisterRoutes(v1, deps)
}
