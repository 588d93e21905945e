package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/auth"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver/responses"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// UpdateProfileController sets the caller's display name and photo.
type UpdateProfileController struct {
	UC      *usecase.UpdateProfileUseCase
	Timeout time.Duration
}

func NewUpdateProfileController(uc *usecase.UpdateProfileUseCase, timeout time.Duration) *UpdateProfileController {
	return &UpdateProfileController{UC: uc, Timeout: timeout}
}

type updateProfileRequest struct {
	Name     string `json:"name" binding:"required"`
	PhotoURL string `json:"photoUrl"`
}

func (h *UpdateProfileController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.WriteValidationError(c, "name is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
		defer cancel()

		u, err := h.UC.Execute(ctx, usecase.UpdateProfileInput{
			UserID:   auth.UserID(c),
			Name:     req.Name,
			PhotoURL: req.PhotoURL,
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}
