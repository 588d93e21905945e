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

// FindOrCreateConversationController handles the conversation open endpoint
// One controller per endpoint
type FindOrCreateConversationController struct {
	UC      *usecase.FindOrCreateConversationUseCase
	Timeout time.Duration
}

func NewFindOrCreateConversationController(uc *usecase.FindOrCreateConversationUseCase, timeout time.Duration) *FindOrCreateConversationController {
	return &FindOrCreateConversationController{UC: uc, Timeout: timeout}
}

type findOrCreateConversationRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

// Handle returns 201 when the conversation was opened by this call, 200 otherwise.
func (h *FindOrCreateConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req findOrCreateConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.WriteValidationError(c, "participantId is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
		defer cancel()

		conv, created, err := h.UC.Execute(ctx, usecase.FindOrCreateConversationInput{
			UserID:        auth.UserID(c),
			ParticipantID: req.ParticipantID,
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, conv)
	}
}
