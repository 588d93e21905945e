package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/auth"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// GetParticipantController returns the caller's counterpart in a conversation.
type GetParticipantController struct {
	UC      *usecase.GetParticipantUseCase
	Timeout time.Duration
}

func NewGetParticipantController(uc *usecase.GetParticipantUseCase, timeout time.Duration) *GetParticipantController {
	return &GetParticipantController{UC: uc, Timeout: timeout}
}

func (h *GetParticipantController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
		defer cancel()

		p, err := h.UC.Execute(ctx, usecase.GetParticipantInput{
			ConversationID: c.Param("conversationId"),
			UserID:         auth.UserID(c),
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
