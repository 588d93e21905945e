package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/auth"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

type GetConversationController struct {
	UC      *usecase.GetConversationUseCase
	Timeout time.Duration
}

func NewGetConversationController(uc *usecase.GetConversationUseCase, timeout time.Duration) *GetConversationController {
	return &GetConversationController{UC: uc, Timeout: timeout}
}

func (h *GetConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
		defer cancel()

		conv, err := h.UC.Execute(ctx, usecase.GetConversationInput{
			ConversationID: c.Param("conversationId"),
			UserID:         auth.UserID(c),
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}
		c.JSON(http.StatusOK, conv)
	}
}
