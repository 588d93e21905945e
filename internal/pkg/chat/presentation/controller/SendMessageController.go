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

// ChannelIDHeader lets a client holding a live channel skip its own echo.
const ChannelIDHeader = "X-Channel-ID"

// SendMessageController handles the send-message endpoint only (one controller per endpoint)
type SendMessageController struct {
	UC      *usecase.SendMessageUseCase
	Timeout time.Duration
}

func NewSendMessageController(uc *usecase.SendMessageUseCase, timeout time.Duration) *SendMessageController {
	return &SendMessageController{UC: uc, Timeout: timeout}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	Content  string  `json:"content"`
	ClientID *string `json:"clientId"`
}

// Handle returns a gin handler that appends the message durably before answering.
// 201 for a new message, 200 when clientId replays an earlier one.
func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.WriteValidationError(c, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
		defer cancel()

		out, err := h.UC.Execute(ctx, usecase.SendMessageInput{
			ConversationID:   c.Param("conversationId"),
			SenderID:         auth.UserID(c),
			Content:          req.Content,
			ClientID:         req.ClientID,
			ExcludeChannelID: c.GetHeader(ChannelIDHeader),
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}

		status := http.StatusCreated
		if out.Replayed {
			status = http.StatusOK
		}
		c.JSON(status, out.Message)
	}
}
