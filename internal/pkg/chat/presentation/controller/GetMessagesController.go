package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/auth"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver/responses"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// GetMessagesController handles fetching messages after a sequence number (one controller per endpoint)
type GetMessagesController struct {
	UC      *usecase.GetMessagesUseCase
	Timeout time.Duration
}

func NewGetMessagesController(uc *usecase.GetMessagesUseCase, timeout time.Duration) *GetMessagesController {
	return &GetMessagesController{UC: uc, Timeout: timeout}
}

func (h *GetMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			afterSeq int64
			limit    int
		)
		if v := c.Query("after_seq"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				responses.WriteValidationError(c, "after_seq must be a non-negative integer")
				return
			}
			afterSeq = n
		}
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				responses.WriteValidationError(c, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, usecase.GetMessagesInput{
			ConversationID: c.Param("conversationId"),
			UserID:         auth.UserID(c),
			AfterSeq:       afterSeq,
			Limit:          limit,
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"messages": msgs,
			"afterSeq": afterSeq,
			"count":    len(msgs),
		})
	}
}
