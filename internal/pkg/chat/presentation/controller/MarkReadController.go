package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/auth"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver/responses"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

type MarkReadController struct {
	UC      *usecase.MarkReadUseCase
	Timeout time.Duration
}

func NewMarkReadController(uc *usecase.MarkReadUseCase, timeout time.Duration) *MarkReadController {
	return &MarkReadController{UC: uc, Timeout: timeout}
}

// markReadRequest is optional; an empty body marks everything.
type markReadRequest struct {
	UpToSeq int64 `json:"upToSeq"`
}

func (h *MarkReadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req markReadRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			responses.WriteValidationError(c, "invalid request body")
			return
		}
		if req.UpToSeq < 0 {
			responses.WriteValidationError(c, "upToSeq must be non-negative")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
		defer cancel()

		conversationID := c.Param("conversationId")
		n, err := h.UC.Execute(ctx, usecase.MarkReadInput{
			ConversationID: conversationID,
			UserID:         auth.UserID(c),
			UpToSeq:        req.UpToSeq,
		})
		if err != nil {
			writeUseCaseError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"conversationId": conversationID,
			"marked":         n,
		})
	}
}
