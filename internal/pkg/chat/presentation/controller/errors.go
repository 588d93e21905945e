package controller

import (
	"context"
	"errors"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver/responses"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"

	"github.com/gin-gonic/gin"
)

// errorType classifies a use case error for the client.
func errorType(err error) responses.ErrorType {
	switch {
	case errors.Is(err, chat.ErrValidation):
		return responses.ErrorTypeValidation
	case errors.Is(err, chat.ErrForbidden):
		return responses.ErrorTypeForbidden
	case errors.Is(err, chat.ErrNotFound):
		return responses.ErrorTypeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return responses.ErrorTypeTimeout
	default:
		return responses.ErrorTypeInternal
	}
}

// errorMessage hides infrastructure details behind a generic message.
func errorMessage(err error) string {
	if errorType(err) == responses.ErrorTypeInternal {
		return "unexpected persistence error"
	}
	if errorType(err) == responses.ErrorTypeTimeout {
		return "request timed out"
	}
	return err.Error()
}

func writeUseCaseError(c *gin.Context, err error) {
	responses.WriteError(c, errorType(err), errorMessage(err))
}
