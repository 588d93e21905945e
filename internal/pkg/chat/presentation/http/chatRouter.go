package http

import (
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/realtime"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/presentation/controller"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Dependencies bundles what the chat endpoints need.
type Dependencies struct {
	FindOrCreate    *usecase.FindOrCreateConversationUseCase
	List            *usecase.ListConversationsUseCase
	GetConversation *usecase.GetConversationUseCase
	GetParticipant  *usecase.GetParticipantUseCase
	GetMessages     *usecase.GetMessagesUseCase
	SendMessage     *usecase.SendMessageUseCase
	MarkRead        *usecase.MarkReadUseCase
	UpdateProfile   *usecase.UpdateProfileUseCase
	CheckMembership *usecase.CheckMembershipUseCase

	Hub            *realtime.Hub
	Socket         controller.SocketOptions
	RequestTimeout time.Duration
	Log            zerolog.Logger
}

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, d Dependencies) {
	timeout := d.RequestTimeout

	// POST /api/v1/conversations -> find or open the conversation with participantId
	g.POST("/conversations", controller.NewFindOrCreateConversationController(d.FindOrCreate, timeout).Handle())

	// GET /api/v1/conversations -> caller's inbox
	g.GET("/conversations", controller.NewListConversationsController(d.List, timeout).Handle())

	g.GET("/conversations/:conversationId", controller.NewGetConversationController(d.GetConversation, timeout).Handle())
	g.GET("/conversations/:conversationId/participant", controller.NewGetParticipantController(d.GetParticipant, timeout).Handle())

	// GET /api/v1/conversations/:conversationId/messages?after_seq=&limit= -> incremental fetch
	g.GET("/conversations/:conversationId/messages", controller.NewGetMessagesController(d.GetMessages, timeout).Handle())

	// POST /api/v1/conversations/:conversationId/messages -> durable append + live fan-out
	g.POST("/conversations/:conversationId/messages", controller.NewSendMessageController(d.SendMessage, timeout).Handle())

	g.POST("/conversations/:conversationId/read", controller.NewMarkReadController(d.MarkRead, timeout).Handle())
	g.PUT("/users/me", controller.NewUpdateProfileController(d.UpdateProfile, timeout).Handle())

	// GET /api/v1/ws?conversationId= -> live channel
	socket := d.Socket
	if socket.Timeout <= 0 {
		socket.Timeout = timeout
	}
	g.GET("/ws", controller.NewChatSocketController(d.Hub, d.CheckMembership, d.SendMessage, socket, d.Log).Handle())
}
