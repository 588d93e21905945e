package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/auth"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver/responses"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/realtime"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// SocketOptions tune the live channel endpoint.
type SocketOptions struct {
	Channel         realtime.Options
	PongWait        time.Duration
	MaxMessageBytes int64
	AllowedOrigins  []string
	Timeout         time.Duration
}

// ChatSocketController handles the websocket endpoint for realtime chat traffic.
// Each socket is one delivery channel for one (user, conversation) pair.
type ChatSocketController struct {
	hub           *realtime.Hub
	membershipUC  *usecase.CheckMembershipUseCase
	sendMessageUC *usecase.SendMessageUseCase
	upgrader      websocket.Upgrader
	opts          SocketOptions
	log           zerolog.Logger
}

func NewChatSocketController(hub *realtime.Hub, membership *usecase.CheckMembershipUseCase, send *usecase.SendMessageUseCase, opts SocketOptions, log zerolog.Logger) *ChatSocketController {
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 1 << 16
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &ChatSocketController{
		hub:           hub,
		membershipUC:  membership,
		sendMessageUC: send,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		opts: opts,
		log:  log,
	}
}

// originChecker allows requests without an Origin header (non-browser clients).
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			a = strings.TrimSpace(a)
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Handle checks membership over plain HTTP, upgrades, registers the channel and
// processes frames until the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserID(c)
		conversationID := c.Query("conversationId")
		if conversationID == "" {
			responses.WriteValidationError(c, "conversationId is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.opts.Timeout)
		err := ctl.membershipUC.Execute(ctx, usecase.CheckMembershipInput{ConversationID: conversationID, UserID: userID})
		cancel()
		if err != nil {
			writeUseCaseError(c, err)
			return
		}

		ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			ctl.log.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}

		conn := realtime.NewConnection(userID, conversationID, ws, ctl.opts.Channel)
		regCtx, cancel := context.WithTimeout(c.Request.Context(), ctl.opts.Timeout)
		err = ctl.hub.Register(regCtx, conn)
		cancel()
		if err != nil {
			conn.Close(websocket.ClosePolicyViolation, errorMessage(err))
			return
		}
		conn.Start()
		defer func() {
			ctl.hub.Unregister(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(ctl.opts.MaxMessageBytes)
		_ = ws.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
		})

		if payload, err := realtime.EncodeReady(conn.ID(), conversationID); err == nil {
			_ = conn.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					ctl.log.Debug().Err(err).Str("channel_id", conn.ID()).Msg("channel read ended")
				}
				return
			}
			ctl.handleFrame(c.Request.Context(), conn, data)
		}
	}
}

func (ctl *ChatSocketController) handleFrame(parent context.Context, conn *realtime.Connection, data []byte) {
	var frame realtime.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		ctl.replyError(conn, responses.ErrorTypeValidation, "invalid payload", nil)
		return
	}
	if frame.Type != realtime.FrameChat {
		ctl.replyError(conn, responses.ErrorTypeValidation, "unsupported frame type", nil)
		return
	}

	var in realtime.InboundChat
	if err := json.Unmarshal(frame.Data, &in); err != nil {
		ctl.replyError(conn, responses.ErrorTypeValidation, "invalid chat data", nil)
		return
	}
	if in.ConversationID != "" && in.ConversationID != conn.ConversationID() {
		ctl.replyError(conn, responses.ErrorTypeValidation, chat.ErrInvalidConversation.Error(), in.ClientID)
		return
	}

	ctx, cancel := context.WithTimeout(parent, ctl.opts.Timeout)
	defer cancel()

	// No exclusion: the origin sees its own message, which is its only ack.
	_, err := ctl.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		ConversationID: conn.ConversationID(),
		SenderID:       conn.UserID(),
		Content:        in.Content,
		ClientID:       in.ClientID,
	})
	if err != nil {
		ctl.replyError(conn, errorType(err), errorMessage(err), in.ClientID)
	}
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, t responses.ErrorType, message string, clientID *string) {
	if payload, err := realtime.EncodeError(string(t), message, clientID); err == nil {
		_ = conn.Send(payload)
	}
}
