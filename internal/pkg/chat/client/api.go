// Package client is the Go counterpart of the chat API: a REST client, a live
// channel that reconnects on its own, and a conversation view that reconciles
// optimistic sends with what the server stored.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"
	userrepo "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx answer of the chat API.
type APIError struct {
	Status    int
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat api: status %d", e.Status)
	}
	return fmt.Sprintf("chat api: %s (%d): %s", e.Type, e.Status, e.Message)
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// Client calls the /api/v1 REST surface as one user.
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *resty.Client
}

type Option func(*Client)

// WithToken authenticates with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithUserID identifies the caller when the server runs with auth disabled.
func WithUserID(userID string) Option {
	return func(c *Client) { c.userID = userID }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.SetTimeout(d) }
}

func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL: baseURL,
		httpClient: resty.New().
			SetBaseURL(baseURL+"/api/v1").
			SetHeader("User-Agent", "hellob-chat-client/1.0").
			SetTimeout(10 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.token != "" {
		c.httpClient.SetAuthToken(c.token)
	}
	if c.userID != "" {
		c.httpClient.SetHeader("X-User-ID", c.userID)
	}
	return c
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetError(&errorEnvelope{})
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("chat api request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if env, ok := resp.Error().(*errorEnvelope); ok && env.Error != nil {
		apiErr = env.Error
		apiErr.Status = resp.StatusCode()
	}
	return apiErr
}

// FindOrCreateConversation opens the conversation with participantID.
func (c *Client) FindOrCreateConversation(ctx context.Context, participantID string) (*usecase.ConversationSummary, bool, error) {
	var conv usecase.ConversationSummary
	resp, err := c.request(ctx).
		SetBody(map[string]string{"participantId": participantID}).
		SetResult(&conv).
		Post("/conversations")
	if err := checkResponse(resp, err); err != nil {
		return nil, false, err
	}
	return &conv, resp.StatusCode() == http.StatusCreated, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]usecase.ConversationSummary, error) {
	var out struct {
		Conversations []usecase.ConversationSummary `json:"conversations"`
	}
	resp, err := c.request(ctx).SetResult(&out).Get("/conversations")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) (*usecase.ConversationSummary, error) {
	var conv usecase.ConversationSummary
	resp, err := c.request(ctx).
		SetPathParam("id", conversationID).
		SetResult(&conv).
		Get("/conversations/{id}")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) GetParticipant(ctx context.Context, conversationID string) (*chat.Participant, error) {
	var p chat.Participant
	resp, err := c.request(ctx).
		SetPathParam("id", conversationID).
		SetResult(&p).
		Get("/conversations/{id}/participant")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetMessages returns messages with seq > afterSeq; limit 0 uses the server default.
func (c *Client) GetMessages(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]chat.Message, error) {
	var out struct {
		Messages []chat.Message `json:"messages"`
	}
	req := c.request(ctx).
		SetPathParam("id", conversationID).
		SetQueryParam("after_seq", strconv.FormatInt(afterSeq, 10)).
		SetResult(&out)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := req.Get("/conversations/{id}/messages")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage appends content. channelID, when set, keeps the echo off that channel.
func (c *Client) SendMessage(ctx context.Context, conversationID, content string, clientID *string, channelID string) (*chat.Message, bool, error) {
	var m chat.Message
	req := c.request(ctx).
		SetPathParam("id", conversationID).
		SetBody(map[string]any{"content": content, "clientId": clientID}).
		SetResult(&m)
	if channelID != "" {
		req.SetHeader("X-Channel-ID", channelID)
	}
	resp, err := req.Post("/conversations/{id}/messages")
	if err := checkResponse(resp, err); err != nil {
		return nil, false, err
	}
	return &m, resp.StatusCode() == http.StatusOK, nil
}

func (c *Client) MarkRead(ctx context.Context, conversationID string, upToSeq int64) (int64, error) {
	var out struct {
		Marked int64 `json:"marked"`
	}
	resp, err := c.request(ctx).
		SetPathParam("id", conversationID).
		SetBody(map[string]int64{"upToSeq": upToSeq}).
		SetResult(&out).
		Post("/conversations/{id}/read")
	if err := checkResponse(resp, err); err != nil {
		return 0, err
	}
	return out.Marked, nil
}

func (c *Client) UpdateProfile(ctx context.Context, name, photoURL string) (*userrepo.User, error) {
	var u userrepo.User
	resp, err := c.request(ctx).
		SetBody(map[string]string{"name": name, "photoUrl": photoURL}).
		SetResult(&u).
		Put("/users/me")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChannelURL is the websocket address of the live channel for conversationID.
func (c *Client) ChannelURL(conversationID string) string {
	u, err := url.Parse(c.baseURL + "/api/v1/ws")
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("conversationId", conversationID)
	if c.token != "" {
		q.Set("token", c.token)
	} else if c.userID != "" {
		q.Set("user_id", c.userID)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
