package client

import (
	"context"
	"sort"
	"strings"
	"sync"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/usecase"

	"github.com/google/uuid"
)

// ViewAPI is the part of Client a View needs.
type ViewAPI interface {
	GetConversation(ctx context.Context, conversationID string) (*usecase.ConversationSummary, error)
	GetMessages(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]chat.Message, error)
	SendMessage(ctx context.Context, conversationID, content string, clientID *string, channelID string) (*chat.Message, bool, error)
}

var _ ViewAPI = (*Client)(nil)

type EntryState int

const (
	EntryPending EntryState = iota
	EntryConfirmed
	EntryFailed
)

// Entry is one line of the view. Pending and failed entries only exist locally.
type Entry struct {
	ClientID string
	Message  chat.Message
	State    EntryState
	Err      error
}

const resyncPage = 200

// View is the client-side copy of one conversation: confirmed messages in seq
// order followed by the caller's unconfirmed sends.
type View struct {
	api            ViewAPI
	self           string
	conversationID string
	newID          func() string

	mu        sync.Mutex
	confirmed []Entry
	local     []Entry // pending and failed, in submit order
	status    Status
	channelID string
	onChange  func()
}

func NewView(api ViewAPI, self, conversationID string) *View {
	return &View{
		api:            api,
		self:           self,
		conversationID: conversationID,
		newID:          uuid.NewString,
		status:         StatusConnecting,
	}
}

// OnChange registers a callback run after every mutation, outside the lock.
func (v *View) OnChange(fn func()) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

func (v *View) changed() {
	v.mu.Lock()
	fn := v.onChange
	v.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Load replaces the confirmed log with the server's copy.
func (v *View) Load(ctx context.Context) error {
	conv, err := v.api.GetConversation(ctx, v.conversationID)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.confirmed = v.confirmed[:0]
	for _, m := range conv.Messages {
		v.insertLocked(m)
	}
	v.mu.Unlock()
	v.changed()
	return nil
}

// Submit shows content as pending, sends it and confirms or fails the entry.
// A failed entry stays visible with its error and can be retried.
func (v *View) Submit(ctx context.Context, content string) (*chat.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, chat.ErrEmptyMessage
	}
	clientID := v.newID()
	v.mu.Lock()
	v.local = append(v.local, Entry{
		ClientID: clientID,
		Message:  chat.Message{ConversationID: v.conversationID, SenderID: v.self, Content: content},
		State:    EntryPending,
	})
	v.mu.Unlock()
	v.changed()
	return v.send(ctx, clientID, content)
}

// Retry resends a failed entry under its original client id, so a send that
// did reach the server is not stored twice.
func (v *View) Retry(ctx context.Context, clientID string) (*chat.Message, error) {
	v.mu.Lock()
	i := v.localIndexLocked(clientID)
	if i < 0 || v.local[i].State != EntryFailed {
		v.mu.Unlock()
		return nil, chat.ErrMessageNotFound
	}
	v.local[i].State = EntryPending
	v.local[i].Err = nil
	content := v.local[i].Message.Content
	v.mu.Unlock()
	v.changed()
	return v.send(ctx, clientID, content)
}

func (v *View) send(ctx context.Context, clientID, content string) (*chat.Message, error) {
	v.mu.Lock()
	channelID := v.channelID
	v.mu.Unlock()

	id := clientID
	stored, _, err := v.api.SendMessage(ctx, v.conversationID, content, &id, channelID)
	if err != nil {
		v.mu.Lock()
		if i := v.localIndexLocked(clientID); i >= 0 {
			v.local[i].State = EntryFailed
			v.local[i].Err = err
		}
		v.mu.Unlock()
		v.changed()
		return nil, err
	}
	v.Apply(*stored)
	if v.HasGap() {
		// Messages missed while the channel was down sit before ours.
		_, _ = v.Resync(ctx)
	}
	return stored, nil
}

// Apply merges a server message. It reports false for duplicates and for
// messages of other conversations.
func (v *View) Apply(m chat.Message) bool {
	if m.ConversationID != v.conversationID {
		return false
	}
	v.mu.Lock()
	if m.DedupeKey != nil {
		if i := v.localIndexLocked(*m.DedupeKey); i >= 0 && m.SenderID == v.self {
			v.local = append(v.local[:i], v.local[i+1:]...)
		}
	}
	added := v.insertLocked(m)
	v.mu.Unlock()
	if added {
		v.changed()
	}
	return added
}

// Resync pulls everything after the gap-free prefix of the confirmed log, so
// a message applied out of order never hides the ones missed before it.
func (v *View) Resync(ctx context.Context) (int, error) {
	total := 0
	for {
		after := v.ContiguousSeq()
		msgs, err := v.api.GetMessages(ctx, v.conversationID, after, resyncPage)
		if err != nil {
			return total, err
		}
		for _, m := range msgs {
			if v.Apply(m) {
				total++
			}
		}
		if len(msgs) < resyncPage || v.ContiguousSeq() <= after {
			return total, nil
		}
	}
}

func (v *View) insertLocked(m chat.Message) bool {
	i := sort.Search(len(v.confirmed), func(i int) bool {
		return v.confirmed[i].Message.Seq >= m.Seq
	})
	if i < len(v.confirmed) && v.confirmed[i].Message.Seq == m.Seq {
		return false
	}
	for _, e := range v.confirmed {
		if e.Message.ID == m.ID {
			return false
		}
	}
	e := Entry{Message: m, State: EntryConfirmed}
	if m.DedupeKey != nil {
		e.ClientID = *m.DedupeKey
	}
	v.confirmed = append(v.confirmed, Entry{})
	copy(v.confirmed[i+1:], v.confirmed[i:])
	v.confirmed[i] = e
	return true
}

func (v *View) localIndexLocked(clientID string) int {
	for i, e := range v.local {
		if e.ClientID == clientID {
			return i
		}
	}
	return -1
}

// Entries returns a snapshot in display order.
func (v *View) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Entry, 0, len(v.confirmed)+len(v.local))
	out = append(out, v.confirmed...)
	return append(out, v.local...)
}

// ContiguousSeq is the last seq of the confirmed prefix 1..n with no holes.
func (v *View) ContiguousSeq() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.contiguousLocked()
}

func (v *View) contiguousLocked() int64 {
	var seq int64
	for _, e := range v.confirmed {
		if e.Message.Seq != seq+1 {
			break
		}
		seq++
	}
	return seq
}

// HasGap reports whether some confirmed message is ahead of a missing one.
func (v *View) HasGap() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.confirmed) > 0 && v.confirmed[len(v.confirmed)-1].Message.Seq > v.contiguousLocked()
}

// LastSeq is the highest confirmed sequence number.
func (v *View) LastSeq() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.confirmed) == 0 {
		return 0
	}
	return v.confirmed[len(v.confirmed)-1].Message.Seq
}

func (v *View) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *View) SetStatus(s Status) {
	v.mu.Lock()
	v.status = s
	v.mu.Unlock()
	v.changed()
}

// SetChannelID records the live channel so REST sends skip its echo.
func (v *View) SetChannelID(id string) {
	v.mu.Lock()
	v.channelID = id
	v.mu.Unlock()
}
