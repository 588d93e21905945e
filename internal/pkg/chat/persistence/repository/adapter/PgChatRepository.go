package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	repository "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNilPool = errors.New("PgChatRepository: nil pool")

type PgChatRepository struct {
	pool *pgxpool.Pool
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

const conversationColumns = `id::text, participant_a, participant_b, created_at, last_activity, last_seq, is_active`

const messageColumns = `id::text, conversation_id::text, seq, sender_id, content, created_at, read, is_active, is_deleted, dedupe_key`

func (r *PgChatRepository) FindOrCreateConversation(ctx context.Context, pair chat.Pair, now time.Time) (*chat.Conversation, bool, error) {
	if r == nil || r.pool == nil {
		return nil, false, errNilPool
	}
	now = now.UTC().Truncate(time.Microsecond)

	// The unique pair_key turns concurrent creates for the same pair into
	// a single row; the losers fall through to the select below.
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO chat.conversation (id, participant_a, participant_b, pair_key, created_at, last_activity)
		VALUES ($1::uuid, $2, $3, $4, $5, $5)
		ON CONFLICT (pair_key) DO NOTHING
	`, uuid.NewString(), pair[0], pair[1], pair.Key(), now)
	if err != nil {
		return nil, false, err
	}
	created := ct.RowsAffected() == 1

	row := r.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM chat.conversation WHERE pair_key = $1`, pair.Key())
	conv, err := scanConversation(row)
	if err != nil {
		return nil, false, err
	}
	return conv, created, nil
}

func (r *PgChatRepository) GetConversation(ctx context.Context, conversationID string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if _, err := uuid.Parse(conversationID); err != nil {
		return nil, chat.ErrConversationNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM chat.conversation WHERE id = $1::uuid`, conversationID)
	conv, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrConversationNotFound
	}
	return conv, err
}

func (r *PgChatRepository) ListConversationsByUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM chat.conversation
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_activity DESC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	convs := make([]chat.Conversation, 0)
	index := make(map[string]int)
	ids := make([]string, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		conv.Messages = []chat.Message{}
		index[conv.ID] = len(convs)
		ids = append(ids, conv.ID)
		convs = append(convs, *conv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return convs, nil
	}

	msgRows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM chat.message
		WHERE conversation_id = ANY($1::uuid[])
		ORDER BY conversation_id, seq ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer msgRows.Close()
	for msgRows.Next() {
		msg, err := scanMessage(msgRows)
		if err != nil {
			return nil, err
		}
		i := index[msg.ConversationID]
		convs[i].Messages = append(convs[i].Messages, *msg)
	}
	if err := msgRows.Err(); err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *PgChatRepository) AppendMessage(ctx context.Context, m chat.Message, now time.Time) (*chat.Message, bool, error) {
	if r == nil || r.pool == nil {
		return nil, false, errNilPool
	}
	if _, err := uuid.Parse(m.ConversationID); err != nil {
		return nil, false, chat.ErrConversationNotFound
	}
	if m.Content == "" {
		return nil, false, chat.ErrEmptyMessage
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Row lock: appends to one conversation are serialised from here on.
	var (
		pair         chat.Pair
		lastActivity time.Time
		lastSeq      int64
	)
	err = tx.QueryRow(ctx, `
		SELECT participant_a, participant_b, last_activity, last_seq
		FROM chat.conversation
		WHERE id = $1::uuid
		FOR UPDATE
	`, m.ConversationID).Scan(&pair[0], &pair[1], &lastActivity, &lastSeq)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, chat.ErrConversationNotFound
	}
	if err != nil {
		return nil, false, err
	}
	if !pair.Has(m.SenderID) {
		return nil, false, chat.ErrNotParticipant
	}

	if m.DedupeKey != nil {
		row := tx.QueryRow(ctx, `
			SELECT `+messageColumns+`
			FROM chat.message
			WHERE conversation_id = $1::uuid AND sender_id = $2 AND dedupe_key = $3
		`, m.ConversationID, m.SenderID, *m.DedupeKey)
		prev, err := scanMessage(row)
		if err == nil {
			return prev, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, err
		}
	}

	m.ID = uuid.NewString()
	m.Seq = lastSeq + 1
	m.CreatedAt = chat.NextTimestamp(lastActivity, now).Truncate(time.Microsecond)
	m.Read = false
	m.IsActive = true
	m.IsDeleted = false

	if _, err := tx.Exec(ctx, `
		INSERT INTO chat.message (
			id, conversation_id, seq, sender_id, content, created_at, read, is_active, is_deleted, dedupe_key
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, false, true, false, $7)
	`, m.ID, m.ConversationID, m.Seq, m.SenderID, m.Content, m.CreatedAt, m.DedupeKey); err != nil {
		return nil, false, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE chat.conversation
		SET last_activity = $2, last_seq = $3
		WHERE id = $1::uuid
	`, m.ConversationID, m.CreatedAt, m.Seq); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit append: %w", err)
	}
	return &m, false, nil
}

func (r *PgChatRepository) GetMessages(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if _, err := r.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	if afterSeq < 0 {
		afterSeq = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM chat.message
		WHERE conversation_id = $1::uuid AND seq > $2
		ORDER BY seq ASC
		LIMIT NULLIF($3::int, 0)
	`, conversationID, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]chat.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgChatRepository) GetMessage(ctx context.Context, conversationID string, messageID string) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if _, err := uuid.Parse(messageID); err != nil {
		return nil, chat.ErrMessageNotFound
	}
	if _, err := uuid.Parse(conversationID); err != nil {
		return nil, chat.ErrConversationNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM chat.message
		WHERE conversation_id = $1::uuid AND id = $2::uuid
	`, conversationID, messageID)
	msg, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrMessageNotFound
	}
	return msg, err
}

func (r *PgChatRepository) MarkRead(ctx context.Context, conversationID string, readerID string, upToSeq int64) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errNilPool
	}
	conv, err := r.GetConversation(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !conv.HasParticipant(readerID) {
		return 0, chat.ErrNotParticipant
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.message
		SET read = true
		WHERE conversation_id = $1::uuid
		  AND sender_id <> $2
		  AND read = false
		  AND ($3::bigint <= 0 OR seq <= $3::bigint)
	`, conversationID, readerID, upToSeq)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func scanConversation(row pgx.Row) (*chat.Conversation, error) {
	var conv chat.Conversation
	if err := row.Scan(
		&conv.ID,
		&conv.Participants[0],
		&conv.Participants[1],
		&conv.CreatedAt,
		&conv.LastActivity,
		&conv.LastSeq,
		&conv.IsActive,
	); err != nil {
		return nil, err
	}
	conv.CreatedAt = conv.CreatedAt.UTC()
	conv.LastActivity = conv.LastActivity.UTC()
	return &conv, nil
}

func scanMessage(row pgx.Row) (*chat.Message, error) {
	var (
		msg    chat.Message
		dedupe *string
	)
	if err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Seq,
		&msg.SenderID,
		&msg.Content,
		&msg.CreatedAt,
		&msg.Read,
		&msg.IsActive,
		&msg.IsDeleted,
		&dedupe,
	); err != nil {
		return nil, err
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	msg.DedupeKey = dedupe
	return &msg, nil
}
