package subservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/internal/service"
	"github.com/MKhiriev/go-push-sync/internal/store"
	"github.com/MKhiriev/go-push-sync/models"
)

const messagesTable = "messages"

// MessageStore is the local inbox backed by the messages table.
type MessageStore struct {
	db      *store.DB
	builder sq.StatementBuilderType
	gate    *gate
	clock   clockwork.Clock
	logger  *logger.Logger
}

// NewMessageStore returns an inbox over db.
func NewMessageStore(db *store.DB, source service.RegistrationStatusSource, clock clockwork.Clock, log *logger.Logger) *MessageStore {
	return &MessageStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		gate:    newGate("messages", source, log),
		clock:   clock,
		logger:  log,
	}
}

func (s *MessageStore) Name() string { return "messages" }

// Add stores msg. A message received twice keeps its first copy.
func (s *MessageStore) Add(ctx context.Context, msg models.Message) error {
	if err := s.gate.check(); err != nil {
		return err
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = s.clock.Now().UTC()
	}

	query, args, err := s.builder.
		Insert(messagesTable).
		Columns("message_id", "title", "body", "payload", "is_read", "received_at").
		Values(msg.ID, msg.Title, msg.Body, msg.Payload, msg.IsRead, msg.ReceivedAt).
		Suffix("ON CONFLICT (message_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrBuildingSQLQuery, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Err(err).Str("func", "MessageStore.Add").Str("message_id", msg.ID).Msg("failed to insert message")
		return fmt.Errorf("%w: %w", store.ErrExecutingStatement, err)
	}
	return nil
}

// List returns up to limit messages, newest first. limit <= 0 returns all.
func (s *MessageStore) List(ctx context.Context, limit int) ([]models.Message, error) {
	builder := s.builder.
		Select("message_id", "title", "body", "payload", "is_read", "received_at").
		From(messagesTable).
		OrderBy("received_at DESC", "message_id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrBuildingSQLQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Err(err).Str("func", "MessageStore.List").Msg("failed to query messages")
		return nil, fmt.Errorf("%w: %w", store.ErrExecutingQuery, err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err = rows.Scan(&msg.ID, &msg.Title, &msg.Body, &msg.Payload, &msg.IsRead, &msg.ReceivedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrScanningRow, err)
		}
		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrScanningRow, err)
	}
	return messages, nil
}

// MarkRead flags the message as read.
func (s *MessageStore) MarkRead(ctx context.Context, id string) error {
	query, args, err := s.builder.
		Update(messagesTable).
		Set("is_read", true).
		Where(sq.Eq{"message_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrBuildingSQLQuery, err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.Err(err).Str("func", "MessageStore.MarkRead").Str("message_id", id).Msg("failed to update message")
		return fmt.Errorf("%w: %w", store.ErrExecutingStatement, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// UnreadCount returns the number of unread messages.
func (s *MessageStore) UnreadCount(ctx context.Context) (int, error) {
	query, args, err := s.builder.
		Select("COUNT(*)").
		From(messagesTable).
		Where(sq.Eq{"is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrBuildingSQLQuery, err)
	}

	var n int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %w", store.ErrScanningRow, err)
	}
	return n, nil
}

// DepersonalizeService deletes every message.
func (s *MessageStore) DepersonalizeService(ctx context.Context) error {
	query, args, err := s.builder.Delete(messagesTable).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrBuildingSQLQuery, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Err(err).Str("func", "MessageStore.DepersonalizeService").Msg("failed to purge inbox")
		return fmt.Errorf("%w: %w", store.ErrExecutingStatement, err)
	}
	return nil
}

func (s *MessageStore) UpdateRegistrationEnabledStatus(ctx context.Context) error {
	_, err := s.gate.refresh(ctx)
	return err
}

func (s *MessageStore) AppWillEnterForeground(ctx context.Context) error {
	_, err := s.gate.refresh(ctx)
	return err
}
