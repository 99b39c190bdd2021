package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/heritage-platform/commerce/internal/dal/postgres"
	"github.com/heritage-platform/commerce/internal/service/models/outbox"
)

// PostgresOutboxRepository persists pending event messages.
type PostgresOutboxRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOutboxRepository creates a new Postgres outbox repository.
func NewPostgresOutboxRepository(conn postgres.GenericConn) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert adds a new message to the outbox.
func (r *PostgresOutboxRepository) Insert(ctx context.Context, msg outbox.Message) error {
	const sql = `
		INSERT INTO shop_outbox (
			queue_name,
			exchange_name,
			routing_key,
			payload,
			content_type,
			retry_count,
			max_retries,
			next_retry_at,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, now(), now())
	`

	_, err := r.conn.Exec(ctx, sql,
		msg.QueueName,
		msg.ExchangeName,
		msg.RoutingKey,
		msg.Payload,
		msg.ContentType,
		msg.MaxRetries,
		msg.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}

	return nil
}

// GetPendingMessages retrieves messages that are ready for delivery.
func (r *PostgresOutboxRepository) GetPendingMessages(ctx context.Context, limit int) ([]outbox.Message, error) {
	query := r.sb.
		Select(
			"id",
			"queue_name",
			"exchange_name",
			"routing_key",
			"payload",
			"content_type",
			"retry_count",
			"max_retries",
			"last_error",
			"next_retry_at",
			"created_at",
			"updated_at",
		).
		From("shop_outbox").
		Where(sq.LtOrEq{"next_retry_at": time.Now()}).
		Where(sq.Expr("retry_count < max_retries")).
		OrderBy("next_retry_at ASC").
		Limit(uint64(limit))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox messages: %w", err)
	}
	defer rows.Close()

	var result []outbox.Message
	for rows.Next() {
		var msg outbox.Message
		var lastError *string
		err := rows.Scan(
			&msg.ID,
			&msg.QueueName,
			&msg.ExchangeName,
			&msg.RoutingKey,
			&msg.Payload,
			&msg.ContentType,
			&msg.RetryCount,
			&msg.MaxRetries,
			&lastError,
			&msg.NextRetryAt,
			&msg.CreatedAt,
			&msg.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		if lastError != nil {
			msg.LastError = *lastError
		}
		result = append(result, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Delete removes a message from the outbox after successful delivery.
func (r *PostgresOutboxRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM shop_outbox WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete outbox message: %w", err)
	}

	return nil
}

// UpdateRetry updates retry count and error information.
func (r *PostgresOutboxRepository) UpdateRetry(
	ctx context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	const sql = `
		UPDATE shop_outbox
		SET retry_count = $2,
		    last_error = $3,
		    next_retry_at = $4,
		    updated_at = now()
		WHERE id = $1
	`

	_, err := r.conn.Exec(ctx, sql, id, retryCount, lastError, nextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to update outbox retry info: %w", err)
	}

	return nil
}
