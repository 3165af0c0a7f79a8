package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jimallen/TasksAgent-sub000/internal/crypto"
	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

// DBPool is the slice of pgxpool.Pool the store needs. pgxmock satisfies it
// in unit tests.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storer is the interface for all database interactions.
type Storer interface {
	SaveCredential(ctx context.Context, cred domain.Credential) error
	LoadCredential(ctx context.Context) (*domain.Credential, error)

	MarkMessageProcessed(ctx context.Context, messageID string) error
	IsMessageProcessed(ctx context.Context, messageID string) (bool, error)

	CreateExtractionLog(ctx context.Context, arg CreateExtractionLogParams) (domain.ExtractionLog, error)
	GetExtractionLogs(ctx context.Context, limit int) ([]domain.ExtractionLog, error)
}

// DBStore implements the Storer interface over a pgx pool. Tokens are
// encrypted at rest with the injected cipher.
type DBStore struct {
	pool   DBPool
	cipher *crypto.Cipher
}

// NewStore builds a DBStore.
func NewStore(pool DBPool, cipher *crypto.Cipher) Storer {
	return &DBStore{
		pool:   pool,
		cipher: cipher,
	}
}

// SaveCredential upserts the single stored credential, encrypting both
// tokens first.
func (s *DBStore) SaveCredential(ctx context.Context, cred domain.Credential) error {
	encryptedAccessToken, err := s.cipher.Encrypt([]byte(cred.AccessToken))
	if err != nil {
		return fmt.Errorf("could not encrypt access token: %w", err)
	}

	var encryptedRefreshToken []byte
	if cred.RefreshToken != "" {
		encryptedRefreshToken, err = s.cipher.Encrypt([]byte(cred.RefreshToken))
		if err != nil {
			return fmt.Errorf("could not encrypt refresh token: %w", err)
		}
	}

	query := `
    INSERT INTO credentials (id, access_token, refresh_token, token_expiry)
    VALUES (1, $1, $2, $3)
    ON CONFLICT (id)
    DO UPDATE SET
        access_token = EXCLUDED.access_token,
        refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''::bytea), credentials.refresh_token),
        token_expiry = EXCLUDED.token_expiry,
        updated_at = now();
    `

	_, err = s.pool.Exec(ctx, query, encryptedAccessToken, encryptedRefreshToken, cred.Expiry)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}

	return nil
}

// LoadCredential returns the stored credential, or nil when none exists.
func (s *DBStore) LoadCredential(ctx context.Context) (*domain.Credential, error) {
	query := `
    SELECT access_token, refresh_token, token_expiry
    FROM credentials
    WHERE id = 1;
    `

	var (
		encryptedAccessToken  []byte
		encryptedRefreshToken []byte
		expiry                time.Time
	)
	err := s.pool.QueryRow(ctx, query).Scan(&encryptedAccessToken, &encryptedRefreshToken, &expiry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db scan error: %w", err)
	}

	accessToken, err := s.cipher.Decrypt(encryptedAccessToken)
	if err != nil {
		return nil, fmt.Errorf("could not decrypt access token: %w", err)
	}

	var refreshToken []byte
	if len(encryptedRefreshToken) > 0 {
		refreshToken, err = s.cipher.Decrypt(encryptedRefreshToken)
		if err != nil {
			return nil, fmt.Errorf("could not decrypt refresh token: %w", err)
		}
	}

	return &domain.Credential{
		AccessToken:  string(accessToken),
		RefreshToken: string(refreshToken),
		Expiry:       expiry,
	}, nil
}

// MarkMessageProcessed records a message id so the pipeline never extracts
// the same message twice.
func (s *DBStore) MarkMessageProcessed(ctx context.Context, messageID string) error {
	query := `
    INSERT INTO processed_messages (message_id)
    VALUES ($1)
    ON CONFLICT (message_id) DO NOTHING;
    `

	_, err := s.pool.Exec(ctx, query, messageID)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}

	return nil
}

// IsMessageProcessed reports whether a message id was already handled.
func (s *DBStore) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	query := `
    SELECT 1
    FROM processed_messages
    WHERE message_id = $1
    LIMIT 1;
    `

	var exists int
	err := s.pool.QueryRow(ctx, query, messageID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db query error: %w", err)
	}

	return true, nil
}

// CreateExtractionLogParams holds the audit record for one pipeline run
// over one message.
type CreateExtractionLogParams struct {
	MessageID    string
	Subject      string
	Service      domain.Service
	Status       domain.ExtractionStatus
	TaskCount    int
	Confidence   int
	Tasks        json.RawMessage
	ErrorMessage string
}

// CreateExtractionLog inserts an audit record and returns the stored row.
func (s *DBStore) CreateExtractionLog(ctx context.Context, arg CreateExtractionLogParams) (domain.ExtractionLog, error) {
	query := `
    INSERT INTO extraction_logs (
        message_id, subject, service, status, task_count, confidence, tasks, error_message
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING id, message_id, subject, service, status, task_count, confidence, tasks, error_message, timestamp;
    `

	row := s.pool.QueryRow(ctx, query,
		arg.MessageID,
		arg.Subject,
		arg.Service,
		arg.Status,
		arg.TaskCount,
		arg.Confidence,
		arg.Tasks,
		arg.ErrorMessage,
	)

	var log domain.ExtractionLog
	err := row.Scan(
		&log.ID,
		&log.MessageID,
		&log.Subject,
		&log.Service,
		&log.Status,
		&log.TaskCount,
		&log.Confidence,
		&log.Tasks,
		&log.ErrorMessage,
		&log.Timestamp,
	)
	if err != nil {
		return domain.ExtractionLog{}, fmt.Errorf("db scan error: %w", err)
	}

	return log, nil
}

// GetExtractionLogs returns the most recent audit records.
func (s *DBStore) GetExtractionLogs(ctx context.Context, limit int) ([]domain.ExtractionLog, error) {
	if limit < 1 {
		limit = 50
	}

	query := `
    SELECT id, message_id, subject, service, status, task_count, confidence, tasks, error_message, timestamp
    FROM extraction_logs
    ORDER BY timestamp DESC
    LIMIT $1;
    `

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	defer rows.Close()

	var logs []domain.ExtractionLog
	for rows.Next() {
		var log domain.ExtractionLog
		err := rows.Scan(
			&log.ID,
			&log.MessageID,
			&log.Subject,
			&log.Service,
			&log.Status,
			&log.TaskCount,
			&log.Confidence,
			&log.Tasks,
			&log.ErrorMessage,
			&log.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("db row scan error: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db rows error: %w", err)
	}

	return logs, nil
}
