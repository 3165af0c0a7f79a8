//go:build integration

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/jimallen/TasksAgent-sub000/internal/crypto"
	"github.com/jimallen/TasksAgent-sub000/internal/database"
	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

func TestDatabaseIntegration(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	t.Run("RunMigrations", func(t *testing.T) {
		t.Setenv("RUN_MIGRATIONS", "true")

		err := database.RunMigrations(connStr, logger)
		assert.NoError(t, err)
	})

	t.Run("VerifyTablesCreated", func(t *testing.T) {
		tables := []string{
			"credentials",
			"processed_messages",
			"extraction_logs",
		}

		for _, table := range tables {
			var exists bool
			query := `SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public'
				AND table_name = $1
			)`
			err := pool.QueryRow(ctx, query, table).Scan(&exists)
			assert.NoError(t, err, "Failed to check if table %s exists", table)
			assert.True(t, exists, "Table %s should exist", table)
		}
	})

	cipher, err := crypto.NewCipher(bytes.Repeat([]byte("k"), 32))
	require.NoError(t, err)
	store := NewStore(pool, cipher)

	t.Run("CredentialRoundTrip", func(t *testing.T) {
		expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
		err := store.SaveCredential(ctx, domain.Credential{
			AccessToken:  "ya29.integration",
			RefreshToken: "1//integration",
			Expiry:       expiry,
		})
		require.NoError(t, err)

		cred, err := store.LoadCredential(ctx)
		require.NoError(t, err)
		require.NotNil(t, cred)
		assert.Equal(t, "ya29.integration", cred.AccessToken)
		assert.Equal(t, "1//integration", cred.RefreshToken)
		assert.Equal(t, expiry, cred.Expiry.UTC())

		// Tokens live encrypted on disk.
		var raw []byte
		err = pool.QueryRow(ctx, "SELECT access_token FROM credentials WHERE id = 1").Scan(&raw)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "ya29.integration")
	})

	t.Run("CredentialUpsertKeepsRefreshToken", func(t *testing.T) {
		// A refresh without a new refresh token must not clobber the old one.
		err := store.SaveCredential(ctx, domain.Credential{
			AccessToken: "ya29.rotated",
			Expiry:      time.Now().Add(2 * time.Hour),
		})
		require.NoError(t, err)

		cred, err := store.LoadCredential(ctx)
		require.NoError(t, err)
		require.NotNil(t, cred)
		assert.Equal(t, "ya29.rotated", cred.AccessToken)
		assert.Equal(t, "1//integration", cred.RefreshToken)
	})

	t.Run("ProcessedMessages", func(t *testing.T) {
		done, err := store.IsMessageProcessed(ctx, "msg-int-1")
		require.NoError(t, err)
		assert.False(t, done)

		require.NoError(t, store.MarkMessageProcessed(ctx, "msg-int-1"))
		// Marking twice is a no-op, not an error.
		require.NoError(t, store.MarkMessageProcessed(ctx, "msg-int-1"))

		done, err = store.IsMessageProcessed(ctx, "msg-int-1")
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("ExtractionLogs", func(t *testing.T) {
		log, err := store.CreateExtractionLog(ctx, CreateExtractionLogParams{
			MessageID:  "msg-int-1",
			Subject:    "Recording of Team Standup - Google Meet",
			Service:    domain.ServiceGoogleMeet,
			Status:     domain.ExtractionSuccess,
			TaskCount:  2,
			Confidence: 85,
			Tasks:      json.RawMessage(`[{"description":"Send report","assignee":"John"}]`),
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, log.ID)
		assert.Equal(t, domain.ExtractionSuccess, log.Status)

		logs, err := store.GetExtractionLogs(ctx, 10)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "msg-int-1", logs[0].MessageID)
		assert.Equal(t, 2, logs[0].TaskCount)
	})
}
