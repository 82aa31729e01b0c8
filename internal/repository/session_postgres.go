package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/courtweb-service/internal/domain"
)

type postgresSessionStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresSessionStore returns a Postgres-backed implementation.
func NewPostgresSessionStore(pool *pgxpool.Pool, logger *zap.Logger) SessionStore {
	return &postgresSessionStore{pool: pool, logger: logger}
}

func (s *postgresSessionStore) Upsert(ctx context.Context, record *domain.SessionRecord) error {
	const query = `
        INSERT INTO sessions (session_id, external_id, name, email, avatar_url,
            has_access, has_staff_access, permissions, created_at, updated_at, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (session_id) DO UPDATE SET
            external_id=EXCLUDED.external_id,
            name=EXCLUDED.name,
            email=EXCLUDED.email,
            avatar_url=EXCLUDED.avatar_url,
            has_access=EXCLUDED.has_access,
            has_staff_access=EXCLUDED.has_staff_access,
            permissions=EXCLUDED.permissions,
            updated_at=EXCLUDED.updated_at,
            expires_at=EXCLUDED.expires_at`

	permissions, err := marshalPermissions(record.Permissions)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, query,
		record.SessionID,
		record.ExternalID,
		record.Name,
		record.Email,
		record.AvatarURL,
		record.Capabilities.HasAccess,
		record.Capabilities.HasStaffAccess,
		permissions,
		record.CreatedAt,
		record.UpdatedAt,
		record.ExpiresAt,
	); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *postgresSessionStore) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	const query = `
        SELECT session_id, external_id, name, email, avatar_url,
            has_access, has_staff_access, permissions, created_at, updated_at, expires_at
        FROM sessions WHERE session_id=$1`

	var (
		record      domain.SessionRecord
		permissions []byte
	)
	if err := s.pool.QueryRow(ctx, query, sessionID).Scan(
		&record.SessionID,
		&record.ExternalID,
		&record.Name,
		&record.Email,
		&record.AvatarURL,
		&record.Capabilities.HasAccess,
		&record.Capabilities.HasStaffAccess,
		&permissions,
		&record.CreatedAt,
		&record.UpdatedAt,
		&record.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if record.Expired(time.Now()) {
		// Reap-on-read: the expired row is logically absent.
		if err := s.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("failed to reap expired session", zap.String("session_id", sessionID), zap.Error(err))
		}
		return nil, ErrSessionNotFound
	}

	if err := unmarshalPermissions(permissions, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *postgresSessionStore) Delete(ctx context.Context, sessionID string) error {
	const query = `DELETE FROM sessions WHERE session_id=$1`
	if _, err := s.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *postgresSessionStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= $1`
	cmd, err := s.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return cmd.RowsAffected(), nil
}

func marshalPermissions(permissions *domain.PermissionResult) ([]byte, error) {
	if permissions == nil {
		return nil, nil
	}
	data, err := json.Marshal(permissions)
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}
	return data, nil
}

func unmarshalPermissions(data []byte, record *domain.SessionRecord) error {
	if len(data) == 0 {
		return nil
	}
	var permissions domain.PermissionResult
	if err := json.Unmarshal(data, &permissions); err != nil {
		return fmt.Errorf("unmarshal permissions: %w", err)
	}
	record.Permissions = &permissions
	return nil
}
