// Package persistence provides database adapters.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
	"github.com/Vansh1811/INBoxit-sub000/core/port/out"
	"github.com/Vansh1811/INBoxit-sub000/pkg/crypto"
	"github.com/Vansh1811/INBoxit-sub000/pkg/logger"

	"github.com/jmoiron/sqlx"
)

// UserAdapter implements out.UserStore over the users table.
// Tokens are encrypted at rest when an encryptor is configured.
type UserAdapter struct {
	db  *sqlx.DB
	enc *crypto.Encryptor
}

// NewUserAdapter creates a new UserAdapter. A nil encryptor stores tokens in plain text.
func NewUserAdapter(db *sqlx.DB, enc *crypto.Encryptor) *UserAdapter {
	if enc == nil {
		logger.Warn("token encryption disabled")
	}
	return &UserAdapter{db: db, enc: enc}
}

type userRow struct {
	ID              string       `db:"id"`
	Email           string       `db:"email"`
	AccessToken     string       `db:"access_token"`
	RefreshToken    string       `db:"refresh_token"`
	TokenExpiry     sql.NullTime `db:"token_expiry"`
	LastRefreshedAt sql.NullTime `db:"last_refreshed_at"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id                TEXT PRIMARY KEY,
	email             TEXT NOT NULL DEFAULT '',
	access_token      TEXT NOT NULL DEFAULT '',
	refresh_token     TEXT NOT NULL DEFAULT '',
	token_expiry      TIMESTAMPTZ,
	last_refreshed_at TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the users table if it does not exist.
func (a *UserAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, usersSchema); err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

const userColumns = `id, email, access_token, refresh_token, token_expiry, last_refreshed_at, created_at, updated_at`

// GetUser loads a user and decrypts its credential.
func (a *UserAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	if err := a.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return a.toDomain(&row), nil
}

// UpdateCredential writes the refreshed token fields. The refresh token
// column is only touched when the update carries a new one.
func (a *UserAdapter) UpdateCredential(ctx context.Context, userID string, update domain.CredentialUpdate) error {
	query, args := a.buildCredentialUpdate(userID, update)

	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SaveUser inserts or replaces a user with its full credential.
func (a *UserAdapter) SaveUser(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return ErrInvalidInput
	}
	query := `
		INSERT INTO users (id, email, access_token, refresh_token, token_expiry, last_refreshed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expiry = EXCLUDED.token_expiry,
			last_refreshed_at = EXCLUDED.last_refreshed_at,
			updated_at = NOW()`

	_, err := a.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		a.encryptToken(user.Credential.AccessToken),
		a.encryptToken(user.Credential.RefreshToken),
		nullTime(user.Credential.Expiry),
		nullTime(user.Credential.LastRefreshedAt),
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (a *UserAdapter) buildCredentialUpdate(userID string, update domain.CredentialUpdate) (string, []any) {
	sets := []string{"access_token = $1", "token_expiry = $2", "last_refreshed_at = $3"}
	args := []any{
		a.encryptToken(update.AccessToken),
		nullTime(update.Expiry),
		nullTime(update.LastRefreshedAt),
	}
	if update.RefreshToken != nil && *update.RefreshToken != "" {
		args = append(args, a.encryptToken(*update.RefreshToken))
		sets = append(sets, fmt.Sprintf("refresh_token = $%d", len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args
}

func (a *UserAdapter) toDomain(row *userRow) *domain.User {
	u := &domain.User{
		ID:        row.ID,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Credential: domain.Credential{
			AccessToken:  a.decryptToken(row.AccessToken),
			RefreshToken: a.decryptToken(row.RefreshToken),
		},
	}
	if row.TokenExpiry.Valid {
		u.Credential.Expiry = row.TokenExpiry.Time
	}
	if row.LastRefreshedAt.Valid {
		u.Credential.LastRefreshedAt = row.LastRefreshedAt.Time
	}
	return u
}

func (a *UserAdapter) encryptToken(token string) string {
	if a.enc == nil || token == "" {
		return token
	}
	encrypted, err := a.enc.Encrypt(token)
	if err != nil {
		logger.Warn("failed to encrypt token: %v", err)
		return token
	}
	return encrypted
}

// decryptToken passes legacy plain-text tokens through unchanged.
func (a *UserAdapter) decryptToken(token string) string {
	if a.enc == nil || !crypto.IsEncrypted(token) {
		return token
	}
	decrypted, err := a.enc.Decrypt(token)
	if err != nil {
		return token
	}
	return decrypted
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

var _ out.UserStore = (*UserAdapter)(nil)
