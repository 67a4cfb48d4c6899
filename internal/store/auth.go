package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Credentials returns the tokens of the most recently authorized athlete
func (s *Store) Credentials(ctx context.Context) (*Credentials, error) {
	var (
		c         Credentials
		expiresAt int64
		authedAt  int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT athlete_id, access_token, refresh_token, expires_at, authorized_at
		FROM credentials
		ORDER BY authorized_at DESC, athlete_id DESC
		LIMIT 1
	`).Scan(&c.AthleteID, &c.AccessToken, &c.RefreshToken, &expiresAt, &authedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAuth
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	c.ExpiresAt = time.Unix(expiresAt, 0)
	c.AuthorizedAt = time.Unix(authedAt, 0)
	return &c, nil
}

// SaveCredentials records a completed authorization. Authorizing the same
// athlete again replaces its tokens.
func (s *Store) SaveCredentials(ctx context.Context, c *Credentials) error {
	if c.AthleteID == 0 {
		return errors.New("saving credentials: missing athlete id")
	}
	if c.AuthorizedAt.IsZero() {
		c.AuthorizedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (athlete_id, access_token, refresh_token, expires_at, authorized_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			authorized_at = excluded.authorized_at
	`, c.AthleteID, c.AccessToken, c.RefreshToken, c.ExpiresAt.Unix(), c.AuthorizedAt.Unix())
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// UpdateTokens stores refreshed tokens for athleteID. ErrNoAuth means the
// athlete was never authorized.
func (s *Store) UpdateTokens(ctx context.Context, athleteID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE credentials
		SET access_token = ?, refresh_token = ?, expires_at = ?
		WHERE athlete_id = ?
	`, accessToken, refreshToken, expiresAt.Unix(), athleteID)
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	} else if n == 0 {
		return ErrNoAuth
	}
	return nil
}
