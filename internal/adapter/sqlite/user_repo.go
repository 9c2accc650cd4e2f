package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vertextoedge/terabox-relay/internal/domain"
)

// settingColumns maps setting names to their column. Column names are never
// taken from input directly.
var settingColumns = map[string]string{
	domain.SettingAutoShort:  "auto_short",
	domain.SettingAutoMirror: "auto_mirror",
}

// UpsertUser records a user, refreshing names and keeping first_seen.
// A settings row with the default values is created for new users.
func (s *Store) UpsertUser(ctx context.Context, user *domain.User) error {
	firstSeen := user.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (user_id, first_name, last_name, username, first_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			username = excluded.username
	`, user.ID, user.FirstName, user.LastName, user.Username, firstSeen.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	if err := s.ensureSettings(ctx, tx, user.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetUser returns a stored user, or nil when unknown
func (s *Store) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	user := &domain.User{}
	var firstSeen int64

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, first_name, last_name, username, first_seen
		FROM users
		WHERE user_id = ?
	`, userID).Scan(&user.ID, &user.FirstName, &user.LastName, &user.Username, &firstSeen)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user.FirstSeen = time.Unix(firstSeen, 0)
	return user, nil
}

// GetSettings returns the stored settings or the defaults
func (s *Store) GetSettings(ctx context.Context, userID int64) (domain.Settings, error) {
	var short, mirror bool

	err := s.db.QueryRowContext(ctx,
		"SELECT auto_short, auto_mirror FROM settings WHERE user_id = ?", userID,
	).Scan(&short, &mirror)

	if errors.Is(err, sql.ErrNoRows) {
		return s.defaults, nil
	}
	if err != nil {
		return domain.Settings{}, err
	}

	return domain.Settings{AutoShort: short, AutoMirror: mirror}, nil
}

// ToggleSetting flips the named setting and returns the resulting settings
func (s *Store) ToggleSetting(ctx context.Context, userID int64, name string) (domain.Settings, error) {
	column, ok := settingColumns[name]
	if !ok {
		return domain.Settings{}, fmt.Errorf("unknown setting %q", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Settings{}, err
	}
	defer tx.Rollback()

	if err := s.ensureSettings(ctx, tx, userID); err != nil {
		return domain.Settings{}, err
	}

	query := fmt.Sprintf("UPDATE settings SET %s = 1 - %s WHERE user_id = ?", column, column)
	if _, err := tx.ExecContext(ctx, query, userID); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to toggle %s: %w", name, err)
	}

	var settings domain.Settings
	err = tx.QueryRowContext(ctx,
		"SELECT auto_short, auto_mirror FROM settings WHERE user_id = ?", userID,
	).Scan(&settings.AutoShort, &settings.AutoMirror)
	if err != nil {
		return domain.Settings{}, err
	}

	return settings, tx.Commit()
}

// CountUsers returns the number of known users
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// ListUserIDs returns all user ids in ascending order
func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id FROM users ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ensureSettings inserts the default settings row if none exists
func (s *Store) ensureSettings(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO settings (user_id, auto_short, auto_mirror) VALUES (?, ?, ?)",
		userID, boolToInt(s.defaults.AutoShort), boolToInt(s.defaults.AutoMirror),
	)
	if err != nil {
		return fmt.Errorf("failed to create settings: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
