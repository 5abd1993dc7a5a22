package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicate is returned when a unique field is already taken.
var ErrDuplicate = errors.New("already exists")

const userColumns = `id, email, display_name, password_hash, role, is_banned, created_at`

// CreateUser stores a new user. Missing id, role and creation time are
// filled in.
func (s *SQLiteStorage) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	_, err := s.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.Role, boolInt(u.IsBanned), FormatTimestamp(u.CreatedAt))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return User{}, ErrDuplicate
		}
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetUser loads a user by id.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail loads a user by email, ignoring case.
func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *SQLiteStorage) getUser(ctx context.Context, query string, arg any) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers returns users newest first. A non-empty query keeps users whose
// email or display name contains it, ignoring case.
func (s *SQLiteStorage) ListUsers(ctx context.Context, query string, limit int) ([]User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if term := strings.ToLower(strings.TrimSpace(query)); term != "" {
		q += ` WHERE instr(lower(email), ?) > 0 OR instr(lower(display_name), ?) > 0`
		args = append(args, term, term)
	}
	q += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping unreadable user row")
			continue
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetUserBanned updates the ban flag.
func (s *SQLiteStorage) SetUserBanned(ctx context.Context, id string, banned bool) error {
	return s.execOne(ctx, `UPDATE users SET is_banned = ? WHERE id = ?`, boolInt(banned), id)
}

// SetUserRole changes a user's role.
func (s *SQLiteStorage) SetUserRole(ctx context.Context, id, role string) error {
	return s.execOne(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
}

// DeleteUser removes a user.
func (s *SQLiteStorage) DeleteUser(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM users WHERE id = ?`, id)
}

// CountUsers returns the number of registered users.
func (s *SQLiteStorage) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(sc scanner) (User, error) {
	var u User
	var banned int
	var created any
	if err := sc.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role, &banned, &created); err != nil {
		return User{}, err
	}
	u.IsBanned = banned != 0
	u.CreatedAt, _ = ParseTimestamp(created)
	return u, nil
}
