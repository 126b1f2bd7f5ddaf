package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"inkwell.org/internal/ids"
)

const pgErrUniqueViolation = "23505"

var _ UserStore = (*PGStore)(nil)

// PGStore implements UserStore on PostgreSQL. Unique indexes on username
// and email provide the atomic duplicate detection the service relies on.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const userColumns = `id, username, email, name, password_hash, role, is_active, last_login, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, username, email, name, password_hash, role, is_active)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning created_at, updated_at
	`, u.ID, u.Username, u.Email, u.Name, u.PasswordHash, string(u.Role), u.IsActive)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *PGStore) ByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

func (s *PGStore) ByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username = $1`, username)
	return scanUser(row)
}

func (s *PGStore) ByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username = $1 or email = $2 limit 1`,
		username, email)
	return scanUser(row)
}

func (s *PGStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.exec(ctx,
		`update users set last_login = $2, updated_at = now() where id = $1`, id, at.UTC())
}

func (s *PGStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.exec(ctx,
		`update users set password_hash = $2, updated_at = now() where id = $1`, id, passwordHash)
}

func (s *PGStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.exec(ctx,
		`update users set is_active = $2, updated_at = now() where id = $1`, id, active)
}

func (s *PGStore) SetRole(ctx context.Context, id string, role Role) error {
	return s.exec(ctx,
		`update users set role = $2, updated_at = now() where id = $1`, id, string(role))
}

func (s *PGStore) List(ctx context.Context, filter ListFilter) ([]*User, int64, error) {
	where, args := buildListWhere(filter)
	page, limit := normalizePage(filter.Page, filter.Limit)

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`select `+userColumns+` from users`+where+
			` order by created_at desc limit $%d offset $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (s *PGStore) CountByRole(ctx context.Context, role Role) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`select count(*) from users where role = $1`, string(role)).Scan(&n)
	return n, err
}

func (s *PGStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func buildListWhere(filter ListFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(username ilike $%d or email ilike $%d)", len(args), len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " where " + strings.Join(clauses, " and "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u         User
		role      string
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.PasswordHash,
		&role, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = Role(role)
	if lastLogin.Valid {
		ts := lastLogin.Time
		u.LastLogin = &ts
	}
	return &u, nil
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
