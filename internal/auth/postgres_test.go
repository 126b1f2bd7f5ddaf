package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func userRows(users ...*User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "username", "email", "name", "password_hash",
		"role", "is_active", "last_login", "created_at", "updated_at",
	})
	for _, u := range users {
		var lastLogin any
		if u.LastLogin != nil {
			lastLogin = *u.LastLogin
		}
		rows.AddRow(u.ID, u.Username, u.Email, u.Name, u.PasswordHash,
			string(u.Role), u.IsActive, lastLogin, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

func TestPGStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	now := time.Now().UTC()
	mock.ExpectQuery("insert into users").
		WithArgs(sqlmock.AnyArg(), "alice", "alice@example.com", "Alice", "hash", "editor", true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &User{Username: "alice", Email: "alice@example.com", Name: "Alice", PasswordHash: "hash", Role: RoleEditor, IsActive: true}
	if err := store.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("Create must assign an id")
	}
	if !u.CreatedAt.Equal(now) {
		t.Fatalf("created_at not populated: %v", u.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreCreateUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	mock.ExpectQuery("insert into users").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "users_username_key"})

	u := &User{Username: "alice", Email: "alice@example.com", Name: "Alice", PasswordHash: "hash", Role: RoleEditor, IsActive: true}
	if err := store.Create(context.Background(), u); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestPGStoreByUsernameNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	mock.ExpectQuery("select .* from users where username").
		WithArgs("ghost").
		WillReturnRows(userRows())

	if _, err := store.ByUsername(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreByIDScansLastLogin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	now := time.Now().UTC()
	login := now.Add(-time.Hour)
	mock.ExpectQuery("select .* from users where id").
		WithArgs("u1").
		WillReturnRows(userRows(&User{
			ID: "u1", Username: "alice", Email: "alice@example.com", Name: "Alice",
			PasswordHash: "hash", Role: RoleAdmin, IsActive: true,
			LastLogin: &login, CreatedAt: now, UpdatedAt: now,
		}))

	u, err := store.ByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if u.Role != RoleAdmin {
		t.Fatalf("unexpected role: %q", u.Role)
	}
	if u.LastLogin == nil || !u.LastLogin.Equal(login) {
		t.Fatalf("last_login not scanned: %v", u.LastLogin)
	}
}

func TestPGStoreUpdatesReportNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	mock.ExpectExec("update users set is_active").
		WithArgs("ghost", false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.SetActive(context.Background(), "ghost", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	now := time.Now().UTC()
	active := true
	mock.ExpectQuery(`select count\(\*\) from users where role = \$1 and is_active = \$2 and \(username ilike \$3 or email ilike \$3\)`).
		WithArgs("editor", true, "%ali%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`select .* from users where role = \$1 .* order by created_at desc limit \$4 offset \$5`).
		WithArgs("editor", true, "%ali%", 10, 0).
		WillReturnRows(userRows(&User{
			ID: "u1", Username: "alice", Email: "alice@example.com", Name: "Alice",
			PasswordHash: "hash", Role: RoleEditor, IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		}))

	users, total, err := store.List(context.Background(), ListFilter{Role: RoleEditor, IsActive: &active, Search: "ali"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("unexpected listing: total=%d users=%v", total, users)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreCountByRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	mock.ExpectQuery(`select count\(\*\) from users where role = \$1`).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := store.CountByRole(context.Background(), RoleAdmin)
	if err != nil {
		t.Fatalf("CountByRole: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}
