package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yapplr/yapplr/internal/common"
	"github.com/yapplr/yapplr/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var accountColumns = []string{"id", "email", "username", "password_hash", "bio", "birthday", "pronouns", "tagline", "created_at", "updated_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	birthday := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	a := &models.Account{
		ID: "a-1", Email: "alice@example.com", Username: "alice", PasswordHash: "hash",
		Bio: "hi", Birthday: &birthday, Pronouns: "she/her", Tagline: "t", CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+accounts\b.*VALUES\s*\(\$1,.*\$10\)\s*$`).
		WithArgs("a-1", "alice@example.com", "alice", "hash", "hi", sql.NullTime{Time: birthday, Valid: true}, "she/her", "t", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+accounts`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	err := repo.Create(context.Background(), &models.Account{ID: "a-1"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want common.ErrConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+accounts`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.Account{ID: "a-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(accountColumns).
		AddRow("a-1", "alice@example.com", "alice", "hash", "", nil, "", "", now, now)
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,.*FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "a-1" || got.Username != "alice" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected account: %+v", got)
	}
	if got.Birthday != nil {
		t.Fatalf("expected nil birthday, got %v", got.Birthday)
	}
}

func TestGetByID_WithBirthday(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	birthday := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(accountColumns).
		AddRow("a-1", "alice@example.com", "alice", "hash", "bio", birthday, "they/them", "tag", now, now)
	mock.ExpectQuery(`FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1`).WithArgs("a-1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Birthday == nil || !got.Birthday.Equal(birthday) {
		t.Fatalf("unexpected birthday: %v", got.Birthday)
	}
	if got.Pronouns != "they/them" || got.Bio != "bio" {
		t.Fatalf("unexpected profile fields: %+v", got)
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+accounts\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestExistsByEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1\)`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsByEmail(context.Background(), "alice@example.com")
	if err != nil || !ok {
		t.Fatalf("ExistsByEmail = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestExistsByUsername_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE\s+username\s*=\s*\$1\)`).WillReturnError(errors.New("db err"))

	_, err := repo.ExistsByUsername(context.Background(), "alice")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestLockForUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-1"))
	mock.ExpectQuery(`FOR\s+UPDATE`).WithArgs("a-2").WillReturnError(sql.ErrNoRows)

	if err := repo.LockForUpdate(context.Background(), "a-1"); err != nil {
		t.Fatalf("LockForUpdate error: %v", err)
	}
	if err := repo.LockForUpdate(context.Background(), "a-2"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)UPDATE\s+accounts\s+SET\s+password_hash\s*=\s*\$2,\s*updated_at\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1`

	mock.ExpectExec(q).WithArgs("a-1", "newhash", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("a-2", "newhash", now).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdatePasswordHash(context.Background(), "a-1", "newhash", now); err != nil {
		t.Fatalf("UpdatePasswordHash error: %v", err)
	}
	if err := repo.UpdatePasswordHash(context.Background(), "a-2", "newhash", now); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
