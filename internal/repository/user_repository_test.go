package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/kirovavto/bus-reservation/internal/model"
)

func newUserMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return NewUserRepo(db), mock, func() { db.Close() }
}

func TestUserCreateTrimsAndAssignsID(t *testing.T) {
	repo, mock, done := newUserMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("kassir1", "secret", model.RoleCashier, "Касса №1", "", "").
		WillReturnResult(sqlmock.NewResult(4, 1))

	u := model.User{Username: "  kassir1 ", Password: "secret", Role: model.RoleCashier, FullName: "Касса №1"}
	id, err := repo.Create(context.Background(), &u)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 4 || u.ID != 4 {
		t.Fatalf("id = %d / %d, want 4", id, u.ID)
	}
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	repo, mock, done := newUserMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry 'passenger' for key 'users.uniq_username'",
		})

	u := model.User{Username: "passenger", Password: "x", Role: model.RolePassenger}
	if _, err := repo.Create(context.Background(), &u); !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
}

func TestUserGetByUsernameNotFound(t *testing.T) {
	repo, mock, done := newUserMock(t)
	defer done()

	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByUsername(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserDeleteWithBookings(t *testing.T) {
	repo, mock, done := newUserMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM users").
		WithArgs(uint64(2)).
		WillReturnError(&mysql.MySQLError{
			Number:  1451,
			Message: "Cannot delete or update a parent row: a foreign key constraint fails",
		})

	if err := repo.Delete(context.Background(), 2); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}
