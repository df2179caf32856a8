package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newTokenMock(t *testing.T) (*TokenRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return NewTokenRepo(db), mock, func() { db.Close() }
}

func TestRedeemUnknownToken(t *testing.T) {
	repo, mock, done := newTokenMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash").
		WithArgs("deadbeef").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}))
	mock.ExpectRollback()

	if _, err := repo.Redeem(context.Background(), "deadbeef"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestRedeemExpiredToken(t *testing.T) {
	repo, mock, done := newTokenMock(t)
	defer done()

	expired := time.Now().UTC().Add(-time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash").
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(uint64(1), expired, nil))
	mock.ExpectRollback()

	if _, err := repo.Redeem(context.Background(), "abc123"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestRedeemRevokesTokenOnSuccess(t *testing.T) {
	repo, mock, done := newTokenMock(t)
	defer done()

	live := time.Now().UTC().Add(24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash").
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(uint64(7), live, nil))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	userID, err := repo.Redeem(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if userID != 7 {
		t.Fatalf("userID = %d, want 7", userID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
