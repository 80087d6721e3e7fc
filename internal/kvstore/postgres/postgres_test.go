package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fruitsalade/saladefs/internal/kvstore"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db, "trees"), mock
}

func TestGetReturnsValue(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT value FROM kv_records`).
		WithArgs("trees", "fs").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte("payload")))

	got, err := s.Get(context.Background(), "fs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get = %q, want %q", got, "payload")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGetMissingKey(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT value FROM kv_records`).
		WithArgs("trees", "fs").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := s.Get(context.Background(), "fs")
	if !errors.Is(err, kvstore.ErrNotFound) {
		t.Errorf("Get missing key: err = %v, want ErrNotFound", err)
	}
}

func TestPutUpsertsInTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv_records`).
		WithArgs("trees", "fs", []byte("payload")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.Put(context.Background(), "fs", []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPutRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv_records`).
		WithArgs("trees", "fs", []byte("payload")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := s.Put(context.Background(), "fs", []byte("payload")); err == nil {
		t.Error("Put succeeded despite exec error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestOpenPingsAndMigrates(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := NewWithDB(db, "trees")

	mock.ExpectPing()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv_records`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestOpenFailsOnPingError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := NewWithDB(db, "trees")

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	if err := s.Open(context.Background()); err == nil {
		t.Error("Open succeeded despite ping error")
	}
}
