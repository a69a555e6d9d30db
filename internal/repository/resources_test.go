package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupResourceMock(t *testing.T) (*PostgresResourceRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresResourceRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestList_MergesIDIntoDocuments(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "data"}).
		AddRow(1, []byte(`{"company_name":"Acme"}`)).
		AddRow(2, []byte(`{"company_name":"Batico"}`))
	mock.ExpectQuery("SELECT id, data FROM resources").
		WithArgs("clients").
		WillReturnRows(rows)

	docs, err := repo.List(context.Background(), "clients")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d; want 2", len(docs))
	}
	if docs[0]["id"] != int64(1) || docs[0]["company_name"] != "Acme" {
		t.Errorf("docs[0] = %+v; want id 1 merged in", docs[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestInsert_ReturnsAssignedID(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO resources (kind, data) VALUES ($1, $2) RETURNING id`)).
		WithArgs("clients", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	doc, err := repo.Insert(context.Background(), "clients", map[string]any{"company_name": "Acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc["id"] != int64(42) {
		t.Errorf("id = %v; want 42", doc["id"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdate_MergesPatch(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT data FROM resources").
		WithArgs("employees", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"first_name":"Marc","job_title":"Chef"}`)))
	mock.ExpectExec("UPDATE resources SET data").
		WithArgs(sqlmock.AnyArg(), "employees", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc, err := repo.Update(context.Background(), "employees", 7, map[string]any{"job_title": "Lead"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc["job_title"] != "Lead" || doc["first_name"] != "Marc" || doc["id"] != int64(7) {
		t.Errorf("doc = %+v; want merged patch with untouched fields", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT data FROM resources").
		WithArgs("employees", int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"data"}))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "employees", 99, map[string]any{"job_title": "Lead"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDelete_SoftDeletes(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE resources SET deleted = true").
		WithArgs("assignments", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "assignments", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDelete_UnknownID(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE resources SET deleted = true").
		WithArgs("assignments", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "assignments", 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
