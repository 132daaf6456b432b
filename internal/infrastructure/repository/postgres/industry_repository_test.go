package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

var industryRowColumns = []string{"id", "name", "description", "metrics", "findings", "decision_hygiene", "updated_at"}

func newIndustryRepoWithMock(t *testing.T) (*IndustryRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewIndustryRepository(db), mock, func() { _ = db.Close() }
}

func TestGetIndustryReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newIndustryRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM industries").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetIndustry(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListIndustriesKeepsRawMetricEntries(t *testing.T) {
	repo, mock, done := newIndustryRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows(industryRowColumns).
		AddRow("legal", "Legal", "Courts", []byte(`[{"name":"X","value":60},"junk"]`), []byte(`["f1"]`),
			[]byte(`{"best_practices":["blind review"]}`), time.Now()).
		AddRow("medical", "Medical", "", []byte(`{"not":"a list"}`), []byte(`[]`), []byte(`{}`), time.Now())
	mock.ExpectQuery("FROM industries").WillReturnRows(rows)

	industries, err := repo.ListIndustries(context.Background())
	if err != nil {
		t.Fatalf("ListIndustries() error = %v", err)
	}
	if len(industries) != 2 {
		t.Fatalf("expected 2 industries, got %d", len(industries))
	}
	if len(industries[0].Metrics) != 2 || string(industries[0].Metrics[1]) != `"junk"` {
		t.Fatalf("expected raw metric entries, got %s", industries[0].Metrics)
	}
	if len(industries[0].Hygiene.BestPractices) != 1 || industries[0].Findings[0] != "f1" {
		t.Fatalf("unexpected decoded industry: %+v", industries[0])
	}
	if industries[1].Metrics == nil || len(industries[1].Metrics) != 0 {
		t.Fatalf("expected empty metrics for a non-array column, got %v", industries[1].Metrics)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceMetricsReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newIndustryRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE industries").
		WithArgs("missing", []byte(`[{"name":"A","value":1}]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReplaceMetrics(context.Background(), "missing", []json.RawMessage{json.RawMessage(`{"name":"A","value":1}`)})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceFindingsStoresEmptyListForNil(t *testing.T) {
	repo, mock, done := newIndustryRepoWithMock(t)
	defer done()

	mock.ExpectExec("SET findings").
		WithArgs("legal", []byte(`[]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ReplaceFindings(context.Background(), "legal", nil); err != nil {
		t.Fatalf("ReplaceFindings() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertIndustryWritesAllColumns(t *testing.T) {
	repo, mock, done := newIndustryRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO industries").
		WithArgs("legal", "Legal", "Courts", []byte(`[]`), []byte(`["f1"]`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertIndustry(context.Background(), domain.Industry{
		ID:          "legal",
		Name:        "Legal",
		Description: "Courts",
		Findings:    []string{"f1"},
	})
	if err != nil {
		t.Fatalf("UpsertIndustry() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
