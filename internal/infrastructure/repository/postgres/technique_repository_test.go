package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

var techniqueRowColumns = []string{"id", "name", "description", "impact_metrics", "implementation_steps", "industries"}

func TestListTechniquesFiltersByIndustryContainment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewTechniqueRepository(db)
	rows := sqlmock.NewRows(techniqueRowColumns).
		AddRow("t-1", "Blind review", "", []byte(`{"variance":-30,"note":"big"}`), []byte(`["step"]`), []byte(`["legal"]`))
	mock.ExpectQuery(`industries @> \$1::jsonb`).
		WithArgs([]byte(`["legal"]`)).
		WillReturnRows(rows)

	techniques, err := repo.ListTechniques(context.Background(), "legal")
	if err != nil {
		t.Fatalf("ListTechniques() error = %v", err)
	}
	if len(techniques) != 1 {
		t.Fatalf("expected 1 technique, got %d", len(techniques))
	}
	got := techniques[0]
	if len(got.ImpactMetrics) != 1 || got.ImpactMetrics["variance"] != -30 {
		t.Fatalf("expected non-numeric impact metrics dropped, got %v", got.ImpactMetrics)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListTechniquesWithoutIndustryReturnsAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewTechniqueRepository(db)
	rows := sqlmock.NewRows(techniqueRowColumns).
		AddRow("t-1", "A", "", []byte(`{}`), []byte(`[]`), []byte(`["legal"]`)).
		AddRow("t-2", "B", "", []byte(`{}`), []byte(`[]`), []byte(`["medical"]`))
	mock.ExpectQuery("FROM techniques").
		WillReturnRows(rows)

	techniques, err := repo.ListTechniques(context.Background(), "")
	if err != nil {
		t.Fatalf("ListTechniques() error = %v", err)
	}
	if len(techniques) != 2 {
		t.Fatalf("expected 2 techniques, got %d", len(techniques))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertTechniquesRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewTechniqueRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO techniques").
		WithArgs("t-1", "A", "", []byte(`{}`), []byte(`[]`), []byte(`["legal"]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO techniques").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err = repo.UpsertTechniques(context.Background(), []domain.Technique{
		{ID: "t-1", Name: "A", Industries: []string{"legal"}},
		{ID: "t-2", Name: "B"},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
