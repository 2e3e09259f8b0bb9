package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
)

func newMockStore(t *testing.T) (*PostgresSnapshotStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresSnapshotStore(db), mock
}

func TestPostgresSnapshotStore_Load(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT value FROM gallery_snapshots WHERE key = $1`)

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		want    string
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("uploadedImages").
					WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"version":1}`)))
			},
			want: `{"version":1}`,
		},
		{
			name: "absent key",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("uploadedImages").
					WillReturnRows(sqlmock.NewRows([]string{"value"}))
			},
			wantErr: port.ErrSnapshotNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tc.setup(mock)

			got, err := store.Load(ctx, "uploadedImages")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tc.wantErr)
			}
			if string(got) != tc.want {
				t.Fatalf("Load() = %q, want %q", got, tc.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestPostgresSnapshotStore_LoadQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT value FROM gallery_snapshots").
		WillReturnError(errors.New("connection reset"))

	_, err := store.Load(context.Background(), "uploadedImages")
	if err == nil || errors.Is(err, port.ErrSnapshotNotFound) {
		t.Fatalf("expected a backend error, got %v", err)
	}
}

func TestPostgresSnapshotStore_SaveUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`(?s)INSERT INTO gallery_snapshots.*ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("uploadedImages", []byte("snapshot"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Save(context.Background(), "uploadedImages", []byte("snapshot")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSnapshotStore_EnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS gallery_snapshots").
		WillReturnError(errors.New("permission denied"))

	if err := store.EnsureSchema(context.Background()); err == nil {
		t.Fatalf("expected schema error")
	}
}
