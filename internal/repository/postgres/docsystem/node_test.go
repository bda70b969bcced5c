package docsystem

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"nodestore/internal/domain"
	models "nodestore/internal/domain/models/docsystem"
	"nodestore/internal/domain/repositories"
	"nodestore/internal/repository/postgres"
)

// fakeRow feeds fixed column values to Scan in nodeColumns order
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case **string:
			if r.values[i] == nil {
				*p = nil
			} else {
				s := r.values[i].(string)
				*p = &s
			}
		case *models.NodeType:
			*p = models.NodeType(r.values[i].(string))
		case *bool:
			*p = r.values[i].(bool)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return errors.New("unexpected scan target")
		}
	}
	return nil
}

func TestScanNode_ResolvesAccessRole(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name        string
		role        any
		wantRole    models.AccessRole
		wantVersion models.NodeSchemaVersion
	}{
		{name: "legacy row without role", role: nil, wantRole: models.AccessRoleEditor, wantVersion: models.NodeSchemaLegacy},
		{name: "explicit viewer", role: "viewer", wantRole: models.AccessRoleViewer, wantVersion: models.NodeSchemaCurrent},
		{name: "explicit editor", role: "editor", wantRole: models.AccessRoleEditor, wantVersion: models.NodeSchemaCurrent},
		{name: "unknown value treated as legacy", role: "owner", wantRole: models.AccessRoleEditor, wantVersion: models.NodeSchemaLegacy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := fakeRow{values: []any{"n1", "p1", nil, "a.txt", "file", true, tt.role, created}}

			node, err := scanNode(row)
			if err != nil {
				t.Fatalf("scanNode: %v", err)
			}
			if node.PublicAccessRole != tt.wantRole {
				t.Errorf("role = %q, want %q", node.PublicAccessRole, tt.wantRole)
			}
			if node.SchemaVersion != tt.wantVersion {
				t.Errorf("schema version = %d, want %d", node.SchemaVersion, tt.wantVersion)
			}
			if node.ParentID != nil {
				t.Errorf("parent = %v, want nil", *node.ParentID)
			}
			if !node.IsFile() || !node.CreatedAt.Equal(created) {
				t.Errorf("unexpected node %+v", node)
			}
		})
	}
}

func TestScanNode_PropagatesError(t *testing.T) {
	_, err := scanNode(fakeRow{err: errors.New("boom")})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Error("empty string must map to NULL")
	}
	if got := nullIfEmpty("x"); got == nil || *got != "x" {
		t.Errorf("nullIfEmpty(x) = %v", got)
	}
}

// scriptedTx answers QueryRow calls from a fixed list of rows, in order.
// Repositories pick it up through the transaction stored in the context.
type scriptedTx struct {
	pgx.Tx
	rows    []pgx.Row
	queries int
}

func (tx *scriptedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	tx.queries++
	if len(tx.rows) == 0 {
		return fakeRow{err: errors.New("unexpected query")}
	}
	row := tx.rows[0]
	tx.rows = tx.rows[1:]
	return row
}

const (
	testProjectID = "6f1c2d8e-3b4a-4c5d-9e6f-7a8b9c0d1e2f"
	testNodeID    = "0b7e9a44-1c2d-4e5f-8a9b-c0d1e2f3a4b5"
)

func newScriptedNodeRepo(rows ...pgx.Row) (*PostgresNodeRepository, *scriptedTx, context.Context) {
	tx := &scriptedTx{rows: rows}
	repo := &PostgresNodeRepository{
		tables: &postgres.TableNames{Nodes: "test_nodes"},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return repo, tx, repositories.SetTx(context.Background(), tx)
}

func existingFileRow(created time.Time) fakeRow {
	return fakeRow{values: []any{testNodeID, testProjectID, nil, "a.txt", "file", false, "viewer", created}}
}

func TestFindOrCreateFile(t *testing.T) {
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	miss := fakeRow{err: pgx.ErrNoRows}

	t.Run("returns existing file without inserting", func(t *testing.T) {
		repo, tx, ctx := newScriptedNodeRepo(existingFileRow(created))

		node, isNew, err := repo.FindOrCreateFile(ctx, &models.Node{ProjectID: testProjectID, Name: "a.txt"})
		if err != nil {
			t.Fatalf("FindOrCreateFile: %v", err)
		}
		if isNew || node.ID != testNodeID {
			t.Errorf("got id=%s created=%v, want existing %s", node.ID, isNew, testNodeID)
		}
		if tx.queries != 1 {
			t.Errorf("queries = %d, want 1", tx.queries)
		}
	})

	t.Run("inserts after a miss", func(t *testing.T) {
		repo, tx, ctx := newScriptedNodeRepo(miss, fakeRow{values: []any{testNodeID, created}})

		node, isNew, err := repo.FindOrCreateFile(ctx, &models.Node{ProjectID: testProjectID, Name: "a.txt"})
		if err != nil {
			t.Fatalf("FindOrCreateFile: %v", err)
		}
		if !isNew {
			t.Error("created = false, want true")
		}
		if node.ID != testNodeID || !node.CreatedAt.Equal(created) || !node.IsFile() {
			t.Errorf("unexpected node %+v", node)
		}
		if tx.queries != 2 {
			t.Errorf("queries = %d, want 2", tx.queries)
		}
	})

	t.Run("unique violation re-reads the concurrent winner", func(t *testing.T) {
		repo, tx, ctx := newScriptedNodeRepo(
			miss,
			fakeRow{err: &pgconn.PgError{Code: "23505"}},
			existingFileRow(created),
		)

		node, isNew, err := repo.FindOrCreateFile(ctx, &models.Node{ProjectID: testProjectID, Name: "a.txt"})
		if err != nil {
			t.Fatalf("FindOrCreateFile: %v", err)
		}
		if isNew {
			t.Error("created = true, want false after conflict")
		}
		if node.ID != testNodeID || node.PublicAccessRole != models.AccessRoleViewer {
			t.Errorf("unexpected node %+v", node)
		}
		if tx.queries != 3 {
			t.Errorf("queries = %d, want 3", tx.queries)
		}
	})

	t.Run("conflict with vanished row fails", func(t *testing.T) {
		repo, _, ctx := newScriptedNodeRepo(miss, fakeRow{err: &pgconn.PgError{Code: "23505"}}, miss)

		node, _, err := repo.FindOrCreateFile(ctx, &models.Node{ProjectID: testProjectID, Name: "a.txt"})
		if err == nil || node != nil {
			t.Fatalf("got node=%v err=%v, want error", node, err)
		}
	})

	t.Run("foreign key violation maps to not found", func(t *testing.T) {
		repo, _, ctx := newScriptedNodeRepo(miss, fakeRow{err: &pgconn.PgError{Code: "23503"}})

		node, isNew, err := repo.FindOrCreateFile(ctx, &models.Node{ProjectID: testProjectID, Name: "a.txt"})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if node != nil || isNew {
			t.Errorf("got node=%v created=%v, want nil/false", node, isNew)
		}
	})

	t.Run("other insert errors are wrapped", func(t *testing.T) {
		repo, _, ctx := newScriptedNodeRepo(miss, fakeRow{err: errors.New("connection reset")})

		_, _, err := repo.FindOrCreateFile(ctx, &models.Node{ProjectID: testProjectID, Name: "a.txt"})
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want wrapped non-not-found error", err)
		}
	})
}
