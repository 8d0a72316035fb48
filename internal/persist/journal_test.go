package persist

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/f2edit/editor/internal/config"
	"github.com/f2edit/editor/internal/savefile"
)

func TestRecorderCollectsWrites(t *testing.T) {
	t.Parallel()

	sid := uuid.New()
	r := NewRecorder(sid, "/saves/SLOT01/SAVE.DAT", "abcd")
	r.ObserveWrite(savefile.WriteEvent{
		Kind: "skill", Region: savefile.RegionAttributes, Name: "lockpick",
		Offset: 0x3A4, Old: []byte{0, 0, 0, 5}, New: []byte{0, 0, 0, 80},
	})
	r.ObserveWrite(savefile.WriteEvent{
		Kind: "perk", Region: savefile.RegionPerks, Name: "awareness",
		Offset: 0x500, Old: []byte{0, 0, 0, 0}, New: []byte{0, 0, 0, 1},
	})

	got := r.Entries()
	if len(got) != 2 {
		t.Fatalf("entries: got %d want 2", len(got))
	}
	first := got[0]
	if first.SessionID != sid || first.SavePath != "/saves/SLOT01/SAVE.DAT" || first.SaveDigest != "abcd" {
		t.Fatalf("identity: got %+v", first)
	}
	if first.Kind != "skill" || first.Region != "attributes" || first.Name != "lockpick" || first.Offset != 0x3A4 {
		t.Fatalf("first entry: got %+v", first)
	}
	if got[1].Region != "perks" || got[1].New[3] != 1 {
		t.Fatalf("second entry: got %+v", got[1])
	}
	if first.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}

	r.Reset()
	if len(r.Entries()) != 0 {
		t.Fatalf("reset: entries remain")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("no migrations embedded")
	}
	raw, err := fs.ReadFile(migrations, files[0])
	if err != nil {
		t.Fatalf("read %s: %v", files[0], err)
	}
	body := string(raw)
	if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "edit_journal") {
		t.Fatalf("%s does not create edit_journal", files[0])
	}
}

// tableColumns returns the column names of the edit_journal table as the
// embedded migration creates it.
func tableColumns(t *testing.T) []string {
	t.Helper()
	raw, err := fs.ReadFile(migrations, "migrations/00001_edit_journal.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	_, body, ok := strings.Cut(string(raw), "CREATE TABLE edit_journal (")
	if !ok {
		t.Fatalf("migration has no CREATE TABLE edit_journal")
	}
	body, _, _ = strings.Cut(body, ");")
	var cols []string
	for _, line := range strings.Split(body, "\n") {
		if f := strings.Fields(line); len(f) > 0 {
			cols = append(cols, f[0])
		}
	}
	return cols
}

// listColumns splits the comma separated list between open and the next
// end in stmt.
func listColumns(t *testing.T, stmt, open, end string) []string {
	t.Helper()
	_, rest, ok := strings.Cut(stmt, open)
	if !ok {
		t.Fatalf("%q not found in %q", open, stmt)
	}
	list, _, ok := strings.Cut(rest, end)
	if !ok {
		t.Fatalf("%q not found after %q", end, open)
	}
	var cols []string
	for _, c := range strings.Split(list, ",") {
		cols = append(cols, strings.TrimSpace(c))
	}
	return cols
}

func TestJournalSQLMatchesMigration(t *testing.T) {
	t.Parallel()

	table := tableColumns(t)
	if len(table) == 0 || table[0] != "id" {
		t.Fatalf("table columns: got %v, want id first", table)
	}

	if diff := cmp.Diff(table, listColumns(t, recentJournalSQL, "SELECT ", "FROM")); diff != "" {
		t.Errorf("select columns (-table +select):\n%s", diff)
	}

	insertCols := listColumns(t, insertJournalSQL, "edit_journal (", ")")
	if diff := cmp.Diff(table[1:], insertCols); diff != "" {
		t.Errorf("insert columns (-table +insert):\n%s", diff)
	}
	placeholders := listColumns(t, insertJournalSQL, "VALUES (", ")")
	if len(placeholders) != len(insertCols) {
		t.Errorf("insert has %d columns and %d placeholders", len(insertCols), len(placeholders))
	}
}

func TestMigrationProviderUsesJournalMigrations(t *testing.T) {
	t.Parallel()

	sqlDB, err := sql.Open("pgx", "postgres://f2edit@localhost:1/f2edit")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sqlDB.Close()

	p, err := newMigrationProvider(sqlDB)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	sources := p.ListSources()
	if len(sources) == 0 || sources[0].Version != 1 {
		t.Fatalf("sources: got %+v, want version 1 first", sources)
	}
	if filepath.Base(sources[0].Path) != "00001_edit_journal.sql" {
		t.Fatalf("first migration: got %s", sources[0].Path)
	}
}

func TestApplyPoolLimits(t *testing.T) {
	t.Parallel()

	poolCfg, err := pgxpool.ParseConfig("postgres://f2edit@localhost/f2edit")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defaultLifetime := poolCfg.MaxConnLifetime

	applyPoolLimits(poolCfg, config.JournalConfig{MaxOpenConns: 2, MaxIdleConns: 5})
	if poolCfg.MaxConns != 2 || poolCfg.MinConns != 2 {
		t.Fatalf("conns: got max %d min %d want 2 and 2", poolCfg.MaxConns, poolCfg.MinConns)
	}
	if poolCfg.MaxConnLifetime != defaultLifetime {
		t.Fatalf("zero lifetime replaced the default: got %v", poolCfg.MaxConnLifetime)
	}

	applyPoolLimits(poolCfg, config.JournalConfig{ConnMaxLifetime: time.Minute})
	if poolCfg.MaxConnLifetime != time.Minute || poolCfg.MaxConns != 2 {
		t.Fatalf("lifetime: got %v max %d", poolCfg.MaxConnLifetime, poolCfg.MaxConns)
	}
}

func TestNewDBRequiresDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewDB(context.Background(), config.JournalConfig{}, nil); !errors.Is(err, errNoDSN) {
		t.Fatalf("got %v want errNoDSN", err)
	}
}

// TestJournalRoundTrip needs a disposable PostgreSQL database named by
// F2EDIT_TEST_DSN. It migrates it and appends then reads back entries.
func TestJournalRoundTrip(t *testing.T) {
	dsn := os.Getenv("F2EDIT_TEST_DSN")
	if dsn == "" {
		t.Skip("F2EDIT_TEST_DSN not set")
	}
	ctx := context.Background()

	db, err := NewDB(ctx, config.JournalConfig{DSN: dsn, MaxOpenConns: 2}, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A second run finds nothing pending.
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("migrate again: %v", err)
	}

	path := filepath.Join(t.TempDir(), "SAVE.DAT")
	sid := uuid.New()
	r := NewRecorder(sid, path, "d1g3st")
	r.ObserveWrite(savefile.WriteEvent{
		Kind: "skill", Region: savefile.RegionAttributes, Name: "lockpick",
		Offset: 0x3A4, Old: []byte{0, 0, 0, 5}, New: []byte{0, 0, 0, 80},
	})
	r.ObserveWrite(savefile.WriteEvent{
		Kind: "field", Region: savefile.RegionHeader, Name: "savetime",
		Offset: 0x5B, Old: []byte{1, 2}, New: []byte{0xA0, 0xFF},
	})

	repo := NewJournalRepo(db)
	if err := repo.Append(ctx, r.Entries()); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := repo.Recent(ctx, path, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries: got %d want 2", len(got))
	}

	newest, oldest := got[0], got[1]
	if newest.ID <= oldest.ID {
		t.Fatalf("order: ids %d then %d, want newest first", newest.ID, oldest.ID)
	}
	if oldest.SessionID != sid || oldest.SavePath != path || oldest.SaveDigest != "d1g3st" {
		t.Fatalf("identity: got %+v", oldest)
	}
	if oldest.Kind != "skill" || oldest.Region != "attributes" || oldest.Name != "lockpick" || oldest.Offset != 0x3A4 {
		t.Fatalf("skill entry: got %+v", oldest)
	}
	if newest.Region != "header" || newest.Offset != 0x5B ||
		!bytes.Equal(newest.Old, []byte{1, 2}) || !bytes.Equal(newest.New, []byte{0xA0, 0xFF}) {
		t.Fatalf("savetime entry: got %+v", newest)
	}

	if got, err := repo.Recent(ctx, path, 1); err != nil || len(got) != 1 {
		t.Fatalf("limit 1: got %d entries, %v", len(got), err)
	}
}
