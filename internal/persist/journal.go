package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/f2edit/editor/internal/savefile"
)

// JournalEntry is one committed save write.
type JournalEntry struct {
	ID         int64
	SessionID  uuid.UUID
	SavePath   string
	SaveDigest string // blake2b of the save before the session's first write
	Kind       string
	Region     string
	Name       string
	Offset     int
	Old        []byte
	New        []byte
	CreatedAt  time.Time
}

// Recorder collects a session's writes in memory until they are appended
// to the journal. It never blocks the write path on the database.
type Recorder struct {
	sessionID uuid.UUID
	savePath  string
	digest    string
	entries   []JournalEntry
}

func NewRecorder(sessionID uuid.UUID, savePath, digest string) *Recorder {
	return &Recorder{sessionID: sessionID, savePath: savePath, digest: digest}
}

// ObserveWrite implements savefile.WriteObserver.
func (r *Recorder) ObserveWrite(ev savefile.WriteEvent) {
	r.entries = append(r.entries, JournalEntry{
		SessionID:  r.sessionID,
		SavePath:   r.savePath,
		SaveDigest: r.digest,
		Kind:       ev.Kind,
		Region:     ev.Region.String(),
		Name:       ev.Name,
		Offset:     ev.Offset,
		Old:        ev.Old,
		New:        ev.New,
		CreatedAt:  time.Now(),
	})
}

// Entries returns the buffered entries in write order.
func (r *Recorder) Entries() []JournalEntry {
	return append([]JournalEntry(nil), r.entries...)
}

// Reset drops buffered entries, typically after a successful Append.
func (r *Recorder) Reset() {
	r.entries = r.entries[:0]
}

// Column order in both statements matches the arguments of Append and the
// Scan targets of Recent.
const (
	insertJournalSQL = `INSERT INTO edit_journal (session_id, save_path, save_digest, kind, region, name, byte_offset, old_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	recentJournalSQL = `SELECT id, session_id, save_path, save_digest, kind, region, name, byte_offset, old_value, new_value, created_at
		FROM edit_journal WHERE save_path = $1
		ORDER BY id DESC LIMIT $2`
)

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Append writes a batch of entries in a single transaction. The save file
// writes they describe are already on disk either way.
func (r *JournalRepo) Append(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			insertJournalSQL,
			pgtype.UUID{Bytes: e.SessionID, Valid: true}, e.SavePath, e.SaveDigest,
			e.Kind, e.Region, e.Name, int32(e.Offset), e.Old, e.New, e.CreatedAt,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Recent returns the newest entries for a save path, newest first.
func (r *JournalRepo) Recent(ctx context.Context, savePath string, limit int) ([]JournalEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		recentJournalSQL,
		savePath, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var result []JournalEntry
	for rows.Next() {
		var (
			e      JournalEntry
			sid    pgtype.UUID
			offset int32
		)
		if err := rows.Scan(
			&e.ID, &sid, &e.SavePath, &e.SaveDigest, &e.Kind, &e.Region, &e.Name,
			&offset, &e.Old, &e.New, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		e.SessionID = uuid.UUID(sid.Bytes)
		e.Offset = int(offset)
		result = append(result, e)
	}
	return result, rows.Err()
}
