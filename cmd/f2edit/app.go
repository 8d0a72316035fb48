package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/f2edit/editor/internal/backup"
	"github.com/f2edit/editor/internal/config"
	"github.com/f2edit/editor/internal/data"
	"github.com/f2edit/editor/internal/persist"
	"github.com/f2edit/editor/internal/savefile"
)

var errNoSave = errors.New("no save selected (use --save)")

// app carries what every command shares: config, logger and the lookup
// tables, which are loaded on first use.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	tables *savefile.Tables
	items  *data.ItemCatalog
}

func (a *app) loadTables() (savefile.Tables, error) {
	if a.tables != nil {
		return *a.tables, nil
	}
	items, err := data.LoadItemCatalog(a.cfg.Data.Items)
	if err != nil {
		return savefile.Tables{}, fmt.Errorf("load items: %w", err)
	}
	skills, err := data.LoadSkillTable(a.cfg.Data.Skills)
	if err != nil {
		return savefile.Tables{}, fmt.Errorf("load skills: %w", err)
	}
	perks, err := data.LoadPerkTable(a.cfg.Data.Perks)
	if err != nil {
		return savefile.Tables{}, fmt.Errorf("load perks: %w", err)
	}
	a.log.Debug("tables loaded",
		zap.Int("items", items.Count()),
		zap.Int("skills", skills.Count()),
		zap.Int("perks", perks.Count()),
	)
	a.items = items
	a.tables = &savefile.Tables{Items: items, Skills: skills, Perks: perks}
	return *a.tables, nil
}

// savePath returns the save file selected by --save.
func (a *app) savePath(cmd *cli.Command) (string, error) {
	slot := cmd.String("save")
	if slot == "" {
		return "", errNoSave
	}
	return filepath.Join(a.cfg.SlotPath(slot), a.cfg.Saves.FileName), nil
}

// saveHandle is an open session plus the journal plumbing attached to it.
type saveHandle struct {
	*savefile.Session
	log      *zap.Logger
	db       *persist.DB
	recorder *persist.Recorder
}

// openSave opens the selected save. Writable handles get a backup first
// and, when the journal is enabled, a recorder for every write.
func (a *app) openSave(ctx context.Context, cmd *cli.Command, writable bool) (*saveHandle, error) {
	path, err := a.savePath(cmd)
	if err != nil {
		return nil, err
	}
	tables, err := a.loadTables()
	if err != nil {
		return nil, err
	}
	charset, err := savefile.LookupCharset(a.cfg.Header.Charset)
	if err != nil {
		return nil, err
	}

	var digest backup.Digest
	if writable && a.cfg.Backup.Enabled {
		d, created, err := backup.Create(path, a.cfg.Backup.Suffix)
		if err != nil {
			return nil, fmt.Errorf("backup: %w", err)
		}
		if created {
			a.log.Info("backup created", zap.String("path", backup.Path(path, a.cfg.Backup.Suffix)), zap.Stringer("digest", d))
		}
	}
	if writable && a.cfg.Journal.Enabled {
		if digest, err = backup.FileDigest(path); err != nil {
			return nil, err
		}
	}

	sess, err := savefile.OpenFile(path, tables, savefile.Options{
		Charset: charset,
		Log:     a.log,
	})
	if err != nil {
		return nil, err
	}
	h := &saveHandle{Session: sess, log: a.log}

	if writable && a.cfg.Journal.Enabled {
		db, err := a.openJournal(ctx)
		if err != nil {
			_ = sess.Close()
			return nil, err
		}
		h.db = db
		h.recorder = persist.NewRecorder(sess.ID(), path, digest.String())
		sess.Observe(h.recorder)
	}
	return h, nil
}

func (a *app) openJournal(ctx context.Context) (*persist.DB, error) {
	db, err := persist.NewDB(ctx, a.cfg.Journal, a.log)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	if err := persist.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: %w", err)
	}
	return db, nil
}

// Close flushes buffered journal entries and releases the save. A journal
// failure is logged; the file writes it describes already happened.
func (h *saveHandle) Close(ctx context.Context) error {
	if h.recorder != nil {
		entries := h.recorder.Entries()
		if err := persist.NewJournalRepo(h.db).Append(ctx, entries); err != nil {
			h.log.Error("journal append failed", zap.Int("entries", len(entries)), zap.Error(err))
		} else if len(entries) > 0 {
			h.log.Info("journal updated", zap.Int("entries", len(entries)))
		}
		h.recorder.Reset()
	}
	if h.db != nil {
		h.db.Close()
	}
	return h.Session.Close()
}

// withSave runs fn against the selected save and always closes it.
func (a *app) withSave(ctx context.Context, cmd *cli.Command, writable bool, fn func(h *saveHandle) error) (err error) {
	h, err := a.openSave(ctx, cmd, writable)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := h.Close(ctx); err == nil {
			err = cerr
		}
	}()
	return fn(h)
}
