package savefile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// DefaultFileName is the save file inside a slot directory.
const DefaultFileName = "SAVE.DAT"

// NameIndex maps skill or perk names to table slots.
type NameIndex interface {
	Index(name string) (int, bool)
	Names() []string
}

// Tables are the lookup tables a session needs, loaded once by the caller.
type Tables struct {
	Items  Catalog
	Skills NameIndex
	Perks  NameIndex
}

// Options tune how a session is opened. The zero value is usable.
type Options struct {
	FileName string            // defaults to DefaultFileName
	Charset  encoding.Encoding // header text; defaults to Windows-1252
	Log      *zap.Logger       // defaults to a no-op logger
}

// WriteEvent describes one committed write.
type WriteEvent struct {
	Kind   string // "field", "text", "skill", "perk" or "stat"
	Region Region
	Name   string
	Offset int
	Old    []byte
	New    []byte
}

// WriteObserver is told about every write after it reaches storage.
type WriteObserver interface {
	ObserveWrite(ev WriteEvent)
}

// Session is one open save file with its resolved layout. Every setter
// writes through immediately; there is no rollback. A Session must not be
// shared between goroutines, and nothing else may open the same file while
// it is open.
type Session struct {
	id        uuid.UUID
	path      string
	store     *Store
	layout    Layout
	tables    Tables
	charset   encoding.Encoding
	log       *zap.Logger
	observers []WriteObserver
}

// Open opens the save file inside slot directory dir.
func Open(dir string, tables Tables, opts Options) (*Session, error) {
	name := opts.FileName
	if name == "" {
		name = DefaultFileName
	}
	return OpenFile(filepath.Join(dir, name), tables, opts)
}

// OpenFile opens the save file at path. On any failure nothing stays open.
func OpenFile(path string, tables Tables, opts Options) (*Session, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s, err := newSession(store, path, tables, opts)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return s, nil
}

// New resolves a session over an existing store, such as an in-memory one.
func New(store *Store, tables Tables, opts Options) (*Session, error) {
	return newSession(store, "", tables, opts)
}

func newSession(store *Store, path string, tables Tables, opts Options) (*Session, error) {
	if tables.Items == nil {
		return nil, errors.New("item catalog is required")
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	charset := opts.Charset
	if charset == nil {
		charset, _ = LookupCharset(DefaultCharset)
	}

	id := uuid.New()
	log = log.With(zap.String("session", id.String()))

	layout, err := ResolveLayout(store, tables.Items, log)
	if err != nil {
		return nil, err
	}
	log.Info("save layout resolved",
		zap.String("path", path),
		zap.Int("size", store.Len()),
		zap.Int("vitals", layout.Vitals),
		zap.Int("attributes", layout.Attributes),
		zap.Int("perks", layout.Perks),
		zap.Int("items", len(layout.Items)),
	)

	return &Session{
		id:      id,
		path:    path,
		store:   store,
		layout:  layout,
		tables:  tables,
		charset: charset,
		log:     log,
	}, nil
}

// ID identifies this session in logs and the edit journal.
func (s *Session) ID() uuid.UUID { return s.id }

// Path returns the save file path, empty for in-memory sessions.
func (s *Session) Path() string { return s.path }

// Layout returns the resolved region bases.
func (s *Session) Layout() Layout { return s.layout }

// Observe registers o for every subsequent write.
func (s *Session) Observe(o WriteObserver) {
	s.observers = append(s.observers, o)
}

// Close flushes and releases the save file.
func (s *Session) Close() error {
	return s.store.Close()
}

// Stats returns the stat names accepted by GetStat and SetStat.
func (s *Session) Stats() []string {
	return append([]string(nil), Stats...)
}

// Skills returns the known skill names, sorted.
func (s *Session) Skills() []string {
	if s.tables.Skills == nil {
		return nil
	}
	return s.tables.Skills.Names()
}

// Perks returns the known perk names, sorted.
func (s *Session) Perks() []string {
	if s.tables.Perks == nil {
		return nil
	}
	return s.tables.Perks.Names()
}

// --- fields ---

// Field resolves a named field to its absolute offset.
func (s *Session) Field(r Region, name string) (int, FieldSpec, error) {
	spec, ok := LookupField(r, name)
	if !ok {
		return 0, FieldSpec{}, notFound(ErrFieldNotFound, r.String()+"."+name)
	}
	return s.layout.Base(r) + spec.Offset, spec, nil
}

func (s *Session) intField(r Region, name string) (int, error) {
	off, spec, err := s.Field(r, name)
	if err != nil {
		return 0, err
	}
	if spec.Kind != KindInt {
		return 0, fmt.Errorf("%w: %s.%s is %s", ErrFieldKind, r, name, spec.Kind)
	}
	return off, nil
}

// GetInt reads an integer field.
func (s *Session) GetInt(r Region, name string) (int32, error) {
	off, err := s.intField(r, name)
	if err != nil {
		return 0, err
	}
	return s.store.ReadInt(off)
}

// SetInt writes an integer field.
func (s *Session) SetInt(r Region, name string, v int32) error {
	off, err := s.intField(r, name)
	if err != nil {
		return err
	}
	return s.writeInt(WriteEvent{Kind: "field", Region: r, Name: name, Offset: off}, v)
}

// GetBytes reads any field as raw bytes.
func (s *Session) GetBytes(r Region, name string) ([]byte, error) {
	off, spec, err := s.Field(r, name)
	if err != nil {
		return nil, err
	}
	return s.store.ReadBytes(off, spec.Size)
}

// SetBytes writes a byte-range field. Shorter values are zero padded.
func (s *Session) SetBytes(r Region, name string, b []byte) error {
	off, spec, err := s.Field(r, name)
	if err != nil {
		return err
	}
	if spec.Kind != KindBytes {
		return fmt.Errorf("%w: %s.%s is %s", ErrFieldKind, r, name, spec.Kind)
	}
	if len(b) > spec.Size {
		return fmt.Errorf("%w: %s.%s holds %d bytes, got %d", ErrValueTooLong, r, name, spec.Size, len(b))
	}
	padded := make([]byte, spec.Size)
	copy(padded, b)
	return s.write(WriteEvent{Kind: "field", Region: r, Name: name, Offset: off}, padded)
}

// Text decodes a header field as a string.
func (s *Session) Text(name string) (string, error) {
	raw, err := s.GetBytes(RegionHeader, name)
	if err != nil {
		return "", err
	}
	return decodeText(raw, s.charset)
}

// SetText encodes text into a header field.
func (s *Session) SetText(name, text string) error {
	off, spec, err := s.Field(RegionHeader, name)
	if err != nil {
		return err
	}
	raw, err := encodeText(text, s.charset)
	if err != nil {
		return err
	}
	if len(raw) > spec.Size {
		return fmt.Errorf("%w: header.%s holds %d bytes, got %d", ErrValueTooLong, name, spec.Size, len(raw))
	}
	padded := make([]byte, spec.Size)
	copy(padded, raw)
	return s.write(WriteEvent{Kind: "text", Region: RegionHeader, Name: name, Offset: off}, padded)
}

// --- skills, perks, stats ---

func (s *Session) skillOffset(name string) (int, error) {
	idx, ok := lookupIndex(s.tables.Skills, name)
	if !ok {
		return 0, notFound(ErrSkillNotFound, name)
	}
	return s.layout.Attributes + attributeFields[skillsField].Offset + idx*intWidth, nil
}

// GetSkill reads a skill value.
func (s *Session) GetSkill(name string) (int32, error) {
	off, err := s.skillOffset(name)
	if err != nil {
		return 0, err
	}
	return s.store.ReadInt(off)
}

// SetSkill writes a skill value.
func (s *Session) SetSkill(name string, v int32) error {
	off, err := s.skillOffset(name)
	if err != nil {
		return err
	}
	return s.writeInt(WriteEvent{Kind: "skill", Region: RegionAttributes, Name: name, Offset: off}, v)
}

func (s *Session) perkOffset(name string) (int, error) {
	idx, ok := lookupIndex(s.tables.Perks, name)
	if !ok {
		return 0, notFound(ErrPerkNotFound, name)
	}
	return s.layout.Perks + idx*intWidth, nil
}

// GetPerk reads a perk rank.
func (s *Session) GetPerk(name string) (int32, error) {
	off, err := s.perkOffset(name)
	if err != nil {
		return 0, err
	}
	return s.store.ReadInt(off)
}

// SetPerk writes a perk rank. Most perks take 1; some stack.
func (s *Session) SetPerk(name string, v int32) error {
	off, err := s.perkOffset(name)
	if err != nil {
		return err
	}
	return s.writeInt(WriteEvent{Kind: "perk", Region: RegionPerks, Name: name, Offset: off}, v)
}

// GrantPerk sets a perk to rank 1.
func (s *Session) GrantPerk(name string) error {
	return s.SetPerk(name, 1)
}

func (s *Session) statOffset(stat string) (int, error) {
	field, ok := statField(stat)
	if !ok {
		return 0, notFound(ErrStatNotFound, stat)
	}
	return s.layout.Attributes + attributeFields[field].Offset, nil
}

// GetStat reads a primary stat by short name ("str", "agi", ...).
func (s *Session) GetStat(stat string) (int32, error) {
	off, err := s.statOffset(stat)
	if err != nil {
		return 0, err
	}
	return s.store.ReadInt(off)
}

// SetStat writes a primary stat. No range is enforced here.
func (s *Session) SetStat(stat string, v int32) error {
	off, err := s.statOffset(stat)
	if err != nil {
		return err
	}
	return s.writeInt(WriteEvent{Kind: "stat", Region: RegionAttributes, Name: stat, Offset: off}, v)
}

func lookupIndex(t NameIndex, name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	return t.Index(name)
}

// --- writes ---

func (s *Session) writeInt(ev WriteEvent, v int32) error {
	var buf [intWidth]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	return s.write(ev, buf[:])
}

func (s *Session) write(ev WriteEvent, b []byte) error {
	old, err := s.store.ReadBytes(ev.Offset, len(b))
	if err != nil {
		return err
	}
	if err := s.store.WriteBytes(ev.Offset, b); err != nil {
		return err
	}
	ev.Old = old
	ev.New = bytes.Clone(b)
	s.log.Debug("save write",
		zap.String("kind", ev.Kind),
		zap.Stringer("region", ev.Region),
		zap.String("name", ev.Name),
		zap.Int("offset", ev.Offset),
		zap.Binary("old", ev.Old),
		zap.Binary("new", ev.New),
	)
	for _, o := range s.observers {
		o.ObserveWrite(ev)
	}
	return nil
}
