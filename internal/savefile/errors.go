package savefile

import (
	"errors"
	"fmt"
)

// Fatal errors. Any of these returned from Open means no session exists;
// returned from an accessor they mean the layout cannot be trusted.
var (
	ErrIO             = errors.New("save file i/o failure")
	ErrMarkerNotFound = errors.New("vitals marker not found")
	ErrCorruptRegion  = errors.New("corrupt inventory region")
	ErrOutOfRange     = errors.New("offset out of range")
)

// Recoverable lookup errors. The buffer is untouched when one is returned.
var (
	ErrNotFound      = errors.New("name not found")
	ErrFieldNotFound = errors.New("field not found")
	ErrSkillNotFound = errors.New("skill not found")
	ErrPerkNotFound  = errors.New("perk not found")
	ErrStatNotFound  = errors.New("stat not found")
)

// Value errors, also recoverable.
var (
	ErrFieldKind    = errors.New("field kind mismatch")
	ErrValueTooLong = errors.New("value longer than field")
)

// RangeError reports an access that falls outside the save buffer.
type RangeError struct {
	Offset int
	Width  int
	Len    int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("offset 0x%X+%d outside buffer of 0x%X bytes", e.Offset, e.Width, e.Len)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// CorruptRegionError is returned when an inventory record carries an
// identifier the item catalog does not know.
type CorruptRegionError struct {
	Offset int   // record start
	ItemID int32 // identifier read at Offset+0x30
	Index  int   // zero-based record position in the list
}

func (e *CorruptRegionError) Error() string {
	return fmt.Sprintf("unknown item id %d in record %d at 0x%X", e.ItemID, e.Index, e.Offset)
}

func (e *CorruptRegionError) Unwrap() error { return ErrCorruptRegion }

// LookupError is a name that is absent from its table. It matches both
// ErrNotFound and the kind-specific sentinel.
type LookupError struct {
	Kind error
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v: %q", e.Kind, e.Name)
}

func (e *LookupError) Unwrap() []error { return []error{e.Kind, ErrNotFound} }

func notFound(kind error, name string) error {
	return &LookupError{Kind: kind, Name: name}
}

// IsFatal reports whether err means the save layout cannot be trusted.
func IsFatal(err error) bool {
	return errors.Is(err, ErrIO) ||
		errors.Is(err, ErrMarkerNotFound) ||
		errors.Is(err, ErrCorruptRegion) ||
		errors.Is(err, ErrOutOfRange)
}

// IsNotFound reports whether err is a recoverable name lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
