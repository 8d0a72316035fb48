package savefile

import (
	"fmt"

	"github.com/f2edit/editor/internal/data"
	"go.uber.org/zap"
)

// Inventory record geometry.
const (
	inventoryGap   = 0x80 // vitals base to first record
	recordStride   = 0x5C
	recordIDOffset = 0x30
	attributesSkip = 0x04 // terminating record start to attributes base

	// perks = attributes + 0x0178 + 0x004C + 0x0010 = attributes + 0x1D4
	perksDistance = 0x0178 + 0x004C + 0x0010
)

// recordSentinels must all read zero in a well-formed record. The first
// record where one does not is the end of the list.
var recordSentinels = [...]int{0x0C, 0x10, 0x40, 0x58}

// Catalog classifies inventory records by identifier.
type Catalog interface {
	Category(itemID int32) (data.ItemCategory, bool)
}

// ItemRecord is one inventory entry seen during the scan.
type ItemRecord struct {
	Offset   int
	ItemID   int32
	Amount   int32
	Category data.ItemCategory
	Stride   int
}

// ScanResult is what the scanner resolves from the inventory list.
type ScanResult struct {
	Attributes int
	Records    []ItemRecord
}

// RecordStride returns the byte length of a record of the given category.
// Weapons carry two extra trailing words, armor and drugs none, everything
// else one.
func RecordStride(cat data.ItemCategory) int {
	switch cat {
	case data.CategoryWeapons:
		return recordStride + 0x08
	case data.CategoryArmor, data.CategoryDrugs:
		return recordStride
	default:
		return recordStride + 0x04
	}
}

// ScanInventory walks the inventory list that starts 0x80 bytes past the
// vitals base and returns the attributes base. An unknown identifier aborts
// with ErrCorruptRegion; running off the buffer aborts with ErrOutOfRange.
func ScanInventory(s *Store, vitals int, cat Catalog, log *zap.Logger) (ScanResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var res ScanResult
	cursor := vitals + inventoryGap
	for {
		id, err := s.ReadInt(cursor + recordIDOffset)
		if err != nil {
			return ScanResult{}, fmt.Errorf("record %d id: %w", len(res.Records), err)
		}
		category, ok := cat.Category(id)
		if !ok {
			return ScanResult{}, &CorruptRegionError{Offset: cursor, ItemID: id, Index: len(res.Records)}
		}

		end, err := isListEnd(s, cursor)
		if err != nil {
			return ScanResult{}, fmt.Errorf("record %d sentinels: %w", len(res.Records), err)
		}
		if end {
			res.Attributes = cursor + attributesSkip
			return res, nil
		}

		amount, err := s.ReadInt(cursor)
		if err != nil {
			return ScanResult{}, fmt.Errorf("record %d amount: %w", len(res.Records), err)
		}
		rec := ItemRecord{
			Offset:   cursor,
			ItemID:   id,
			Amount:   amount,
			Category: category,
			Stride:   RecordStride(category),
		}
		log.Debug("inventory record",
			zap.Int("index", len(res.Records)),
			zap.Int("offset", rec.Offset),
			zap.Int32("item_id", rec.ItemID),
			zap.Int32("amount", rec.Amount),
			zap.String("category", string(rec.Category)),
		)
		res.Records = append(res.Records, rec)
		cursor += rec.Stride
	}
}

func isListEnd(s *Store, cursor int) (bool, error) {
	for _, off := range recordSentinels {
		v, err := s.ReadInt(cursor + off)
		if err != nil {
			return false, err
		}
		if v != 0 {
			return true, nil
		}
	}
	return false, nil
}
