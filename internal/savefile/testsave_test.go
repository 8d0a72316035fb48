package savefile

import (
	"encoding/binary"

	"github.com/f2edit/editor/internal/data"
)

// Item IDs known to testCatalog.
const (
	idArmor   int32 = 1
	idWeapon  int32 = 2
	idOther   int32 = 3
	idDrug    int32 = 4
	idUnknown int32 = 777
)

func testCatalog() *data.ItemCatalog {
	return data.NewItemCatalog(
		data.ItemInfo{ItemID: idArmor, Name: "Leather Armor", Category: data.CategoryArmor},
		data.ItemInfo{ItemID: idWeapon, Name: "Knife", Category: data.CategoryWeapons},
		data.ItemInfo{ItemID: idOther, Name: "Rope", Category: data.CategoryMisc},
		data.ItemInfo{ItemID: idDrug, Name: "Stimpak", Category: data.CategoryDrugs},
	)
}

func testTables() Tables {
	return Tables{
		Items: testCatalog(),
		Skills: data.NewNameTable("skills", map[string]int{
			"small_guns":  0x00,
			"big_guns":    0x01,
			"lockpick":    0x09,
			"outdoorsman": 0x11,
		}),
		Perks: data.NewNameTable("perks", map[string]int{
			"awareness":  0x00,
			"bonus_move": 0x05,
			"toughness":  0x2B,
		}),
	}
}

// testSave lays out a synthetic save file: zeroed header, the vitals
// marker, a run of inventory records and a terminating record.
type testSave struct {
	buf    []byte
	marker int
	cursor int
}

func newTestSave(markerAt int) *testSave {
	ts := &testSave{marker: markerAt, cursor: markerAt + inventoryGap}
	ts.grow(ts.cursor)
	copy(ts.buf[markerAt:], VitalsMarker)
	return ts
}

func (ts *testSave) grow(n int) {
	if len(ts.buf) < n {
		ts.buf = append(ts.buf, make([]byte, n-len(ts.buf))...)
	}
}

func (ts *testSave) putInt(off int, v int32) {
	ts.grow(off + intWidth)
	binary.BigEndian.PutUint32(ts.buf[off:], uint32(v))
}

// item appends a well-formed record and returns its stride.
func (ts *testSave) item(id int32, cat data.ItemCategory) int {
	stride := RecordStride(cat)
	ts.putInt(ts.cursor, 1)
	ts.putInt(ts.cursor+recordIDOffset, id)
	ts.grow(ts.cursor + stride)
	ts.cursor += stride
	return stride
}

// unknown appends a record whose ID is missing from the catalog.
func (ts *testSave) unknown() {
	ts.putInt(ts.cursor+recordIDOffset, idUnknown)
	ts.grow(ts.cursor + recordStride)
	ts.cursor += recordStride
}

// terminate writes the end-of-list record with a non-zero sentinel and
// returns the expected attributes base.
func (ts *testSave) terminate(sentinel int) int {
	ts.putInt(ts.cursor+recordIDOffset, idArmor)
	ts.putInt(ts.cursor+sentinel, -1)
	return ts.cursor + attributesSkip
}

// bytes pads the buffer so attributes, skills and perks all fit.
func (ts *testSave) bytes() []byte {
	ts.grow(ts.cursor + attributesSkip + perksDistance + 0x200)
	return ts.buf
}
