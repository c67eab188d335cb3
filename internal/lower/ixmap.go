package lower

import (
	"fmt"

	"fortio.org/safecast"
)

// propIx is the sentinel for a logically-present, physically-erased position.
const propIx int32 = -1

// IxMap maps logical positions of an ordered field or parameter list to
// physical slots. Each entry is either a non-negative slot index or the
// proposition sentinel. Entries preserve logical order, and the number of
// slot entries equals the physical field count.
type IxMap struct {
	ixes []int32
}

// PushIx appends a physical slot entry.
func (m *IxMap) PushIx(slot int) {
	ix, err := safecast.Conv[int32](slot)
	if err != nil || ix < 0 {
		panic(fmt.Errorf("lower: slot index overflow: %d", slot))
	}
	m.ixes = append(m.ixes, ix)
}

// PushProp appends an erased-position entry.
func (m *IxMap) PushProp() {
	m.ixes = append(m.ixes, propIx)
}

// Len returns the number of logical positions.
func (m *IxMap) Len() int { return len(m.ixes) }

// Slots returns the number of physical slots.
func (m *IxMap) Slots() int {
	n := 0
	for _, ix := range m.ixes {
		if ix != propIx {
			n++
		}
	}
	return n
}

// Get returns the physical slot for a logical position, and false when the
// position is erased or out of range.
func (m *IxMap) Get(pos int) (uint32, bool) {
	if pos < 0 || pos >= len(m.ixes) || m.ixes[pos] == propIx {
		return 0, false
	}
	return uint32(m.ixes[pos]), true
}

// Erased reports whether a logical position is in range and erased.
func (m *IxMap) Erased(pos int) bool {
	return pos >= 0 && pos < len(m.ixes) && m.ixes[pos] == propIx
}
