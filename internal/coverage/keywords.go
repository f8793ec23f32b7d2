package coverage

// MaxKeywordSlots is the number of configurable keyword positions.
const MaxKeywordSlots = 6

// KeywordSet holds the ordered keyword slots configured for a report.
//
// Slots 1, 3 and 4 drive the summary and sentiment overview. Slots 2, 5 and
// 6 are reserved aliases and are carried but not reported on.
type KeywordSet struct {
	slots [MaxKeywordSlots]string
}

// NewKeywordSet builds a set from an ordered list. Entries past the sixth are ignored.
func NewKeywordSet(keywords ...string) KeywordSet {
	var ks KeywordSet
	for i := 0; i < len(keywords) && i < MaxKeywordSlots; i++ {
		ks.slots[i] = keywords[i]
	}
	return ks
}

// Slot returns the keyword at 1-based position n, or "" if unset or out of range.
func (ks KeywordSet) Slot(n int) string {
	if n < 1 || n > MaxKeywordSlots {
		return ""
	}
	return ks.slots[n-1]
}

// Primary returns slot 1.
func (ks KeywordSet) Primary() string {
	return ks.slots[0]
}

// Selected returns the non-empty keywords from slots 1, 3 and 4, in order.
func (ks KeywordSet) Selected() []string {
	var out []string
	for _, n := range []int{1, 3, 4} {
		if kw := ks.Slot(n); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// All returns every non-empty slot in order.
func (ks KeywordSet) All() []string {
	var out []string
	for _, kw := range ks.slots {
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
