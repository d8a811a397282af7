package isa

import "fmt"

// Registry holds the table-driven extension dispatch: each extension
// contributes (mask, match, decoder) entries,
// tried in a fixed order. Overlap between extensions is a programming error
// and is rejected at registration time, not discovered at decode time.
type Registry struct {
	entries []DecodeEntry
	admitted map[Extension]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{admitted: make(map[Extension]bool)}
}

// Admit adds an extension's decode entries to the registry. It panics if any
// new entry's (mask, match) pair overlaps an already-admitted entry's,
// because that is a programming error in the registry construction itself,
// not a runtime condition.
func (r *Registry) Admit(ext Extension, entries ...DecodeEntry) {
	for _, e := range entries {
		for _, existing := range r.entries {
			if overlaps(e.Mask, e.Match, existing.Mask, existing.Match) {
				panic(fmt.Sprintf("isa: extension %s entry (mask=%#x match=%#x) overlaps %s entry (mask=%#x match=%#x)",
					ext, e.Mask, e.Match, existing.Extension, existing.Mask, existing.Match))
			}
		}
		e.Extension = ext
		r.entries = append(r.entries, e)
	}
	r.admitted[ext] = true
}

// Admitted reports whether an extension was registered.
func (r *Registry) Admitted(ext Extension) bool {
	return r.admitted[ext]
}

// Lookup tries each admitted entry in registration order and returns the
// first whose mask/match pair matches w.
func (r *Registry) Lookup(w uint32) (DecodeEntry, bool) {
	for _, e := range r.entries {
		if w&e.Mask == e.Match {
			return e, true
		}
	}
	return DecodeEntry{}, false
}

// overlaps reports whether two (mask, match) pairs can ever match the same
// 32-bit word. Two patterns overlap iff they agree on every bit both masks
// constrain.
func overlaps(mask1, match1, mask2, match2 uint32) bool {
	common := mask1 & mask2
	return match1&common == match2&common
}

// DefaultRegistry builds a registry admitting IMAC + Zicsr + Zicond + Zb*
// (Zba/Zbb/Zbs/Zbkb), the full supported extension set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Admit(ExtC) // compressed decode is dispatched directly by Decode, not via table lookup
	r.Admit(ExtI, baseIEntries()...)
	r.Admit(ExtM, mEntries()...)
	r.Admit(ExtA, aEntries()...)
	r.Admit(ExtZicsr, zicsrEntries()...)
	r.Admit(ExtZicond, zicondEntries()...)
	r.Admit(ExtZba, zbaEntries()...)
	r.Admit(ExtZbb, zbbEntries()...)
	r.Admit(ExtZbs, zbsEntries()...)
	r.Admit(ExtZbkb, zbkbEntries()...)
	return r
}
