package fileref

// Slot is a single-valued file field together with its persisted baseline.
type Slot struct {
	current   Ref
	persisted *string
	rev       int
}

// Sent is what a save transmitted for a single slot, tagged with the slot
// revision it was read at.
type Sent struct {
	value *string
	rev   int
}

// NewSlot starts a slot from the reference last loaded from the server.
func NewSlot(persisted *string) *Slot {
	s := &Slot{}
	s.Reset(persisted)
	return s
}

// Reset replaces the baseline and forgets any in-memory change.
func (s *Slot) Reset(persisted *string) {
	s.current = None()
	s.persisted = nil
	if persisted != nil && *persisted != "" {
		p := *persisted
		s.persisted = &p
	}
}

func (s *Slot) Set(u Upload) {
	s.current = FromUpload(u)
	s.rev++
}

func (s *Slot) Clear() {
	s.current = Cleared()
	s.rev++
}

// Current is the in-memory value, None when untouched.
func (s *Slot) Current() Ref { return s.current }

// Value is what the next save transmits.
func (s *Slot) Value() *string { return Resolve(s.current, s.persisted) }

// Display is the effective reference for read-only rendering.
func (s *Slot) Display() Ref {
	if v := s.Value(); v != nil {
		if s.current.kind == Pending {
			return s.current
		}
		return FromPersisted(*v)
	}
	return s.current
}

// Pending returns the upload awaiting byte transport, or nil.
func (s *Slot) Pending() *Upload {
	if s.current.kind == Pending {
		return s.current.upload
	}
	return nil
}

// Snapshot captures the value the next save transmits.
func (s *Slot) Snapshot() Sent { return Sent{value: s.Value(), rev: s.rev} }

// CommitSent makes a transmitted value the new baseline after a successful
// save. A change made after the snapshot stays in place on top of it.
func (s *Slot) CommitSent(sent Sent) {
	if sent.rev != s.rev {
		s.persisted = nil
		if sent.value != nil && *sent.value != "" {
			p := *sent.value
			s.persisted = &p
		}
		return
	}
	s.Reset(sent.value)
}

// Commit makes the current value the new baseline.
func (s *Slot) Commit() { s.CommitSent(s.Snapshot()) }

// ListSlot is an ordered, bounded file field together with its persisted
// baseline.
type ListSlot struct {
	name      string
	max       int
	items     []Ref
	touched   bool
	persisted []string
	rev       int
}

// ListSent is what a save transmitted for a list slot.
type ListSent struct {
	value   []string
	uploads map[*Upload]bool
	rev     int
}

// NewListSlot starts a list slot. limit <= 0 selects DefaultMaxListItems.
func NewListSlot(name string, limit int, persisted []string) *ListSlot {
	if limit <= 0 {
		limit = DefaultMaxListItems
	}
	l := &ListSlot{name: name, max: limit}
	l.Reset(persisted)
	return l
}

// Reset replaces the baseline and forgets any in-memory change.
func (l *ListSlot) Reset(persisted []string) {
	l.items = nil
	l.touched = false
	l.persisted = make([]string, 0, len(persisted))
	for _, p := range persisted {
		if p != "" {
			l.persisted = append(l.persisted, p)
		}
	}
}

func (l *ListSlot) Max() int { return l.max }

func (l *ListSlot) touch() {
	if l.touched {
		return
	}
	l.touched = true
	l.items = make([]Ref, 0, len(l.persisted))
	for _, p := range l.persisted {
		l.items = append(l.items, FromPersisted(p))
	}
}

// Add appends uploads up to the bound. Anything beyond it is dropped and
// reported through the returned warning; nil means everything fit.
func (l *ListSlot) Add(uploads ...Upload) *CapWarning {
	if len(uploads) == 0 {
		return nil
	}
	l.touch()
	room := l.max - len(l.items)
	if room < 0 {
		room = 0
	}
	accepted := uploads
	if len(uploads) > room {
		accepted = uploads[:room]
	}
	for _, u := range accepted {
		l.items = append(l.items, FromUpload(u))
	}
	l.rev++
	if dropped := len(uploads) - len(accepted); dropped > 0 {
		return &CapWarning{Slot: l.name, Max: l.max, Discarded: dropped}
	}
	return nil
}

// Remove drops the item at index i. Out of range indexes are ignored.
func (l *ListSlot) Remove(i int) {
	l.touch()
	if i < 0 || i >= len(l.items) {
		return
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.rev++
}

// Clear empties the list explicitly.
func (l *ListSlot) Clear() {
	l.touched = true
	l.items = []Ref{}
	l.rev++
}

// Items is the effective list for rendering.
func (l *ListSlot) Items() []Ref {
	if !l.touched {
		out := make([]Ref, 0, len(l.persisted))
		for _, p := range l.persisted {
			out = append(out, FromPersisted(p))
		}
		return out
	}
	return append([]Ref(nil), l.items...)
}

// Value is what the next save transmits.
func (l *ListSlot) Value() []string {
	return ResolveList(l.items, l.touched, l.persisted)
}

// Pending returns the uploads awaiting byte transport in list order.
func (l *ListSlot) Pending() []Upload {
	var out []Upload
	for _, it := range l.items {
		if it.kind == Pending {
			out = append(out, *it.upload)
		}
	}
	return out
}

// Snapshot captures the list the next save transmits and the uploads whose
// bytes go with it.
func (l *ListSlot) Snapshot() ListSent {
	sent := ListSent{value: l.Value(), uploads: map[*Upload]bool{}, rev: l.rev}
	for _, it := range l.items {
		if it.kind == Pending {
			sent.uploads[it.upload] = true
		}
	}
	return sent
}

// CommitSent makes a transmitted list the new baseline after a successful
// save. When the list changed after the snapshot the edit is kept; uploads
// that went out with the save become persisted references in it.
func (l *ListSlot) CommitSent(sent ListSent) {
	if sent.rev == l.rev {
		l.Reset(sent.value)
		return
	}
	l.persisted = append([]string(nil), sent.value...)
	for i, it := range l.items {
		if it.kind == Pending && sent.uploads[it.upload] {
			l.items[i] = FromPersisted(it.name)
		}
	}
}

// Commit makes the current list the new baseline.
func (l *ListSlot) Commit() { l.CommitSent(l.Snapshot()) }
