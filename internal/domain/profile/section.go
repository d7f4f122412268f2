package profile

import "encoding/json"

// ItemID identifies an item within one section for its whole lifetime.
// Reordering, inserting or deleting siblings never changes it.
type ItemID uint64

// Record is a loosely-typed section entry as the editor stores it.
type Record map[string]any

// Item pairs a record with its stable id.
type Item struct {
	ID     ItemID `json:"id"`
	Record Record `json:"fields"`
}

// Section is an arena of records keyed by ItemID plus a separate display order.
// NextID only ever grows, so a deleted id is never handed out again.
type Section struct {
	Entries map[ItemID]Record `json:"entries"`
	Order   []ItemID          `json:"order"`
	NextID  ItemID            `json:"next_id"`
}

func NewSection(records ...Record) Section {
	s := Section{}
	for _, r := range records {
		s.Append(r)
	}
	return s
}

func (s *Section) Append(r Record) ItemID {
	if s.Entries == nil {
		s.Entries = make(map[ItemID]Record)
	}
	s.NextID++
	id := s.NextID
	s.Entries[id] = r
	s.Order = append(s.Order, id)
	return id
}

func (s *Section) Get(id ItemID) (Record, bool) {
	r, ok := s.Entries[id]
	return r, ok
}

func (s *Section) Update(id ItemID, r Record) bool {
	if _, ok := s.Entries[id]; !ok {
		return false
	}
	s.Entries[id] = r
	return true
}

func (s *Section) Remove(id ItemID) bool {
	if _, ok := s.Entries[id]; !ok {
		return false
	}
	delete(s.Entries, id)
	for i, oid := range s.Order {
		if oid == id {
			s.Order = append(s.Order[:i], s.Order[i+1:]...)
			break
		}
	}
	return true
}

// Move places id at position to (clamped) in display order.
func (s *Section) Move(id ItemID, to int) bool {
	from := -1
	for i, oid := range s.Order {
		if oid == id {
			from = i
			break
		}
	}
	if from < 0 {
		return false
	}
	order := append(s.Order[:from:from], s.Order[from+1:]...)
	if to < 0 {
		to = 0
	}
	if to > len(order) {
		to = len(order)
	}
	order = append(order[:to], append([]ItemID{id}, order[to:]...)...)
	s.Order = order
	return true
}

func (s *Section) Len() int {
	return len(s.Order)
}

// Items returns entries in display order. Order ids without an entry are skipped.
func (s *Section) Items() []Item {
	items := make([]Item, 0, len(s.Order))
	for _, id := range s.Order {
		r, ok := s.Entries[id]
		if !ok {
			continue
		}
		items = append(items, Item{ID: id, Record: r})
	}
	return items
}

func (s *Section) IDs() []ItemID {
	ids := make([]ItemID, 0, len(s.Order))
	for _, it := range s.Items() {
		ids = append(ids, it.ID)
	}
	return ids
}

// IDAt maps a display position to its id. Used only to reconcile legacy
// position-keyed selections.
func (s *Section) IDAt(pos int) (ItemID, bool) {
	items := s.Items()
	if pos < 0 || pos >= len(items) {
		return 0, false
	}
	return items[pos].ID, true
}

// Incoming is an editor-submitted item. A zero ID, or an ID the arena has never
// issued, is treated as a new item.
type Incoming struct {
	ID     ItemID `json:"id"`
	Record Record `json:"fields"`
}

// Replace rebuilds the section from an editor submission while keeping ids of
// items that survive. Items missing from the submission are deleted.
func (s *Section) Replace(incoming []Incoming) {
	old := s.Entries
	next := s.NextID
	s.Entries = make(map[ItemID]Record, len(incoming))
	s.Order = make([]ItemID, 0, len(incoming))
	for _, in := range incoming {
		id := in.ID
		_, known := old[id]
		_, dup := s.Entries[id]
		if id == 0 || !known || dup {
			next++
			id = next
		}
		s.Entries[id] = in.Record
		s.Order = append(s.Order, id)
	}
	s.NextID = next
}

func (s Section) Clone() Section {
	out := Section{
		Entries: make(map[ItemID]Record, len(s.Entries)),
		Order:   append([]ItemID(nil), s.Order...),
		NextID:  s.NextID,
	}
	for id, r := range s.Entries {
		out.Entries[id] = r.Clone()
	}
	return out
}

func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Record:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	case []int64:
		return append([]int64(nil), t...)
	case json.RawMessage:
		return append(json.RawMessage(nil), t...)
	default:
		return t
	}
}
