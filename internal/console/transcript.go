package console

// Transcript is the ordered conversation keyed by message id.
// Entries are never removed, only amended. It is not safe for concurrent use;
// Client serializes access.
type Transcript struct {
	order []string
	byID  map[string]*Message
}

// NewTranscript returns a transcript seeded with msgs. Later duplicates of an
// id are dropped.
func NewTranscript(msgs ...Message) *Transcript {
	t := &Transcript{byID: make(map[string]*Message, len(msgs))}
	for _, m := range msgs {
		t.Insert(m)
	}
	return t
}

// Insert appends m unless its id is empty or already present.
func (t *Transcript) Insert(m Message) bool {
	if m.ID == "" {
		return false
	}
	if _, ok := t.byID[m.ID]; ok {
		return false
	}
	stored := m
	t.byID[m.ID] = &stored
	t.order = append(t.order, m.ID)
	return true
}

// Lookup returns the live entry for id.
func (t *Transcript) Lookup(id string) (*Message, bool) {
	m, ok := t.byID[id]
	return m, ok
}

// Get returns a copy of the entry for id.
func (t *Transcript) Get(id string) (Message, bool) {
	m, ok := t.byID[id]
	if !ok {
		return Message{}, false
	}
	return *m, true
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.order)
}

// Messages returns a copy of all entries in insertion order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.byID[id])
	}
	return out
}

// LastIncoming returns the most recent robot message.
func (t *Transcript) LastIncoming() (Message, bool) {
	for i := len(t.order) - 1; i >= 0; i-- {
		m := t.byID[t.order[i]]
		if m.Direction == Incoming {
			return *m, true
		}
	}
	return Message{}, false
}
