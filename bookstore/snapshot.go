package bookstore

import "fmt"

// Counters are the running identifier counters persisted with the store.
type Counters struct {
	NextItemID        int64 `json:"next_item_id"`
	NextStaffID       int64 `json:"next_staff_id"`
	NextPatronID      int64 `json:"next_patron_id"`
	NextTransactionID int64 `json:"next_transaction_id"`
}

// DefaultCounters is what a file without counters loads as.
func DefaultCounters() Counters {
	return Counters{NextItemID: 1, NextStaffID: 1, NextPatronID: 1, NextTransactionID: 1}
}

// Snapshot is the full logical state of a store, independent of file format.
// Name is empty when the source carried none.
type Snapshot struct {
	Name         string
	Counters     Counters
	Items        []Item
	Staff        []Staff
	Patrons      []Patron
	Transactions []Transaction
}

// Snapshot copies the whole store state.
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{
		Name:         s.name,
		Counters:     s.Counters(),
		Items:        s.items.values(),
		Staff:        s.staff.values(),
		Patrons:      s.patrons.values(),
		Transactions: s.transactions.values(),
	}
}

// Restore replaces the whole store state with snap. Every record is validated
// first; on error the store is left as it was.
func (s *Store) Restore(snap *Snapshot) error {
	items := newCollection[Item]()
	staff := newCollection[Staff]()
	patrons := newCollection[Patron]()
	transactions := newCollection[Transaction]()

	c := snap.Counters
	for _, f := range []struct {
		name string
		v    int64
	}{
		{"next_item_id", c.NextItemID},
		{"next_staff_id", c.NextStaffID},
		{"next_patron_id", c.NextPatronID},
		{"next_transaction_id", c.NextTransactionID},
	} {
		// Counters start at 1; 0 or less can only come from a damaged file.
		if f.v < 1 {
			return invalidField("counters", f.name, "must be positive")
		}
	}

	now := s.now()
	for _, it := range snap.Items {
		if err := it.validateAt(now); err != nil {
			return err
		}
		if it.ID == 0 || items.has(it.ID) {
			return invalidField("item", "id", fmt.Sprintf("%d is missing or duplicated", it.ID))
		}
		items.put(it.ID, it)
	}
	for _, m := range snap.Staff {
		if err := m.Validate(); err != nil {
			return err
		}
		if staff.has(m.ID) {
			return invalidField("staff", "id", fmt.Sprintf("%d is duplicated", m.ID))
		}
		staff.put(m.ID, m)
	}
	for _, p := range snap.Patrons {
		if err := p.Validate(); err != nil {
			return err
		}
		if patrons.has(p.ID) {
			return invalidField("patron", "id", fmt.Sprintf("%d is duplicated", p.ID))
		}
		patrons.put(p.ID, p)
	}
	for _, t := range snap.Transactions {
		if err := t.Validate(); err != nil {
			return err
		}
		if transactions.has(t.ID) {
			return invalidField("transaction", "id", fmt.Sprintf("%d is duplicated", t.ID))
		}
		transactions.put(t.ID, t)
	}

	if snap.Name != "" {
		s.name = snap.Name
	}
	s.items, s.staff, s.patrons, s.transactions = items, staff, patrons, transactions
	s.nextItemID = c.NextItemID
	s.nextStaffID = c.NextStaffID
	s.nextPatronID = c.NextPatronID
	// Transaction ids are never handed out twice, even if the stored counter
	// lags behind the stored transactions.
	s.nextTransactionID = max(c.NextTransactionID, transactions.maxID()+1)
	return nil
}

// Clear empties every collection. Counters are kept so that identifiers,
// in particular transaction ids, are not reissued.
func (s *Store) Clear() {
	s.items.clear()
	s.staff.clear()
	s.patrons.clear()
	s.transactions.clear()
}
