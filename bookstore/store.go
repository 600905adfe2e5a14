package bookstore

import (
	"io"
	"log/slog"
	"time"
)

// Store is the ledger: it owns every item, staff member, patron and
// transaction, and the running identifier counters. It is not safe for
// concurrent use; callers serialize access.
type Store struct {
	name string

	items        *collection[Item]
	staff        *collection[Staff]
	patrons      *collection[Patron]
	transactions *collection[Transaction]

	nextItemID        int64
	nextStaffID       int64
	nextPatronID      int64
	nextTransactionID int64

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger that receives store notices.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now for transaction timestamps and year checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store.
func New(name string, opts ...Option) *Store {
	s := &Store{
		name:              name,
		items:             newCollection[Item](),
		staff:             newCollection[Staff](),
		patrons:           newCollection[Patron](),
		transactions:      newCollection[Transaction](),
		nextItemID:        1,
		nextStaffID:       1,
		nextPatronID:      1,
		nextTransactionID: 1,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Name() string { return s.name }

// Counters returns the four running identifier counters.
func (s *Store) Counters() Counters {
	return Counters{
		NextItemID:        s.nextItemID,
		NextStaffID:       s.nextStaffID,
		NextPatronID:      s.nextPatronID,
		NextTransactionID: s.nextTransactionID,
	}
}

// ------------------ Items ------------------

// AddItem stores it under the identifier chosen by id. When that identifier
// is already present the existing record is restocked by it.Quantity and
// merged is true; the other fields of it are ignored in that case.
func (s *Store) AddItem(id IDChoice, it Item) (stored Item, merged bool, err error) {
	it.ID = 0
	if err := it.validateAt(s.now()); err != nil {
		return Item{}, false, err
	}
	it.ID = id.resolve(func() int64 { return nextID(s.items) })

	if existing, ok := s.items.get(it.ID); ok {
		existing.Quantity += it.Quantity
		s.items.put(existing.ID, existing)
		s.logger.Info("item restocked", "id", existing.ID, "title", existing.Title, "quantity", existing.Quantity)
		return existing, true, nil
	}

	s.items.put(it.ID, it)
	advance(&s.nextItemID, it.ID)
	s.logger.Info("item added", "id", it.ID, "title", it.Title, "choice", id.String())
	return it, false, nil
}

// RemoveItem takes qty copies of an item out of stock. The record is deleted
// when no copies remain.
func (s *Store) RemoveItem(id int64, qty int) error {
	if qty <= 0 {
		return invalidField("item", "quantity", "removal quantity must be positive")
	}
	it, ok := s.items.get(id)
	if !ok {
		return notFound("item", id)
	}
	if qty > it.Quantity {
		return insufficient(id, it.Quantity, qty)
	}

	it.Quantity -= qty
	if it.Quantity == 0 {
		s.items.remove(id)
		s.logger.Info("item removed", "id", id, "title", it.Title)
		return nil
	}
	s.items.put(id, it)
	s.logger.Info("item stock reduced", "id", id, "removed", qty, "left", it.Quantity)
	return nil
}

// SellItem records the sale of qty copies of an item to a patron by a staff
// member. All references and the stock level are checked before anything
// changes. A sale that empties the stock leaves the item listed with zero
// quantity; only RemoveItem deletes records.
func (s *Store) SellItem(itemID int64, qty int, patronID, staffID int64) (Transaction, error) {
	it, ok := s.items.get(itemID)
	if !ok {
		return Transaction{}, notFound("item", itemID)
	}
	patron, ok := s.patrons.get(patronID)
	if !ok {
		return Transaction{}, notFound("patron", patronID)
	}
	member, ok := s.staff.get(staffID)
	if !ok {
		return Transaction{}, notFound("staff", staffID)
	}
	if qty <= 0 {
		return Transaction{}, invalidField("transaction", "quantity", "must be positive")
	}
	if qty > it.Quantity {
		return Transaction{}, insufficient(itemID, it.Quantity, qty)
	}

	total := Multiply(it.Price, qty)
	tx, err := NewTransaction(s.nextTransactionID, itemID, patronID, staffID, qty, total, s.now())
	if err != nil {
		return Transaction{}, err
	}

	it.Quantity -= qty
	s.items.put(itemID, it)
	s.transactions.put(tx.ID, tx)
	s.nextTransactionID++

	s.logger.Info("sale completed",
		"transaction", tx.ID,
		"title", it.Title,
		"quantity", qty,
		"total", FormatMoney(total),
		"patron", patron.Name,
		"staff", member.Name,
	)
	return tx, nil
}

// ------------------ Staff and patrons ------------------

// AddStaff stores m under the identifier chosen by id. An identifier that is
// already taken leaves the store unchanged: the existing record is returned
// with added == false.
func (s *Store) AddStaff(id IDChoice, m Staff) (stored Staff, added bool, err error) {
	m.ID = 0
	if err := m.Validate(); err != nil {
		return Staff{}, false, err
	}
	m.ID = id.resolve(func() int64 { return nextID(s.staff) })

	if existing, ok := s.staff.get(m.ID); ok {
		s.logger.Warn("staff id already in use", "id", m.ID, "existing", existing.Name)
		return existing, false, nil
	}
	s.staff.put(m.ID, m)
	advance(&s.nextStaffID, m.ID)
	s.logger.Info("staff added", "id", m.ID, "name", m.Name)
	return m, true, nil
}

// AddPatron follows the same collision rule as AddStaff.
func (s *Store) AddPatron(id IDChoice, p Patron) (stored Patron, added bool, err error) {
	p.ID = 0
	if err := p.Validate(); err != nil {
		return Patron{}, false, err
	}
	p.ID = id.resolve(func() int64 { return nextID(s.patrons) })

	if existing, ok := s.patrons.get(p.ID); ok {
		s.logger.Warn("patron id already in use", "id", p.ID, "existing", existing.Name)
		return existing, false, nil
	}
	s.patrons.put(p.ID, p)
	advance(&s.nextPatronID, p.ID)
	s.logger.Info("patron added", "id", p.ID, "name", p.Name)
	return p, true, nil
}

// ------------------ Lookups ------------------

func (s *Store) Item(id int64) (Item, error) {
	it, ok := s.items.get(id)
	if !ok {
		return Item{}, notFound("item", id)
	}
	return it, nil
}

func (s *Store) StaffMember(id int64) (Staff, error) {
	m, ok := s.staff.get(id)
	if !ok {
		return Staff{}, notFound("staff", id)
	}
	return m, nil
}

func (s *Store) Patron(id int64) (Patron, error) {
	p, ok := s.patrons.get(id)
	if !ok {
		return Patron{}, notFound("patron", id)
	}
	return p, nil
}

func (s *Store) Transaction(id int64) (Transaction, error) {
	t, ok := s.transactions.get(id)
	if !ok {
		return Transaction{}, notFound("transaction", id)
	}
	return t, nil
}

func (s *Store) Items() []Item               { return s.items.values() }
func (s *Store) Staff() []Staff              { return s.staff.values() }
func (s *Store) Patrons() []Patron           { return s.patrons.values() }
func (s *Store) Transactions() []Transaction { return s.transactions.values() }
