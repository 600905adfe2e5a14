package bookstore

import "strings"

// ItemFilter selects items in SearchItems. Zero-valued fields are not applied;
// the applied ones must all match.
type ItemFilter struct {
	Title    string
	Author   string
	Category string
	// MaxPrice is an inclusive ceiling on the unit price.
	MaxPrice *float64
}

// MaxPrice is a helper for building an ItemFilter literal.
func MaxPrice(v float64) *float64 { return &v }

func (f ItemFilter) match(it Item) bool {
	if !containsFold(it.Title, f.Title) {
		return false
	}
	if !containsFold(it.Author, f.Author) {
		return false
	}
	if !containsFold(it.Category, f.Category) {
		return false
	}
	if f.MaxPrice != nil && it.Price > *f.MaxPrice {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// SearchItems returns the items matching f in insertion order.
func (s *Store) SearchItems(f ItemFilter) []Item {
	return s.items.filter(f.match)
}

func (s *Store) TransactionsByPatron(patronID int64) []Transaction {
	return s.transactions.filter(func(t Transaction) bool { return t.PatronID == patronID })
}

func (s *Store) TransactionsByStaff(staffID int64) []Transaction {
	return s.transactions.filter(func(t Transaction) bool { return t.StaffID == staffID })
}

func (s *Store) TransactionsByItem(itemID int64) []Transaction {
	return s.transactions.filter(func(t Transaction) bool { return t.ItemID == itemID })
}

// TotalRevenue sums the total price of every recorded sale.
func (s *Store) TotalRevenue() float64 {
	amounts := make([]float64, 0, s.transactions.len())
	for _, t := range s.transactions.values() {
		amounts = append(amounts, t.TotalPrice)
	}
	return Sum(amounts...)
}

// InventoryValue sums price times quantity over the stock on hand.
func (s *Store) InventoryValue() float64 {
	amounts := make([]float64, 0, s.items.len())
	for _, it := range s.items.values() {
		amounts = append(amounts, Multiply(it.Price, it.Quantity))
	}
	return Sum(amounts...)
}

// Summary is an overview of the store for display.
type Summary struct {
	Name           string
	Items          int
	Staff          int
	Patrons        int
	Transactions   int
	InventoryValue float64
	Revenue        float64
}

func (s *Store) Summary() Summary {
	return Summary{
		Name:           s.name,
		Items:          s.items.len(),
		Staff:          s.staff.len(),
		Patrons:        s.patrons.len(),
		Transactions:   s.transactions.len(),
		InventoryValue: s.InventoryValue(),
		Revenue:        s.TotalRevenue(),
	}
}
