package bookstore

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MinYear is the earliest publication year accepted for an item.
const MinYear = 1000

// Item is a stock entry: a title held in some quantity at a unit price.
type Item struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Year     int     `json:"year"`
}

// Staff is an employee who can be credited with a sale.
type Staff struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	Compensation float64 `json:"compensation"`
}

// Patron is a customer who can buy items.
type Patron struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Transaction records one completed sale. It is never modified once stored.
type Transaction struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	PatronID   int64     `json:"patron_id"`
	StaffID    int64     `json:"staff_id"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"total_price"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewItem builds a validated item without an identifier; the store assigns one.
func NewItem(title, author, category string, price float64, quantity, year int) (Item, error) {
	it := Item{Title: title, Author: author, Category: category, Price: price, Quantity: quantity, Year: year}
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Validate checks the field invariants of an item against the current year.
func (it Item) Validate() error {
	return it.validateAt(time.Now())
}

func (it Item) validateAt(now time.Time) error {
	switch {
	case it.ID < 0:
		return invalidField("item", "id", "must not be negative")
	case strings.TrimSpace(it.Title) == "":
		return invalidField("item", "title", "must not be empty")
	case strings.TrimSpace(it.Author) == "":
		return invalidField("item", "author", "must not be empty")
	case strings.TrimSpace(it.Category) == "":
		return invalidField("item", "category", "must not be empty")
	case !(it.Price > 0):
		return invalidField("item", "price", "must be positive")
	case it.Quantity < 0:
		return invalidField("item", "quantity", "must not be negative")
	case it.Year < MinYear || it.Year > now.Year():
		return invalidField("item", "year", fmt.Sprintf("must be between %d and %d", MinYear, now.Year()))
	}
	return checkTexts("item", [2]string{"title", it.Title}, [2]string{"author", it.Author}, [2]string{"category", it.Category})
}

func (it Item) String() string {
	return fmt.Sprintf("ID: %d | '%s' - %s (%d) | %s | %s | in stock: %d",
		it.ID, it.Title, it.Author, it.Year, it.Category, FormatMoney(it.Price), it.Quantity)
}

// NewStaff builds a validated staff record without an identifier.
func NewStaff(name, role string, compensation float64) (Staff, error) {
	s := Staff{Name: name, Role: role, Compensation: compensation}
	if err := s.Validate(); err != nil {
		return Staff{}, err
	}
	return s, nil
}

func (s Staff) Validate() error {
	switch {
	case s.ID < 0:
		return invalidField("staff", "id", "must not be negative")
	case strings.TrimSpace(s.Name) == "":
		return invalidField("staff", "name", "must not be empty")
	case strings.TrimSpace(s.Role) == "":
		return invalidField("staff", "role", "must not be empty")
	case s.Compensation < 0:
		return invalidField("staff", "compensation", "must not be negative")
	}
	return checkTexts("staff", [2]string{"name", s.Name}, [2]string{"role", s.Role})
}

func (s Staff) String() string {
	return fmt.Sprintf("ID: %d | %s - %s | compensation: %s", s.ID, s.Name, s.Role, FormatMoney(s.Compensation))
}

// NewPatron builds a validated patron without an identifier.
func NewPatron(name, email, phone string) (Patron, error) {
	p := Patron{Name: name, Email: email, Phone: phone}
	if err := p.Validate(); err != nil {
		return Patron{}, err
	}
	return p, nil
}

func (p Patron) Validate() error {
	switch {
	case p.ID < 0:
		return invalidField("patron", "id", "must not be negative")
	case strings.TrimSpace(p.Name) == "":
		return invalidField("patron", "name", "must not be empty")
	case !strings.Contains(p.Email, "@"):
		return invalidField("patron", "email", "must contain '@'")
	case strings.TrimSpace(p.Phone) == "":
		return invalidField("patron", "phone", "must not be empty")
	}
	return checkTexts("patron", [2]string{"name", p.Name}, [2]string{"email", p.Email}, [2]string{"phone", p.Phone})
}

func (p Patron) String() string {
	return fmt.Sprintf("ID: %d | %s | %s | %s", p.ID, p.Name, p.Email, p.Phone)
}

// NewTransaction builds a validated sale record. A zero timestamp means now.
func NewTransaction(id, itemID, patronID, staffID int64, quantity int, total float64, at time.Time) (Transaction, error) {
	if at.IsZero() {
		at = time.Now()
	}
	t := Transaction{
		ID:         id,
		ItemID:     itemID,
		PatronID:   patronID,
		StaffID:    staffID,
		Quantity:   quantity,
		TotalPrice: total,
		Timestamp:  at,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (t Transaction) Validate() error {
	switch {
	case t.ID <= 0:
		return invalidField("transaction", "id", "must be positive")
	case t.ItemID <= 0:
		return invalidField("transaction", "item_id", "must be positive")
	case t.PatronID <= 0:
		return invalidField("transaction", "patron_id", "must be positive")
	case t.StaffID <= 0:
		return invalidField("transaction", "staff_id", "must be positive")
	case t.Quantity <= 0:
		return invalidField("transaction", "quantity", "must be positive")
	case !(t.TotalPrice > 0):
		return invalidField("transaction", "total_price", "must be positive")
	}
	return nil
}

func (t Transaction) String() string {
	return fmt.Sprintf("Sale %d | item %d | patron %d | staff %d | %d pcs | %s | %s",
		t.ID, t.ItemID, t.PatronID, t.StaffID, t.Quantity, FormatMoney(t.TotalPrice),
		t.Timestamp.Format("02.01.2006 15:04"))
}

// checkTexts applies checkText to (field, value) pairs in order.
func checkTexts(entity string, fields ...[2]string) error {
	for _, f := range fields {
		if err := checkText(entity, f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

// checkText rejects text that a data file cannot store unchanged: invalid
// UTF-8 and characters outside the XML 1.0 character range, which covers
// every control character except tab, newline and carriage return.
func checkText(entity, field, s string) error {
	if !utf8.ValidString(s) {
		return invalidField(entity, field, "must be valid UTF-8")
	}
	for _, r := range s {
		if !storableRune(r) {
			return invalidField(entity, field, fmt.Sprintf("contains unsupported character %U", r))
		}
	}
	return nil
}

func storableRune(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
