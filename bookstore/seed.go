package bookstore

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed describes records to add to a store, typically read from a YAML file:
//
//	name: Corner Books
//	items:
//	  - title: "1984"
//	    author: George Orwell
//	    category: Dystopia
//	    price: 520
//	    quantity: 8
//	    year: 1949
type Seed struct {
	Name    string       `yaml:"name"`
	Items   []SeedItem   `yaml:"items"`
	Staff   []SeedStaff  `yaml:"staff"`
	Patrons []SeedPatron `yaml:"patrons"`
}

// SeedItem is an item entry. ID is optional; zero means allocate.
type SeedItem struct {
	ID       int64   `yaml:"id,omitempty"`
	Title    string  `yaml:"title"`
	Author   string  `yaml:"author"`
	Category string  `yaml:"category"`
	Price    float64 `yaml:"price"`
	Quantity int     `yaml:"quantity"`
	Year     int     `yaml:"year"`
}

type SeedStaff struct {
	ID           int64   `yaml:"id,omitempty"`
	Name         string  `yaml:"name"`
	Role         string  `yaml:"role"`
	Compensation float64 `yaml:"compensation"`
}

type SeedPatron struct {
	ID    int64  `yaml:"id,omitempty"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError("read seed "+path, err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, malformed(path, fmt.Errorf("YAML parse error: %w", err))
	}
	return &seed, nil
}

// DemoSeed returns the demonstration data used when a shell starts without a
// data file.
func DemoSeed() *Seed {
	return &Seed{
		Name: "Bookstore",
		Items: []SeedItem{
			{Title: "The Master and Margarita", Author: "Mikhail Bulgakov", Category: "Novel", Price: 450, Quantity: 15, Year: 1967},
			{Title: "Crime and Punishment", Author: "Fyodor Dostoevsky", Category: "Novel", Price: 380, Quantity: 12, Year: 1866},
			{Title: "1984", Author: "George Orwell", Category: "Dystopia", Price: 520, Quantity: 8, Year: 1949},
			{Title: "Harry Potter and the Philosopher's Stone", Author: "J.K. Rowling", Category: "Fantasy", Price: 670, Quantity: 20, Year: 1997},
			{Title: "War and Peace", Author: "Leo Tolstoy", Category: "Novel", Price: 590, Quantity: 10, Year: 1869},
		},
		Staff: []SeedStaff{
			{Name: "Ivan Petrov", Role: "Manager", Compensation: 50000},
			{Name: "Maria Sidorova", Role: "Sales clerk", Compensation: 35000},
		},
		Patrons: []SeedPatron{
			{Name: "Anna Smirnova", Email: "anna@mail.com", Phone: "+7-123-456-7890"},
			{Name: "Dmitry Ivanov", Email: "dmitry@mail.com", Phone: "+7-987-654-3210"},
		},
	}
}

// Apply adds every seed record to s. Invalid entries are skipped and
// reported; the rest are still added. It returns how many records were added
// or restocked.
func (seed *Seed) Apply(s *Store) (int, []error) {
	var (
		n    int
		errs []error
	)

	for _, si := range seed.Items {
		it, err := NewItem(si.Title, si.Author, si.Category, si.Price, si.Quantity, si.Year)
		if err == nil {
			_, _, err = s.AddItem(Explicit(si.ID), it)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("item %q: %w", si.Title, err))
			continue
		}
		n++
	}
	for _, ss := range seed.Staff {
		m, err := NewStaff(ss.Name, ss.Role, ss.Compensation)
		var added bool
		if err == nil {
			_, added, err = s.AddStaff(Explicit(ss.ID), m)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("staff %q: %w", ss.Name, err))
			continue
		}
		if added {
			n++
		}
	}
	for _, sp := range seed.Patrons {
		p, err := NewPatron(sp.Name, sp.Email, sp.Phone)
		var added bool
		if err == nil {
			_, added, err = s.AddPatron(Explicit(sp.ID), p)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("patron %q: %w", sp.Name, err))
			continue
		}
		if added {
			n++
		}
	}
	return n, errs
}
