package bookstore

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
)

const defaultName = "Bookstore"

// ManagerOptions configures NewManager.
type ManagerOptions struct {
	// Name is used when no data file exists yet. Empty falls back to the
	// seed's name, then to "Bookstore".
	Name string
	// DataFile is the default path for SaveData and LoadData.
	DataFile string
	// Format of DataFile; empty means pick by extension.
	Format Format
	// SeedFile, when set, seeds a store that has no data file.
	SeedFile string
	// Demo seeds the demonstration data when neither a data file nor a
	// seed file is available.
	Demo   bool
	Logger *slog.Logger
}

// Manager is a thin façade over the Store, keeping CLI code simple. It knows
// the default data file and how a fresh store is bootstrapped.
type Manager struct {
	store    *Store
	dataFile string
	format   Format
	logger   *slog.Logger
}

// NewManager loads DataFile when it exists, otherwise starts a new store
// from the seed file or the demo data.
func NewManager(opts ManagerOptions) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	format := opts.Format
	if format == "" && opts.DataFile != "" {
		f, err := FormatForPath(opts.DataFile)
		if err != nil {
			return nil, err
		}
		format = f
	}

	name := opts.Name
	if name == "" {
		name = defaultName
	}
	m := &Manager{
		store:    New(name, WithLogger(logger)),
		dataFile: opts.DataFile,
		format:   format,
		logger:   logger,
	}

	if opts.DataFile != "" {
		err := m.store.Load(opts.DataFile, format)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logger.Info("no data file yet", "path", opts.DataFile)
	}

	var seed *Seed
	switch {
	case opts.SeedFile != "":
		s, err := LoadSeedFile(opts.SeedFile)
		if err != nil {
			return nil, err
		}
		seed = s
	case opts.Demo:
		seed = DemoSeed()
	}
	if seed != nil {
		if opts.Name == "" && seed.Name != "" {
			m.store.name = seed.Name
		}
		m.Seed(seed)
	}
	return m, nil
}

// Seed applies seed to the store, logging entries that could not be added.
func (m *Manager) Seed(seed *Seed) int {
	n, errs := seed.Apply(m.store)
	for _, err := range errs {
		m.logger.Warn("seed entry skipped", "error", err)
	}
	return n
}

func (m *Manager) Store() *Store      { return m.store }
func (m *Manager) DataFile() string   { return m.dataFile }
func (m *Manager) Format() Format     { return m.format }
func (m *Manager) Summary() Summary   { return m.store.Summary() }
func (m *Manager) Counters() Counters { return m.store.Counters() }

// ------------------ Item helpers ------------------

func (m *Manager) AddItem(id IDChoice, it Item) (Item, bool, error) { return m.store.AddItem(id, it) }
func (m *Manager) RemoveItem(id int64, qty int) error               { return m.store.RemoveItem(id, qty) }
func (m *Manager) GetItem(id int64) (Item, error)                   { return m.store.Item(id) }
func (m *Manager) GetAllItems() []Item                              { return m.store.Items() }
func (m *Manager) SearchItems(f ItemFilter) []Item                  { return m.store.SearchItems(f) }

// ------------------ People helpers ------------------

func (m *Manager) AddStaff(id IDChoice, s Staff) (Staff, bool, error) { return m.store.AddStaff(id, s) }
func (m *Manager) AddPatron(id IDChoice, p Patron) (Patron, bool, error) {
	return m.store.AddPatron(id, p)
}
func (m *Manager) GetStaff(id int64) (Staff, error)   { return m.store.StaffMember(id) }
func (m *Manager) GetPatron(id int64) (Patron, error) { return m.store.Patron(id) }
func (m *Manager) GetAllStaff() []Staff               { return m.store.Staff() }
func (m *Manager) GetAllPatrons() []Patron            { return m.store.Patrons() }

// ------------------ Sales ------------------

func (m *Manager) SellItem(itemID int64, qty int, patronID, staffID int64) (Transaction, error) {
	return m.store.SellItem(itemID, qty, patronID, staffID)
}

func (m *Manager) GetAllTransactions() []Transaction { return m.store.Transactions() }

func (m *Manager) TransactionsByPatron(id int64) []Transaction {
	return m.store.TransactionsByPatron(id)
}
func (m *Manager) TransactionsByStaff(id int64) []Transaction { return m.store.TransactionsByStaff(id) }
func (m *Manager) TransactionsByItem(id int64) []Transaction  { return m.store.TransactionsByItem(id) }

// ------------------ Persistence ------------------

// SaveData writes the store to path, or to the default data file when path
// is empty. The format follows the path's extension.
func (m *Manager) SaveData(path string) error {
	path, format, err := m.target(path)
	if err != nil {
		return err
	}
	return m.store.Save(path, format)
}

// LoadData replaces the store with the content of path (or the default data
// file).
func (m *Manager) LoadData(path string) error {
	path, format, err := m.target(path)
	if err != nil {
		return err
	}
	return m.store.Load(path, format)
}

func (m *Manager) target(path string) (string, Format, error) {
	if path == "" || path == m.dataFile {
		if m.dataFile == "" {
			return "", "", fileError("no data file configured", os.ErrInvalid)
		}
		return m.dataFile, m.format, nil
	}
	f, err := FormatForPath(path)
	if err != nil {
		return "", "", err
	}
	return path, f, nil
}
