package bookstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteFile persists a snapshot as a SQLite database. The file holds exactly
// one snapshot: saving replaces every table's rows in a single transaction.
type sqliteFile struct {
	db *sql.DB
}

// openSQLite opens (or creates) the database at path and applies the schema.
func openSQLite(path string) (*sqliteFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteFile{db: db}, nil
}

// openSQLiteReadOnly opens an existing snapshot database without writing to
// it. Files that do not carry a known schema_version are rejected.
func openSQLiteReadOnly(path string) (*sqliteFile, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	var raw string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&raw); err != nil {
		db.Close()
		return nil, fmt.Errorf("not a bookstore database: %w", err)
	}
	if v, err := strconv.Atoi(raw); err != nil || v < 1 || v > schemaVersion {
		db.Close()
		return nil, fmt.Errorf("unsupported schema version %q", raw)
	}
	return &sqliteFile{db: db}, nil
}

func (f *sqliteFile) Close() error { return f.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Transactions keep their references without foreign keys: a sale stays
	// on record after its item is removed.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id INTEGER NOT NULL UNIQUE,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            category TEXT NOT NULL,
            price REAL NOT NULL,
            quantity INTEGER NOT NULL,
            year INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS staff (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id INTEGER NOT NULL UNIQUE,
            name TEXT NOT NULL,
            role TEXT NOT NULL,
            compensation REAL NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS patrons (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id INTEGER NOT NULL UNIQUE,
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS transactions (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id INTEGER NOT NULL UNIQUE,
            item_id INTEGER NOT NULL,
            patron_id INTEGER NOT NULL,
            staff_id INTEGER NOT NULL,
            quantity INTEGER NOT NULL,
            total_price REAL NOT NULL,
            timestamp TEXT NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

// Write replaces the stored snapshot with snap.
func (f *sqliteFile) Write(snap *Snapshot) error {
	tx, err := f.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"items", "staff", "patrons", "transactions"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	c := snap.Counters
	meta := map[string]string{
		"name":                snap.Name,
		"next_item_id":        itoa(c.NextItemID),
		"next_staff_id":       itoa(c.NextStaffID),
		"next_patron_id":      itoa(c.NextPatronID),
		"next_transaction_id": itoa(c.NextTransactionID),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES(?,?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, k, v); err != nil {
			return fmt.Errorf("write meta %s: %w", k, err)
		}
	}

	addItem, err := tx.Prepare(`INSERT INTO items(id,title,author,category,price,quantity,year) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer addItem.Close()
	for _, it := range snap.Items {
		if _, err := addItem.Exec(it.ID, it.Title, it.Author, it.Category, it.Price, it.Quantity, it.Year); err != nil {
			return fmt.Errorf("insert item %d: %w", it.ID, err)
		}
	}

	for _, m := range snap.Staff {
		if _, err := tx.Exec(`INSERT INTO staff(id,name,role,compensation) VALUES(?,?,?,?)`,
			m.ID, m.Name, m.Role, m.Compensation); err != nil {
			return fmt.Errorf("insert staff %d: %w", m.ID, err)
		}
	}
	for _, p := range snap.Patrons {
		if _, err := tx.Exec(`INSERT INTO patrons(id,name,email,phone) VALUES(?,?,?,?)`,
			p.ID, p.Name, p.Email, p.Phone); err != nil {
			return fmt.Errorf("insert patron %d: %w", p.ID, err)
		}
	}

	addTx, err := tx.Prepare(`INSERT INTO transactions(id,item_id,patron_id,staff_id,quantity,total_price,timestamp) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer addTx.Close()
	for _, t := range snap.Transactions {
		if _, err := addTx.Exec(t.ID, t.ItemID, t.PatronID, t.StaffID, t.Quantity, t.TotalPrice,
			formatTimestamp(t.Timestamp)); err != nil {
			return fmt.Errorf("insert transaction %d: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

// Read returns the stored snapshot. Rows come back in the order they were
// written.
func (f *sqliteFile) Read() (*Snapshot, error) {
	snap := &Snapshot{Counters: DefaultCounters()}

	meta, err := f.readMeta()
	if err != nil {
		return nil, err
	}
	snap.Name = meta["name"]
	for key, dst := range map[string]*int64{
		"next_item_id":        &snap.Counters.NextItemID,
		"next_staff_id":       &snap.Counters.NextStaffID,
		"next_patron_id":      &snap.Counters.NextPatronID,
		"next_transaction_id": &snap.Counters.NextTransactionID,
	} {
		raw, ok := meta[key]
		if !ok {
			continue
		}
		if *dst, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("counter %s: %w", key, err)
		}
	}

	rows, err := f.db.Query(`SELECT id,title,author,category,price,quantity,year FROM items ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Author, &it.Category, &it.Price, &it.Quantity, &it.Year); err != nil {
			return nil, err
		}
		snap.Items = append(snap.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	staffRows, err := f.db.Query(`SELECT id,name,role,compensation FROM staff ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer staffRows.Close()
	for staffRows.Next() {
		var m Staff
		if err := staffRows.Scan(&m.ID, &m.Name, &m.Role, &m.Compensation); err != nil {
			return nil, err
		}
		snap.Staff = append(snap.Staff, m)
	}
	if err := staffRows.Err(); err != nil {
		return nil, err
	}

	patronRows, err := f.db.Query(`SELECT id,name,email,phone FROM patrons ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer patronRows.Close()
	for patronRows.Next() {
		var p Patron
		if err := patronRows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone); err != nil {
			return nil, err
		}
		snap.Patrons = append(snap.Patrons, p)
	}
	if err := patronRows.Err(); err != nil {
		return nil, err
	}

	txRows, err := f.db.Query(`SELECT id,item_id,patron_id,staff_id,quantity,total_price,timestamp FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer txRows.Close()
	for txRows.Next() {
		var (
			t  Transaction
			ts string
		)
		if err := txRows.Scan(&t.ID, &t.ItemID, &t.PatronID, &t.StaffID, &t.Quantity, &t.TotalPrice, &ts); err != nil {
			return nil, err
		}
		if t.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		snap.Transactions = append(snap.Transactions, t)
	}
	return snap, txRows.Err()
}

func (f *sqliteFile) readMeta() (map[string]string, error) {
	rows, err := f.db.Query(`SELECT key,value FROM meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v.String
	}
	return meta, rows.Err()
}

// saveSQLite writes snap to the database file at path.
func saveSQLite(path string, snap *Snapshot) error {
	f, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(snap)
}

// loadSQLite reads a snapshot from an existing database file. The file is
// opened read-only and is never migrated.
func loadSQLite(path string) (*Snapshot, error) {
	f, err := openSQLiteReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Read()
}
