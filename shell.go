package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bookstore-ledger/bookstore"
)

// shell is the line-oriented menu loop. Every error is reported and the loop
// continues; only "exit" or end of input stops it.
type shell struct {
	sc          *bufio.Scanner
	out         io.Writer
	mgr         *bookstore.Manager
	interactive bool
}

func newShell(in io.Reader, out io.Writer, mgr *bookstore.Manager, interactive bool) *shell {
	return &shell{sc: bufio.NewScanner(in), out: out, mgr: mgr, interactive: interactive}
}

const commandHelp = `Available commands:
  Items:        list items, search items, add item, remove item
  Sales:        sell, list sales, sales by patron, sales by staff, sales by item
  People:       list patrons, add patron, list staff, add staff
  Data:         save, load, info
  System:       help, exit`

func (sh *shell) run() {
	if sh.interactive {
		fmt.Fprintf(sh.out, "Welcome to %s!\n", sh.mgr.Summary().Name)
		fmt.Fprintln(sh.out, commandHelp)
	}

	for {
		if sh.interactive {
			fmt.Fprint(sh.out, "\n> ")
		}
		if !sh.sc.Scan() {
			break
		}
		cmd := strings.ToLower(strings.TrimSpace(sh.sc.Text()))

		switch cmd {
		case "":
			continue
		case "list items":
			sh.handleListItems()
		case "search items":
			sh.handleSearchItems()
		case "add item":
			sh.handleAddItem()
		case "remove item":
			sh.handleRemoveItem()
		case "sell":
			sh.handleSell()
		case "list sales":
			sh.printTransactions(sh.mgr.GetAllTransactions())
		case "sales by patron":
			if id, ok := sh.readID("Patron ID: "); ok {
				sh.printTransactions(sh.mgr.TransactionsByPatron(id))
			}
		case "sales by staff":
			if id, ok := sh.readID("Staff ID: "); ok {
				sh.printTransactions(sh.mgr.TransactionsByStaff(id))
			}
		case "sales by item":
			if id, ok := sh.readID("Item ID: "); ok {
				sh.printTransactions(sh.mgr.TransactionsByItem(id))
			}
		case "list patrons":
			sh.handleListPatrons()
		case "add patron":
			sh.handleAddPatron()
		case "list staff":
			sh.handleListStaff()
		case "add staff":
			sh.handleAddStaff()
		case "save":
			sh.handleSave()
		case "load":
			sh.handleLoad()
		case "info":
			printSummary(sh.out, sh.mgr.Summary())
		case "help":
			fmt.Fprintln(sh.out, commandHelp)
		case "exit", "quit":
			fmt.Fprintln(sh.out, "Goodbye!")
			return
		default:
			fmt.Fprintln(sh.out, "Unknown command. Type 'help' to list the available commands.")
		}
	}
}

// ------------------ Input helpers ------------------

// ask prints label (on a terminal) and reads one trimmed line.
func (sh *shell) ask(label string) (string, bool) {
	if sh.interactive {
		fmt.Fprint(sh.out, label)
	}
	if !sh.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.sc.Text()), true
}

func (sh *shell) readID(label string) (int64, bool) {
	raw, ok := sh.ask(label)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintf(sh.out, "Invalid ID: %s\n", raw)
		return 0, false
	}
	return id, true
}

// readInt parses an integer; blank input yields def.
func (sh *shell) readInt(label string, def int) (int, bool) {
	raw, ok := sh.ask(label)
	if !ok {
		return 0, false
	}
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintf(sh.out, "Invalid number: %s (expected a whole number, e.g. 5)\n", raw)
		return 0, false
	}
	return v, true
}

func (sh *shell) readFloat(label string) (float64, bool) {
	raw, ok := sh.ask(label)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		fmt.Fprintf(sh.out, "Invalid number: %s (expected e.g. 100.50)\n", raw)
		return 0, false
	}
	return v, true
}

// readIDChoice reads an optional identifier: blank means allocate.
func (sh *shell) readIDChoice(label string) (bookstore.IDChoice, bool) {
	raw, ok := sh.ask(label)
	if !ok {
		return bookstore.IDChoice{}, false
	}
	if raw == "" {
		return bookstore.Auto(), true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintf(sh.out, "Invalid ID: %s\n", raw)
		return bookstore.IDChoice{}, false
	}
	return bookstore.Explicit(id), true
}

// report prints err with a prefix chosen by its kind.
func (sh *shell) report(err error) {
	var prefix string
	switch bookstore.KindOf(err) {
	case bookstore.KindNotFound:
		prefix = "Not found"
	case bookstore.KindInsufficientQuantity:
		prefix = "Not enough stock"
	case bookstore.KindInvalidField:
		prefix = "Invalid input"
	case bookstore.KindFileOperation:
		prefix = "File error"
	default:
		prefix = "Unexpected error"
	}
	fmt.Fprintf(sh.out, "%s: %v\n", prefix, err)
}

// ------------------ Items ------------------

func (sh *shell) handleListItems() {
	items := sh.mgr.GetAllItems()
	if len(items) == 0 {
		fmt.Fprintln(sh.out, "No items in stock.")
		return
	}
	sh.printItems(items)
}

func (sh *shell) printItems(items []bookstore.Item) {
	fmt.Fprintf(sh.out, "%-5s %-30s %-22s %-12s %10s %6s %5s\n", "ID", "Title", "Author", "Category", "Price", "Qty", "Year")
	fmt.Fprintln(sh.out, strings.Repeat("-", 96))
	for _, it := range items {
		fmt.Fprintf(sh.out, "%-5d %-30s %-22s %-12s %10s %6d %5d\n",
			it.ID,
			truncateString(it.Title, 30),
			truncateString(it.Author, 22),
			truncateString(it.Category, 12),
			bookstore.FormatMoney(it.Price),
			it.Quantity,
			it.Year)
	}
}

func (sh *shell) handleSearchItems() {
	var f bookstore.ItemFilter
	var ok bool
	if f.Title, ok = sh.ask("Title contains (optional): "); !ok {
		return
	}
	if f.Author, ok = sh.ask("Author contains (optional): "); !ok {
		return
	}
	if f.Category, ok = sh.ask("Category contains (optional): "); !ok {
		return
	}
	raw, ok := sh.ask("Max price (optional): ")
	if !ok {
		return
	}
	if raw != "" {
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			fmt.Fprintf(sh.out, "Invalid number: %s\n", raw)
			return
		}
		f.MaxPrice = bookstore.MaxPrice(v)
	}

	items := sh.mgr.SearchItems(f)
	if len(items) == 0 {
		fmt.Fprintln(sh.out, "No items match.")
		return
	}
	fmt.Fprintf(sh.out, "Found %d item(s):\n", len(items))
	sh.printItems(items)
}

func (sh *shell) handleAddItem() {
	choice, ok := sh.readIDChoice("Item ID (blank to assign): ")
	if !ok {
		return
	}
	title, ok := sh.ask("Title: ")
	if !ok {
		return
	}
	author, ok := sh.ask("Author: ")
	if !ok {
		return
	}
	category, ok := sh.ask("Category: ")
	if !ok {
		return
	}
	price, ok := sh.readFloat("Price: ")
	if !ok {
		return
	}
	qty, ok := sh.readInt("Quantity [1]: ", 1)
	if !ok {
		return
	}
	year, ok := sh.readInt("Year: ", 0)
	if !ok {
		return
	}

	it, err := bookstore.NewItem(title, author, category, price, qty, year)
	if err != nil {
		sh.report(err)
		return
	}
	stored, merged, err := sh.mgr.AddItem(choice, it)
	if err != nil {
		sh.report(err)
		return
	}
	if merged {
		fmt.Fprintf(sh.out, "Restocked '%s' (ID %d). Now in stock: %d\n", stored.Title, stored.ID, stored.Quantity)
		return
	}
	fmt.Fprintf(sh.out, "Added '%s' with ID %d\n", stored.Title, stored.ID)
}

func (sh *shell) handleRemoveItem() {
	id, ok := sh.readID("Item ID: ")
	if !ok {
		return
	}
	qty, ok := sh.readInt("Quantity to remove [1]: ", 1)
	if !ok {
		return
	}
	before, err := sh.mgr.GetItem(id)
	if err != nil {
		sh.report(err)
		return
	}
	if err := sh.mgr.RemoveItem(id, qty); err != nil {
		sh.report(err)
		return
	}
	if after, err := sh.mgr.GetItem(id); err == nil {
		fmt.Fprintf(sh.out, "Removed %d of '%s'. Left: %d\n", qty, after.Title, after.Quantity)
		return
	}
	fmt.Fprintf(sh.out, "'%s' removed from the store\n", before.Title)
}

// ------------------ Sales ------------------

func (sh *shell) handleSell() {
	itemID, ok := sh.readID("Item ID: ")
	if !ok {
		return
	}
	qty, ok := sh.readInt("Quantity [1]: ", 1)
	if !ok {
		return
	}
	patronID, ok := sh.readID("Patron ID: ")
	if !ok {
		return
	}
	staffID, ok := sh.readID("Staff ID: ")
	if !ok {
		return
	}

	tx, err := sh.mgr.SellItem(itemID, qty, patronID, staffID)
	if err != nil {
		sh.report(err)
		return
	}
	it, _ := sh.mgr.GetItem(itemID)
	patron, _ := sh.mgr.GetPatron(patronID)
	clerk, _ := sh.mgr.GetStaff(staffID)
	fmt.Fprintf(sh.out, "Sale %d: %d x '%s' to %s for %s (clerk: %s)\n",
		tx.ID, tx.Quantity, it.Title, patron.Name, bookstore.FormatMoney(tx.TotalPrice), clerk.Name)
}

func (sh *shell) printTransactions(txs []bookstore.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(sh.out, "No sales recorded.")
		return
	}
	fmt.Fprintf(sh.out, "%-5s %-7s %-7s %-7s %5s %12s  %s\n", "ID", "Item", "Patron", "Staff", "Qty", "Total", "Date")
	fmt.Fprintln(sh.out, strings.Repeat("-", 68))
	for _, t := range txs {
		fmt.Fprintf(sh.out, "%-5d %-7d %-7d %-7d %5d %12s  %s\n",
			t.ID, t.ItemID, t.PatronID, t.StaffID, t.Quantity,
			bookstore.FormatMoney(t.TotalPrice), t.Timestamp.Format("02.01.2006 15:04"))
	}
}

// ------------------ People ------------------

func (sh *shell) handleListPatrons() {
	patrons := sh.mgr.GetAllPatrons()
	if len(patrons) == 0 {
		fmt.Fprintln(sh.out, "No patrons registered.")
		return
	}
	fmt.Fprintf(sh.out, "%-5s %-25s %-28s %-18s\n", "ID", "Name", "Email", "Phone")
	fmt.Fprintln(sh.out, strings.Repeat("-", 78))
	for _, p := range patrons {
		fmt.Fprintf(sh.out, "%-5d %-25s %-28s %-18s\n", p.ID, truncateString(p.Name, 25), truncateString(p.Email, 28), p.Phone)
	}
}

func (sh *shell) handleAddPatron() {
	choice, ok := sh.readIDChoice("Patron ID (blank to assign): ")
	if !ok {
		return
	}
	name, ok := sh.ask("Name: ")
	if !ok {
		return
	}
	email, ok := sh.ask("Email: ")
	if !ok {
		return
	}
	phone, ok := sh.ask("Phone: ")
	if !ok {
		return
	}

	p, err := bookstore.NewPatron(name, email, phone)
	if err != nil {
		sh.report(err)
		return
	}
	stored, added, err := sh.mgr.AddPatron(choice, p)
	if err != nil {
		sh.report(err)
		return
	}
	if !added {
		fmt.Fprintf(sh.out, "Patron with ID %d already exists (%s); nothing added\n", stored.ID, stored.Name)
		return
	}
	fmt.Fprintf(sh.out, "Added patron '%s' with ID %d\n", stored.Name, stored.ID)
}

func (sh *shell) handleListStaff() {
	staff := sh.mgr.GetAllStaff()
	if len(staff) == 0 {
		fmt.Fprintln(sh.out, "No staff registered.")
		return
	}
	fmt.Fprintf(sh.out, "%-5s %-25s %-20s %14s\n", "ID", "Name", "Role", "Compensation")
	fmt.Fprintln(sh.out, strings.Repeat("-", 67))
	for _, m := range staff {
		fmt.Fprintf(sh.out, "%-5d %-25s %-20s %14s\n", m.ID, truncateString(m.Name, 25), truncateString(m.Role, 20), bookstore.FormatMoney(m.Compensation))
	}
}

func (sh *shell) handleAddStaff() {
	choice, ok := sh.readIDChoice("Staff ID (blank to assign): ")
	if !ok {
		return
	}
	name, ok := sh.ask("Name: ")
	if !ok {
		return
	}
	role, ok := sh.ask("Role: ")
	if !ok {
		return
	}
	pay, ok := sh.readFloat("Compensation: ")
	if !ok {
		return
	}

	m, err := bookstore.NewStaff(name, role, pay)
	if err != nil {
		sh.report(err)
		return
	}
	stored, added, err := sh.mgr.AddStaff(choice, m)
	if err != nil {
		sh.report(err)
		return
	}
	if !added {
		fmt.Fprintf(sh.out, "Staff member with ID %d already exists (%s); nothing added\n", stored.ID, stored.Name)
		return
	}
	fmt.Fprintf(sh.out, "Added staff member '%s' with ID %d\n", stored.Name, stored.ID)
}

// ------------------ Data ------------------

func (sh *shell) handleSave() {
	path, ok := sh.ask(fmt.Sprintf("File [%s]: ", sh.mgr.DataFile()))
	if !ok {
		return
	}
	if err := sh.mgr.SaveData(path); err != nil {
		sh.report(err)
		return
	}
	if path == "" {
		path = sh.mgr.DataFile()
	}
	fmt.Fprintf(sh.out, "Saved to %s\n", path)
}

func (sh *shell) handleLoad() {
	path, ok := sh.ask(fmt.Sprintf("File [%s]: ", sh.mgr.DataFile()))
	if !ok {
		return
	}
	if err := sh.mgr.LoadData(path); err != nil {
		sh.report(err)
		return
	}
	if path == "" {
		path = sh.mgr.DataFile()
	}
	fmt.Fprintf(sh.out, "Loaded %s\n", path)
}

func printSummary(w io.Writer, s bookstore.Summary) {
	fmt.Fprintf(w, "=== %s ===\n", s.Name)
	fmt.Fprintf(w, "Items in catalog:  %d\n", s.Items)
	fmt.Fprintf(w, "Staff:             %d\n", s.Staff)
	fmt.Fprintf(w, "Patrons:           %d\n", s.Patrons)
	fmt.Fprintf(w, "Sales:             %d\n", s.Transactions)
	fmt.Fprintf(w, "Inventory value:   %s\n", bookstore.FormatMoney(s.InventoryValue))
	fmt.Fprintf(w, "Total revenue:     %s\n", bookstore.FormatMoney(s.Revenue))
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
