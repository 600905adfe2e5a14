package bookstore

import (
	"errors"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 5, 17, 12, 30, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New("Test Books", WithClock(func() time.Time { return fixedNow }))
}

func mustItem(t *testing.T, title string, price float64, qty int) Item {
	t.Helper()
	it, err := NewItem(title, "Y", "Z", price, qty, 2000)
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	return it
}

// stocked returns a store with one item (ID 1), one patron (ID 1) and one
// staff member (ID 1).
func stocked(t *testing.T) *Store {
	t.Helper()
	s := newStore(t)
	if _, _, err := s.AddItem(Auto(), mustItem(t, "X", 10, 5)); err != nil {
		t.Fatalf("add item: %v", err)
	}
	p, _ := NewPatron("Anna", "anna@mail.com", "+7-123")
	if _, _, err := s.AddPatron(Auto(), p); err != nil {
		t.Fatalf("add patron: %v", err)
	}
	m, _ := NewStaff("Ivan", "Manager", 50000)
	if _, _, err := s.AddStaff(Auto(), m); err != nil {
		t.Fatalf("add staff: %v", err)
	}
	return s
}

func TestAddItemAutoAssignsIDs(t *testing.T) {
	s := newStore(t)
	a, merged, err := s.AddItem(Auto(), mustItem(t, "A", 10, 1))
	if err != nil || merged {
		t.Fatalf("add A: merged=%v err=%v", merged, err)
	}
	b, _, err := s.AddItem(Auto(), mustItem(t, "B", 10, 1))
	if err != nil {
		t.Fatalf("add B: %v", err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}
	if got := s.Counters().NextItemID; got != 3 {
		t.Fatalf("next item id = %d; want 3", got)
	}
}

func TestAddItemAllocatesPastHighest(t *testing.T) {
	s := newStore(t)
	if _, _, err := s.AddItem(Explicit(7), mustItem(t, "A", 10, 1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	it, _, err := s.AddItem(Auto(), mustItem(t, "B", 10, 1))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if it.ID != 8 {
		t.Fatalf("id = %d; want 8", it.ID)
	}
}

func TestAddItemReusesFreedTopID(t *testing.T) {
	s := newStore(t)
	s.AddItem(Auto(), mustItem(t, "A", 10, 1))
	s.AddItem(Auto(), mustItem(t, "B", 10, 1))
	if err := s.RemoveItem(2, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	it, _, err := s.AddItem(Auto(), mustItem(t, "C", 10, 1))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if it.ID != 2 {
		t.Fatalf("id = %d; want 2", it.ID)
	}
}

func TestAddItemExplicitNonPositiveFallsBack(t *testing.T) {
	s := newStore(t)
	it, _, err := s.AddItem(Explicit(0), mustItem(t, "A", 10, 1))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if it.ID != 1 {
		t.Fatalf("id = %d; want 1", it.ID)
	}
}

func TestAddItemFreshAndColliding(t *testing.T) {
	s := newStore(t)
	if _, _, err := s.AddItem(Explicit(1), mustItem(t, "X", 10, 5)); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, _ := s.Item(1)
	if got.Quantity != 5 {
		t.Fatalf("quantity = %d; want 5", got.Quantity)
	}

	stored, merged, err := s.AddItem(Explicit(1), mustItem(t, "Other title", 99, 3))
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if !merged {
		t.Fatalf("expected merge")
	}
	if stored.Quantity != 8 || stored.Title != "X" || stored.Price != 10 {
		t.Fatalf("merged item = %+v", stored)
	}
	if n := len(s.Items()); n != 1 {
		t.Fatalf("items = %d; want 1", n)
	}
}

func TestAddItemRejectsInvalid(t *testing.T) {
	s := newStore(t)
	it := Item{Title: "X", Author: "Y", Category: "Z", Price: 0, Quantity: 1, Year: 2000}
	_, _, err := s.AddItem(Auto(), it)
	if !errors.Is(err, KindInvalidField) {
		t.Fatalf("err = %v; want invalid field", err)
	}
	if len(s.Items()) != 0 {
		t.Fatalf("store changed")
	}

	it.Price = 1
	it.Year = fixedNow.Year() + 1
	if _, _, err := s.AddItem(Auto(), it); !errors.Is(err, KindInvalidField) {
		t.Fatalf("future year: err = %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		kind    Kind
		wantErr bool
		left    int
		deleted bool
	}{
		{name: "partial", qty: 2, left: 3},
		{name: "all", qty: 5, deleted: true},
		{name: "too many", qty: 6, wantErr: true, kind: KindInsufficientQuantity, left: 5},
		{name: "zero", qty: 0, wantErr: true, kind: KindInvalidField, left: 5},
		{name: "negative", qty: -1, wantErr: true, kind: KindInvalidField, left: 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := stocked(t)
			err := s.RemoveItem(1, tc.qty)
			if tc.wantErr {
				if !errors.Is(err, tc.kind) {
					t.Fatalf("err = %v; want %v", err, tc.kind)
				}
			} else if err != nil {
				t.Fatalf("remove: %v", err)
			}

			it, err := s.Item(1)
			if tc.deleted {
				if !errors.Is(err, KindNotFound) {
					t.Fatalf("item still present: %+v", it)
				}
				return
			}
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if it.Quantity != tc.left {
				t.Fatalf("quantity = %d; want %d", it.Quantity, tc.left)
			}
		})
	}
}

func TestRemoveItemUnknown(t *testing.T) {
	s := newStore(t)
	if err := s.RemoveItem(42, 1); !errors.Is(err, KindNotFound) {
		t.Fatalf("err = %v; want not found", err)
	}
}

func TestSellItem(t *testing.T) {
	s := stocked(t)
	tx, err := s.SellItem(1, 2, 1, 1)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if tx.ID != 1 || tx.Quantity != 2 || tx.TotalPrice != 20.0 {
		t.Fatalf("transaction = %+v", tx)
	}
	if !tx.Timestamp.Equal(fixedNow) {
		t.Fatalf("timestamp = %v; want %v", tx.Timestamp, fixedNow)
	}
	it, _ := s.Item(1)
	if it.Quantity != 3 {
		t.Fatalf("quantity = %d; want 3", it.Quantity)
	}
	if got, err := s.Transaction(1); err != nil || got != tx {
		t.Fatalf("stored transaction = %+v, %v", got, err)
	}
}

func TestSellItemKeepsEmptyItem(t *testing.T) {
	s := stocked(t)
	if _, err := s.SellItem(1, 5, 1, 1); err != nil {
		t.Fatalf("sell: %v", err)
	}
	it, err := s.Item(1)
	if err != nil {
		t.Fatalf("item removed by sale: %v", err)
	}
	if it.Quantity != 0 {
		t.Fatalf("quantity = %d; want 0", it.Quantity)
	}
	if _, err := s.SellItem(1, 1, 1, 1); !errors.Is(err, KindInsufficientQuantity) {
		t.Fatalf("err = %v; want insufficient", err)
	}
}

func TestSellItemFailureLeavesStoreUnchanged(t *testing.T) {
	tests := []struct {
		name                string
		item, patron, staff int64
		qty                 int
		kind                Kind
	}{
		{name: "unknown item", item: 9, patron: 1, staff: 1, qty: 1, kind: KindNotFound},
		{name: "unknown patron", item: 1, patron: 9, staff: 1, qty: 1, kind: KindNotFound},
		{name: "unknown staff", item: 1, patron: 1, staff: 9, qty: 1, kind: KindNotFound},
		{name: "zero quantity", item: 1, patron: 1, staff: 1, qty: 0, kind: KindInvalidField},
		{name: "too many", item: 1, patron: 1, staff: 1, qty: 6, kind: KindInsufficientQuantity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := stocked(t)
			_, err := s.SellItem(tc.item, tc.qty, tc.patron, tc.staff)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("err = %v; want %v", err, tc.kind)
			}
			it, _ := s.Item(1)
			if it.Quantity != 5 {
				t.Fatalf("quantity = %d; want 5", it.Quantity)
			}
			if n := len(s.Transactions()); n != 0 {
				t.Fatalf("transactions = %d; want 0", n)
			}
			if c := s.Counters().NextTransactionID; c != 1 {
				t.Fatalf("next transaction id = %d; want 1", c)
			}
		})
	}
}

func TestTransactionIDsNeverReused(t *testing.T) {
	s := stocked(t)
	for i := 0; i < 2; i++ {
		if _, err := s.SellItem(1, 1, 1, 1); err != nil {
			t.Fatalf("sell: %v", err)
		}
	}

	snap := s.Snapshot()
	snap.Transactions = nil
	if err := s.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if n := len(s.Transactions()); n != 0 {
		t.Fatalf("transactions = %d; want 0", n)
	}

	tx, err := s.SellItem(1, 1, 1, 1)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if tx.ID != 3 {
		t.Fatalf("id = %d; want 3", tx.ID)
	}
}

func TestRestoreRaisesLaggingTransactionCounter(t *testing.T) {
	s := stocked(t)
	s.SellItem(1, 1, 1, 1)
	s.SellItem(1, 1, 1, 1)

	snap := s.Snapshot()
	snap.Counters.NextTransactionID = 1
	if err := s.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if c := s.Counters().NextTransactionID; c != 3 {
		t.Fatalf("next transaction id = %d; want 3", c)
	}
}

func TestRestoreRejectsBadSnapshot(t *testing.T) {
	s := stocked(t)
	before := s.Snapshot()

	bad := s.Snapshot()
	bad.Items = append(bad.Items, bad.Items[0])
	if err := s.Restore(bad); !errors.Is(err, KindInvalidField) {
		t.Fatalf("err = %v; want invalid field", err)
	}

	bad = s.Snapshot()
	bad.Patrons[0].Email = "nope"
	if err := s.Restore(bad); err == nil {
		t.Fatalf("expected error for invalid patron")
	}

	bad = s.Snapshot()
	bad.Counters.NextItemID = 0
	if err := s.Restore(bad); err == nil {
		t.Fatalf("expected error for zero counter")
	}

	after := s.Snapshot()
	if len(after.Items) != len(before.Items) || after.Patrons[0] != before.Patrons[0] {
		t.Fatalf("store changed after failed restore")
	}
}

func TestRestoreReportsFirstBadCounter(t *testing.T) {
	s := stocked(t)
	for i := 0; i < 20; i++ {
		bad := s.Snapshot()
		bad.Counters = Counters{NextItemID: 0, NextStaffID: -1, NextPatronID: 0, NextTransactionID: -5}
		err := s.Restore(bad)
		var e *Error
		if !errors.As(err, &e) {
			t.Fatalf("err = %v; want *Error", err)
		}
		if e.Field != "next_item_id" {
			t.Fatalf("field = %q; want next_item_id", e.Field)
		}
	}

	bad := s.Snapshot()
	bad.Counters.NextPatronID = 0
	var e *Error
	if err := s.Restore(bad); !errors.As(err, &e) || e.Field != "next_patron_id" {
		t.Fatalf("err = %v; want next_patron_id rejected", err)
	}
}

func TestAddStaffAndPatronCollision(t *testing.T) {
	s := stocked(t)

	m, _ := NewStaff("Maria", "Sales clerk", 35000)
	stored, added, err := s.AddStaff(Explicit(1), m)
	if err != nil {
		t.Fatalf("add staff: %v", err)
	}
	if added || stored.Name != "Ivan" {
		t.Fatalf("added=%v stored=%+v; want existing Ivan", added, stored)
	}

	p, _ := NewPatron("Dmitry", "dmitry@mail.com", "+7-987")
	storedP, added, err := s.AddPatron(Explicit(1), p)
	if err != nil {
		t.Fatalf("add patron: %v", err)
	}
	if added || storedP.Name != "Anna" {
		t.Fatalf("added=%v stored=%+v; want existing Anna", added, storedP)
	}

	storedP, added, err = s.AddPatron(Auto(), p)
	if err != nil || !added || storedP.ID != 2 {
		t.Fatalf("auto patron = %+v, added=%v, err=%v", storedP, added, err)
	}
}

func TestLookupsNotFound(t *testing.T) {
	s := newStore(t)
	if _, err := s.Item(1); !errors.Is(err, KindNotFound) {
		t.Fatalf("item: %v", err)
	}
	if _, err := s.StaffMember(1); !errors.Is(err, KindNotFound) {
		t.Fatalf("staff: %v", err)
	}
	if _, err := s.Patron(1); !errors.Is(err, KindNotFound) {
		t.Fatalf("patron: %v", err)
	}
	if _, err := s.Transaction(1); !errors.Is(err, KindNotFound) {
		t.Fatalf("transaction: %v", err)
	}
}

func TestListingsReturnCopies(t *testing.T) {
	s := stocked(t)
	items := s.Items()
	items[0].Quantity = 100
	it, _ := s.Item(1)
	if it.Quantity != 5 {
		t.Fatalf("listing aliased store state")
	}
}

func TestClearKeepsCounters(t *testing.T) {
	s := stocked(t)
	s.SellItem(1, 1, 1, 1)
	s.Clear()
	if len(s.Items())+len(s.Staff())+len(s.Patrons())+len(s.Transactions()) != 0 {
		t.Fatalf("clear left records")
	}
	want := Counters{NextItemID: 2, NextStaffID: 2, NextPatronID: 2, NextTransactionID: 2}
	if got := s.Counters(); got != want {
		t.Fatalf("counters = %+v; want %+v", got, want)
	}
}
