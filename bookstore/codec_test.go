package bookstore

import (
	"bytes"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// populated returns a store exercising every collection, a removed item, a
// zero-stock item and a transaction referring to a deleted item.
func populated(t *testing.T) *Store {
	t.Helper()
	s := catalogStore(t)

	_, err := s.SellItem(1, 2, 1, 1)
	require.NoError(t, err)
	_, err = s.SellItem(3, 8, 2, 2)
	require.NoError(t, err)
	_, err = s.SellItem(2, 1, 2, 1)
	require.NoError(t, err)
	require.NoError(t, s.RemoveItem(2, 11))

	_, _, err = s.AddItem(Explicit(40), mustItem(t, `Tags & "quotes" <here>`, 12.34, 2))
	require.NoError(t, err)
	_, _, err = s.AddItem(Explicit(41), mustItem(t, "  Мастер и\tМаргарита\r\n ", 7, 1))
	require.NoError(t, err)
	s.name = "  Spaced Name "
	return s
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatXML, FormatSQLite} {
		t.Run(string(f), func(t *testing.T) {
			s := populated(t)
			want := s.Snapshot()
			path := filepath.Join(t.TempDir(), "store."+string(f))

			require.NoError(t, s.Save(path, f))
			s.Clear()
			require.Empty(t, s.Items())
			require.NoError(t, s.Load(path, f))

			got := s.Snapshot()
			assert.Equal(t, want.Name, got.Name)
			assert.Equal(t, want.Counters, got.Counters)
			assert.Equal(t, want.Items, got.Items)
			assert.Equal(t, want.Staff, got.Staff)
			assert.Equal(t, want.Patrons, got.Patrons)
			require.Len(t, got.Transactions, len(want.Transactions))
			for i := range want.Transactions {
				w, g := want.Transactions[i], got.Transactions[i]
				assert.True(t, w.Timestamp.Equal(g.Timestamp), "timestamp %d: %v != %v", i, w.Timestamp, g.Timestamp)
				w.Timestamp, g.Timestamp = time.Time{}, time.Time{}
				assert.Equal(t, w, g)
			}
		})
	}
}

func TestSaveOverwritesSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s := populated(t)
	require.NoError(t, s.Save(path, FormatSQLite))

	require.NoError(t, s.RemoveItem(1, 13))
	require.NoError(t, s.Save(path, FormatSQLite))

	other := newStore(t)
	require.NoError(t, other.Load(path, FormatSQLite))
	assert.Len(t, other.Items(), len(s.Items()))
	_, err := other.Item(1)
	assert.ErrorIs(t, err, KindNotFound)
}

func TestLoadMissingFile(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatXML, FormatSQLite} {
		t.Run(string(f), func(t *testing.T) {
			s := stocked(t)
			path := filepath.Join(t.TempDir(), "absent."+string(f))

			err := s.Load(path, f)
			require.Error(t, err)
			assert.ErrorIs(t, err, KindFileOperation)
			assert.ErrorIs(t, err, fs.ErrNotExist)
			assert.NotErrorIs(t, err, ErrMalformedSnapshot)
			assert.Len(t, s.Items(), 1)

			_, statErr := os.Stat(path)
			assert.ErrorIs(t, statErr, fs.ErrNotExist, "load must not create the file")
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		format  Format
		content string
	}{
		{name: "json syntax", file: "bad.json", format: FormatJSON, content: `{"items": [`},
		{name: "json wrong type", file: "bad.json", format: FormatJSON, content: `{"items": [{"id": "one"}]}`},
		{name: "json invalid item", file: "bad.json", format: FormatJSON,
			content: `{"items": [{"id": 1, "title": "", "author": "Y", "category": "Z", "price": 1, "quantity": 1, "year": 2000}]}`},
		{name: "json bad timestamp", file: "bad.json", format: FormatJSON,
			content: `{"transactions": [{"id": 1, "item_id": 1, "patron_id": 1, "staff_id": 1, "quantity": 1, "total_price": 1, "timestamp": "yesterday"}]}`},
		{name: "json duplicate ids", file: "bad.json", format: FormatJSON,
			content: `{"patrons": [{"id": 1, "name": "A", "email": "a@b", "phone": "1"}, {"id": 1, "name": "B", "email": "b@c", "phone": "2"}]}`},
		{name: "xml syntax", file: "bad.xml", format: FormatXML, content: `<bookstore><items>`},
		{name: "xml non-numeric price", file: "bad.xml", format: FormatXML,
			content: `<bookstore><items><item><id>1</id><title>X</title><author>Y</author><category>Z</category><price>cheap</price><quantity>1</quantity><year>2000</year></item></items></bookstore>`},
		{name: "xml missing field", file: "bad.xml", format: FormatXML,
			content: `<bookstore><patrons><patron><id>1</id><name>A</name><email>a@b</email></patron></patrons></bookstore>`},
		{name: "xml bad counter", file: "bad.xml", format: FormatXML,
			content: `<bookstore><counters><next_item_id>x</next_item_id></counters></bookstore>`},
		{name: "json missing quantity", file: "bad.json", format: FormatJSON,
			content: `{"items": [{"id": 1, "title": "X", "author": "Y", "category": "Z", "price": 1, "year": 2000}]}`},
		{name: "json missing compensation", file: "bad.json", format: FormatJSON,
			content: `{"staff": [{"id": 1, "name": "A", "role": "Clerk"}]}`},
		{name: "json null field", file: "bad.json", format: FormatJSON,
			content: `{"patrons": [{"id": 1, "name": "A", "email": "a@b", "phone": null}]}`},
		{name: "json trailing data", file: "bad.json", format: FormatJSON, content: `{"name": "N"} this is garbage`},
		{name: "json second document", file: "bad.json", format: FormatJSON, content: `{"name": "N"}{"name": "M"}`},
		{name: "xml unexpected tag", file: "bad.xml", format: FormatXML,
			content: `<bookstore><items><book><id>1</id><title>X</title><author>Y</author><category>Z</category><price>1</price><quantity>1</quantity><year>2000</year></book></items></bookstore>`},
		{name: "xml control character", file: "bad.xml", format: FormatXML,
			content: `<bookstore><items><item><id>1</id><title>A&#x1;B</title><author>Y</author><category>Z</category><price>1</price><quantity>1</quantity><year>2000</year></item></items></bookstore>`},
		{name: "sqlite garbage", file: "bad.db", format: FormatSQLite, content: "this is not a database file, not even close"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := stocked(t)
			path := filepath.Join(t.TempDir(), tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			err := s.Load(path, tc.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, KindFileOperation)
			assert.ErrorIs(t, err, ErrMalformedSnapshot)
			assert.Len(t, s.Items(), 1, "store must be unchanged")
		})
	}
}

func TestLoadForeignSQLiteLeavesFileAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE notes (body TEXT); INSERT INTO notes VALUES ('hello');`)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	s := stocked(t)
	err = s.Load(path, FormatSQLite)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedSnapshot)
	assert.Len(t, s.Items(), 1, "store must be unchanged")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "load must not write to the file")
}

func TestXMLEncodeRejectsUnstorableText(t *testing.T) {
	snap := stocked(t).Snapshot()
	snap.Name = "bad\x01name"
	var buf bytes.Buffer
	err := XMLCodec{}.Encode(&buf, snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, KindInvalidField)
	assert.Zero(t, buf.Len())

	snap = stocked(t).Snapshot()
	snap.Items[0].Title = "A\x01B"
	err = XMLCodec{}.Encode(&buf, snap)
	assert.ErrorIs(t, err, KindInvalidField)
}

func TestLoadWithoutOptionalSections(t *testing.T) {
	tests := []struct {
		file    string
		format  Format
		content string
	}{
		{file: "min.json", format: FormatJSON,
			content: `{"items": [{"id": 4, "title": "X", "author": "Y", "category": "Z", "price": 10, "quantity": 5, "year": 2000}]}`},
		{file: "min.xml", format: FormatXML,
			content: `<?xml version="1.0"?><bookstore><items><item><id>4</id><title>X</title><author>Y</author><category>Z</category><price>10</price><quantity>5</quantity><year>2000</year></item></items></bookstore>`},
	}
	for _, tc := range tests {
		t.Run(tc.file, func(t *testing.T) {
			s := stocked(t)
			s.SellItem(1, 1, 1, 1)
			path := filepath.Join(t.TempDir(), tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			require.NoError(t, s.Load(path, tc.format))
			assert.Empty(t, s.Transactions())
			assert.Empty(t, s.Staff())
			assert.Empty(t, s.Patrons())
			assert.Equal(t, "Test Books", s.Name(), "missing name keeps the current one")
			assert.Equal(t, DefaultCounters(), s.Counters())

			it, err := s.Item(4)
			require.NoError(t, err)
			assert.Equal(t, 5, it.Quantity)
		})
	}
}

func TestTransactionCounterSurvivesReload(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatXML, FormatSQLite} {
		t.Run(string(f), func(t *testing.T) {
			s := stocked(t)
			_, err := s.SellItem(1, 1, 1, 1)
			require.NoError(t, err)
			_, err = s.SellItem(1, 1, 1, 1)
			require.NoError(t, err)

			snap := s.Snapshot()
			snap.Transactions = nil
			path := filepath.Join(t.TempDir(), "store."+string(f))
			fresh := newStore(t)
			require.NoError(t, fresh.Restore(snap))
			require.NoError(t, fresh.Save(path, f))

			reloaded := newStore(t)
			require.NoError(t, reloaded.Load(path, f))
			assert.Empty(t, reloaded.Transactions())
			tx, err := reloaded.SellItem(1, 1, 1, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(3), tx.ID)
		})
	}
}

func TestNaiveTimestampAccepted(t *testing.T) {
	doc := `{"transactions": [{"id": 1, "item_id": 1, "patron_id": 1, "staff_id": 1,
		"quantity": 1, "total_price": 9.5, "timestamp": "2024-03-01T10:15:30.123456"}]}`
	snap, err := JSONCodec{}.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, snap.Transactions, 1)

	want := time.Date(2024, 3, 1, 10, 15, 30, 123456000, time.Local)
	assert.True(t, snap.Transactions[0].Timestamp.Equal(want))
}

func TestXMLLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XMLCodec{}.Encode(&buf, stocked(t).Snapshot()))
	out := buf.String()

	for _, frag := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		"<bookstore>",
		"<name>Test Books</name>",
		"<next_transaction_id>1</next_transaction_id>",
		"<item>", "<price>10</price>",
		"<employee>", "<role>Manager</role>",
		"<patron>", "<email>anna@mail.com</email>",
		"<transactions></transactions>",
	} {
		assert.Contains(t, out, frag)
	}
}

func TestJSONLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONCodec{}.Encode(&buf, newStore(t).Snapshot()))
	out := buf.String()

	assert.Contains(t, out, `"name": "Test Books"`)
	assert.Contains(t, out, `"next_item_id": 1`)
	assert.Contains(t, out, `"items": []`)
	assert.Contains(t, out, `"transactions": []`)
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json": FormatJSON, ".JSON": FormatJSON,
		"xml": FormatXML,
		"db":  FormatSQLite, "sqlite": FormatSQLite, ".sqlite3": FormatSQLite,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("csv")
	assert.ErrorIs(t, err, KindInvalidField)
	_, err = FormatForPath("store")
	assert.ErrorIs(t, err, KindInvalidField)

	f, err := FormatForPath("data/store.xml")
	require.NoError(t, err)
	assert.Equal(t, FormatXML, f)
}

func TestSaveUnwritablePath(t *testing.T) {
	s := stocked(t)
	path := filepath.Join(t.TempDir(), "missing-dir", "store.json")
	err := s.Save(path, FormatJSON)
	require.Error(t, err)
	assert.ErrorIs(t, err, KindFileOperation)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}
