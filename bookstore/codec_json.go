package bookstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// jsonDocument is the structured-tree layout. Counters and sections are
// pointers or slices so that absent keys can be told apart from zero values.
type jsonDocument struct {
	Name              *string           `json:"name,omitempty"`
	NextItemID        *int64            `json:"next_item_id,omitempty"`
	NextStaffID       *int64            `json:"next_staff_id,omitempty"`
	NextPatronID      *int64            `json:"next_patron_id,omitempty"`
	NextTransactionID *int64            `json:"next_transaction_id,omitempty"`
	Items             []Item            `json:"items"`
	Staff             []Staff           `json:"staff"`
	Patrons           []Patron          `json:"patrons"`
	Transactions      []jsonTransaction `json:"transactions"`
}

// jsonTransaction carries the timestamp as text so that both RFC 3339 and
// zone-less ISO-8601 values can be read.
type jsonTransaction struct {
	ID         int64   `json:"id"`
	ItemID     int64   `json:"item_id"`
	PatronID   int64   `json:"patron_id"`
	StaffID    int64   `json:"staff_id"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
	Timestamp  string  `json:"timestamp"`
}

// JSONCodec reads and writes the structured-tree format.
type JSONCodec struct{}

func (JSONCodec) Encode(w io.Writer, snap *Snapshot) error {
	c := snap.Counters
	doc := jsonDocument{
		Name:              &snap.Name,
		NextItemID:        &c.NextItemID,
		NextStaffID:       &c.NextStaffID,
		NextPatronID:      &c.NextPatronID,
		NextTransactionID: &c.NextTransactionID,
		Items:             nonNil(snap.Items),
		Staff:             nonNil(snap.Staff),
		Patrons:           nonNil(snap.Patrons),
		Transactions:      make([]jsonTransaction, 0, len(snap.Transactions)),
	}
	for _, t := range snap.Transactions {
		doc.Transactions = append(doc.Transactions, jsonTransaction{
			ID:         t.ID,
			ItemID:     t.ItemID,
			PatronID:   t.PatronID,
			StaffID:    t.StaffID,
			Quantity:   t.Quantity,
			TotalPrice: t.TotalPrice,
			Timestamp:  formatTimestamp(t.Timestamp),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// jsonInput mirrors jsonDocument with records left raw, so that every field
// can be checked for presence before it is decoded.
type jsonInput struct {
	Name              *string           `json:"name"`
	NextItemID        *int64            `json:"next_item_id"`
	NextStaffID       *int64            `json:"next_staff_id"`
	NextPatronID      *int64            `json:"next_patron_id"`
	NextTransactionID *int64            `json:"next_transaction_id"`
	Items             []json.RawMessage `json:"items"`
	Staff             []json.RawMessage `json:"staff"`
	Patrons           []json.RawMessage `json:"patrons"`
	Transactions      []json.RawMessage `json:"transactions"`
}

// Decode reads a whole document. Trailing data after it is an error, and so
// is a record that lacks one of its fields.
func (JSONCodec) Decode(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc jsonInput
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	snap := &Snapshot{Counters: DefaultCounters()}
	if doc.Name != nil {
		snap.Name = *doc.Name
	}
	setCounter(&snap.Counters.NextItemID, doc.NextItemID)
	setCounter(&snap.Counters.NextStaffID, doc.NextStaffID)
	setCounter(&snap.Counters.NextPatronID, doc.NextPatronID)
	setCounter(&snap.Counters.NextTransactionID, doc.NextTransactionID)

	if snap.Items, err = decodeRecords[Item](doc.Items, "item", itemFields); err != nil {
		return nil, err
	}
	if snap.Staff, err = decodeRecords[Staff](doc.Staff, "staff", staffFields); err != nil {
		return nil, err
	}
	if snap.Patrons, err = decodeRecords[Patron](doc.Patrons, "patron", patronFields); err != nil {
		return nil, err
	}
	txs, err := decodeRecords[jsonTransaction](doc.Transactions, "transaction", transactionFields)
	if err != nil {
		return nil, err
	}
	for _, jt := range txs {
		ts, err := parseTimestamp(jt.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", jt.ID, err)
		}
		snap.Transactions = append(snap.Transactions, Transaction{
			ID:         jt.ID,
			ItemID:     jt.ItemID,
			PatronID:   jt.PatronID,
			StaffID:    jt.StaffID,
			Quantity:   jt.Quantity,
			TotalPrice: jt.TotalPrice,
			Timestamp:  ts,
		})
	}
	return snap, nil
}

// decodeRecords decodes each raw object into T after checking that every
// field named in specs is present and not null.
func decodeRecords[T any](raws []json.RawMessage, entity string, specs []fieldSpec) ([]T, error) {
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keys); err != nil {
			return nil, fmt.Errorf("%s #%d: %w", entity, i+1, err)
		}
		for _, spec := range specs {
			v, ok := keys[spec.name]
			if !ok || string(bytes.TrimSpace(v)) == "null" {
				return nil, fmt.Errorf("%s #%d: missing field %s", entity, i+1, spec.name)
			}
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%s #%d: %w", entity, i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func setCounter(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Zone-less layout written by tools that use naive local timestamps.
const naiveTimestamp = "2006-01-02T15:04:05.999999999"

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(naiveTimestamp, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}
