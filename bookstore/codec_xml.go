package bookstore

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// The flat-record format stores every value as element text. The decoder
// re-types each field by name using the tables below, since the document
// itself carries no type information.

type fieldType int

const (
	textField fieldType = iota
	intField
	floatField
	timeField
)

var (
	itemFields = []fieldSpec{
		{"id", intField}, {"title", textField}, {"author", textField}, {"category", textField},
		{"price", floatField}, {"quantity", intField}, {"year", intField},
	}
	staffFields = []fieldSpec{
		{"id", intField}, {"name", textField}, {"role", textField}, {"compensation", floatField},
	}
	patronFields = []fieldSpec{
		{"id", intField}, {"name", textField}, {"email", textField}, {"phone", textField},
	}
	transactionFields = []fieldSpec{
		{"id", intField}, {"item_id", intField}, {"patron_id", intField}, {"staff_id", intField},
		{"quantity", intField}, {"total_price", floatField}, {"timestamp", timeField},
	}
)

type fieldSpec struct {
	name string
	typ  fieldType
}

type xmlDocument struct {
	XMLName      xml.Name     `xml:"bookstore"`
	Name         *string      `xml:"name"`
	Counters     *xmlCounters `xml:"counters"`
	Items        *xmlList     `xml:"items"`
	Staff        *xmlList     `xml:"staff"`
	Patrons      *xmlList     `xml:"patrons"`
	Transactions *xmlList     `xml:"transactions"`
}

type xmlCounters struct {
	NextItemID        *string `xml:"next_item_id"`
	NextStaffID       *string `xml:"next_staff_id"`
	NextPatronID      *string `xml:"next_patron_id"`
	NextTransactionID *string `xml:"next_transaction_id"`
}

type xmlList struct {
	Records []xmlRecord `xml:",any"`
}

type xmlRecord struct {
	XMLName xml.Name
	Fields  []xmlField `xml:",any"`
}

type xmlField struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

// XMLCodec reads and writes the flat-record format.
type XMLCodec struct{}

func (XMLCodec) Encode(w io.Writer, snap *Snapshot) error {
	c := snap.Counters
	doc := xmlDocument{
		Name: &snap.Name,
		Counters: &xmlCounters{
			NextItemID:        ptr(strconv.FormatInt(c.NextItemID, 10)),
			NextStaffID:       ptr(strconv.FormatInt(c.NextStaffID, 10)),
			NextPatronID:      ptr(strconv.FormatInt(c.NextPatronID, 10)),
			NextTransactionID: ptr(strconv.FormatInt(c.NextTransactionID, 10)),
		},
		Items:        &xmlList{},
		Staff:        &xmlList{},
		Patrons:      &xmlList{},
		Transactions: &xmlList{},
	}
	for _, it := range snap.Items {
		doc.Items.add("item",
			itoa(it.ID), it.Title, it.Author, it.Category,
			ftoa(it.Price), strconv.Itoa(it.Quantity), strconv.Itoa(it.Year))
	}
	for _, m := range snap.Staff {
		doc.Staff.add("employee", itoa(m.ID), m.Name, m.Role, ftoa(m.Compensation))
	}
	for _, p := range snap.Patrons {
		doc.Patrons.add("patron", itoa(p.ID), p.Name, p.Email, p.Phone)
	}
	for _, t := range snap.Transactions {
		doc.Transactions.add("transaction",
			itoa(t.ID), itoa(t.ItemID), itoa(t.PatronID), itoa(t.StaffID),
			strconv.Itoa(t.Quantity), ftoa(t.TotalPrice), formatTimestamp(t.Timestamp))
	}

	if err := checkText("store", "name", snap.Name); err != nil {
		return err
	}
	for _, l := range []*xmlList{doc.Items, doc.Staff, doc.Patrons, doc.Transactions} {
		if err := l.check(); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// add appends an element whose children follow the field table for tag.
func (l *xmlList) add(tag string, values ...string) {
	specs := fieldsFor(tag)
	rec := xmlRecord{XMLName: xml.Name{Local: tag}}
	for i, spec := range specs {
		rec.Fields = append(rec.Fields, xmlField{XMLName: xml.Name{Local: spec.name}, Text: values[i]})
	}
	l.Records = append(l.Records, rec)
}

// check fails on text that encoding/xml would silently replace.
func (l *xmlList) check() error {
	for _, rec := range l.Records {
		for _, f := range rec.Fields {
			if err := checkText(rec.XMLName.Local, f.XMLName.Local, f.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

func fieldsFor(tag string) []fieldSpec {
	switch tag {
	case "item":
		return itemFields
	case "employee":
		return staffFields
	case "patron":
		return patronFields
	case "transaction":
		return transactionFields
	}
	return nil
}

func (XMLCodec) Decode(r io.Reader) (*Snapshot, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	snap := &Snapshot{Counters: DefaultCounters()}
	if doc.Name != nil {
		snap.Name = *doc.Name
	}
	if c := doc.Counters; c != nil {
		for _, f := range []struct {
			dst  *int64
			src  *string
			name string
		}{
			{&snap.Counters.NextItemID, c.NextItemID, "next_item_id"},
			{&snap.Counters.NextStaffID, c.NextStaffID, "next_staff_id"},
			{&snap.Counters.NextPatronID, c.NextPatronID, "next_patron_id"},
			{&snap.Counters.NextTransactionID, c.NextTransactionID, "next_transaction_id"},
		} {
			if f.src == nil {
				continue
			}
			v, err := strconv.ParseInt(strings.TrimSpace(*f.src), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("counter %s: %w", f.name, err)
			}
			*f.dst = v
		}
	}

	err := eachRecord(doc.Items, "item", itemFields, func(f fields) {
		snap.Items = append(snap.Items, Item{
			ID:       f.ints["id"],
			Title:    f.texts["title"],
			Author:   f.texts["author"],
			Category: f.texts["category"],
			Price:    f.floats["price"],
			Quantity: int(f.ints["quantity"]),
			Year:     int(f.ints["year"]),
		})
	})
	if err != nil {
		return nil, err
	}
	err = eachRecord(doc.Staff, "employee", staffFields, func(f fields) {
		snap.Staff = append(snap.Staff, Staff{
			ID:           f.ints["id"],
			Name:         f.texts["name"],
			Role:         f.texts["role"],
			Compensation: f.floats["compensation"],
		})
	})
	if err != nil {
		return nil, err
	}
	err = eachRecord(doc.Patrons, "patron", patronFields, func(f fields) {
		snap.Patrons = append(snap.Patrons, Patron{
			ID:    f.ints["id"],
			Name:  f.texts["name"],
			Email: f.texts["email"],
			Phone: f.texts["phone"],
		})
	})
	if err != nil {
		return nil, err
	}
	err = eachRecord(doc.Transactions, "transaction", transactionFields, func(f fields) {
		snap.Transactions = append(snap.Transactions, Transaction{
			ID:         f.ints["id"],
			ItemID:     f.ints["item_id"],
			PatronID:   f.ints["patron_id"],
			StaffID:    f.ints["staff_id"],
			Quantity:   int(f.ints["quantity"]),
			TotalPrice: f.floats["total_price"],
			Timestamp:  f.times["timestamp"],
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// fields holds one element's children after re-typing.
type fields struct {
	texts  map[string]string
	ints   map[string]int64
	floats map[string]float64
	times  map[string]time.Time
}

// eachRecord re-types every child of l by specs and hands it to fn. Every
// child must be a <tag> element and carry every field in specs.
func eachRecord(l *xmlList, tag string, specs []fieldSpec, fn func(fields)) error {
	if l == nil {
		return nil
	}
	for i, raw := range l.Records {
		if raw.XMLName.Local != tag {
			return fmt.Errorf("unexpected <%s> in list of <%s>", raw.XMLName.Local, tag)
		}
		text := make(map[string]string, len(raw.Fields))
		for _, f := range raw.Fields {
			text[f.XMLName.Local] = f.Text
		}
		f, err := retype(text, specs)
		if err != nil {
			return fmt.Errorf("%s #%d: %w", tag, i+1, err)
		}
		fn(f)
	}
	return nil
}

func retype(text map[string]string, specs []fieldSpec) (fields, error) {
	f := fields{
		texts:  make(map[string]string),
		ints:   make(map[string]int64),
		floats: make(map[string]float64),
		times:  make(map[string]time.Time),
	}
	for _, spec := range specs {
		raw, ok := text[spec.name]
		if !ok {
			return fields{}, fmt.Errorf("missing field %s", spec.name)
		}
		var err error
		switch spec.typ {
		case textField:
			f.texts[spec.name] = raw
		case intField:
			f.ints[spec.name], err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		case floatField:
			f.floats[spec.name], err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
		case timeField:
			f.times[spec.name], err = parseTimestamp(strings.TrimSpace(raw))
		}
		if err != nil {
			return fields{}, fmt.Errorf("field %s: %w", spec.name, err)
		}
	}
	return f, nil
}

func ptr[T any](v T) *T { return &v }

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
