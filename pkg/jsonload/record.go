package jsonload

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ColumnKind is the storage type family of a data_json column.
type ColumnKind int

const (
	ColumnInt  ColumnKind = iota // INT
	ColumnText                   // VARCHAR(255)
	ColumnJSON                   // JSON document
)

// Column describes one data_json column. Name doubles as the JSON field name.
type Column struct {
	Name string
	Kind ColumnKind
}

// Columns lists the data_json layout in insert order. The first column is the primary key.
var Columns = []Column{
	{"adresNo", ColumnInt},
	{"icKapiNo", ColumnText},
	{"yapiKullanimAmac", ColumnInt},
	{"maksBbTip", ColumnInt},
	{"maksBbDurum", ColumnInt},
	{"katNo", ColumnText},
	{"binaNo", ColumnInt},
	{"binaKayitNo", ColumnInt},
	{"disKapiNo", ColumnText},
	{"ada", ColumnText},
	{"pafta", ColumnText},
	{"parsel", ColumnText},
	{"siteAdi", ColumnText},
	{"blokAdi", ColumnText},
	{"postaKodu", ColumnText},
	{"maksBinaNumaratajTipi", ColumnInt},
	{"acikAdresModel", ColumnJSON},
	{"tapuBagimsizBolumNo", ColumnText},
	{"bilesenAdi", ColumnText},
	{"yapiKullanimAmacFormatted", ColumnText},
	{"maksBbTipFormatted", ColumnText},
	{"maksBbDurumFormatted", ColumnText},
	{"maksBinaNumaratajTipiFormatted", ColumnText},
	{"adi", ColumnText},
	{"kimlikNo", ColumnInt},
}

// AddressRecord is one decoded address document.
type AddressRecord struct {
	AdresNo                        Int             `json:"adresNo"`
	IcKapiNo                       Text            `json:"icKapiNo"`
	YapiKullanimAmac               Int             `json:"yapiKullanimAmac"`
	MaksBbTip                      Int             `json:"maksBbTip"`
	MaksBbDurum                    Int             `json:"maksBbDurum"`
	KatNo                          Text            `json:"katNo"`
	BinaNo                         Int             `json:"binaNo"`
	BinaKayitNo                    Int             `json:"binaKayitNo"`
	DisKapiNo                      Text            `json:"disKapiNo"`
	Ada                            Text            `json:"ada"`
	Pafta                          Text            `json:"pafta"`
	Parsel                         Text            `json:"parsel"`
	SiteAdi                        Text            `json:"siteAdi"`
	BlokAdi                        Text            `json:"blokAdi"`
	PostaKodu                      Text            `json:"postaKodu"`
	MaksBinaNumaratajTipi          Int             `json:"maksBinaNumaratajTipi"`
	AcikAdresModel                 json.RawMessage `json:"acikAdresModel"`
	TapuBagimsizBolumNo            Text            `json:"tapuBagimsizBolumNo"`
	BilesenAdi                     Text            `json:"bilesenAdi"`
	YapiKullanimAmacFormatted      Text            `json:"yapiKullanimAmacFormatted"`
	MaksBbTipFormatted             Text            `json:"maksBbTipFormatted"`
	MaksBbDurumFormatted           Text            `json:"maksBbDurumFormatted"`
	MaksBinaNumaratajTipiFormatted Text            `json:"maksBinaNumaratajTipiFormatted"`
	Adi                            Text            `json:"adi"`
	KimlikNo                       Int             `json:"kimlikNo"`

	// SourcePath is the file the record was decoded from.
	SourcePath string `json:"-"`
}

// Key returns the natural key. Only meaningful when AdresNo.Valid.
func (r *AddressRecord) Key() int64 {
	return r.AdresNo.Int64
}

// AddressModel returns acikAdresModel as compact JSON text, or nil when absent.
func (r *AddressRecord) AddressModel() (driver.Value, error) {
	raw := bytes.TrimSpace(r.AcikAdresModel)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("acikAdresModel: %w", err)
	}
	return buf.String(), nil
}

// Values returns the column values in Columns order.
func (r *AddressRecord) Values() ([]any, error) {
	model, err := r.AddressModel()
	if err != nil {
		return nil, err
	}
	return []any{
		r.AdresNo, r.IcKapiNo, r.YapiKullanimAmac, r.MaksBbTip, r.MaksBbDurum,
		r.KatNo, r.BinaNo, r.BinaKayitNo, r.DisKapiNo, r.Ada,
		r.Pafta, r.Parsel, r.SiteAdi, r.BlokAdi, r.PostaKodu,
		r.MaksBinaNumaratajTipi, model, r.TapuBagimsizBolumNo, r.BilesenAdi, r.YapiKullanimAmacFormatted,
		r.MaksBbTipFormatted, r.MaksBbDurumFormatted, r.MaksBinaNumaratajTipiFormatted, r.Adi, r.KimlikNo,
	}, nil
}

// Text is a nullable text column. Numbers and booleans are kept as their JSON literal.
type Text struct {
	String string
	Valid  bool
}

// NewText returns a valid Text.
func NewText(s string) Text { return Text{String: s, Valid: true} }

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Text{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text{String: s, Valid: true}
	case '{', '[':
		return fmt.Errorf("expected scalar, got %s", kindOfLiteral(b))
	default:
		*t = Text{String: string(b), Valid: true}
	}
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.String)
}

// Value implements driver.Valuer.
func (t Text) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.String, nil
}

// Int is a nullable integer column. Numeric strings are accepted; an empty string is NULL.
type Int struct {
	Int64 int64
	Valid bool
}

// NewInt returns a valid Int.
func NewInt(v int64) Int { return Int{Int64: v, Valid: true} }

func (n *Int) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = Int{}
		return nil
	}
	lit := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &lit); err != nil {
			return err
		}
		lit = strings.TrimSpace(lit)
		if lit == "" {
			*n = Int{}
			return nil
		}
	} else if b[0] == '{' || b[0] == '[' || b[0] == 't' || b[0] == 'f' {
		return fmt.Errorf("expected integer, got %s", kindOfLiteral(b))
	}

	v, err := parseInteger(lit)
	if err != nil {
		return err
	}
	*n = Int{Int64: v, Valid: true}
	return nil
}

func (n Int) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(n.Int64, 10)), nil
}

// Value implements driver.Valuer.
func (n Int) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Int64, nil
}

func parseInteger(lit string) (int64, error) {
	if v, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return v, nil
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || f != math.Trunc(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, fmt.Errorf("expected integer, got %q", lit)
	}
	return int64(f), nil
}

func kindOfLiteral(b []byte) string {
	switch b[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	default:
		return "value"
	}
}
