package ingest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/vvka-141/jsonload/internal/files/filesystem"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

//go:embed address.schema.json
var addressSchemaJSON string

const addressSchemaURL = "https://jsonload.dev/schemas/address.json"

var addressSchema = jsonschema.MustCompileString(addressSchemaURL, addressSchemaJSON)

// Encoding names accepted by NewDecoder.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1254 = "windows-1254"
	EncodingISO88599    = "iso-8859-9"
)

// Encodings lists the accepted source encodings.
func Encodings() []string {
	return []string{EncodingUTF8, EncodingWindows1254, EncodingISO88599}
}

// Decoder turns one file into an AddressRecord. It has no side effects and
// is safe for concurrent use.
type Decoder struct {
	fs       filesystem.FileSystemProvider
	encoding encoding.Encoding
}

// NewDecoder returns a decoder reading through fs. Source bytes are
// converted from the named encoding to UTF-8; an empty name means UTF-8.
// A UTF-8 byte order mark is always stripped.
func NewDecoder(fs filesystem.FileSystemProvider, encodingName string) (*Decoder, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &Decoder{fs: fs, encoding: enc}, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "windows-1254", "cp1254":
		return charmap.Windows1254, nil
	case "iso-8859-9", "latin5":
		return charmap.ISO8859_9, nil
	default:
		return nil, fmt.Errorf("encoding %q (supported: %s): %w",
			name, strings.Join(Encodings(), ", "), jsonload.ErrInvalidConfig)
	}
}

// Decode reads path and returns its record. Unreadable or malformed files
// yield a *jsonload.DecodeError; a missing adresNo yields a
// *jsonload.MissingKeyError.
func (d *Decoder) Decode(path string) (*jsonload.AddressRecord, error) {
	raw, err := d.fs.ReadFile(path)
	if err != nil {
		return nil, &jsonload.DecodeError{Path: path, Err: err}
	}
	data, err := d.toUTF8(raw)
	if err != nil {
		return nil, &jsonload.DecodeError{Path: path, Err: err}
	}
	return DecodeBytes(path, data)
}

func (d *Decoder) toUTF8(raw []byte) ([]byte, error) {
	// A leading UTF-8 or UTF-16 BOM overrides the configured encoding.
	data, _, err := transform.Bytes(unicode.BOMOverride(d.encoding.NewDecoder()), raw)
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}
	return data, nil
}

// DecodeBytes decodes a UTF-8 document. path is only used for errors and
// SourcePath.
func DecodeBytes(path string, data []byte) (*jsonload.AddressRecord, error) {
	doc, err := parseObject(data)
	if err != nil {
		return nil, &jsonload.DecodeError{Path: path, Err: err}
	}

	if v, ok := doc[jsonload.KeyColumn]; !ok || v == nil {
		return nil, &jsonload.MissingKeyError{Path: path, Field: jsonload.KeyColumn}
	}

	if err := addressSchema.Validate(doc); err != nil {
		return nil, &jsonload.DecodeError{Path: path, Err: schemaError(err)}
	}

	var rec jsonload.AddressRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &jsonload.DecodeError{Path: path, Err: err}
	}
	if !rec.AdresNo.Valid {
		return nil, &jsonload.MissingKeyError{Path: path, Field: jsonload.KeyColumn}
	}
	if _, err := rec.AddressModel(); err != nil {
		return nil, &jsonload.DecodeError{Path: path, Err: err}
	}

	rec.SourcePath = path
	return &rec, nil
}

func parseObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}

	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", jsonKind(v))
	}
	return doc, nil
}

func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if field == "" {
		return fmt.Errorf("schema: %s", leaf.Message)
	}
	return fmt.Errorf("field %q: %s", field, leaf.Message)
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
