package jsonload_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

func TestColumns_Layout(t *testing.T) {
	require.Len(t, jsonload.Columns, 25)
	assert.Equal(t, jsonload.KeyColumn, jsonload.Columns[0].Name)
	assert.Equal(t, jsonload.ColumnInt, jsonload.Columns[0].Kind)

	seen := make(map[string]bool)
	for _, c := range jsonload.Columns {
		assert.False(t, seen[c.Name], "duplicate column %s", c.Name)
		seen[c.Name] = true
	}
	assert.Equal(t, jsonload.ColumnJSON, jsonload.Columns[16].Kind)
}

func TestAddressRecord_Unmarshal(t *testing.T) {
	doc := `{
		"adresNo": 1001,
		"icKapiNo": "3",
		"yapiKullanimAmac": "7",
		"katNo": 2,
		"binaNo": null,
		"ada": "",
		"acikAdresModel": { "il": "ANKARA",  "ilce": "ÇANKAYA" },
		"kimlikNo": 12.0,
		"extra": "ignored"
	}`

	var rec jsonload.AddressRecord
	require.NoError(t, json.Unmarshal([]byte(doc), &rec))

	assert.Equal(t, jsonload.NewInt(1001), rec.AdresNo)
	assert.Equal(t, int64(1001), rec.Key())
	assert.Equal(t, jsonload.NewText("3"), rec.IcKapiNo)
	assert.Equal(t, jsonload.NewInt(7), rec.YapiKullanimAmac)
	assert.Equal(t, jsonload.NewText("2"), rec.KatNo)
	assert.False(t, rec.BinaNo.Valid)
	assert.Equal(t, jsonload.NewText(""), rec.Ada)
	assert.False(t, rec.Pafta.Valid, "absent text field stays NULL")
	assert.Equal(t, jsonload.NewInt(12), rec.KimlikNo)

	model, err := rec.AddressModel()
	require.NoError(t, err)
	assert.Equal(t, `{"il":"ANKARA","ilce":"ÇANKAYA"}`, model)

	values, err := rec.Values()
	require.NoError(t, err)
	require.Len(t, values, len(jsonload.Columns))
	assert.Equal(t, model, values[16])
}

func TestAddressRecord_MissingModelIsNull(t *testing.T) {
	var rec jsonload.AddressRecord
	require.NoError(t, json.Unmarshal([]byte(`{"adresNo": 1, "acikAdresModel": null}`), &rec))

	model, err := rec.AddressModel()
	require.NoError(t, err)
	assert.Nil(t, model)
}

func TestInt_Rejects(t *testing.T) {
	tests := []string{
		`"abc"`, `1.5`, `true`, `{}`, `[1]`,
		`9223372036854775808`, `"9223372036854775808"`, `9.223372036854775807e18`, `-9223372036854775809`, `1e19`,
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			var n jsonload.Int
			assert.Error(t, json.Unmarshal([]byte(in), &n))
		})
	}
}

func TestInt_Int64Bounds(t *testing.T) {
	tests := map[string]int64{
		`9223372036854775807`:      math.MaxInt64,
		`-9223372036854775808`:     math.MinInt64,
		`"-9223372036854775808"`:   math.MinInt64,
		`-9.223372036854775808e18`: math.MinInt64,
		`4.3e9`:                    4300000000,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			var n jsonload.Int
			require.NoError(t, json.Unmarshal([]byte(in), &n))
			assert.Equal(t, jsonload.NewInt(want), n)
		})
	}
}

func TestInt_EmptyStringIsNull(t *testing.T) {
	var n jsonload.Int
	require.NoError(t, json.Unmarshal([]byte(`"  "`), &n))
	assert.False(t, n.Valid)

	v, err := n.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestText_Rejects(t *testing.T) {
	var s jsonload.Text
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &s))
}

func TestText_Value(t *testing.T) {
	v, err := jsonload.NewText("x").Value()
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = jsonload.Text{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	b, err := json.Marshal(jsonload.Text{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}
