package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/vvka-141/jsonload/internal/files/filesystem"
)

// AddressJSON returns a complete address document for adresNo.
func AddressJSON(adresNo int64) string {
	return fmt.Sprintf(`{
  "adresNo": %d,
  "icKapiNo": "4",
  "yapiKullanimAmac": 1,
  "maksBbTip": 2,
  "maksBbDurum": 1,
  "katNo": "2",
  "binaNo": 104512,
  "binaKayitNo": 3,
  "disKapiNo": "17A",
  "ada": "1203",
  "pafta": "F12",
  "parsel": "8",
  "siteAdi": "Yıldız Sitesi",
  "blokAdi": "B",
  "postaKodu": "06690",
  "maksBinaNumaratajTipi": 1,
  "acikAdresModel": {"il": "Ankara", "ilce": "Çankaya", "mahalle": "Kızılay", "kapi": "17A"},
  "tapuBagimsizBolumNo": "12",
  "bilesenAdi": "Mesken",
  "yapiKullanimAmacFormatted": "Konut",
  "maksBbTipFormatted": "Bağımsız Bölüm",
  "maksBbDurumFormatted": "Aktif",
  "maksBinaNumaratajTipiFormatted": "Ana Giriş",
  "adi": "Daire 4",
  "kimlikNo": %d
}`, adresNo, adresNo+9000000000)
}

// FileName is the fixture file name used for adresNo.
func FileName(adresNo int64) string {
	return fmt.Sprintf("adres_%d.json", adresNo)
}

// AddAddressFiles adds one document per key to fs under dir and returns
// the absolute paths in key order.
func AddAddressFiles(fs *filesystem.MemoryFileSystem, dir string, keys ...int64) []string {
	paths := make([]string, 0, len(keys))
	for _, key := range keys {
		paths = append(paths, fs.AddFile(filepath.Join(dir, FileName(key)), AddressJSON(key)))
	}
	return paths
}

// WriteAddressFiles writes one document per key into dir on disk.
func WriteAddressFiles(t *testing.T, dir string, keys ...int64) []string {
	t.Helper()
	paths := make([]string, 0, len(keys))
	for _, key := range keys {
		p := filepath.Join(dir, FileName(key))
		if err := os.WriteFile(p, []byte(AddressJSON(key)), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", p, err)
		}
		paths = append(paths, p)
	}
	return paths
}

// Keys returns n consecutive keys starting at first.
func Keys(first int64, n int) []int64 {
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = first + int64(i)
	}
	return keys
}
