package spreadsheet

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeToUTF8 converts raw CSV bytes into valid UTF-8. Vendor exports arrive
// in a mix of encodings; GBK is by far the most common for Chinese invoices,
// with the occasional Windows-1251 file from eastern-European vendors.
func decodeToUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}

	candidates := []struct {
		name string
		enc  encoding.Encoding
	}{
		{"GBK", simplifiedchinese.GBK},
		{"Windows-1251", charmap.Windows1251},
	}

	for _, c := range candidates {
		decoded, _, err := transform.Bytes(c.enc.NewDecoder(), data)
		if err == nil && utf8.Valid(decoded) {
			return decoded, nil
		}
	}

	return nil, fmt.Errorf("file is not valid UTF-8 and no known encoding matched")
}
