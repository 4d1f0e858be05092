package ndf

import (
	"golang.org/x/text/encoding/unicode"

	"github.com/wgmod/eugen/internal/utils"
)

// Wide strings travel as UTF-16LE code units without a BOM.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Utf8ToUtf16 transcodes a UTF-8 string to UTF-16LE bytes.
func Utf8ToUtf16(s string) ([]byte, error) {
	raw, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, utils.WrapError("encode UTF-16", err)
	}
	return raw, nil
}

// Utf16ToUtf8 transcodes UTF-16LE bytes to a UTF-8 string.
func Utf16ToUtf8(raw []byte) (string, error) {
	out, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return "", utils.WrapError("decode UTF-16", err)
	}
	return string(out), nil
}
