package ppp

import (
	"encoding/hex"
	"strings"
)

// hexDecode decodes hex strings that may contain spaces, for
// readability in test seed vectors.
func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(strings.ReplaceAll(s, " ", ""))
}
