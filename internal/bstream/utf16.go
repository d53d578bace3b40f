package bstream

import "unicode/utf16"

func utf16ToString(u []uint16) string {
	return string(utf16.Decode(u))
}
