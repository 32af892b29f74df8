package utils

import (
	"encoding/hex"

	"github.com/cometh-hq/safe4337-go/types"
)

// HexRemovePrefix 去除 0x 前缀
func HexRemovePrefix(s string) string {
	if types.Has0xPrefix(s) {
		return s[2:]
	}
	return s
}

// MustDecodeHex 解码硬编码常量，失败时 panic
func MustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(HexRemovePrefix(s))
	if err != nil {
		panic(err)
	}
	return b
}
