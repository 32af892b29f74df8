package types

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseHexBytes 解析 0x 前缀、偶数长度的十六进制字节串
func ParseHexBytes(s string) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, NewStructuralError("invalid hex %q: %v", s, err)
	}
	return b, nil
}

// ParseAddress 解析 20 字节地址
func ParseAddress(s string) (common.Address, error) {
	b, err := ParseHexBytes(s)
	if err != nil {
		return common.Address{}, err
	}
	if len(b) != common.AddressLength {
		return common.Address{}, NewStructuralError("invalid address %q: expected %d bytes, got %d", s, common.AddressLength, len(b))
	}
	return common.BytesToAddress(b), nil
}

// ParseQuantity 解析十六进制数值
//
// 与 hexutil.DecodeBig 不同，允许前导零（bundler 常返回 "0x00"、"0x01e3fb094e"）
func ParseQuantity(s string) (*big.Int, error) {
	if !Has0xPrefix(s) {
		return nil, NewStructuralError("invalid quantity %q: missing 0x prefix", s)
	}
	digits := s[2:]
	if digits == "" {
		return nil, NewStructuralError("invalid quantity %q: empty number", s)
	}
	if !isHexDigits(digits) {
		return nil, NewStructuralError("invalid quantity %q: invalid hex digit", s)
	}
	v, _ := new(big.Int).SetString(digits, 16)
	return v, nil
}

// Has0xPrefix 是否带 0x/0X 前缀
func Has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isHexDigits(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return !(('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F'))
	}) < 0
}

// Quantity JSON 数值（解析时允许前导零）
type Quantity big.Int

// UnmarshalJSON 解析 "0x..." 字符串
func (q *Quantity) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return NewStructuralError("invalid quantity %s: %v", string(input), err)
	}
	v, err := ParseQuantity(s)
	if err != nil {
		return err
	}
	(*big.Int)(q).Set(v)
	return nil
}

// MarshalJSON 编码为最短十六进制
func (q *Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.EncodeBig(q.ToInt()))
}

// ToInt 转换为 *big.Int（nil 返回 nil）
func (q *Quantity) ToInt() *big.Int {
	if q == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(q))
}
