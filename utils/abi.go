package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/cometh-hq/safe4337-go/types"
)

// packedKind 紧凑编码值类型
type packedKind int

const (
	packedUint packedKind = iota
	packedAddress
	packedBytes
)

// PackedValue 紧凑编码（abi.encodePacked）中的一个值
//
// 数值按声明宽度输出大端字节，地址 20 字节，bytes 原样拼接，均无填充与偏移
type PackedValue struct {
	kind packedKind
	bits int
	num  *big.Int
	raw  []byte
}

// PackUint 声明宽度为 bits 的无符号整数
func PackUint(bits int, v *big.Int) PackedValue {
	return PackedValue{kind: packedUint, bits: bits, num: v}
}

// PackUint64 PackUint 的 uint64 便捷形式
func PackUint64(bits int, v uint64) PackedValue {
	return PackUint(bits, new(big.Int).SetUint64(v))
}

// PackAddress 地址
func PackAddress(a common.Address) PackedValue {
	return PackedValue{kind: packedAddress, raw: a.Bytes()}
}

// PackBytes 动态 bytes 或 bytesN（原样拼接）
func PackBytes(b []byte) PackedValue {
	return PackedValue{kind: packedBytes, raw: b}
}

// PackBytes32 bytes32
func PackBytes32(b [32]byte) PackedValue {
	return PackedValue{kind: packedBytes, raw: b[:]}
}

// EncodePacked 紧凑编码
//
// 数值超出声明宽度时返回结构错误，不做截断
func EncodePacked(values ...PackedValue) ([]byte, error) {
	var out []byte
	for i, v := range values {
		switch v.kind {
		case packedUint:
			b, err := uintBytes(v.bits, v.num)
			if err != nil {
				return nil, types.NewStructuralError("packed value %d: %v", i, err)
			}
			out = append(out, b...)
		case packedAddress, packedBytes:
			out = append(out, v.raw...)
		}
	}
	return out, nil
}

// uintBytes 按宽度输出大端字节
func uintBytes(bits int, v *big.Int) ([]byte, error) {
	if bits <= 0 || bits > 256 || bits%8 != 0 {
		return nil, fmt.Errorf("unsupported width uint%d", bits)
	}
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for uint%d", v, bits)
	}
	u, overflow := uint256.FromBig(v)
	if overflow || u.BitLen() > bits {
		return nil, fmt.Errorf("value %s overflows uint%d", v, bits)
	}
	full := u.Bytes32()
	return full[32-bits/8:], nil
}

// EncodeMultiSendEntry MultiSend 单条记录：uint8 operation ++ address to ++ uint256 value ++ uint256 len ++ data
func EncodeMultiSendEntry(operation uint8, to common.Address, value *big.Int, data []byte) ([]byte, error) {
	if operation > 1 {
		return nil, types.NewStructuralError("multisend operation must be 0 or 1, got %d", operation)
	}
	return EncodePacked(
		PackUint64(8, uint64(operation)),
		PackAddress(to),
		PackUint(256, value),
		PackUint64(256, uint64(len(data))),
		PackBytes(data),
	)
}

// PadLeft32 左填充到 32 字节
func PadLeft32(b []byte) []byte {
	return common.LeftPadBytes(b, 32)
}

// EncodeUint256 uint256 的 32 字节编码
func EncodeUint256(v *big.Int) ([]byte, error) {
	b, err := uintBytes(256, v)
	if err != nil {
		return nil, types.NewStructuralError("%v", err)
	}
	return b, nil
}

// CheckUintWidth 检查数值是否能放入 uintN
func CheckUintWidth(bits int, v *big.Int) error {
	if _, err := uintBytes(bits, v); err != nil {
		return types.NewStructuralError("%v", err)
	}
	return nil
}

// EncodeArguments 标准 ABI 编码（abi.encode），typeNames 形如 "address"、"bytes"、"uint256[2]"
func EncodeArguments(typeNames []string, values ...interface{}) ([]byte, error) {
	if len(typeNames) != len(values) {
		return nil, types.NewStructuralError("argument count mismatch: %d types, %d values", len(typeNames), len(values))
	}
	args := make(abi.Arguments, 0, len(typeNames))
	for _, name := range typeNames {
		t, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, types.NewStructuralError("abi type %q: %v", name, err)
		}
		args = append(args, abi.Argument{Type: t})
	}
	out, err := args.Pack(values...)
	if err != nil {
		return nil, types.NewStructuralError("abi encode: %v", err)
	}
	return out, nil
}

// MustParseABI 解析内置 ABI JSON，失败时 panic
func MustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("parse abi: %v", err))
	}
	return parsed
}
