package types

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// UserOperation ERC-4337 v0.7 用户操作
//
// factory/factoryData 仅在钱包未部署时存在；paymaster 四个字段要么全部存在要么全部缺省
type UserOperation struct {
	Sender               common.Address
	Nonce                *big.Int
	Factory              *common.Address
	FactoryData          []byte
	CallData             []byte
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int

	Paymaster                     *common.Address
	PaymasterData                 []byte
	PaymasterVerificationGasLimit *big.Int
	PaymasterPostOpGasLimit       *big.Int

	Signature []byte
}

// RawUserOperation UserOperation 的 JSON-RPC 线上形式（全部为 0x 十六进制字符串）
type RawUserOperation struct {
	Sender                        string `json:"sender"`
	Nonce                         string `json:"nonce"`
	Factory                       string `json:"factory,omitempty"`
	FactoryData                   string `json:"factoryData,omitempty"`
	CallData                      string `json:"callData"`
	CallGasLimit                  string `json:"callGasLimit"`
	VerificationGasLimit          string `json:"verificationGasLimit"`
	PreVerificationGas            string `json:"preVerificationGas"`
	MaxFeePerGas                  string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas          string `json:"maxPriorityFeePerGas"`
	Paymaster                     string `json:"paymaster,omitempty"`
	PaymasterVerificationGasLimit string `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       string `json:"paymasterPostOpGasLimit,omitempty"`
	PaymasterData                 string `json:"paymasterData,omitempty"`
	Signature                     string `json:"signature,omitempty"`
}

// ParseUserOperation 从十六进制字符串构造 UserOperation
//
// 字节与地址字段必须 0x 前缀、偶数长度、合法十六进制；地址必须恰好 20 字节。
// 任一字段不合法返回 StructuralError
func ParseUserOperation(raw *RawUserOperation) (*UserOperation, error) {
	if raw == nil {
		return nil, NewStructuralError("nil user operation")
	}
	p := &fieldParser{}
	op := &UserOperation{
		Sender:               p.address("sender", raw.Sender),
		Nonce:                p.quantity("nonce", raw.Nonce),
		CallData:             p.bytes("callData", raw.CallData),
		CallGasLimit:         p.quantity("callGasLimit", raw.CallGasLimit),
		VerificationGasLimit: p.quantity("verificationGasLimit", raw.VerificationGasLimit),
		PreVerificationGas:   p.quantity("preVerificationGas", raw.PreVerificationGas),
		MaxFeePerGas:         p.quantity("maxFeePerGas", raw.MaxFeePerGas),
		MaxPriorityFeePerGas: p.quantity("maxPriorityFeePerGas", raw.MaxPriorityFeePerGas),
	}
	if raw.Factory != "" {
		factory := p.address("factory", raw.Factory)
		op.Factory = &factory
	}
	if raw.FactoryData != "" {
		op.FactoryData = p.bytes("factoryData", raw.FactoryData)
	}
	if raw.Paymaster != "" {
		paymaster := p.address("paymaster", raw.Paymaster)
		op.Paymaster = &paymaster
	}
	if raw.PaymasterData != "" {
		op.PaymasterData = p.bytes("paymasterData", raw.PaymasterData)
	}
	if raw.PaymasterVerificationGasLimit != "" {
		op.PaymasterVerificationGasLimit = p.quantity("paymasterVerificationGasLimit", raw.PaymasterVerificationGasLimit)
	}
	if raw.PaymasterPostOpGasLimit != "" {
		op.PaymasterPostOpGasLimit = p.quantity("paymasterPostOpGasLimit", raw.PaymasterPostOpGasLimit)
	}
	if raw.Signature != "" {
		op.Signature = p.bytes("signature", raw.Signature)
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := validateGroups(raw); err != nil {
		return nil, err
	}
	if err := op.validateWidths(); err != nil {
		return nil, err
	}
	return op, nil
}

// validateGroups factoryData 依附于 factory，paymaster 四个字段须同时出现或同时缺省
func validateGroups(raw *RawUserOperation) error {
	if raw.FactoryData != "" && raw.Factory == "" {
		return NewStructuralError("factoryData present without factory")
	}
	present := 0
	for _, v := range []string{
		raw.Paymaster,
		raw.PaymasterData,
		raw.PaymasterVerificationGasLimit,
		raw.PaymasterPostOpGasLimit,
	} {
		if v != "" {
			present++
		}
	}
	if present != 0 && present != 4 {
		return NewStructuralError("incomplete paymaster fields: %d of 4 present", present)
	}
	return nil
}

// Raw 转换为线上形式
func (op *UserOperation) Raw() *RawUserOperation {
	raw := &RawUserOperation{
		Sender:               op.Sender.Hex(),
		Nonce:                encodeQuantity(op.Nonce),
		CallData:             hexutil.Encode(op.CallData),
		CallGasLimit:         encodeQuantity(op.CallGasLimit),
		VerificationGasLimit: encodeQuantity(op.VerificationGasLimit),
		PreVerificationGas:   encodeQuantity(op.PreVerificationGas),
		MaxFeePerGas:         encodeQuantity(op.MaxFeePerGas),
		MaxPriorityFeePerGas: encodeQuantity(op.MaxPriorityFeePerGas),
	}
	if op.Factory != nil {
		raw.Factory = op.Factory.Hex()
		raw.FactoryData = hexutil.Encode(op.FactoryData)
	}
	if op.Paymaster != nil {
		raw.Paymaster = op.Paymaster.Hex()
		raw.PaymasterData = hexutil.Encode(op.PaymasterData)
		raw.PaymasterVerificationGasLimit = encodeQuantity(op.PaymasterVerificationGasLimit)
		raw.PaymasterPostOpGasLimit = encodeQuantity(op.PaymasterPostOpGasLimit)
	}
	if op.Signature != nil {
		raw.Signature = hexutil.Encode(op.Signature)
	}
	return raw
}

// MarshalJSON 编码为 JSON-RPC 参数形式
func (op *UserOperation) MarshalJSON() ([]byte, error) {
	return json.Marshal(op.Raw())
}

// UnmarshalJSON 从 JSON-RPC 形式解析
func (op *UserOperation) UnmarshalJSON(input []byte) error {
	var raw RawUserOperation
	if err := json.Unmarshal(input, &raw); err != nil {
		return err
	}
	parsed, err := ParseUserOperation(&raw)
	if err != nil {
		return err
	}
	*op = *parsed
	return nil
}

// InitCode factory 小写地址 ++ factoryData；未设置 factory 时为空（编码为 "0x"）
func (op *UserOperation) InitCode() []byte {
	if op.Factory == nil {
		return []byte{}
	}
	out := make([]byte, 0, common.AddressLength+len(op.FactoryData))
	out = append(out, op.Factory.Bytes()...)
	return append(out, op.FactoryData...)
}

// PaymasterAndData encodePacked(address, uint128, uint128, bytes)；任一 paymaster 字段缺省时为空
func (op *UserOperation) PaymasterAndData() ([]byte, error) {
	if !op.HasPaymaster() {
		return []byte{}, nil
	}
	verification, err := uint128Bytes("paymasterVerificationGasLimit", op.PaymasterVerificationGasLimit)
	if err != nil {
		return nil, err
	}
	postOp, err := uint128Bytes("paymasterPostOpGasLimit", op.PaymasterPostOpGasLimit)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, common.AddressLength+32+len(op.PaymasterData))
	out = append(out, op.Paymaster.Bytes()...)
	out = append(out, verification...)
	out = append(out, postOp...)
	return append(out, op.PaymasterData...), nil
}

// HasPaymaster 是否携带完整的 paymaster 字段
func (op *UserOperation) HasPaymaster() bool {
	return op.Paymaster != nil && op.PaymasterData != nil &&
		op.PaymasterVerificationGasLimit != nil && op.PaymasterPostOpGasLimit != nil
}

// Copy 深拷贝
func (op *UserOperation) Copy() *UserOperation {
	cp := &UserOperation{
		Sender:                        op.Sender,
		Nonce:                         copyBig(op.Nonce),
		FactoryData:                   copyBytes(op.FactoryData),
		CallData:                      copyBytes(op.CallData),
		CallGasLimit:                  copyBig(op.CallGasLimit),
		VerificationGasLimit:          copyBig(op.VerificationGasLimit),
		PreVerificationGas:            copyBig(op.PreVerificationGas),
		MaxFeePerGas:                  copyBig(op.MaxFeePerGas),
		MaxPriorityFeePerGas:          copyBig(op.MaxPriorityFeePerGas),
		PaymasterData:                 copyBytes(op.PaymasterData),
		PaymasterVerificationGasLimit: copyBig(op.PaymasterVerificationGasLimit),
		PaymasterPostOpGasLimit:       copyBig(op.PaymasterPostOpGasLimit),
		Signature:                     copyBytes(op.Signature),
	}
	if op.Factory != nil {
		factory := *op.Factory
		cp.Factory = &factory
	}
	if op.Paymaster != nil {
		paymaster := *op.Paymaster
		cp.Paymaster = &paymaster
	}
	return cp
}

// validateWidths v0.7 将 gas limit 与费用打包为 uint128 对
func (op *UserOperation) validateWidths() error {
	fields := []struct {
		name string
		v    *big.Int
	}{
		{"verificationGasLimit", op.VerificationGasLimit},
		{"callGasLimit", op.CallGasLimit},
		{"maxFeePerGas", op.MaxFeePerGas},
		{"maxPriorityFeePerGas", op.MaxPriorityFeePerGas},
		{"paymasterVerificationGasLimit", op.PaymasterVerificationGasLimit},
		{"paymasterPostOpGasLimit", op.PaymasterPostOpGasLimit},
	}
	for _, f := range fields {
		if f.v != nil && !fitsUint(128, f.v) {
			return NewStructuralError("%s %s overflows uint128", f.name, f.v)
		}
	}
	for name, v := range map[string]*big.Int{"nonce": op.Nonce, "preVerificationGas": op.PreVerificationGas} {
		if v != nil && !fitsUint(256, v) {
			return NewStructuralError("%s %s overflows uint256", name, v)
		}
	}
	return nil
}

// fieldParser 记录第一个解析错误
type fieldParser struct {
	err error
}

func (p *fieldParser) address(name, s string) common.Address {
	if p.err != nil {
		return common.Address{}
	}
	a, err := ParseAddress(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return a
}

func (p *fieldParser) bytes(name, s string) []byte {
	if p.err != nil {
		return nil
	}
	b, err := ParseHexBytes(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return b
}

func (p *fieldParser) quantity(name, s string) *big.Int {
	if p.err != nil {
		return nil
	}
	v, err := ParseQuantity(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

func encodeQuantity(v *big.Int) string {
	if v == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(v)
}

func uint128Bytes(name string, v *big.Int) ([]byte, error) {
	if !fitsUint(128, v) {
		return nil, NewStructuralError("%s %s overflows uint128", name, v)
	}
	return v.FillBytes(make([]byte, 16)), nil
}

func fitsUint(bits int, v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.BitLen() <= bits
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
