package safe

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/cometh-hq/safe4337-go/types"
)

var eip712DomainType = []apitypes.Type{
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// safeOpType SafeOp 字段顺序由 Safe4337Module 固定
var safeOpType = []apitypes.Type{
	{Name: "safe", Type: "address"},
	{Name: "nonce", Type: "uint256"},
	{Name: "initCode", Type: "bytes"},
	{Name: "callData", Type: "bytes"},
	{Name: "verificationGasLimit", Type: "uint128"},
	{Name: "callGasLimit", Type: "uint128"},
	{Name: "preVerificationGas", Type: "uint256"},
	{Name: "maxPriorityFeePerGas", Type: "uint128"},
	{Name: "maxFeePerGas", Type: "uint128"},
	{Name: "paymasterAndData", Type: "bytes"},
	{Name: "validAfter", Type: "uint48"},
	{Name: "validUntil", Type: "uint48"},
	{Name: "entryPoint", Type: "address"},
}

var safeMessageType = []apitypes.Type{
	{Name: "message", Type: "bytes"},
}

// SafeOperationTypedData 构造 SafeOp EIP-712 结构
func SafeOperationTypedData(chainID *big.Int, config WalletConfig, op *types.UserOperation, validAfter, validUntil uint64) (apitypes.TypedData, error) {
	paymasterAndData, err := op.PaymasterAndData()
	if err != nil {
		return apitypes.TypedData{}, err
	}
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainType,
			"SafeOp":       safeOpType,
		},
		PrimaryType: "SafeOp",
		Domain: apitypes.TypedDataDomain{
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(chainID)),
			VerifyingContract: config.Safe4337Module.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"safe":                 op.Sender.Hex(),
			"nonce":                bigOrZero(op.Nonce),
			"initCode":             hexutil.Encode(op.InitCode()),
			"callData":             hexutil.Encode(op.CallData),
			"verificationGasLimit": bigOrZero(op.VerificationGasLimit),
			"callGasLimit":         bigOrZero(op.CallGasLimit),
			"preVerificationGas":   bigOrZero(op.PreVerificationGas),
			"maxPriorityFeePerGas": bigOrZero(op.MaxPriorityFeePerGas),
			"maxFeePerGas":         bigOrZero(op.MaxFeePerGas),
			"paymasterAndData":     hexutil.Encode(paymasterAndData),
			"validAfter":           new(big.Int).SetUint64(validAfter),
			"validUntil":           new(big.Int).SetUint64(validUntil),
			"entryPoint":           config.EntryPoint.Hex(),
		},
	}, nil
}

// SafeOperationHash SafeOp 的 EIP-712 摘要
func SafeOperationHash(chainID *big.Int, config WalletConfig, op *types.UserOperation, validAfter, validUntil uint64) (common.Hash, error) {
	typed, err := SafeOperationTypedData(chainID, config, op, validAfter, validUntil)
	if err != nil {
		return common.Hash{}, err
	}
	return hashTypedData(typed)
}

// SafeMessageHash SafeMessage(bytes message) 的 EIP-712 摘要，验证合约为 Safe 本身
func SafeMessageHash(chainID *big.Int, safe common.Address, message []byte) (common.Hash, error) {
	typed := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainType,
			"SafeMessage":  safeMessageType,
		},
		PrimaryType: "SafeMessage",
		Domain: apitypes.TypedDataDomain{
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(chainID)),
			VerifyingContract: safe.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"message": hexutil.Encode(message),
		},
	}
	return hashTypedData(typed)
}

func hashTypedData(typed apitypes.TypedData) (common.Hash, error) {
	digest, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		return common.Hash{}, types.NewStructuralError("hash typed data %s: %v", typed.PrimaryType, err)
	}
	return common.BytesToHash(digest), nil
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
