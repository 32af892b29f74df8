package types

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// TransactionParams 一笔待执行的调用意图
type TransactionParams struct {
	To           common.Address // 目标地址
	Value        *big.Int       // 转账金额（wei，nil 视为 0）
	Data         []byte         // 调用数据
	DelegateCall bool           // 是否以 delegatecall 执行
}

// GasPrice EIP-1559 费用
type GasPrice struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// GasEstimate eth_estimateUserOperationGas 结果
type GasEstimate struct {
	PreVerificationGas   *big.Int
	VerificationGasLimit *big.Int
	CallGasLimit         *big.Int
}

// Sponsorship pm_sponsorUserOperation 结果
type Sponsorship struct {
	Paymaster                     common.Address
	PaymasterData                 []byte
	PaymasterVerificationGasLimit *big.Int
	PaymasterPostOpGasLimit       *big.Int
	PreVerificationGas            *big.Int
	VerificationGasLimit          *big.Int
	CallGasLimit                  *big.Int
}

// UserOperationReceipt eth_getUserOperationReceipt 结果
//
// Logs 与 Receipt 保留原始 JSON，由 TransactionReceipt 按需解码
type UserOperationReceipt struct {
	UserOpHash    common.Hash     `json:"userOpHash"`
	EntryPoint    common.Address  `json:"entryPoint"`
	Sender        common.Address  `json:"sender"`
	Nonce         string          `json:"nonce"`
	Paymaster     *common.Address `json:"paymaster,omitempty"`
	ActualGasUsed string          `json:"actualGasUsed"`
	ActualGasCost string          `json:"actualGasCost"`
	Success       bool            `json:"success"`
	Reason        string          `json:"reason,omitempty"`
	Logs          json.RawMessage `json:"logs,omitempty"`
	Receipt       json.RawMessage `json:"receipt,omitempty"`
}

// TransactionReceipt 解码打包交易的回执
func (r *UserOperationReceipt) TransactionReceipt() (*ethtypes.Receipt, error) {
	if len(r.Receipt) == 0 || string(r.Receipt) == "null" {
		return nil, nil
	}
	var receipt ethtypes.Receipt
	if err := json.Unmarshal(r.Receipt, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// UserOperationByHash eth_getUserOperationByHash 结果
type UserOperationByHash struct {
	UserOperation   *UserOperation `json:"userOperation"`
	EntryPoint      common.Address `json:"entryPoint"`
	TransactionHash *common.Hash   `json:"transactionHash"`
	BlockHash       *common.Hash   `json:"blockHash"`
	BlockNumber     string         `json:"blockNumber"`
}
