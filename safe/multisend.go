package safe

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/utils"
)

// Operation Safe 执行类型
type Operation uint8

const (
	OperationCall         Operation = 0
	OperationDelegateCall Operation = 1
	// OperationModuleDelegateCall 仅 executeUserOp 接受（模块层面的 delegatecall）
	OperationModuleDelegateCall Operation = 2
)

// MultiSendTransaction MultiSend 批次中的一条
type MultiSendTransaction struct {
	Operation Operation
	To        common.Address
	Value     *big.Int
	Data      []byte
}

// EncodeMultiSendTransactions 紧凑拼接所有记录
func EncodeMultiSendTransactions(txs []MultiSendTransaction) ([]byte, error) {
	var out []byte
	for i, tx := range txs {
		if tx.Operation > OperationDelegateCall {
			return nil, types.NewStructuralError("multisend transaction %d: invalid operation %d", i, tx.Operation)
		}
		entry, err := utils.EncodeMultiSendEntry(uint8(tx.Operation), tx.To, tx.Value, tx.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, entry...)
	}
	return out, nil
}

// MultiSendData MultiSend.multiSend(bytes)
func MultiSendData(txs []MultiSendTransaction) ([]byte, error) {
	if len(txs) == 0 {
		return nil, types.NewStructuralError("empty multisend batch")
	}
	packed, err := EncodeMultiSendTransactions(txs)
	if err != nil {
		return nil, err
	}
	return pack(multiSendABI, "multiSend", packed)
}

// MultiSendTransactionsFromParams 将调用意图转换为 MultiSend 记录
func MultiSendTransactionsFromParams(params []types.TransactionParams) []MultiSendTransaction {
	txs := make([]MultiSendTransaction, 0, len(params))
	for _, p := range params {
		op := OperationCall
		if p.DelegateCall {
			op = OperationDelegateCall
		}
		txs = append(txs, MultiSendTransaction{Operation: op, To: p.To, Value: p.Value, Data: p.Data})
	}
	return txs
}
