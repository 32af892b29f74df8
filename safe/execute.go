package safe

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/types"
)

// ExecuteUserOpData Safe4337Module.executeUserOp(address,uint256,bytes,uint8)
func ExecuteUserOpData(to common.Address, value *big.Int, data []byte, operation Operation) ([]byte, error) {
	if operation > OperationModuleDelegateCall {
		return nil, types.NewStructuralError("executeUserOp: invalid operation %d", operation)
	}
	if value == nil {
		value = new(big.Int)
	}
	if data == nil {
		data = []byte{}
	}
	return pack(safe4337ModuleABI, "executeUserOp", to, value, data, uint8(operation))
}

// BatchCallData 将调用意图编码为 UserOperation callData
//
// 单条直接 executeUserOp；多条经 MultiSend 以 delegatecall 执行
func BatchCallData(params []types.TransactionParams, config WalletConfig) ([]byte, error) {
	switch len(params) {
	case 0:
		return nil, types.NewStructuralError("no transactions")
	case 1:
		p := params[0]
		op := OperationCall
		if p.DelegateCall {
			op = OperationDelegateCall
		}
		return ExecuteUserOpData(p.To, p.Value, p.Data, op)
	default:
		batch, err := MultiSendData(MultiSendTransactionsFromParams(params))
		if err != nil {
			return nil, err
		}
		return ExecuteUserOpData(config.SafeMultiSend, new(big.Int), batch, OperationDelegateCall)
	}
}
