package safe

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/utils"
)

// ChainReader 链上只读访问（*ethclient.Client 满足该接口）
type ChainReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

const safeABIJSON = `[
	{"type":"function","name":"setup","inputs":[
		{"name":"_owners","type":"address[]"},
		{"name":"_threshold","type":"uint256"},
		{"name":"to","type":"address"},
		{"name":"data","type":"bytes"},
		{"name":"fallbackHandler","type":"address"},
		{"name":"paymentToken","type":"address"},
		{"name":"payment","type":"uint256"},
		{"name":"paymentReceiver","type":"address"}],"outputs":[]},
	{"type":"function","name":"enableModule","inputs":[{"name":"module","type":"address"}],"outputs":[]},
	{"type":"function","name":"addOwnerWithThreshold","inputs":[{"name":"owner","type":"address"},{"name":"_threshold","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getOwners","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"isValidSignature","stateMutability":"view","inputs":[{"name":"_data","type":"bytes"},{"name":"_signature","type":"bytes"}],"outputs":[{"name":"","type":"bytes4"}]}
]`

const moduleSetupABIJSON = `[
	{"type":"function","name":"enableModules","inputs":[{"name":"modules","type":"address[]"}],"outputs":[]}
]`

const proxyFactoryABIJSON = `[
	{"type":"function","name":"createProxyWithNonce","inputs":[
		{"name":"_singleton","type":"address"},
		{"name":"initializer","type":"bytes"},
		{"name":"saltNonce","type":"uint256"}],"outputs":[{"name":"proxy","type":"address"}]},
	{"type":"function","name":"proxyCreationCode","stateMutability":"pure","inputs":[],"outputs":[{"name":"","type":"bytes"}]}
]`

const multiSendABIJSON = `[
	{"type":"function","name":"multiSend","inputs":[{"name":"transactions","type":"bytes"}],"outputs":[]}
]`

const safe4337ModuleABIJSON = `[
	{"type":"function","name":"executeUserOp","inputs":[
		{"name":"to","type":"address"},
		{"name":"value","type":"uint256"},
		{"name":"data","type":"bytes"},
		{"name":"operation","type":"uint8"}],"outputs":[]}
]`

const entryPointABIJSON = `[
	{"type":"function","name":"getNonce","stateMutability":"view","inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],"outputs":[{"name":"nonce","type":"uint256"}]}
]`

const sharedSignerABIJSON = `[
	{"type":"function","name":"configure","inputs":[{"name":"signer","type":"tuple","components":[
		{"name":"x","type":"uint256"},
		{"name":"y","type":"uint256"},
		{"name":"verifiers","type":"uint176"}]}],"outputs":[]}
]`

const signerFactoryABIJSON = `[
	{"type":"function","name":"getSigner","stateMutability":"view","inputs":[{"name":"x","type":"uint256"},{"name":"y","type":"uint256"},{"name":"verifiers","type":"uint176"}],"outputs":[{"name":"signer","type":"address"}]},
	{"type":"function","name":"createSigner","inputs":[{"name":"x","type":"uint256"},{"name":"y","type":"uint256"},{"name":"verifiers","type":"uint176"}],"outputs":[{"name":"signer","type":"address"}]}
]`

const delayABIJSON = `[
	{"type":"function","name":"setUp","inputs":[{"name":"initParams","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"enableModule","inputs":[{"name":"module","type":"address"}],"outputs":[]},
	{"type":"function","name":"setTxNonce","inputs":[{"name":"_nonce","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"txNonce","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"queueNonce","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getModulesPaginated","stateMutability":"view","inputs":[{"name":"start","type":"address"},{"name":"pageSize","type":"uint256"}],"outputs":[{"name":"array","type":"address[]"},{"name":"next","type":"address"}]}
]`

const moduleFactoryABIJSON = `[
	{"type":"function","name":"deployModule","inputs":[
		{"name":"masterCopy","type":"address"},
		{"name":"initializer","type":"bytes"},
		{"name":"saltNonce","type":"uint256"}],"outputs":[{"name":"proxy","type":"address"}]}
]`

var (
	safeABI           = utils.MustParseABI(safeABIJSON)
	moduleSetupABI    = utils.MustParseABI(moduleSetupABIJSON)
	proxyFactoryABI   = utils.MustParseABI(proxyFactoryABIJSON)
	multiSendABI      = utils.MustParseABI(multiSendABIJSON)
	safe4337ModuleABI = utils.MustParseABI(safe4337ModuleABIJSON)
	entryPointABI     = utils.MustParseABI(entryPointABIJSON)
	sharedSignerABI   = utils.MustParseABI(sharedSignerABIJSON)
	signerFactoryABI  = utils.MustParseABI(signerFactoryABIJSON)
	delayABI          = utils.MustParseABI(delayABIJSON)
	moduleFactoryABI  = utils.MustParseABI(moduleFactoryABIJSON)
)

// pack 编码方法调用，参数不合法时返回结构错误
func pack(contract abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, types.NewStructuralError("encode %s: %v", method, err)
	}
	return data, nil
}

// call 执行只读调用并解码返回值
func call(ctx context.Context, reader ChainReader, to common.Address, contract abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := pack(contract, method, args...)
	if err != nil {
		return nil, err
	}
	out, err := reader.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}
	values, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("decode %s result: empty output", method)
	}
	return values, nil
}

func callBigInt(ctx context.Context, reader ChainReader, to common.Address, contract abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	values, err := call(ctx, reader, to, contract, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("decode %s result: unexpected type %T", method, values[0])
	}
	return v, nil
}

func callAddress(ctx context.Context, reader ChainReader, to common.Address, contract abi.ABI, method string, args ...interface{}) (common.Address, error) {
	values, err := call(ctx, reader, to, contract, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	v, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("decode %s result: unexpected type %T", method, values[0])
	}
	return v, nil
}

// IsDeployed 地址上是否已有合约代码
func IsDeployed(ctx context.Context, reader ChainReader, address common.Address) (bool, error) {
	code, err := reader.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("get code at %s: %w", address.Hex(), err)
	}
	return len(code) > 0, nil
}

// GetNonce 读取 EntryPoint 上 key=0 的 nonce
func GetNonce(ctx context.Context, reader ChainReader, entryPoint, sender common.Address) (*big.Int, error) {
	return callBigInt(ctx, reader, entryPoint, entryPointABI, "getNonce", sender, new(big.Int))
}

// GetOwners 读取 Safe owners
func GetOwners(ctx context.Context, reader ChainReader, safe common.Address) ([]common.Address, error) {
	values, err := call(ctx, reader, safe, safeABI, "getOwners")
	if err != nil {
		return nil, err
	}
	owners, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("decode getOwners result: unexpected type %T", values[0])
	}
	return owners, nil
}

// IsValidSignatureMagicValue isValidSignature(bytes,bytes) 成功时返回的魔数
var IsValidSignatureMagicValue = [4]byte{0x20, 0xc1, 0x3b, 0x0b}

// IsValidSignature 通过 Safe 的 EIP-1271（旧版 bytes 接口）校验签名
func IsValidSignature(ctx context.Context, reader ChainReader, safe common.Address, data, signature []byte) (bool, error) {
	values, err := call(ctx, reader, safe, safeABI, "isValidSignature", data, signature)
	if err != nil {
		return false, err
	}
	magic, ok := values[0].([4]byte)
	if !ok {
		return false, fmt.Errorf("decode isValidSignature result: unexpected type %T", values[0])
	}
	return magic == IsValidSignatureMagicValue, nil
}
