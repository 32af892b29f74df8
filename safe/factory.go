package safe

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/utils"
)

// CreateProxyWithNonceData SafeProxyFactory.createProxyWithNonce(singleton, initializer, saltNonce)
func CreateProxyWithNonceData(singleton common.Address, initializer []byte, saltNonce *big.Int) ([]byte, error) {
	if saltNonce == nil {
		saltNonce = new(big.Int)
	}
	return pack(proxyFactoryABI, "createProxyWithNonce", singleton, initializer, saltNonce)
}

// FactoryData UserOperation.factoryData（saltNonce 固定为 0）
func FactoryData(initializer []byte, config WalletConfig) ([]byte, error) {
	return CreateProxyWithNonceData(config.SafeSingletonL2, initializer, new(big.Int))
}

// ProxyCreationCode 读取代理工厂的 proxyCreationCode()
func ProxyCreationCode(ctx context.Context, reader ChainReader, factory common.Address) ([]byte, error) {
	values, err := call(ctx, reader, factory, proxyFactoryABI, "proxyCreationCode")
	if err != nil {
		return nil, err
	}
	code, ok := values[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("decode proxyCreationCode result: unexpected type %T", values[0])
	}
	return code, nil
}

// SafeAddressFromCreationCode 由已知的代理创建码计算 Safe 地址
//
//  1. salt = keccak(keccak(initializer) ++ uint256(0))
//  2. deploymentCode = proxyCreationCode ++ uint256(singletonL2)
//  3. CREATE2(proxyFactory, salt, keccak(deploymentCode))
func SafeAddressFromCreationCode(proxyCreationCode, initializer []byte, config WalletConfig) common.Address {
	salt := crypto.Keccak256Hash(crypto.Keccak256(initializer), utils.PadLeft32(nil))
	deploymentCode := make([]byte, 0, len(proxyCreationCode)+32)
	deploymentCode = append(deploymentCode, proxyCreationCode...)
	deploymentCode = append(deploymentCode, utils.PadLeft32(config.SafeSingletonL2.Bytes())...)
	return utils.GetCreate2AddressFromInitCode(config.SafeProxyFactory, salt, deploymentCode)
}

// PredictSafeAddress 预测 Safe 部署地址
func PredictSafeAddress(ctx context.Context, reader ChainReader, initializer []byte, config WalletConfig) (common.Address, error) {
	code, err := ProxyCreationCode(ctx, reader, config.SafeProxyFactory)
	if err != nil {
		return common.Address{}, types.NewAddressPredictionError(err, "read proxy creation code")
	}
	if len(code) == 0 {
		return common.Address{}, types.NewAddressPredictionError(nil, "empty proxy creation code from %s", config.SafeProxyFactory.Hex())
	}
	return SafeAddressFromCreationCode(code, initializer, config), nil
}

// CreateSignerData SafeWebAuthnSignerFactory.createSigner(x, y, verifiers)
func CreateSignerData(x, y, verifiers *big.Int) ([]byte, error) {
	return pack(signerFactoryABI, "createSigner", x, y, verifiers)
}

// GetWebAuthnSigner 读取 SafeWebAuthnSignerFactory.getSigner(x, y, verifiers) 对应的签名器地址
func GetWebAuthnSigner(ctx context.Context, reader ChainReader, factory common.Address, x, y, verifiers *big.Int) (common.Address, error) {
	return callAddress(ctx, reader, factory, signerFactoryABI, "getSigner", x, y, verifiers)
}
