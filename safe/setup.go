package safe

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SetupParams Safe.setup 参数
type SetupParams struct {
	Owners          []common.Address
	Threshold       *big.Int
	To              common.Address
	Data            []byte
	FallbackHandler common.Address
	PaymentToken    common.Address
	Payment         *big.Int
	PaymentReceiver common.Address
}

// SharedSignerConfiguration SafeWebAuthnSharedSigner.configure 的参数结构
type SharedSignerConfiguration struct {
	X         *big.Int
	Y         *big.Int
	Verifiers *big.Int // uint176
}

// EnableModulesData SafeModuleSetup.enableModules(address[])
func EnableModulesData(modules []common.Address) ([]byte, error) {
	return pack(moduleSetupABI, "enableModules", modules)
}

// SetupData Safe.setup(...)
func SetupData(p SetupParams) ([]byte, error) {
	threshold := p.Threshold
	if threshold == nil {
		threshold = big.NewInt(1)
	}
	payment := p.Payment
	if payment == nil {
		payment = new(big.Int)
	}
	data := p.Data
	if data == nil {
		data = []byte{}
	}
	return pack(safeABI, "setup",
		p.Owners, threshold, p.To, data, p.FallbackHandler, p.PaymentToken, payment, p.PaymentReceiver)
}

// ConfigureData SafeWebAuthnSharedSigner.configure((x, y, verifiers))
func ConfigureData(x, y, verifiers *big.Int) ([]byte, error) {
	return pack(sharedSignerABI, "configure", SharedSignerConfiguration{X: x, Y: y, Verifiers: verifiers})
}

// Initializer EOA 钱包的 setup 调用数据
//
// owners=[owner]、threshold=1，setup 过程中委托调用 SafeModuleSetup 启用 4337 模块，
// 并将 4337 模块设为 fallback handler
func Initializer(owner common.Address, config WalletConfig) ([]byte, error) {
	enable, err := EnableModulesData([]common.Address{config.Safe4337Module})
	if err != nil {
		return nil, err
	}
	return SetupData(SetupParams{
		Owners:          []common.Address{owner},
		Threshold:       big.NewInt(1),
		To:              config.SafeModuleSetup,
		Data:            enable,
		FallbackHandler: config.Safe4337Module,
	})
}

// PasskeyInitializer 以共享 WebAuthn 签名器为 owner 的 setup 调用数据
//
// setup 通过 MultiSend 依次委托调用 enableModules 与共享签名器的 configure
func PasskeyInitializer(x, y *big.Int, config WalletConfig, extraOwners ...common.Address) ([]byte, error) {
	enable, err := EnableModulesData([]common.Address{config.Safe4337Module})
	if err != nil {
		return nil, err
	}
	configure, err := ConfigureData(x, y, VerifiersValue(config.SafeP256Verifier))
	if err != nil {
		return nil, err
	}
	batch, err := MultiSendData([]MultiSendTransaction{
		{Operation: OperationDelegateCall, To: config.SafeModuleSetup, Data: enable},
		{Operation: OperationDelegateCall, To: config.SafeWebAuthnSharedSigner, Data: configure},
	})
	if err != nil {
		return nil, err
	}
	owners := append([]common.Address{config.SafeWebAuthnSharedSigner}, extraOwners...)
	return SetupData(SetupParams{
		Owners:          owners,
		Threshold:       big.NewInt(1),
		To:              config.SafeMultiSend,
		Data:            batch,
		FallbackHandler: config.Safe4337Module,
	})
}

// VerifiersValue 将 P-256 verifier 地址表示为 uint176 verifiers 值（高位 precompile 部分为 0）
func VerifiersValue(verifier common.Address) *big.Int {
	return new(big.Int).SetBytes(verifier.Bytes())
}

// AddOwnerWithThresholdData Safe.addOwnerWithThreshold(owner, threshold)
func AddOwnerWithThresholdData(owner common.Address, threshold *big.Int) ([]byte, error) {
	return pack(safeABI, "addOwnerWithThreshold", owner, threshold)
}

// EnableModuleData Safe.enableModule(module)
func EnableModuleData(module common.Address) ([]byte, error) {
	return pack(safeABI, "enableModule", module)
}
