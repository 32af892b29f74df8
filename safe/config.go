package safe

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/types"
)

// EntryPointV07 ERC-4337 v0.7 EntryPoint 地址
var EntryPointV07 = common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")

// WalletConfig Safe 1.4.1 + Safe4337Module 0.3.0 链上地址集合
type WalletConfig struct {
	SafeModuleSetup           common.Address
	Safe4337Module            common.Address
	SafeSingletonL2           common.Address
	SafeProxyFactory          common.Address
	SafeWebAuthnSharedSigner  common.Address
	SafeMultiSend             common.Address
	SafeP256Verifier          common.Address
	SafeWebAuthnSignerFactory common.Address
	EntryPoint                common.Address
}

// DefaultWalletConfig 返回官方部署地址
func DefaultWalletConfig() WalletConfig {
	return WalletConfig{
		SafeModuleSetup:           common.HexToAddress("0x2dd68b007B46fBe91B9A7c3EDa5A7a1063cB5b47"),
		Safe4337Module:            common.HexToAddress("0x75cf11467937ce3F2f357CE24ffc3DBF8fD5c226"),
		SafeSingletonL2:           common.HexToAddress("0x29fcB43b46531BcA003ddC8FCB67FFE91900C762"),
		SafeProxyFactory:          common.HexToAddress("0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec67"),
		SafeWebAuthnSharedSigner:  common.HexToAddress("0xfD90FAd33ee8b58f32c00aceEad1358e4AFC23f9"),
		SafeMultiSend:             common.HexToAddress("0x38869bf66a61cF6bDB996A6aE40D5853Fd43B526"),
		SafeP256Verifier:          common.HexToAddress("0x445a0683e494ea0c5AF3E83c5159fBE47Cf9e765"),
		SafeWebAuthnSignerFactory: common.HexToAddress("0xF7488fFbe67327ac9f37D5F722d83Fc900852Fbf"),
		EntryPoint:                EntryPointV07,
	}
}

// Validate 检查所有地址均已设置
func (c WalletConfig) Validate() error {
	fields := []struct {
		name string
		addr common.Address
	}{
		{"safeModuleSetup", c.SafeModuleSetup},
		{"safe4337Module", c.Safe4337Module},
		{"safeSingletonL2", c.SafeSingletonL2},
		{"safeProxyFactory", c.SafeProxyFactory},
		{"safeWebAuthnSharedSigner", c.SafeWebAuthnSharedSigner},
		{"safeMultiSend", c.SafeMultiSend},
		{"safeP256Verifier", c.SafeP256Verifier},
		{"safeWebAuthnSignerFactory", c.SafeWebAuthnSignerFactory},
		{"entryPoint", c.EntryPoint},
	}
	for _, f := range fields {
		if f.addr == (common.Address{}) {
			return types.NewStructuralError("wallet config: %s is not set", f.name)
		}
	}
	return nil
}

// RecoveryModuleConfig Delay 恢复模块配置
type RecoveryModuleConfig struct {
	ModuleFactory      common.Address
	DelayModule        common.Address // mastercopy
	RecoveryCooldown   uint64         // 秒
	RecoveryExpiration uint64         // 秒
}

// DefaultRecoveryModuleConfig 默认恢复模块配置（冷却 1 天，过期 7 天）
func DefaultRecoveryModuleConfig() RecoveryModuleConfig {
	return RecoveryModuleConfig{
		ModuleFactory:      common.HexToAddress("0x000000000000aDdB49795b0f9bA5BC298cDda236"),
		DelayModule:        common.HexToAddress("0xd54895B1121A2eE3f37b502F507631FA1331BED6"),
		RecoveryCooldown:   86400,
		RecoveryExpiration: 604800,
	}
}

// Validate 检查配置
func (c RecoveryModuleConfig) Validate() error {
	if c.ModuleFactory == (common.Address{}) {
		return types.NewStructuralError("recovery config: moduleFactory is not set")
	}
	if c.DelayModule == (common.Address{}) {
		return types.NewStructuralError("recovery config: delayModule is not set")
	}
	if c.RecoveryCooldown == 0 || c.RecoveryExpiration == 0 {
		return types.NewStructuralError("recovery config: cooldown and expiration must be positive")
	}
	return nil
}

func (c RecoveryModuleConfig) cooldown() *big.Int {
	return new(big.Int).SetUint64(c.RecoveryCooldown)
}

func (c RecoveryModuleConfig) expiration() *big.Int {
	return new(big.Int).SetUint64(c.RecoveryExpiration)
}
