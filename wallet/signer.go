package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/safe"
)

// Signer Safe owner 签名器
type Signer interface {
	// Address 出现在 Safe 签名中的 owner 地址
	Address() common.Address

	// Sign 对 32 字节摘要签名，返回可直接放入 Safe 签名字段的字节
	Sign(ctx context.Context, hash common.Hash) ([]byte, error)

	// DummySignature 估算 gas 用的占位签名（已包含 validAfter/validUntil 前缀）
	DummySignature() ([]byte, error)

	// Initializer 以该签名器为 owner 部署 Safe 时的 setup 调用数据
	Initializer(config safe.WalletConfig) ([]byte, error)
}
