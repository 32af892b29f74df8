package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/cometh-hq/safe4337-go/safe"
	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/utils"
)

// eoaDummySignature 65 字节占位签名（r 低于 secp256k1n/2，v=28）
var eoaDummySignature = utils.MustDecodeHex("0xfffffffffffffffffffffffffffffff0000000000000000000000000000000007aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1c")

// EOASigner secp256k1 私钥签名器
type EOASigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewEOASigner 由私钥创建签名器
func NewEOASigner(privateKey *ecdsa.PrivateKey) *EOASigner {
	return &EOASigner{
		privateKey: privateKey,
		address:    ethcrypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// GenerateEOASigner 生成新私钥
func GenerateEOASigner() (*EOASigner, error) {
	privateKey, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate private key: %w", err)
	}
	return NewEOASigner(privateKey), nil
}

// NewEOASignerFromHex 从十六进制私钥创建签名器（0x 前缀可选）
func NewEOASignerFromHex(privateKeyHex string) (*EOASigner, error) {
	privateKey, err := ethcrypto.HexToECDSA(utils.HexRemovePrefix(privateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("parse secp256k1 private key: %w", err)
	}
	return NewEOASigner(privateKey), nil
}

// Address 签名者地址
func (s *EOASigner) Address() common.Address {
	return s.address
}

// Sign 签名摘要，返回 r ++ s ++ v（v 为 27/28）
func (s *EOASigner) Sign(_ context.Context, hash common.Hash) ([]byte, error) {
	return s.SignHash(hash.Bytes())
}

// SignHash 签名任意 32 字节哈希
func (s *EOASigner) SignHash(hash []byte) ([]byte, error) {
	sig, err := ethcrypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, types.NewSignerError(err, "ecdsa sign")
	}
	sig[ethcrypto.RecoveryIDOffset] += 27
	return sig, nil
}

// DummySignature 与真实签名等长的占位签名
func (s *EOASigner) DummySignature() ([]byte, error) {
	return safe.PackSafeOpSignature(0, 0, eoaDummySignature)
}

// Initializer 单 owner Safe 的 setup 调用数据
func (s *EOASigner) Initializer(config safe.WalletConfig) ([]byte, error) {
	return safe.Initializer(s.address, config)
}

// PrivateKey 获取私钥（谨慎使用）
func (s *EOASigner) PrivateKey() *ecdsa.PrivateKey {
	return s.privateKey
}
