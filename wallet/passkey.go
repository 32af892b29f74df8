package wallet

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/cometh-hq/safe4337-go/safe"
	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/utils"
)

// ErrUserCancelled 用户在认证器界面取消操作
var ErrUserCancelled = errors.New("user cancelled")

// 默认断言参数
const (
	DefaultUserVerification = "required"
	DefaultAssertionTimeout = 30 * time.Minute
)

var (
	dummyAuthenticatorData = utils.MustDecodeHex("0xfefefefefefefefefefefefefefefefefefefefefefefefefefefefefefefefe04fefefefe")
	dummyClientDataFields  = []byte(`"origin":"http://safe.global","padding":"This pads the clientDataJSON so that we can leave room for additional implementation specific fields for a more accurate 'preVerificationGas' estimate."`)
	dummyR, _              = new(big.Int).SetString("ecececececececececececececececececececececececececececececececec", 16)
	dummyS, _              = new(big.Int).SetString("d5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5ad5af", 16)
)

// AssertionRequest WebAuthn 断言请求
type AssertionRequest struct {
	Challenge        []byte
	RPID             string
	UserVerification string
	Timeout          time.Duration
}

// Assertion WebAuthn 断言结果（字段均为 base64url）
type Assertion struct {
	CredentialID      string
	ClientDataJSON    string
	AuthenticatorData string
	Signature         string // DER
	UserHandle        string
}

// RegistrationRequest WebAuthn 注册请求
type RegistrationRequest struct {
	Challenge []byte
	RPID      string
	RPName    string
	UserID    []byte
	UserName  string
}

// Attestation WebAuthn 注册结果（字段均为 base64url）
type Attestation struct {
	CredentialID string
	PublicKey    string // X.509 SubjectPublicKeyInfo
}

// Authenticator 平台认证器，由调用方实现
type Authenticator interface {
	GetAssertion(ctx context.Context, req AssertionRequest) (*Assertion, error)
	CreateCredential(ctx context.Context, req RegistrationRequest) (*Attestation, error)
}

// PasskeySigner WebAuthn passkey 签名器
//
// 共享签名器模式下 owner 为 SafeWebAuthnSharedSigner；工厂模式下 owner 为
// SafeWebAuthnSignerFactory 为该公钥派生的独立签名器合约
type PasskeySigner struct {
	authenticator Authenticator
	rpID          string
	passkey       Passkey
	signerAddress common.Address
	timeout       time.Duration
}

// NewPasskeySigner 共享签名器模式
func NewPasskeySigner(authenticator Authenticator, rpID string, passkey Passkey, config safe.WalletConfig) (*PasskeySigner, error) {
	return newPasskeySigner(authenticator, rpID, passkey, config.SafeWebAuthnSharedSigner)
}

// NewPasskeySignerWithFactory 工厂模式，签名器地址通过 getSigner 读取
func NewPasskeySignerWithFactory(ctx context.Context, reader safe.ChainReader, authenticator Authenticator, rpID string, passkey Passkey, config safe.WalletConfig) (*PasskeySigner, error) {
	address, err := safe.GetWebAuthnSigner(ctx, reader, config.SafeWebAuthnSignerFactory, passkey.X, passkey.Y, passkey.Verifiers(config))
	if err != nil {
		return nil, types.NewSignerError(err, "get signer address")
	}
	if address == (common.Address{}) {
		return nil, types.NewSignerError(nil, "signer factory returned zero address")
	}
	return newPasskeySigner(authenticator, rpID, passkey, address)
}

func newPasskeySigner(authenticator Authenticator, rpID string, passkey Passkey, address common.Address) (*PasskeySigner, error) {
	if authenticator == nil {
		return nil, types.NewSignerError(nil, "authenticator must be set")
	}
	if rpID == "" {
		return nil, types.NewSignerError(nil, "rpId must be set")
	}
	if passkey.X == nil || passkey.Y == nil {
		return nil, types.NewSignerError(nil, "passkey coordinates must be set")
	}
	return &PasskeySigner{
		authenticator: authenticator,
		rpID:          rpID,
		passkey:       passkey,
		signerAddress: address,
		timeout:       DefaultAssertionTimeout,
	}, nil
}

// Address 签名器合约地址
func (s *PasskeySigner) Address() common.Address {
	return s.signerAddress
}

// Passkey 公钥坐标
func (s *PasskeySigner) Passkey() Passkey {
	return s.passkey
}

// Sign 以摘要为 challenge 请求断言并编码为 Safe 合约签名
//
//  1. 认证器断言
//  2. DER 签名拆出 (r, s)
//  3. 截取 clientDataJSON 固定前缀之后的字段
//  4. abi.encode(authenticatorData, clientDataFields, [r, s])
//  5. 作为动态签名拼接
func (s *PasskeySigner) Sign(ctx context.Context, hash common.Hash) ([]byte, error) {
	assertion, err := s.authenticator.GetAssertion(ctx, AssertionRequest{
		Challenge:        hash.Bytes(),
		RPID:             s.rpID,
		UserVerification: DefaultUserVerification,
		Timeout:          s.timeout,
	})
	if err != nil {
		return nil, types.NewSignerError(err, "get assertion")
	}
	if assertion == nil {
		return nil, types.NewSignerError(nil, "empty assertion")
	}

	signature, err := DecodeBase64URL(assertion.Signature)
	if err != nil {
		return nil, err
	}
	authenticatorData, err := DecodeBase64URL(assertion.AuthenticatorData)
	if err != nil {
		return nil, err
	}
	clientDataJSON, err := DecodeBase64URL(assertion.ClientDataJSON)
	if err != nil {
		return nil, err
	}

	r, sValue, err := ExtractRS(signature)
	if err != nil {
		return nil, err
	}
	fields, err := ExtractClientDataFields(clientDataJSON)
	if err != nil {
		return nil, err
	}
	payload, err := EncodeWebAuthnSignature(authenticatorData, fields, r, sValue)
	if err != nil {
		return nil, err
	}
	return safe.BuildSignatureBytes([]safe.SafeSignature{{Signer: s.signerAddress, Data: payload, Dynamic: true}})
}

// DummySignature 与真实 WebAuthn 签名布局一致的占位签名
func (s *PasskeySigner) DummySignature() ([]byte, error) {
	payload, err := EncodeWebAuthnSignature(dummyAuthenticatorData, dummyClientDataFields, dummyR, dummyS)
	if err != nil {
		return nil, err
	}
	signature, err := safe.BuildSignatureBytes([]safe.SafeSignature{{Signer: s.signerAddress, Data: payload, Dynamic: true}})
	if err != nil {
		return nil, err
	}
	return safe.PackSafeOpSignature(0, 0, signature)
}

// Initializer 以共享签名器为 owner 的 setup 调用数据
func (s *PasskeySigner) Initializer(config safe.WalletConfig) ([]byte, error) {
	return safe.PasskeyInitializer(s.passkey.X, s.passkey.Y, config)
}

// CreatePasskey 在认证器上注册新凭证并返回其公钥坐标
func CreatePasskey(ctx context.Context, authenticator Authenticator, rpID, rpName, userName string) (*Passkey, *Attestation, error) {
	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		return nil, nil, types.NewSignerError(err, "generate challenge")
	}
	userID := uuid.New()
	attestation, err := authenticator.CreateCredential(ctx, RegistrationRequest{
		Challenge: challenge,
		RPID:      rpID,
		RPName:    rpName,
		UserID:    userID[:],
		UserName:  userName,
	})
	if err != nil {
		return nil, nil, types.NewSignerError(err, "create credential")
	}
	if attestation == nil {
		return nil, nil, types.NewSignerError(nil, "empty attestation")
	}
	passkey, err := PasskeyFromBase64URL(attestation.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	return passkey, attestation, nil
}
