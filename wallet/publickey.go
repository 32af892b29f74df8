package wallet

import (
	"crypto/ecdh"
	encasn1 "encoding/asn1"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/cometh-hq/safe4337-go/safe"
	"github.com/cometh-hq/safe4337-go/types"
)

var (
	oidPublicKeyECDSA = encasn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidNamedCurveP256 = encasn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
)

// Passkey P-256 公钥坐标，由调用方持久化
type Passkey struct {
	X *big.Int
	Y *big.Int
}

// Verifiers 打包为 uint176 verifiers 值
func (p Passkey) Verifiers(config safe.WalletConfig) *big.Int {
	return safe.VerifiersValue(config.SafeP256Verifier)
}

// PasskeyFromSPKI 解析 X.509 SubjectPublicKeyInfo 编码的 P-256 公钥
func PasskeyFromSPKI(der []byte) (*Passkey, error) {
	input := cryptobyte.String(der)
	var spki, algorithm cryptobyte.String
	var algOID, curveOID encasn1.ObjectIdentifier
	var key encasn1.BitString
	if !input.ReadASN1(&spki, asn1.SEQUENCE) || !input.Empty() ||
		!spki.ReadASN1(&algorithm, asn1.SEQUENCE) ||
		!algorithm.ReadASN1ObjectIdentifier(&algOID) ||
		!algorithm.ReadASN1ObjectIdentifier(&curveOID) ||
		!spki.ReadASN1BitString(&key) || !spki.Empty() {
		return nil, types.NewSignerError(nil, "malformed SubjectPublicKeyInfo")
	}
	if !algOID.Equal(oidPublicKeyECDSA) || !curveOID.Equal(oidNamedCurveP256) {
		return nil, types.NewSignerError(nil, "public key is not an ECDSA P-256 key")
	}

	point := key.RightAlign()
	// ecdh 校验点在曲线上且为非压缩格式
	if _, err := ecdh.P256().NewPublicKey(point); err != nil {
		return nil, types.NewSignerError(err, "invalid P-256 point")
	}
	return &Passkey{
		X: new(big.Int).SetBytes(point[1:33]),
		Y: new(big.Int).SetBytes(point[33:65]),
	}, nil
}

// PasskeyFromBase64URL 解析 WebAuthn 注册返回的 base64url 公钥
func PasskeyFromBase64URL(s string) (*Passkey, error) {
	der, err := DecodeBase64URL(s)
	if err != nil {
		return nil, err
	}
	return PasskeyFromSPKI(der)
}
