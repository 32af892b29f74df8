package wallet

import (
	"bytes"
	"encoding/base64"
	"math/big"
	"regexp"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/utils"
)

// clientDataPrefix 验证合约根据 userOp 摘要自行重建 type 与 challenge
var clientDataPrefix = regexp.MustCompile(`^\{"type":"webauthn\.get","challenge":"[A-Za-z0-9\-_]{43}",`)

// ExtractRS 解析 DER 编码的 ECDSA 签名 SEQUENCE { INTEGER r, INTEGER s }
func ExtractRS(der []byte) (*big.Int, *big.Int, error) {
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	r, s := new(big.Int), new(big.Int)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) || !input.Empty() ||
		!inner.ReadASN1Integer(r) || !inner.ReadASN1Integer(s) || !inner.Empty() {
		return nil, nil, types.NewSignerError(nil, "malformed DER signature")
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return nil, nil, types.NewSignerError(nil, "DER signature has non-positive component")
	}
	return r, s, nil
}

// ExtractClientDataFields 返回 clientDataJSON 中固定前缀之后的部分（保留末尾 `}`）
func ExtractClientDataFields(clientDataJSON []byte) ([]byte, error) {
	loc := clientDataPrefix.FindIndex(clientDataJSON)
	if loc == nil || !bytes.HasSuffix(clientDataJSON, []byte("}")) {
		return nil, types.NewSignerError(nil, "unexpected clientDataJSON layout")
	}
	return append([]byte{}, clientDataJSON[loc[1]:]...), nil
}

// EncodeWebAuthnSignature abi.encode(bytes authenticatorData, bytes clientDataFields, uint256[2] rs)
//
// 验证合约会自行补上结尾的 `}`，因此编码前去掉一个结尾 `}`
func EncodeWebAuthnSignature(authenticatorData, clientDataFields []byte, r, s *big.Int) ([]byte, error) {
	fields := bytes.TrimSuffix(clientDataFields, []byte("}"))
	return utils.EncodeArguments(
		[]string{"bytes", "bytes", "uint256[2]"},
		authenticatorData, fields, [2]*big.Int{r, s},
	)
}

// DecodeBase64URL 解码 base64url（兼容带填充的输入）
func DecodeBase64URL(s string) ([]byte, error) {
	out, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, types.NewSignerError(err, "invalid base64url")
	}
	return out, nil
}

// EncodeBase64URL 无填充 base64url
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
