package safe

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/utils"
)

// staticSignatureLength 每个签名者在静态段中占用的字节数
const staticSignatureLength = 65

// SafeSignature 单个 owner 的签名
//
// Dynamic 为 true 时 Data 是合约签名（EIP-1271）的任意长度载荷，否则为 65 字节 r||s||v
type SafeSignature struct {
	Signer  common.Address
	Data    []byte
	Dynamic bool
}

// BuildSignatureBytes 按 Safe checkSignatures 格式拼接多签名
//
//  1. 签名者按小写地址升序排列
//  2. 静态段：静态签名原样写入；动态签名写 pad32(signer) ++ pad32(offset) ++ 0x00
//  3. 动态段：每个动态签名写 pad32(len) ++ data，offset 从 n*65 起累加
func BuildSignatureBytes(signatures []SafeSignature) ([]byte, error) {
	sorted := make([]SafeSignature, len(signatures))
	copy(sorted, signatures)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Signer.Bytes(), sorted[j].Signer.Bytes()) < 0
	})

	staticPart := make([]byte, 0, len(sorted)*staticSignatureLength)
	var dynamicPart []byte
	dynamicOffset := len(sorted) * staticSignatureLength

	for _, sig := range sorted {
		if !sig.Dynamic {
			if len(sig.Data) != staticSignatureLength {
				return nil, types.NewStructuralError("static signature for %s must be %d bytes, got %d",
					sig.Signer.Hex(), staticSignatureLength, len(sig.Data))
			}
			staticPart = append(staticPart, sig.Data...)
			continue
		}
		offset := big.NewInt(int64(dynamicOffset + len(dynamicPart)))
		staticPart = append(staticPart, utils.PadLeft32(sig.Signer.Bytes())...)
		staticPart = append(staticPart, utils.PadLeft32(offset.Bytes())...)
		staticPart = append(staticPart, 0x00)

		length := big.NewInt(int64(len(sig.Data)))
		dynamicPart = append(dynamicPart, utils.PadLeft32(length.Bytes())...)
		dynamicPart = append(dynamicPart, sig.Data...)
	}
	return append(staticPart, dynamicPart...), nil
}

// PackSafeOpSignature encodePacked(uint48 validAfter, uint48 validUntil, bytes signature)
func PackSafeOpSignature(validAfter, validUntil uint64, signature []byte) ([]byte, error) {
	return utils.EncodePacked(
		utils.PackUint64(48, validAfter),
		utils.PackUint64(48, validUntil),
		utils.PackBytes(signature),
	)
}
