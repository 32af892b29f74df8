package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Stage UserOperation 构建阶段
type Stage int

// 构建阶段：Unsigned → GasEstimated → Sponsored（可选）→ Signed
const (
	StageUnsigned Stage = iota
	StageGasEstimated
	StageSponsored
	StageSigned
)

func (s Stage) String() string {
	switch s {
	case StageUnsigned:
		return "unsigned"
	case StageGasEstimated:
		return "gas-estimated"
	case StageSponsored:
		return "sponsored"
	case StageSigned:
		return "signed"
	default:
		return "unknown"
	}
}

// UserOperationBuilder 带显式阶段标记的 UserOperation 构建器
//
// 字段只追加不回改；估算/赞助所需的占位签名只出现在 Draft 返回的副本上，
// 构建器自身在签名前始终不含签名
type UserOperationBuilder struct {
	op    *UserOperation
	stage Stage
}

// NewUserOperationBuilder 创建处于 Unsigned 阶段的构建器
func NewUserOperationBuilder(sender common.Address, nonce *big.Int, callData []byte) *UserOperationBuilder {
	return &UserOperationBuilder{
		op: &UserOperation{
			Sender:               sender,
			Nonce:                copyBig(nonce),
			CallData:             copyBytes(callData),
			CallGasLimit:         new(big.Int),
			VerificationGasLimit: new(big.Int),
			PreVerificationGas:   new(big.Int),
			MaxFeePerGas:         new(big.Int),
			MaxPriorityFeePerGas: new(big.Int),
		},
		stage: StageUnsigned,
	}
}

// Stage 当前阶段
func (b *UserOperationBuilder) Stage() Stage {
	return b.stage
}

// WithFactory 设置首次部署所需的 factory 与 factoryData
func (b *UserOperationBuilder) WithFactory(factory common.Address, factoryData []byte) error {
	if err := b.expect("set factory", StageUnsigned); err != nil {
		return err
	}
	b.op.Factory = &factory
	b.op.FactoryData = copyBytes(factoryData)
	return nil
}

// WithFees 设置费用字段
func (b *UserOperationBuilder) WithFees(price *GasPrice) error {
	if err := b.expect("set fees", StageUnsigned); err != nil {
		return err
	}
	if price == nil {
		return NewStructuralError("nil gas price")
	}
	if !fitsUint(128, price.MaxFeePerGas) || !fitsUint(128, price.MaxPriorityFeePerGas) {
		return NewStructuralError("gas price does not fit uint128")
	}
	b.op.MaxFeePerGas = copyBig(price.MaxFeePerGas)
	b.op.MaxPriorityFeePerGas = copyBig(price.MaxPriorityFeePerGas)
	return nil
}

// WithGasEstimate 写入 bundler 估算结果，Unsigned → GasEstimated
func (b *UserOperationBuilder) WithGasEstimate(est *GasEstimate) error {
	if err := b.expect("apply gas estimate", StageUnsigned); err != nil {
		return err
	}
	if est == nil {
		return NewStructuralError("nil gas estimate")
	}
	if err := checkLimits(est.PreVerificationGas, est.VerificationGasLimit, est.CallGasLimit); err != nil {
		return err
	}
	b.op.PreVerificationGas = copyBig(est.PreVerificationGas)
	b.op.VerificationGasLimit = copyBig(est.VerificationGasLimit)
	b.op.CallGasLimit = copyBig(est.CallGasLimit)
	b.stage = StageGasEstimated
	return nil
}

// WithSponsorship 写入 paymaster 赞助结果，GasEstimated → Sponsored
func (b *UserOperationBuilder) WithSponsorship(s *Sponsorship) error {
	if err := b.expect("apply sponsorship", StageGasEstimated); err != nil {
		return err
	}
	if s == nil {
		return NewStructuralError("nil sponsorship")
	}
	if !fitsUint(128, s.PaymasterVerificationGasLimit) || !fitsUint(128, s.PaymasterPostOpGasLimit) {
		return NewStructuralError("paymaster gas limits do not fit uint128")
	}
	if err := checkLimits(s.PreVerificationGas, s.VerificationGasLimit, s.CallGasLimit); err != nil {
		return err
	}
	paymaster := s.Paymaster
	b.op.Paymaster = &paymaster
	b.op.PaymasterData = copyBytes(s.PaymasterData)
	if b.op.PaymasterData == nil {
		b.op.PaymasterData = []byte{}
	}
	b.op.PaymasterVerificationGasLimit = copyBig(s.PaymasterVerificationGasLimit)
	b.op.PaymasterPostOpGasLimit = copyBig(s.PaymasterPostOpGasLimit)
	b.op.PreVerificationGas = copyBig(s.PreVerificationGas)
	b.op.VerificationGasLimit = copyBig(s.VerificationGasLimit)
	b.op.CallGasLimit = copyBig(s.CallGasLimit)
	b.stage = StageSponsored
	return nil
}

// Draft 返回带占位签名的副本，供估算与赞助调用使用
func (b *UserOperationBuilder) Draft(dummySignature []byte) *UserOperation {
	cp := b.op.Copy()
	cp.Signature = copyBytes(dummySignature)
	return cp
}

// Sign 写入最终签名，GasEstimated/Sponsored → Signed，返回可提交的 UserOperation
func (b *UserOperationBuilder) Sign(signature []byte) (*UserOperation, error) {
	if err := b.expect("sign", StageGasEstimated, StageSponsored); err != nil {
		return nil, err
	}
	if len(signature) == 0 {
		return nil, NewStructuralError("empty signature")
	}
	b.op.Signature = copyBytes(signature)
	b.stage = StageSigned
	return b.op.Copy(), nil
}

// Operation 返回当前 UserOperation 的深拷贝
func (b *UserOperationBuilder) Operation() *UserOperation {
	return b.op.Copy()
}

func (b *UserOperationBuilder) expect(action string, allowed ...Stage) error {
	for _, s := range allowed {
		if b.stage == s {
			return nil
		}
	}
	return NewStructuralError("cannot %s at stage %s", action, b.stage)
}

func checkLimits(preVerificationGas, verificationGasLimit, callGasLimit *big.Int) error {
	if !fitsUint(256, preVerificationGas) {
		return NewStructuralError("invalid preVerificationGas")
	}
	if !fitsUint(128, verificationGasLimit) || !fitsUint(128, callGasLimit) {
		return NewStructuralError("gas limits do not fit uint128")
	}
	return nil
}
