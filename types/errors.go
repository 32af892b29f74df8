package types

import (
	"errors"
	"fmt"
)

// ErrorKind 错误类别
//
// 每个类别对应调用方可区分的一类失败，调用方通过 IsXxxError 判断
type ErrorKind string

// 错误类别常量
const (
	// KindStructural 构造期的十六进制/地址格式错误（不可重试）
	KindStructural ErrorKind = "STRUCTURAL_ERROR"
	// KindSigner 签名器失败（认证器取消、断言格式错误等，可由调用方重新发起）
	KindSigner ErrorKind = "SIGNER_ERROR"
	// KindGasEstimation Bundler 估算 gas 返回错误
	KindGasEstimation ErrorKind = "GAS_ESTIMATION_ERROR"
	// KindSponsorship Paymaster 赞助返回错误
	KindSponsorship ErrorKind = "SPONSORSHIP_ERROR"
	// KindSubmission Bundler 拒绝提交
	KindSubmission ErrorKind = "SUBMISSION_ERROR"
	// KindInvalidSignature Bundler 拒绝提交且原因是签名无效（AA24）
	KindInvalidSignature ErrorKind = "INVALID_SIGNATURE_ERROR"
	// KindAddressPrediction CREATE2 预测所依赖的链上读取失败
	KindAddressPrediction ErrorKind = "ADDRESS_PREDICTION_ERROR"
	// KindRecoveryState 恢复模块前置条件不满足
	KindRecoveryState ErrorKind = "RECOVERY_STATE_ERROR"
)

// Error SDK 错误
type Error struct {
	Kind    ErrorKind
	Message string
	// RPCCode 协作方返回的 JSON-RPC 错误码（无则为 0）
	RPCCode int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.RPCCode != 0 {
		msg = fmt.Sprintf("%s (code=%d)", msg, e.RPCCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// NewStructuralError 创建结构错误
func NewStructuralError(format string, args ...interface{}) *Error {
	return newError(KindStructural, nil, format, args...)
}

// NewSignerError 创建签名器错误
func NewSignerError(err error, format string, args ...interface{}) *Error {
	return newError(KindSigner, err, format, args...)
}

// NewGasEstimationError 创建 gas 估算错误
func NewGasEstimationError(code int, err error, message string) *Error {
	e := newError(KindGasEstimation, err, "%s", message)
	e.RPCCode = code
	return e
}

// NewSponsorshipError 创建 Paymaster 赞助错误
func NewSponsorshipError(code int, err error, message string) *Error {
	e := newError(KindSponsorship, err, "%s", message)
	e.RPCCode = code
	return e
}

// NewSubmissionError 创建提交错误
func NewSubmissionError(code int, err error, message string) *Error {
	e := newError(KindSubmission, err, "%s", message)
	e.RPCCode = code
	return e
}

// NewInvalidSignatureError 创建签名无效错误（提交错误的子类）
func NewInvalidSignatureError(code int, err error, message string) *Error {
	e := newError(KindInvalidSignature, err, "%s", message)
	e.RPCCode = code
	return e
}

// NewAddressPredictionError 创建地址预测错误
func NewAddressPredictionError(err error, format string, args ...interface{}) *Error {
	return newError(KindAddressPrediction, err, format, args...)
}

// NewRecoveryStateError 创建恢复模块状态错误
func NewRecoveryStateError(format string, args ...interface{}) *Error {
	return newError(KindRecoveryState, nil, format, args...)
}

// AsError 提取 SDK 错误
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func isKind(err error, kinds ...ErrorKind) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	for _, k := range kinds {
		if e.Kind == k {
			return true
		}
	}
	return false
}

// IsStructuralError 是否为结构错误
func IsStructuralError(err error) bool { return isKind(err, KindStructural) }

// IsSignerError 是否为签名器错误
func IsSignerError(err error) bool { return isKind(err, KindSigner) }

// IsGasEstimationError 是否为 gas 估算错误
func IsGasEstimationError(err error) bool { return isKind(err, KindGasEstimation) }

// IsSponsorshipError 是否为赞助错误
func IsSponsorshipError(err error) bool { return isKind(err, KindSponsorship) }

// IsSubmissionError 是否为提交错误（含签名无效）
func IsSubmissionError(err error) bool {
	return isKind(err, KindSubmission, KindInvalidSignature)
}

// IsInvalidSignatureError 是否为签名无效错误
func IsInvalidSignatureError(err error) bool { return isKind(err, KindInvalidSignature) }

// IsAddressPredictionError 是否为地址预测错误
func IsAddressPredictionError(err error) bool { return isKind(err, KindAddressPrediction) }

// IsRecoveryStateError 是否为恢复模块状态错误
func IsRecoveryStateError(err error) bool { return isKind(err, KindRecoveryState) }
