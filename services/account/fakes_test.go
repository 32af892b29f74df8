package account

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/cometh-hq/safe4337-go/safe"
	"github.com/cometh-hq/safe4337-go/services/bundler"
	"github.com/cometh-hq/safe4337-go/services/paymaster"
	"github.com/cometh-hq/safe4337-go/types"
	"github.com/cometh-hq/safe4337-go/utils"
)

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

func mustEncode(typeNames []string, values ...interface{}) []byte {
	out, err := utils.EncodeArguments(typeNames, values...)
	if err != nil {
		panic(err)
	}
	return out
}

// fakeReader 按合约地址与方法选择器返回预置结果
type fakeReader struct {
	code    map[common.Address][]byte
	results map[string][]byte
	calls   []ethereum.CallMsg
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		code:    make(map[common.Address][]byte),
		results: make(map[string][]byte),
	}
}

func callKey(to common.Address, sel []byte) string {
	return to.Hex() + hexutil.Encode(sel)
}

func (r *fakeReader) onCall(to common.Address, signature string, result []byte) {
	r.results[callKey(to, selector(signature))] = result
}

func (r *fakeReader) deploy(address common.Address) {
	r.code[address] = []byte{0x60, 0x80}
}

func (r *fakeReader) withNonce(entryPoint common.Address, nonce int64) {
	r.onCall(entryPoint, "getNonce(address,uint192)", mustEncode([]string{"uint256"}, big.NewInt(nonce)))
}

func (r *fakeReader) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	return r.code[account], nil
}

func (r *fakeReader) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	r.calls = append(r.calls, msg)
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("bad call")
	}
	out, ok := r.results[callKey(*msg.To, msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return out, nil
}

// fakeBundler 记录估算草稿与提交的 UserOperation
type fakeBundler struct {
	bundler.Service

	estimate    *types.GasEstimate
	estimateErr error
	sendErr     error

	drafts []*types.UserOperation
	sent   []*types.UserOperation
}

func newFakeBundler() *fakeBundler {
	return &fakeBundler{
		estimate: &types.GasEstimate{
			PreVerificationGas:   big.NewInt(0xEC2C),
			VerificationGasLimit: big.NewInt(0x45BCA),
			CallGasLimit:         big.NewInt(0x2F44),
		},
	}
}

func (b *fakeBundler) EstimateUserOperationGas(_ context.Context, op *types.UserOperation) (*types.GasEstimate, error) {
	b.drafts = append(b.drafts, op.Copy())
	if b.estimateErr != nil {
		return nil, b.estimateErr
	}
	return b.estimate, nil
}

func (b *fakeBundler) SendUserOperation(_ context.Context, op *types.UserOperation) (common.Hash, error) {
	b.sent = append(b.sent, op.Copy())
	if b.sendErr != nil {
		return common.Hash{}, b.sendErr
	}
	return common.HexToHash("0x9f7a1f2ab6bfb36b0ad2f9bd4ab61ca4a3bd8c9ff20dcd0b31cf1f42a8b0c5ce"), nil
}

func (b *fakeBundler) EntryPoint() common.Address {
	return safe.EntryPointV07
}

// fakePaymaster 返回固定赞助结果
type fakePaymaster struct {
	paymaster.Service

	sponsorship *types.Sponsorship
	err         error
	drafts      []*types.UserOperation
}

func (p *fakePaymaster) SponsorUserOperation(_ context.Context, op *types.UserOperation) (*types.Sponsorship, error) {
	p.drafts = append(p.drafts, op.Copy())
	if p.err != nil {
		return nil, p.err
	}
	return p.sponsorship, nil
}

// failingSigner 签名总是失败
type failingSigner struct {
	address common.Address
	err     error
}

func (s failingSigner) Address() common.Address { return s.address }

func (s failingSigner) Sign(context.Context, common.Hash) ([]byte, error) { return nil, s.err }

func (s failingSigner) DummySignature() ([]byte, error) {
	return safe.PackSafeOpSignature(0, 0, make([]byte, 65))
}

func (s failingSigner) Initializer(config safe.WalletConfig) ([]byte, error) {
	return safe.Initializer(s.address, config)
}
