package safe

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

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

func callKey(to common.Address, selector []byte) string {
	return to.Hex() + hexutil.Encode(selector)
}

func (r *fakeReader) onCall(to common.Address, selector []byte, result []byte) {
	r.results[callKey(to, selector)] = result
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
