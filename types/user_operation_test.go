package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFactoryData = "0x1688f0b900000000000000000000000029fcb43b46531bca003ddc8fcb67ffe91900c7620000000000000000000000000000000000000000000000000000000000000060000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000001e4b63e800d000000000000000000000000000000000000000000000000000000000000010000000000000000000000000000000000000000000000000000000000000000010000000000000000000000002dd68b007b46fbe91b9a7c3eda5a7a1063cb5b470000000000000000000000000000000000000000000000000000000000000140000000000000000000000000a581c4a4db7175302464ff3c06380bc3270b403700000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000010000000000000000000000009d8a62f656a8d1615c1294fd71e9cfb3e4855a4f00000000000000000000000000000000000000000000000000000000000000648d0dc49f00000000000000000000000000000000000000000000000000000000000000200000000000000000000000000000000000000000000000000000000000000001000000000000000000000000a581c4a4db7175302464ff3c06380bc3270b40370000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000"
	testPaymasterData = "0x00000000000000000000000000000000000000000000000000000000667d1421000000000000000000000000000000000000000000000000000000000000000026e7da98c314096d74cd7fb9d2e3bf074e20dd71f91ab6e9b7c0ad4d4ac057f15ad0d942b6880daddbf9d0ff9791c05ff64528f3428c3d4f3ee45cb5c12250081c"
)

func baseRaw() *RawUserOperation {
	return &RawUserOperation{
		Sender:               "0xcfe1e7242dF565f031e1D3F645169Dda9D1230d2",
		Nonce:                "0x0",
		CallData:             "0x",
		CallGasLimit:         "0x00",
		VerificationGasLimit: "0x00",
		PreVerificationGas:   "0x00",
		MaxFeePerGas:         "0x00",
		MaxPriorityFeePerGas: "0x00",
	}
}

func TestParseUserOperation_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *RawUserOperation)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *RawUserOperation) {}, wantErr: false},
		{name: "valid call data", mutate: func(r *RawUserOperation) { r.CallData = "0x06661abd" }, wantErr: false},
		{name: "odd length call data", mutate: func(r *RawUserOperation) { r.CallData = "0x06661ab" }, wantErr: true},
		{name: "non-hex call data", mutate: func(r *RawUserOperation) { r.CallData = "0x06661azz" }, wantErr: true},
		{name: "missing prefix", mutate: func(r *RawUserOperation) { r.CallData = "06661abd" }, wantErr: true},
		{name: "21-byte sender", mutate: func(r *RawUserOperation) { r.Sender = "0xcfe1e7242dF565f031e1D3F645169Dda9D1230d200" }, wantErr: true},
		{name: "19-byte factory", mutate: func(r *RawUserOperation) { r.Factory = "0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec" }, wantErr: true},
		{name: "bad quantity", mutate: func(r *RawUserOperation) { r.Nonce = "0xzz" }, wantErr: true},
		{name: "empty quantity", mutate: func(r *RawUserOperation) { r.Nonce = "0x" }, wantErr: true},
		{name: "uint128 overflow", mutate: func(r *RawUserOperation) { r.CallGasLimit = "0x100000000000000000000000000000000" }, wantErr: true},
		{name: "factory without factoryData", mutate: func(r *RawUserOperation) { r.Factory = "0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec67" }, wantErr: false},
		{name: "factoryData without factory", mutate: func(r *RawUserOperation) { r.FactoryData = "0x1688f0b9" }, wantErr: true},
		{name: "full paymaster group", mutate: func(r *RawUserOperation) {
			r.Paymaster = "0x4685d9587a7F72Da32dc323bfFF17627aa632C61"
			r.PaymasterData = "0x"
			r.PaymasterVerificationGasLimit = "0x1"
			r.PaymasterPostOpGasLimit = "0x1"
		}, wantErr: false},
		{name: "paymaster without paymasterData", mutate: func(r *RawUserOperation) {
			r.Paymaster = "0x4685d9587a7F72Da32dc323bfFF17627aa632C61"
			r.PaymasterVerificationGasLimit = "0x1"
			r.PaymasterPostOpGasLimit = "0x1"
		}, wantErr: true},
		{name: "paymasterData only", mutate: func(r *RawUserOperation) { r.PaymasterData = "0x" }, wantErr: true},
		{name: "paymaster gas limits only", mutate: func(r *RawUserOperation) {
			r.PaymasterVerificationGasLimit = "0x4e09"
			r.PaymasterPostOpGasLimit = "0x1"
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := baseRaw()
			tt.mutate(raw)
			op, err := ParseUserOperation(raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsStructuralError(err), "expected structural error, got %v", err)
				assert.Nil(t, op)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, op)
		})
	}
}

func TestParseUserOperation_RoundTrip(t *testing.T) {
	raw := baseRaw()
	raw.CallData = "0x7bb37428AbCd"
	raw.Factory = "0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec67"
	raw.FactoryData = "0x1688f0b9"
	raw.Signature = "0xdeadbeef"

	op, err := ParseUserOperation(raw)
	require.NoError(t, err)

	assert.Equal(t, hexutil.MustDecode("0x7bb37428abcd"), op.CallData)
	assert.Equal(t, common.HexToAddress(raw.Sender), op.Sender)
	assert.Equal(t, "0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec67", op.Factory.Hex())
	assert.Equal(t, hexutil.MustDecode("0x1688f0b9"), op.FactoryData)
	assert.Equal(t, hexutil.MustDecode("0xdeadbeef"), op.Signature)

	back, err := ParseUserOperation(op.Raw())
	require.NoError(t, err)
	assert.Equal(t, op.Raw(), back.Raw())
}

func TestUserOperation_InitCode(t *testing.T) {
	raw := baseRaw()
	op, err := ParseUserOperation(raw)
	require.NoError(t, err)
	assert.Equal(t, "0x", hexutil.Encode(op.InitCode()))

	raw.Factory = "0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec67"
	raw.FactoryData = testFactoryData
	op, err = ParseUserOperation(raw)
	require.NoError(t, err)
	assert.Equal(t, "0x4e1dcf7ad4e460cfd30791ccc4f9c8a4f820ec67"+testFactoryData[2:], hexutil.Encode(op.InitCode()))
}

func TestUserOperation_PaymasterAndData(t *testing.T) {
	raw := baseRaw()
	op, err := ParseUserOperation(raw)
	require.NoError(t, err)
	pad, err := op.PaymasterAndData()
	require.NoError(t, err)
	assert.Equal(t, "0x", hexutil.Encode(pad))

	raw.Paymaster = "0x4685d9587a7F72Da32dc323bfFF17627aa632C61"
	raw.PaymasterData = testPaymasterData
	raw.PaymasterVerificationGasLimit = "0x4e09"
	raw.PaymasterPostOpGasLimit = "0x1"
	op, err = ParseUserOperation(raw)
	require.NoError(t, err)
	pad, err = op.PaymasterAndData()
	require.NoError(t, err)
	assert.Equal(t,
		"0x4685d9587a7f72da32dc323bfff17627aa632c61"+
			"00000000000000000000000000004e09"+
			"00000000000000000000000000000001"+
			testPaymasterData[2:],
		hexutil.Encode(pad))

	// 缺少任一字段视为未赞助
	op.PaymasterPostOpGasLimit = nil
	pad, err = op.PaymasterAndData()
	require.NoError(t, err)
	assert.Empty(t, pad)
}

func TestUserOperation_JSON(t *testing.T) {
	raw := baseRaw()
	op, err := ParseUserOperation(raw)
	require.NoError(t, err)
	op.Nonce = big.NewInt(3)

	out, err := json.Marshal(op)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Equal(t, "0x3", fields["nonce"])
	assert.Equal(t, "0x", fields["callData"])
	assert.NotContains(t, fields, "factory")
	assert.NotContains(t, fields, "factoryData")
	assert.NotContains(t, fields, "paymaster")
	assert.NotContains(t, fields, "signature")

	var decoded UserOperation
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Zero(t, op.Nonce.Cmp(decoded.Nonce))
	assert.Equal(t, op.Sender, decoded.Sender)
}

func TestUserOperation_CopyDoesNotAlias(t *testing.T) {
	op, err := ParseUserOperation(baseRaw())
	require.NoError(t, err)
	op.CallData = []byte{1, 2, 3}

	cp := op.Copy()
	cp.CallData[0] = 9
	cp.Nonce.SetInt64(42)

	assert.Equal(t, byte(1), op.CallData[0])
	assert.Equal(t, int64(0), op.Nonce.Int64())
}

func TestQuantity_JSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "leading zeros", input: `"0x01e3fb094e"`, want: 0x01e3fb094e},
		{name: "zero", input: `"0x00"`, want: 0},
		{name: "missing prefix", input: `"12"`, wantErr: true},
		{name: "number literal", input: `12`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			err := json.Unmarshal([]byte(tt.input), &q)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.ToInt().Int64())
		})
	}
}
