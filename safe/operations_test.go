package safe

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cometh-hq/safe4337-go/types"
)

func TestFactoryData(t *testing.T) {
	expected := "0x1688f0b900000000000000000000000029fcb43b46531bca003ddc8fcb67ffe91900c7620000000000000000000000000000000000000000000000000000000000000060000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000001e4b63e800d000000000000000000000000000000000000000000000000000000000000010000000000000000000000000000000000000000000000000000000000000000010000000000000000000000002dd68b007b46fbe91b9a7c3eda5a7a1063cb5b47000000000000000000000000000000000000000000000000000000000000014000000000000000000000000075cf11467937ce3f2f357ce24ffc3dbf8fd5c22600000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000010000000000000000000000009d8a62f656a8d1615c1294fd71e9cfb3e4855a4f00000000000000000000000000000000000000000000000000000000000000648d0dc49f0000000000000000000000000000000000000000000000000000000000000020000000000000000000000000000000000000000000000000000000000000000100000000000000000000000075cf11467937ce3f2f357ce24ffc3dbf8fd5c2260000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000"

	config := DefaultWalletConfig()
	initializer, err := Initializer(common.HexToAddress("0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f"), config)
	require.NoError(t, err)
	data, err := FactoryData(initializer, config)
	require.NoError(t, err)
	assert.Equal(t, expected, hexutil.Encode(data))
}

func TestExecuteUserOpData(t *testing.T) {
	tests := []struct {
		name      string
		to        string
		value     int64
		data      string
		operation Operation
		expected  string
		wantErr   bool
	}{
		{
			name:      "call with data",
			to:        "0x0338Dcd5512ae8F3c481c33Eb4b6eEdF632D1d2f",
			value:     0,
			data:      "0x06661abd",
			operation: OperationCall,
			expected:  "0x7bb374280000000000000000000000000338dcd5512ae8f3c481c33eb4b6eedf632d1d2f000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000800000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000406661abd00000000000000000000000000000000000000000000000000000000",
		},
		{
			name:      "value transfer",
			to:        "0xF64DA4EFa19b42ef2f897a3D533294b892e6d99E",
			value:     1,
			data:      "0x",
			operation: OperationCall,
			expected:  "0x7bb37428000000000000000000000000f64da4efa19b42ef2f897a3d533294b892e6d99e0000000000000000000000000000000000000000000000000000000000000001000000000000000000000000000000000000000000000000000000000000008000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000",
		},
		{
			name:      "invalid operation",
			to:        "0xF64DA4EFa19b42ef2f897a3D533294b892e6d99E",
			data:      "0x",
			operation: Operation(3),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ExecuteUserOpData(common.HexToAddress(tt.to), big.NewInt(tt.value), hexutil.MustDecode(tt.data), tt.operation)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsStructuralError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, hexutil.Encode(out))
		})
	}
}

func TestExecuteUserOpData_ModuleDelegateCall(t *testing.T) {
	out, err := ExecuteUserOpData(common.HexToAddress("0x38869bf66a61cF6bDB996A6aE40D5853Fd43B526"), nil, nil, OperationModuleDelegateCall)
	require.NoError(t, err)
	// 第四个静态参数即 operation
	assert.Equal(t, byte(2), out[4+3*32+31])
}

func TestMultiSendData(t *testing.T) {
	target := common.HexToAddress("0xF64DA4EFa19b42ef2f897a3D533294b892e6d99E")
	tests := []struct {
		name    string
		txs     []MultiSendTransaction
		wantLen int
		wantErr bool
	}{
		{
			name: "two calls",
			txs: []MultiSendTransaction{
				{Operation: OperationCall, To: target, Value: big.NewInt(1)},
				{Operation: OperationDelegateCall, To: target, Data: []byte{0xaa, 0xbb}},
			},
			wantLen: (1 + 20 + 32 + 32) + (1 + 20 + 32 + 32 + 2),
		},
		{name: "empty batch", txs: nil, wantErr: true},
		{
			name:    "module delegatecall is not a multisend operation",
			txs:     []MultiSendTransaction{{Operation: OperationModuleDelegateCall, To: target}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MultiSendData(tt.txs)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsStructuralError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0x8d80ff0a", hexutil.Encode(out[:4]))
			length := new(big.Int).SetBytes(out[4+32 : 4+64]).Int64()
			assert.Equal(t, int64(tt.wantLen), length)
			packed := out[4+64 : 4+64+tt.wantLen]
			assert.Equal(t, byte(0), packed[0])
			assert.Equal(t, byte(1), packed[85])
		})
	}
}

func TestBatchCallData(t *testing.T) {
	config := DefaultWalletConfig()
	target := common.HexToAddress("0x0338Dcd5512ae8F3c481c33Eb4b6eEdF632D1d2f")

	single, err := BatchCallData([]types.TransactionParams{{To: target, Value: big.NewInt(0), Data: hexutil.MustDecode("0x06661abd")}}, config)
	require.NoError(t, err)
	direct, err := ExecuteUserOpData(target, big.NewInt(0), hexutil.MustDecode("0x06661abd"), OperationCall)
	require.NoError(t, err)
	assert.Equal(t, direct, single)

	multi, err := BatchCallData([]types.TransactionParams{{To: target}, {To: target, DelegateCall: true}}, config)
	require.NoError(t, err)
	assert.Equal(t, common.LeftPadBytes(config.SafeMultiSend.Bytes(), 32), multi[4:36])
	assert.Equal(t, byte(1), multi[4+3*32+31], "batch executes multisend via delegatecall")

	_, err = BatchCallData(nil, config)
	assert.True(t, types.IsStructuralError(err))
}

func TestPasskeyInitializer(t *testing.T) {
	config := DefaultWalletConfig()
	x, _ := new(big.Int).SetString("9e5261b7f1e14fb9f3135053c093e4d95c8ea94fb6e761621f7c2cf13d36ccda", 16)
	y, _ := new(big.Int).SetString("e2190ee5f1ec2959e848c540f7f5d1c843bc45200158f46e6f984d258aae4b6e", 16)

	initializer, err := PasskeyInitializer(x, y, config)
	require.NoError(t, err)

	args, err := safeABI.Methods["setup"].Inputs.Unpack(initializer[4:])
	require.NoError(t, err)
	owners := args[0].([]common.Address)
	assert.Equal(t, []common.Address{config.SafeWebAuthnSharedSigner}, owners)
	assert.Equal(t, config.SafeMultiSend, args[2].(common.Address))
	assert.Equal(t, config.Safe4337Module, args[4].(common.Address))

	configure, err := ConfigureData(x, y, VerifiersValue(config.SafeP256Verifier))
	require.NoError(t, err)
	assert.Contains(t, hexutil.Encode(args[3].([]byte)), hexutil.Encode(configure)[2:])

	extra := common.HexToAddress("0x2f920a66c2f9760f6fe5f49b289322ddf60f9103")
	initializer, err = PasskeyInitializer(x, y, config, extra)
	require.NoError(t, err)
	args, err = safeABI.Methods["setup"].Inputs.Unpack(initializer[4:])
	require.NoError(t, err)
	assert.Equal(t, []common.Address{config.SafeWebAuthnSharedSigner, extra}, args[0].([]common.Address))
}

func TestPredictSafeAddress(t *testing.T) {
	config := DefaultWalletConfig()
	initializer, err := Initializer(common.HexToAddress("0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f"), config)
	require.NoError(t, err)

	creationCode := hexutil.MustDecode("0x608060405234801561001057600080fd5b50")
	encoded, err := proxyFactoryABI.Methods["proxyCreationCode"].Outputs.Pack(creationCode)
	require.NoError(t, err)

	reader := newFakeReader()
	reader.onCall(config.SafeProxyFactory, proxyFactoryABI.Methods["proxyCreationCode"].ID, encoded)

	got, err := PredictSafeAddress(context.Background(), reader, initializer, config)
	require.NoError(t, err)
	assert.Equal(t, SafeAddressFromCreationCode(creationCode, initializer, config), got)

	// 不同 owner 得到不同地址
	other, err := Initializer(common.HexToAddress("0x2f920a66c2f9760f6fe5f49b289322ddf60f9103"), config)
	require.NoError(t, err)
	assert.NotEqual(t, got, SafeAddressFromCreationCode(creationCode, other, config))

	_, err = PredictSafeAddress(context.Background(), newFakeReader(), initializer, config)
	require.Error(t, err)
	assert.True(t, types.IsAddressPredictionError(err))
}

func TestGetOwners(t *testing.T) {
	safeAddr := common.HexToAddress("0x4bF81EEF3911db0615297836a8fF351f5Fe08c68")
	reader := newFakeReader()
	reader.onCall(safeAddr, safeABI.Methods["getOwners"].ID, hexutil.MustDecode(
		"0x000000000000000000000000000000000000000000000000000000000000002000000000000000000000000000000000000000000000000000000000000000010000000000000000000000002f920a66c2f9760f6fe5f49b289322ddf60f9103"))

	owners, err := GetOwners(context.Background(), reader, safeAddr)
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, common.HexToAddress("0x2f920a66c2f9760f6fe5f49b289322ddf60f9103"), owners[0])
}

func TestIsValidSignature(t *testing.T) {
	safeAddr := common.HexToAddress("0x4bF81EEF3911db0615297836a8fF351f5Fe08c68")
	selector := safeABI.Methods["isValidSignature"].ID
	tests := []struct {
		name   string
		result string
		want   bool
	}{
		{name: "magic value", result: "0x20c13b0b00000000000000000000000000000000000000000000000000000000", want: true},
		{name: "other value", result: "0xffffffff00000000000000000000000000000000000000000000000000000000", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newFakeReader()
			reader.onCall(safeAddr, selector, hexutil.MustDecode(tt.result))
			ok, err := IsValidSignature(context.Background(), reader, safeAddr, []byte{0xaa, 0xaa}, []byte{0x01})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestWalletConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultWalletConfig().Validate())
	config := DefaultWalletConfig()
	config.SafeMultiSend = common.Address{}
	assert.True(t, types.IsStructuralError(config.Validate()))

	assert.NoError(t, DefaultRecoveryModuleConfig().Validate())
	recovery := DefaultRecoveryModuleConfig()
	recovery.RecoveryCooldown = 0
	assert.True(t, types.IsStructuralError(recovery.Validate()))
}
