package utils

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cometh-hq/safe4337-go/types"
)

func TestEncodePacked_MultiSendEntryLength(t *testing.T) {
	to := common.HexToAddress("0x38869bf66a61cF6bDB996A6aE40D5853Fd43B526")
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty data", data: nil},
		{name: "selector only", data: common.FromHex("0x06661abd")},
		{name: "odd sized payload", data: make([]byte, 37)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EncodeMultiSendEntry(1, to, big.NewInt(0), tt.data)
			require.NoError(t, err)
			assert.Len(t, out, 1+20+32+32+len(tt.data))
			assert.Equal(t, byte(1), out[0])
			assert.Equal(t, to.Bytes(), out[1:21])
		})
	}
}

func TestEncodeMultiSendEntry_RejectsOperation(t *testing.T) {
	_, err := EncodeMultiSendEntry(2, common.Address{}, big.NewInt(0), nil)
	require.Error(t, err)
	assert.True(t, types.IsStructuralError(err))
}

func TestEncodePacked_WidthOverflow(t *testing.T) {
	tests := []struct {
		name    string
		value   PackedValue
		wantErr bool
	}{
		{name: "uint8 max", value: PackUint64(8, 255), wantErr: false},
		{name: "uint8 overflow", value: PackUint64(8, 256), wantErr: true},
		{name: "uint48 max", value: PackUint64(48, 1<<48-1), wantErr: false},
		{name: "uint48 overflow", value: PackUint64(48, 1<<48), wantErr: true},
		{name: "uint128 overflow", value: PackUint(128, new(big.Int).Lsh(big.NewInt(1), 128)), wantErr: true},
		{name: "uint256 overflow", value: PackUint(256, new(big.Int).Lsh(big.NewInt(1), 256)), wantErr: true},
		{name: "negative", value: PackUint(256, big.NewInt(-1)), wantErr: true},
		{name: "unsupported width", value: PackUint64(7, 1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodePacked(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsStructuralError(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEncodePacked_Widths(t *testing.T) {
	out, err := EncodePacked(
		PackUint64(48, 0),
		PackUint64(48, 0),
		PackUint(128, big.NewInt(0x4e09)),
	)
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000000000000000004e09", hexOf(out))
}

func TestEncodePacked_Bytes32(t *testing.T) {
	var word [32]byte
	word[31] = 0xaa
	out, err := EncodePacked(PackBytes32(word), PackAddress(common.HexToAddress("0x01")))
	require.NoError(t, err)
	require.Len(t, out, 32+20)
	assert.Equal(t, byte(0xaa), out[31])
	assert.Equal(t, byte(0x01), out[51])
}

func TestEncodeArguments(t *testing.T) {
	safe := common.HexToAddress("0x4bF81EEF3911db0615297836a8fF351f5Fe08c68")
	out, err := EncodeArguments(
		[]string{"address", "uint256"},
		safe, big.NewInt(86400),
	)
	require.NoError(t, err)
	require.Len(t, out, 64)
	assert.Equal(t, PadLeft32(safe.Bytes()), out[:32])
	assert.Equal(t, int64(86400), new(big.Int).SetBytes(out[32:]).Int64())

	_, err = EncodeArguments([]string{"address"}, safe, safe)
	assert.True(t, types.IsStructuralError(err))

	_, err = EncodeArguments([]string{"notatype"}, safe)
	assert.True(t, types.IsStructuralError(err))
}

func hexOf(b []byte) string {
	return "0x" + common.Bytes2Hex(b)
}
