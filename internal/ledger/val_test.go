package ledger

import (
	"encoding/json"
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedI128_Bounds(t *testing.T) {
	maxVal := sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)))
	_, err := CheckedI128(maxVal)
	require.NoError(t, err)

	_, err = CheckedI128(maxVal.AddRaw(1))
	require.ErrorIs(t, err, ErrI128Overflow)

	minVal := sdkmath.NewIntFromBigInt(new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127)))
	_, err = CheckedI128(minVal)
	require.NoError(t, err)
	_, err = CheckedI128(minVal.SubRaw(1))
	require.ErrorIs(t, err, ErrI128Overflow)
}

func TestVal_EqualIsKindSensitive(t *testing.T) {
	assert.True(t, Vec(U32(1), AddressVal("GA")).Equal(Vec(U32(1), AddressVal("GA"))))
	assert.False(t, U32(1).Equal(I128FromInt64(1)))
	assert.False(t, Vec(U32(1)).Equal(Vec(U32(1), U32(2))))
	assert.True(t, Void().Equal(Val{}))
}

func TestVal_JSONPreservesNesting(t *testing.T) {
	original := Vec(
		AddressVal("GALICE"),
		I128(sdkmath.NewIntFromUint64(1<<63).MulRaw(4)),
		Vec(U32(100), U32(0)),
		String("USDC Vault"),
		Bool(true),
		Void(),
	)
	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Val
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, original.Equal(decoded), "decoded %s", decoded)
}

func TestVal_UnmarshalRejectsUnknownType(t *testing.T) {
	var v Val
	err := json.Unmarshal([]byte(`{"type":"map","value":{}}`), &v)
	require.ErrorIs(t, err, ErrInvalidVal)
}
