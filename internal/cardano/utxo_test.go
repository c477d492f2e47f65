package cardano

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutRef(t *testing.T) {
	hash := strings.Repeat("ab", 32)
	ref, err := ParseOutRef(hash + "#3")
	require.NoError(t, err)
	assert.Equal(t, OutRef{TxHash: TxHash(hash), Index: 3}, ref)
	assert.Equal(t, hash+"#3", ref.String())

	for _, bad := range []string{"", hash, "zz#1", hash + "#x", strings.Repeat("zz", 32) + "#0"} {
		_, err := ParseOutRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestOutRefLess(t *testing.T) {
	a := OutRef{TxHash: TxHash(strings.Repeat("01", 32)), Index: 5}
	b := OutRef{TxHash: TxHash(strings.Repeat("02", 32)), Index: 0}
	c := OutRef{TxHash: a.TxHash, Index: 6}

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, a.Less(c))
}

func TestFootprintGrowsWithContent(t *testing.T) {
	base := UTxO{
		OutRef:  OutRef{TxHash: TxHash(strings.Repeat("00", 32))},
		Address: "addr_test1vz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzerspjrlsz",
		Value:   NewValue(ADA(5)),
	}
	withToken := base
	withToken.Value = base.Value.WithAsset(ToUnit(testPolicy, AssetNameFromText("X")), 1)

	assert.Greater(t, withToken.Footprint(), base.Footprint())
	assert.Equal(t, base.Footprint(), base.Footprint())
}

func TestFootprintMatchesLedgerEncoding(t *testing.T) {
	u := UTxO{
		OutRef:  OutRef{TxHash: TxHash(strings.Repeat("00", 32))},
		Address: "addr_test1vz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzerspjrlsz",
		Value:   NewValue(ADA(5)),
	}
	// [[hash(32), 0], {0: address(29), 1: 5000000}]
	assert.Equal(t, 1+36+39, u.Footprint())

	// 基地址多出 28 字节的质押凭证
	longer := u
	longer.Address = "addr_test1qz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer3jcu5d8ps7zex2k2xt3uqxgjqnnj83ws8lhrn648jjxtwq2ytjqp"
	assert.Equal(t, u.Footprint()+28, longer.Footprint())
}
