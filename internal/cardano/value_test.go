package cardano

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testPolicy = PolicyID("c37b1b5dc0669f1d3c61a6fddb2e8fde96be87b881c60bce8e8d542f")

func TestUnit(t *testing.T) {
	name := AssetNameFromText("SUPPORT_TOKEN")
	unit := ToUnit(testPolicy, name)

	policy, got := unit.Split()
	assert.Equal(t, testPolicy, policy)
	assert.Equal(t, name, got)
	assert.Equal(t, "SUPPORT_TOKEN", got.Text())
	assert.Equal(t, testPolicy, unit.Policy())

	p, n := LovelaceUnit.Split()
	assert.Empty(t, p)
	assert.Empty(t, n)
}

func TestValueArithmetic(t *testing.T) {
	unit := ToUnit(testPolicy, AssetNameFromText("STATE_TOKEN"))

	a := NewValue(ADA(5)).WithAsset(unit, 1)
	b := NewValue(ADA(2))

	sum := a.Add(b)
	assert.Equal(t, ADA(7), sum.Lovelace)
	assert.Equal(t, int64(1), sum.Quantity(unit))

	diff := sum.Sub(a)
	assert.Equal(t, ADA(2), diff.Lovelace)
	assert.False(t, diff.HasAssets(), "zero quantities are dropped")

	neg := b.Sub(a)
	assert.False(t, neg.IsNonNegative())

	// 原值不被修改
	assert.Equal(t, ADA(5), a.Lovelace)
	assert.Equal(t, int64(1), a.Quantity(unit))
	assert.Equal(t, int64(ADA(5)), a.Quantity(LovelaceUnit))
}
