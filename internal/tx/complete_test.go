package tx

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

const (
	payKey   = cardano.KeyHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	otherKey = cardano.KeyHash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func hashN(n int) cardano.TxHash {
	return cardano.TxHash(fmt.Sprintf("%064x", n))
}

func walletUTxO(n int, l cardano.Lovelace) cardano.UTxO {
	return cardano.UTxO{OutRef: cardano.OutRef{TxHash: hashN(n)}, Value: cardano.NewValue(l)}
}

func testParams() Params {
	return Params{
		Network:     cardano.Preprod,
		Fee:         200_000,
		MinOutput:   cardano.ADA(1),
		Collateral:  cardano.ADA(5),
		SpendBudget: ExUnits{Memory: 1000, Steps: 2000},
		MintBudget:  ExUnits{Memory: 3000, Steps: 4000},
		CostModels:  map[plutus.Language][]int64{plutus.PlutusV3: {1, 2, 3}},
	}
}

func testScript(t *testing.T) plutus.Script {
	t.Helper()
	s, err := plutus.NewScriptFromHex(plutus.PlutusV3, "46010100200101")
	require.NoError(t, err)
	return s
}

func decodeBody(t *testing.T, u *Unsigned) map[uint64]cbor.RawMessage {
	t.Helper()
	var body map[uint64]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(u.Body, &body))
	return body
}

func TestCompleteSelectsLargestFirstAndAppendsChange(t *testing.T) {
	plan := &Plan{}
	plan.Pay(cardano.KeyAddress(cardano.Preprod, otherKey, ""), cardano.NewValue(cardano.ADA(5)), nil)

	change := cardano.KeyAddress(cardano.Preprod, payKey, "")
	u, err := Complete(plan, Funding{ChangeAddress: change, UTxOs: []cardano.UTxO{
		walletUTxO(1, cardano.ADA(3)),
		walletUTxO(2, cardano.ADA(10)),
	}}, testParams())
	require.NoError(t, err)

	require.Len(t, u.Inputs, 1)
	assert.Equal(t, cardano.ADA(10), u.Inputs[0].Value.Lovelace)
	require.Len(t, u.Outputs, 2)
	assert.Equal(t, cardano.ADA(5), u.Outputs[0].Value.Lovelace, "planned output keeps index 0")
	assert.Equal(t, change, u.Outputs[1].Address)
	assert.Equal(t, cardano.Lovelace(4_800_000), u.Outputs[1].Value.Lovelace)
	assert.Equal(t, cardano.Lovelace(200_000), u.Fee)

	body := decodeBody(t, u)
	assert.Contains(t, body, uint64(bodyInputs))
	assert.NotContains(t, body, uint64(bodyScriptDataHash))
	assert.NotContains(t, body, uint64(bodyCollateral))
	assert.Equal(t, hex.EncodeToString(cardano.Blake2b256(u.Body)), string(u.Hash))
}

func TestCompleteFoldsDustIntoFee(t *testing.T) {
	plan := &Plan{}
	plan.Pay(cardano.KeyAddress(cardano.Preprod, otherKey, ""), cardano.NewValue(cardano.ADA(5)), nil)

	u, err := Complete(plan, Funding{
		ChangeAddress: cardano.KeyAddress(cardano.Preprod, payKey, ""),
		UTxOs:         []cardano.UTxO{walletUTxO(1, 5_500_000)},
	}, testParams())
	require.NoError(t, err)
	require.Len(t, u.Outputs, 1)
	assert.Equal(t, cardano.Lovelace(500_000), u.Fee)
}

func TestCompleteInsufficientFunds(t *testing.T) {
	plan := &Plan{}
	plan.Pay(cardano.KeyAddress(cardano.Preprod, otherKey, ""), cardano.NewValue(cardano.ADA(50)), nil)

	_, err := Complete(plan, Funding{UTxOs: []cardano.UTxO{walletUTxO(1, cardano.ADA(10))}}, testParams())
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestCompleteScriptPlan(t *testing.T) {
	script := testScript(t)
	policy := script.Hash().PolicyID()
	name := cardano.AssetNameFromText("SUPPORT_TOKEN")
	scriptAddr := cardano.ScriptAddress(cardano.Preprod, script.Hash())

	stateOut := cardano.UTxO{
		OutRef: cardano.OutRef{TxHash: hashN(0), Index: 0},
		Value:  cardano.NewValue(cardano.ADA(2)).WithAsset(cardano.ToUnit(policy, cardano.AssetNameFromText("STATE_TOKEN")), 1),
	}

	plan := &Plan{ValidFrom: time.UnixMilli(cardano.Preprod.SlotConfig().ZeroTime + 5000)}
	plan.ScriptInputs = append(plan.ScriptInputs, ScriptInput{UTxO: stateOut, Redeemer: plutus.NewConstr(0)})
	plan.Pay(scriptAddr, stateOut.Value, plutus.NewConstr(0, plutus.NewInt(1)))
	plan.Pay(scriptAddr, cardano.NewValue(0).WithAsset(cardano.ToUnit(policy, name), 1), plutus.List{})
	plan.MintAssets(policy, name, 1, plutus.NewConstr(1))
	plan.AttachScript(script)
	plan.AttachScript(script)
	plan.AddSigner(payKey)
	plan.AddSigner(payKey)
	plan.Metadata = map[uint64]interface{}{721: map[string]interface{}{"k": "v"}}

	collateral := walletUTxO(2, cardano.ADA(5))
	u, err := Complete(plan, Funding{
		ChangeAddress: cardano.KeyAddress(cardano.Preprod, payKey, ""),
		UTxOs:         []cardano.UTxO{walletUTxO(1, cardano.ADA(20)), collateral, walletUTxO(3, cardano.ADA(8))},
	}, testParams())
	require.NoError(t, err)

	assert.Len(t, plan.Scripts, 1)
	assert.Len(t, plan.RequiredSigners, 1)
	assert.Equal(t, cardano.ADA(1), u.Outputs[1].Value.Lovelace, "token output topped up to the minimum")
	require.Len(t, u.Collateral, 1)
	assert.Equal(t, collateral.OutRef, u.Collateral[0].OutRef, "smallest sufficient pure-ada output")

	body := decodeBody(t, u)
	for _, k := range []uint64{bodyMint, bodyCollateral, bodyRequiredSigners, bodyScriptDataHash, bodyAuxDataHash, bodyValidityStart} {
		assert.Contains(t, body, k)
	}
	var slot uint64
	require.NoError(t, cbor.Unmarshal(body[bodyValidityStart], &slot))
	assert.Equal(t, cardano.Preprod.SlotConfig().ZeroSlot+5, slot)

	// 状态输出的哈希最小，位于输入第 0 位
	assert.Equal(t, stateOut.OutRef, u.Inputs[0].OutRef)
	var redeemers [][]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(u.witness[witnessRedeemers].(cbor.RawMessage), &redeemers))
	require.Len(t, redeemers, 2)
	var tag, idx int
	require.NoError(t, cbor.Unmarshal(redeemers[0][0], &tag))
	require.NoError(t, cbor.Unmarshal(redeemers[0][1], &idx))
	assert.Equal(t, redeemerSpend, tag)
	assert.Equal(t, 0, idx)
	require.NoError(t, cbor.Unmarshal(redeemers[1][0], &tag))
	assert.Equal(t, redeemerMint, tag)
}

func TestCompleteEmbedsConstrFieldsVerbatim(t *testing.T) {
	script := testScript(t)
	policy := script.Hash().PolicyID()
	name := cardano.AssetNameFromText("SUPPORT_TOKEN")
	scriptAddr := cardano.ScriptAddress(cardano.Preprod, script.Hash())

	key, err := plutus.BytesFromHex(string(payKey))
	require.NoError(t, err)
	redeemer := plutus.NewConstr(1, plutus.NewConstr(0, key, plutus.NewConstr(1)))
	datum := plutus.NewConstr(0, key, plutus.NewConstr(1))

	plan := &Plan{}
	plan.Pay(scriptAddr, cardano.NewValue(cardano.ADA(10)).WithAsset(cardano.ToUnit(policy, name), 1), datum)
	plan.MintAssets(policy, name, 1, redeemer)
	plan.AttachScript(script)
	plan.AddSigner(payKey)

	u, err := Complete(plan, Funding{
		ChangeAddress: cardano.KeyAddress(cardano.Preprod, payKey, ""),
		UTxOs:         []cardano.UTxO{walletUTxO(1, cardano.ADA(50))},
	}, testParams())
	require.NoError(t, err)
	signed, err := u.Sign()
	require.NoError(t, err)

	var parts []cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(signed.CBOR, &parts))
	require.Len(t, parts, 4)
	assert.Equal(t, u.Body, []byte(parts[0]))

	var witness map[uint64]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(parts[1], &witness))
	var redeemers [][]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(witness[witnessRedeemers], &redeemers))
	require.Len(t, redeemers, 1)
	got, err := plutus.Decode(redeemers[0][2])
	require.NoError(t, err)
	assert.True(t, plutus.Equal(redeemer, got))

	body := decodeBody(t, u)
	var outs []map[uint64]cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(body[bodyOutputs], &outs))
	require.NotEmpty(t, outs)
	var option []cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(outs[0][2], &option))
	require.Len(t, option, 2)
	var inline cbor.RawTag
	require.NoError(t, cbor.Unmarshal(option[1], &inline))
	assert.Equal(t, uint64(24), inline.Number)
	var raw []byte
	require.NoError(t, cbor.Unmarshal(inline.Content, &raw))
	gotDatum, err := plutus.Decode(raw)
	require.NoError(t, err)
	assert.True(t, plutus.Equal(datum, gotDatum))
}

func TestCompleteScriptPlanNeedsCollateralAndCostModel(t *testing.T) {
	script := testScript(t)
	plan := &Plan{}
	plan.MintAssets(script.Hash().PolicyID(), cardano.AssetNameFromText("X"), 1, plutus.NewConstr(0))
	plan.Pay(cardano.KeyAddress(cardano.Preprod, payKey, ""), cardano.NewValue(0).WithAsset(cardano.ToUnit(script.Hash().PolicyID(), cardano.AssetNameFromText("X")), 1), nil)

	funding := Funding{ChangeAddress: cardano.KeyAddress(cardano.Preprod, payKey, ""), UTxOs: []cardano.UTxO{walletUTxO(1, cardano.ADA(4))}}
	_, err := Complete(plan, funding, testParams())
	assert.ErrorIs(t, err, ErrMissingScript)

	plan.AttachScript(script)
	_, err = Complete(plan, funding, testParams())
	assert.ErrorIs(t, err, ErrNoCollateral)

	funding.UTxOs = append(funding.UTxOs, walletUTxO(2, cardano.ADA(6)))
	params := testParams()
	params.CostModels = nil
	_, err = Complete(plan, funding, params)
	assert.ErrorIs(t, err, ErrMissingCostModel)
}

func TestSign(t *testing.T) {
	plan := &Plan{}
	plan.Pay(cardano.KeyAddress(cardano.Preprod, otherKey, ""), cardano.NewValue(cardano.ADA(2)), nil)
	u, err := Complete(plan, Funding{
		ChangeAddress: cardano.KeyAddress(cardano.Preprod, payKey, ""),
		UTxOs:         []cardano.UTxO{walletUTxO(1, cardano.ADA(10))},
	}, testParams())
	require.NoError(t, err)

	priv := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	pub := priv.Public().(ed25519.PublicKey)
	signed, err := u.Sign(VKeyWitness{VKey: pub, Signature: ed25519.Sign(priv, u.HashBytes())})
	require.NoError(t, err)
	assert.Equal(t, u.Hash, signed.Hash)

	var parts []cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(signed.CBOR, &parts))
	require.Len(t, parts, 4)
	assert.Equal(t, u.Body, []byte(parts[0]))

	var witness map[uint64][][][]byte
	require.NoError(t, cbor.Unmarshal(parts[1], &witness))
	require.Len(t, witness[witnessVKeys], 1)
	assert.True(t, ed25519.Verify(pub, u.HashBytes(), witness[witnessVKeys][0][1]))
}
