package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

const (
	testPolicy = "9a4f3c0f0b7c3d1a4b8e2f6c0d9e8f7a6b5c4d3e2f1a0b9c8d7e6f5a"
	testTx     = "0000000000000000000000000000000000000000000000000000000000000abc"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *KoiosClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewKoiosClient(KoiosConfig{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second}, srv.Client())
}

func TestCurrentTime(t *testing.T) {
	k := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tip", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"hash":"ff","block_time":1767225600,"abs_slot":1}]`)
	})

	now, err := k.CurrentTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), now)
}

func TestOutputsAtAddress(t *testing.T) {
	k := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/address_utxos", r.URL.Path)
		var body struct {
			Addresses []string `json:"_addresses"`
			Extended  bool     `json:"_extended"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"addr_test1xyz"}, body.Addresses)
		assert.True(t, body.Extended)
		_, _ = io.WriteString(w, `[
			{"tx_hash":"`+testTx+`","tx_index":1,"address":"addr_test1xyz","value":"2000000",
			 "datum_hash":"aa","inline_datum":{"bytes":"d87980","value":{}},
			 "asset_list":[{"policy_id":"`+testPolicy+`","asset_name":"5354415445","quantity":"1"}]},
			{"tx_hash":"`+testTx+`","tx_index":2,"address":"addr_test1xyz","value":"5000000","datum_hash":null,"inline_datum":null,"asset_list":[]}
		]`)
	})

	outputs, err := k.OutputsAtAddress(context.Background(), "addr_test1xyz")
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	state := outputs[0]
	assert.Equal(t, cardano.OutRef{TxHash: testTx, Index: 1}, state.OutRef)
	assert.Equal(t, cardano.ADA(2), state.Value.Lovelace)
	unit := cardano.ToUnit(testPolicy, "5354415445")
	assert.Equal(t, int64(1), state.Value.Quantity(unit))
	assert.Equal(t, []byte{0xd8, 0x79, 0x80}, state.Datum)
	assert.True(t, state.HasInlineDatum())

	assert.False(t, outputs[1].HasInlineDatum())
	assert.True(t, outputs[1].IsPureADA())

	assert.Equal(t, []cardano.UTxO{state}, OutputsHoldingUnit(outputs, unit))
}

func TestOutputsAtAddressBadValue(t *testing.T) {
	k := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"tx_hash":"ab","tx_index":0,"value":"lots"}]`)
	})
	_, err := k.OutputsAtAddress(context.Background(), "addr")
	assert.Error(t, err)
}

func TestAssetsByPolicyAndCIP25(t *testing.T) {
	k := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/policy_asset_info", r.URL.Path)
		assert.Equal(t, testPolicy, r.URL.Query().Get("_asset_policy"))
		_, _ = io.WriteString(w, `[{"asset_name":"53544154455f544f4b454e","minting_tx_metadata":{"721":{"`+testPolicy+`":{"STATE_TOKEN":{"platform":"11","creator":"22","hash":"ab","index":1}}}}}]`)
	})

	assets, err := k.AssetsByPolicy(context.Background(), testPolicy)
	require.NoError(t, err)
	a, err := FindAsset(assets, cardano.AssetNameFromText("STATE_TOKEN"))
	require.NoError(t, err)

	raw, ok := a.CIP25()
	require.True(t, ok)
	assert.JSONEq(t, `{"platform":"11","creator":"22","hash":"ab","index":1}`, string(raw))

	_, err = FindAsset(assets, cardano.AssetNameFromText("OTHER"))
	assert.Error(t, err)
}

func TestProtocolParameters(t *testing.T) {
	k := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"txFeePerByte":44,"costModels":{"PlutusV2":[1,2],"PlutusV3":[3,4,5]}}`)
	})

	p, err := k.ProtocolParameters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4, 5}, p.CostModels[plutus.PlutusV3])
	assert.Equal(t, []int64{1, 2}, p.CostModels[plutus.PlutusV2])
	assert.NotContains(t, p.CostModels, plutus.PlutusV1)
}

func TestSubmitTx(t *testing.T) {
	k := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/cbor", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte{0x84, 0x01}, body)
		_, _ = io.WriteString(w, `"`+testTx+`"`)
	})

	h, err := k.SubmitTx(context.Background(), []byte{0x84, 0x01})
	require.NoError(t, err)
	assert.Equal(t, cardano.TxHash(testTx), h)
}

func TestAPIError(t *testing.T) {
	k := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "ValueNotConservedUTxO\n")
	})

	_, err := k.SubmitTx(context.Background(), []byte{0x80})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "ValueNotConservedUTxO", apiErr.Body)
}

type countingProvider struct {
	Provider
	calls int
}

func (c *countingProvider) ProtocolParameters(context.Context) (ProtocolParameters, error) {
	c.calls++
	return ProtocolParameters{CostModels: map[plutus.Language][]int64{plutus.PlutusV3: {1}}}, nil
}

func TestParamsCache(t *testing.T) {
	p := &countingProvider{}
	c := NewParamsCache(p, time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}
