package tx

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

// 交易体字段
const (
	bodyInputs          = 0
	bodyOutputs         = 1
	bodyFee             = 2
	bodyAuxDataHash     = 7
	bodyValidityStart   = 8
	bodyMint            = 9
	bodyScriptDataHash  = 11
	bodyCollateral      = 13
	bodyRequiredSigners = 14
	bodyReferenceInputs = 18
)

// 见证集字段
const (
	witnessVKeys     = 0
	witnessRedeemers = 5
)

const (
	redeemerSpend = 0
	redeemerMint  = 1
)

var encMode cbor.EncMode

// Plutus Data 的构造字段是不定长数组，原样嵌入交易
func init() {
	opts := cbor.CoreDetEncOptions()
	opts.IndefLength = cbor.IndefLengthAllowed
	var err error
	encMode, err = opts.EncMode()
	if err != nil {
		panic(err)
	}
}

// Unsigned 组装完成、等待签名的交易
type Unsigned struct {
	Hash       cardano.TxHash
	Body       []byte
	Fee        cardano.Lovelace
	Inputs     []cardano.UTxO
	Outputs    []Output
	Collateral []cardano.UTxO

	witness map[uint64]interface{}
	aux     []byte
}

// VKeyWitness 公钥与对交易哈希的签名
type VKeyWitness struct {
	VKey      []byte
	Signature []byte
}

// Signed 已签名、可提交的交易
type Signed struct {
	Hash cardano.TxHash
	CBOR []byte
}

// Hex 十六进制 CBOR
func (s *Signed) Hex() string {
	return hex.EncodeToString(s.CBOR)
}

// HashBytes 交易哈希字节，签名对象
func (u *Unsigned) HashBytes() []byte {
	return cardano.Blake2b256(u.Body)
}

// Sign 附加签名，生成完整交易
func (u *Unsigned) Sign(witnesses ...VKeyWitness) (*Signed, error) {
	ws := make(map[uint64]interface{}, len(u.witness)+1)
	for k, v := range u.witness {
		ws[k] = v
	}
	if len(witnesses) > 0 {
		vkeys := make([]interface{}, 0, len(witnesses))
		for _, w := range witnesses {
			vkeys = append(vkeys, []interface{}{w.VKey, w.Signature})
		}
		ws[witnessVKeys] = vkeys
	}

	var aux interface{}
	if u.aux != nil {
		aux = cbor.RawMessage(u.aux)
	}
	full, err := encMode.Marshal([]interface{}{cbor.RawMessage(u.Body), ws, true, aux})
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return &Signed{Hash: u.Hash, CBOR: full}, nil
}

type assembly struct {
	plan       *Plan
	params     Params
	inputs     []cardano.UTxO
	outputs    []Output
	collateral []cardano.UTxO
	fee        cardano.Lovelace
}

func (a assembly) build() (*Unsigned, error) {
	body := map[uint64]interface{}{
		bodyInputs: encodeRefs(a.inputs),
		bodyFee:    uint64(a.fee),
	}

	outs := make([]interface{}, 0, len(a.outputs))
	for _, o := range a.outputs {
		enc, err := encodeOutput(o)
		if err != nil {
			return nil, err
		}
		outs = append(outs, enc)
	}
	body[bodyOutputs] = outs

	if !a.plan.ValidFrom.IsZero() {
		body[bodyValidityStart] = a.params.Network.TimeToSlot(a.plan.ValidFrom)
	}
	if len(a.plan.Mints) > 0 {
		mint, err := encodeMultiAsset(a.plan.MintedValue())
		if err != nil {
			return nil, err
		}
		body[bodyMint] = mint
	}
	if len(a.collateral) > 0 {
		body[bodyCollateral] = encodeRefs(a.collateral)
	}
	if len(a.plan.RequiredSigners) > 0 {
		signers := make([][]byte, 0, len(a.plan.RequiredSigners))
		for _, k := range a.plan.RequiredSigners {
			b, err := k.Bytes()
			if err != nil || len(b) != 28 {
				return nil, fmt.Errorf("invalid required signer %q", k)
			}
			signers = append(signers, b)
		}
		body[bodyRequiredSigners] = signers
	}
	if len(a.plan.ReferenceInputs) > 0 {
		refs := append([]cardano.UTxO{}, a.plan.ReferenceInputs...)
		sort.Slice(refs, func(i, j int) bool { return refs[i].OutRef.Less(refs[j].OutRef) })
		body[bodyReferenceInputs] = encodeRefs(refs)
	}

	witness := map[uint64]interface{}{}
	if a.plan.NeedsScripts() {
		redeemers, err := a.redeemers()
		if err != nil {
			return nil, err
		}
		rb, err := encMode.Marshal(redeemers)
		if err != nil {
			return nil, err
		}
		witness[witnessRedeemers] = cbor.RawMessage(rb)

		views, err := a.languageViews()
		if err != nil {
			return nil, err
		}
		body[bodyScriptDataHash] = cardano.Blake2b256(append(rb, views...))
	}
	for _, s := range a.plan.Scripts {
		key := scriptWitnessKey(s.Language)
		list, _ := witness[key].([][]byte)
		witness[key] = append(list, s.CBOR)
	}

	var aux []byte
	if len(a.plan.Metadata) > 0 {
		var err error
		aux, err = encMode.Marshal(a.plan.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		body[bodyAuxDataHash] = cardano.Blake2b256(aux)
	}

	raw, err := encMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return &Unsigned{
		Hash:       cardano.TxHash(hex.EncodeToString(cardano.Blake2b256(raw))),
		Body:       raw,
		Fee:        a.fee,
		Inputs:     a.inputs,
		Outputs:    a.outputs,
		Collateral: a.collateral,
		witness:    witness,
		aux:        aux,
	}, nil
}

// redeemers 花费按排序后输入的位置索引，铸造按排序后 policy id 的位置索引
func (a assembly) redeemers() ([]interface{}, error) {
	index := make(map[cardano.OutRef]int, len(a.inputs))
	for i, u := range a.inputs {
		index[u.OutRef] = i
	}

	out := make([]interface{}, 0, len(a.plan.ScriptInputs)+len(a.plan.Mints))
	spend := append([]ScriptInput{}, a.plan.ScriptInputs...)
	sort.Slice(spend, func(i, j int) bool { return spend[i].UTxO.OutRef.Less(spend[j].UTxO.OutRef) })
	for _, in := range spend {
		data, err := plutus.Encode(in.Redeemer)
		if err != nil {
			return nil, fmt.Errorf("encode spend redeemer: %w", err)
		}
		b := a.params.SpendBudget
		out = append(out, []interface{}{redeemerSpend, index[in.UTxO.OutRef], cbor.RawMessage(data), []int64{b.Memory, b.Steps}})
	}

	mints := append([]Mint{}, a.plan.Mints...)
	sort.Slice(mints, func(i, j int) bool { return mints[i].Policy < mints[j].Policy })
	for i, m := range mints {
		data, err := plutus.Encode(m.Redeemer)
		if err != nil {
			return nil, fmt.Errorf("encode mint redeemer: %w", err)
		}
		b := a.params.MintBudget
		out = append(out, []interface{}{redeemerMint, i, cbor.RawMessage(data), []int64{b.Memory, b.Steps}})
	}
	return out, nil
}

func (a assembly) languageViews() ([]byte, error) {
	views := map[uint64][]int64{}
	for _, s := range a.plan.Scripts {
		views[s.Language.ViewKey()] = a.params.CostModels[s.Language]
	}
	return encMode.Marshal(views)
}

func scriptWitnessKey(l plutus.Language) uint64 {
	switch l {
	case plutus.PlutusV1:
		return 3
	case plutus.PlutusV2:
		return 6
	default:
		return 7
	}
}

func encodeRefs(utxos []cardano.UTxO) []interface{} {
	out := make([]interface{}, 0, len(utxos))
	for _, u := range utxos {
		h, _ := hex.DecodeString(string(u.TxHash))
		out = append(out, []interface{}{h, u.Index})
	}
	return out
}

func encodeOutput(o Output) (map[uint64]interface{}, error) {
	addr, err := o.Address.Bytes()
	if err != nil {
		return nil, fmt.Errorf("output address: %w", err)
	}
	out := map[uint64]interface{}{0: addr}

	if o.Value.HasAssets() {
		ma, err := encodeMultiAsset(o.Value)
		if err != nil {
			return nil, err
		}
		out[1] = []interface{}{uint64(o.Value.Lovelace), ma}
	} else {
		out[1] = uint64(o.Value.Lovelace)
	}

	if o.Datum != nil {
		raw, err := plutus.Encode(o.Datum)
		if err != nil {
			return nil, fmt.Errorf("encode datum: %w", err)
		}
		out[2] = []interface{}{1, cbor.Tag{Number: 24, Content: raw}}
	}
	return out, nil
}

func encodeMultiAsset(v cardano.Value) (map[cbor.ByteString]map[cbor.ByteString]int64, error) {
	out := map[cbor.ByteString]map[cbor.ByteString]int64{}
	for unit, q := range v.Assets {
		policy, name := unit.Split()
		p, err := hex.DecodeString(string(policy))
		if err != nil {
			return nil, fmt.Errorf("invalid policy in unit %s", unit)
		}
		n, err := hex.DecodeString(string(name))
		if err != nil {
			return nil, fmt.Errorf("invalid asset name in unit %s", unit)
		}
		pk := cbor.ByteString(p)
		if out[pk] == nil {
			out[pk] = map[cbor.ByteString]int64{}
		}
		out[pk][cbor.ByteString(n)] = q
	}
	return out, nil
}
