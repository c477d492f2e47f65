package tx

import (
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

// ScriptInput 需要 redeemer 的脚本输入
type ScriptInput struct {
	UTxO     cardano.UTxO
	Redeemer plutus.Data
}

// Output 待生成的输出；Datum 非空时作为内联 datum
type Output struct {
	Address cardano.Address
	Value   cardano.Value
	Datum   plutus.Data
}

// Mint 某个策略下的铸造（正数）与销毁（负数）
type Mint struct {
	Policy   cardano.PolicyID
	Assets   map[cardano.AssetName]int64
	Redeemer plutus.Data
}

// Plan 交易意图：由生命周期构建器给出，尚未平衡、未签名
type Plan struct {
	WalletInputs    []cardano.UTxO
	ScriptInputs    []ScriptInput
	ReferenceInputs []cardano.UTxO
	Outputs         []Output
	Mints           []Mint
	Scripts         []plutus.Script
	RequiredSigners []cardano.KeyHash
	ValidFrom       time.Time
	Metadata        map[uint64]interface{}
}

// AttachScript 附加脚本，重复的忽略
func (p *Plan) AttachScript(s plutus.Script) {
	for _, have := range p.Scripts {
		if have.Hash() == s.Hash() {
			return
		}
	}
	p.Scripts = append(p.Scripts, s)
}

// AddSigner 增加必需签名者，重复的忽略
func (p *Plan) AddSigner(k cardano.KeyHash) {
	if k == "" {
		return
	}
	for _, have := range p.RequiredSigners {
		if have == k {
			return
		}
	}
	p.RequiredSigners = append(p.RequiredSigners, k)
}

// Pay 增加一个输出，返回其在计划中的位置
func (p *Plan) Pay(addr cardano.Address, v cardano.Value, datum plutus.Data) int {
	p.Outputs = append(p.Outputs, Output{Address: addr, Value: v, Datum: datum})
	return len(p.Outputs) - 1
}

// MintAssets 为策略增加铸造数量，同一策略共用一个 redeemer
func (p *Plan) MintAssets(policy cardano.PolicyID, name cardano.AssetName, q int64, redeemer plutus.Data) {
	for i := range p.Mints {
		if p.Mints[i].Policy == policy {
			p.Mints[i].Assets[name] += q
			return
		}
	}
	p.Mints = append(p.Mints, Mint{Policy: policy, Assets: map[cardano.AssetName]int64{name: q}, Redeemer: redeemer})
}

// MintedValue 铸造与销毁的净值
func (p *Plan) MintedValue() cardano.Value {
	var v cardano.Value
	for _, m := range p.Mints {
		for name, q := range m.Assets {
			v = v.WithAsset(cardano.ToUnit(m.Policy, name), q)
		}
	}
	return v
}

// MintQuantity 某单位的净铸造数量
func (p *Plan) MintQuantity(u cardano.Unit) int64 {
	return p.MintedValue().Quantity(u)
}

// Consumed 计划内输入的总价值
func (p *Plan) Consumed() cardano.Value {
	var v cardano.Value
	for _, u := range p.WalletInputs {
		v = v.Add(u.Value)
	}
	for _, in := range p.ScriptInputs {
		v = v.Add(in.UTxO.Value)
	}
	return v
}

// Produced 计划内输出的总价值
func (p *Plan) Produced() cardano.Value {
	var v cardano.Value
	for _, o := range p.Outputs {
		v = v.Add(o.Value)
	}
	return v
}

// NeedsScripts 是否需要执行脚本
func (p *Plan) NeedsScripts() bool {
	return len(p.ScriptInputs) > 0 || len(p.Mints) > 0
}
