package tx

import (
	"errors"
	"fmt"
	"sort"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds in wallet")
	ErrNoCollateral      = errors.New("no pure-ada wallet output large enough for collateral")
	ErrMissingCostModel  = errors.New("cost model not available for script language")
	ErrMissingScript     = errors.New("plan spends or mints without an attached script")
	ErrEmptyPlan         = errors.New("plan has no inputs")
)

// ExUnits 脚本执行预算
type ExUnits struct {
	Memory int64 `json:"memory"`
	Steps  int64 `json:"steps"`
}

// Params 组装交易所需的参数
type Params struct {
	Network     cardano.Network
	Fee         cardano.Lovelace
	MinOutput   cardano.Lovelace
	Collateral  cardano.Lovelace
	SpendBudget ExUnits
	MintBudget  ExUnits
	CostModels  map[plutus.Language][]int64
}

// Funding 钱包可用于平衡交易的输出与找零地址
type Funding struct {
	ChangeAddress cardano.Address
	UTxOs         []cardano.UTxO
}

// Complete 平衡计划并组装未签名交易：补足最小 ADA、选币、找零、抵押、redeemer 索引与脚本数据哈希。
// 计划中的输出保持原有顺序，找零总在最后。
func Complete(plan *Plan, funding Funding, params Params) (*Unsigned, error) {
	if plan.NeedsScripts() && len(plan.Scripts) == 0 {
		return nil, ErrMissingScript
	}

	outputs := make([]Output, len(plan.Outputs))
	for i, o := range plan.Outputs {
		o.Value = o.Value.Clone()
		if o.Value.HasAssets() && o.Value.Lovelace < params.MinOutput {
			o.Value.Lovelace = params.MinOutput
		}
		outputs[i] = o
	}

	used := make(map[cardano.OutRef]bool)
	inputs := make([]cardano.UTxO, 0, len(plan.WalletInputs)+len(plan.ScriptInputs))
	for _, u := range plan.WalletInputs {
		if !used[u.OutRef] {
			used[u.OutRef] = true
			inputs = append(inputs, u)
		}
	}
	for _, in := range plan.ScriptInputs {
		used[in.UTxO.OutRef] = true
		inputs = append(inputs, in.UTxO)
	}

	fee := params.Fee
	var produced cardano.Value
	for _, o := range outputs {
		produced = produced.Add(o.Value)
	}
	available := plan.MintedValue()
	for _, u := range inputs {
		available = available.Add(u.Value)
	}

	candidates := make([]cardano.UTxO, 0, len(funding.UTxOs))
	for _, u := range funding.UTxOs {
		if !used[u.OutRef] {
			candidates = append(candidates, u)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Value.Lovelace > candidates[j].Value.Lovelace
	})

	change := available.Sub(produced).Sub(cardano.NewValue(fee))
	for !changeAcceptable(change, params.MinOutput) {
		if len(candidates) == 0 {
			break
		}
		next := candidates[0]
		candidates = candidates[1:]
		used[next.OutRef] = true
		inputs = append(inputs, next)
		change = change.Add(next.Value)
	}
	if !change.IsNonNegative() {
		return nil, fmt.Errorf("%w: short by %s", ErrInsufficientFunds, shortfall(change))
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyPlan
	}
	if !changeAcceptable(change, params.MinOutput) {
		if change.HasAssets() {
			return nil, fmt.Errorf("%w: change cannot carry its tokens", ErrInsufficientFunds)
		}
		// 不足最小输出的零头并入手续费
		fee += change.Lovelace
		change = cardano.Value{}
	}
	if change.Lovelace > 0 || change.HasAssets() {
		outputs = append(outputs, Output{Address: funding.ChangeAddress, Value: change})
	}

	var collateral []cardano.UTxO
	if plan.NeedsScripts() {
		c, err := selectCollateral(funding.UTxOs, params.Collateral)
		if err != nil {
			return nil, err
		}
		collateral = []cardano.UTxO{c}
		for _, s := range plan.Scripts {
			if len(params.CostModels[s.Language]) == 0 {
				return nil, fmt.Errorf("%w: %s", ErrMissingCostModel, s.Language)
			}
		}
	}

	sort.Slice(inputs, func(i, j int) bool { return inputs[i].OutRef.Less(inputs[j].OutRef) })

	a := assembly{
		plan:       plan,
		params:     params,
		inputs:     inputs,
		outputs:    outputs,
		collateral: collateral,
		fee:        fee,
	}
	return a.build()
}

// changeAcceptable 找零非负，且非空时够得上最小输出
func changeAcceptable(change cardano.Value, minOutput cardano.Lovelace) bool {
	if !change.IsNonNegative() {
		return false
	}
	if change.Lovelace == 0 && !change.HasAssets() {
		return true
	}
	return change.Lovelace >= minOutput
}

func shortfall(v cardano.Value) string {
	if v.Lovelace < 0 {
		return cardano.FormatADA(-v.Lovelace) + " ADA"
	}
	for _, u := range v.Units() {
		if v.Assets[u] < 0 {
			return fmt.Sprintf("%d %s", -v.Assets[u], u)
		}
	}
	return "nothing"
}

// selectCollateral 选不小于要求的最小纯 ADA 输出
func selectCollateral(utxos []cardano.UTxO, want cardano.Lovelace) (cardano.UTxO, error) {
	var (
		best  cardano.UTxO
		found bool
	)
	for _, u := range utxos {
		if !u.IsPureADA() || u.Value.Lovelace < want {
			continue
		}
		if !found || u.Value.Lovelace < best.Value.Lovelace {
			best, found = u, true
		}
	}
	if !found {
		return cardano.UTxO{}, fmt.Errorf("%w (need %s ADA)", ErrNoCollateral, cardano.FormatADA(want))
	}
	return best, nil
}
