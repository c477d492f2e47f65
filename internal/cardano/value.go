package cardano

import "sort"

// Assets 原生资产数量，按单位索引
type Assets map[Unit]int64

// Value 一个输出携带的价值
type Value struct {
	Lovelace Lovelace `json:"lovelace"`
	Assets   Assets   `json:"assets,omitempty"`
}

// NewValue 创建只含 lovelace 的价值
func NewValue(l Lovelace) Value {
	return Value{Lovelace: l}
}

// Quantity 返回某单位的数量
func (v Value) Quantity(u Unit) int64 {
	if u == LovelaceUnit {
		return int64(v.Lovelace)
	}
	return v.Assets[u]
}

// WithAsset 返回增加了 q 个 u 的新价值
func (v Value) WithAsset(u Unit, q int64) Value {
	out := v.Clone()
	if q == 0 {
		return out
	}
	if out.Assets == nil {
		out.Assets = Assets{}
	}
	out.Assets[u] += q
	if out.Assets[u] == 0 {
		delete(out.Assets, u)
	}
	return out
}

// Add 返回 v + o
func (v Value) Add(o Value) Value {
	out := v.Clone()
	out.Lovelace += o.Lovelace
	for u, q := range o.Assets {
		out = out.WithAsset(u, q)
	}
	return out
}

// Sub 返回 v - o
func (v Value) Sub(o Value) Value {
	out := v.Clone()
	out.Lovelace -= o.Lovelace
	for u, q := range o.Assets {
		out = out.WithAsset(u, -q)
	}
	return out
}

// HasAssets 是否包含原生资产
func (v Value) HasAssets() bool {
	return len(v.Assets) > 0
}

// IsNonNegative lovelace 与所有资产都不为负
func (v Value) IsNonNegative() bool {
	if v.Lovelace < 0 {
		return false
	}
	for _, q := range v.Assets {
		if q < 0 {
			return false
		}
	}
	return true
}

// Clone 深拷贝
func (v Value) Clone() Value {
	out := Value{Lovelace: v.Lovelace}
	if len(v.Assets) > 0 {
		out.Assets = make(Assets, len(v.Assets))
		for u, q := range v.Assets {
			out.Assets[u] = q
		}
	}
	return out
}

// Units 返回排好序的资产单位
func (v Value) Units() []Unit {
	units := make([]Unit, 0, len(v.Assets))
	for u := range v.Assets {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })
	return units
}
