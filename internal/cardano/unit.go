package cardano

import (
	"encoding/hex"
	"strings"
)

// PolicyID 铸币策略 id（十六进制，28 字节）
type PolicyID string

// AssetName 资产名（十六进制）
type AssetName string

// Unit 资产单位：policy id 与资产名拼接
type Unit string

// LovelaceUnit lovelace 的单位名
const LovelaceUnit Unit = "lovelace"

const policyIDHexLen = 56

// AssetNameFromText 将文本资产名转为十六进制
func AssetNameFromText(s string) AssetName {
	return AssetName(hex.EncodeToString([]byte(s)))
}

// Text 返回资产名的文本形式，无法解码时原样返回
func (a AssetName) Text() string {
	b, err := hex.DecodeString(string(a))
	if err != nil {
		return string(a)
	}
	return string(b)
}

// ToUnit 组合 policy id 与资产名
func ToUnit(policy PolicyID, name AssetName) Unit {
	return Unit(strings.ToLower(string(policy) + string(name)))
}

// Split 拆分为 policy id 与资产名
func (u Unit) Split() (PolicyID, AssetName) {
	if u == LovelaceUnit || len(u) < policyIDHexLen {
		return "", ""
	}
	return PolicyID(u[:policyIDHexLen]), AssetName(u[policyIDHexLen:])
}

// Policy 返回单位所属的 policy id
func (u Unit) Policy() PolicyID {
	p, _ := u.Split()
	return p
}
