package plutus

import (
	"bytes"
	"encoding/hex"
	"math/big"
)

// Data Plutus 数据，封闭的变体集合
type Data interface {
	isData()
}

// Constr 构造子：索引 + 字段
type Constr struct {
	Index  uint64
	Fields []Data
}

// Int 任意精度整数
type Int struct {
	Value *big.Int
}

// Bytes 字节串
type Bytes []byte

// List 列表
type List []Data

// Pair Map 中的一个键值对
type Pair struct {
	Key   Data
	Value Data
}

// Map 保持顺序的键值对列表
type Map []Pair

func (Constr) isData() {}
func (Int) isData()    {}
func (Bytes) isData()  {}
func (List) isData()   {}
func (Map) isData()    {}

// NewConstr 创建构造子
func NewConstr(index uint64, fields ...Data) Constr {
	if fields == nil {
		fields = []Data{}
	}
	return Constr{Index: index, Fields: fields}
}

// NewInt 由 int64 创建整数
func NewInt(v int64) Int {
	return Int{Value: big.NewInt(v)}
}

// BytesFromHex 解码十六进制为字节串
func BytesFromHex(s string) (Bytes, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return Bytes(b), nil
}

// Int64 返回 int64 值及是否可表示
func (i Int) Int64() (int64, bool) {
	if i.Value == nil || !i.Value.IsInt64() {
		return 0, false
	}
	return i.Value.Int64(), true
}

// Hex 返回十六进制
func (b Bytes) Hex() string {
	return hex.EncodeToString(b)
}

// Equal 结构相等，按规范编码比较
func Equal(a, b Data) bool {
	ea, err := Encode(a)
	if err != nil {
		return false
	}
	eb, err := Encode(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}
