package cardano

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// TxHash 交易哈希（十六进制）
type TxHash string

// OutRef 输出引用
type OutRef struct {
	TxHash TxHash `json:"txHash"`
	Index  uint32 `json:"outputIndex"`
}

// String 返回 "hash#index" 形式
func (o OutRef) String() string {
	return fmt.Sprintf("%s#%d", o.TxHash, o.Index)
}

// Less 按交易哈希字节序、再按索引排序
func (o OutRef) Less(p OutRef) bool {
	if c := bytes.Compare(o.hashBytes(), p.hashBytes()); c != 0 {
		return c < 0
	}
	return o.Index < p.Index
}

func (o OutRef) hashBytes() []byte {
	b, err := hex.DecodeString(string(o.TxHash))
	if err != nil {
		return []byte(o.TxHash)
	}
	return b
}

// ParseOutRef 解析 "hash#index"
func ParseOutRef(s string) (OutRef, error) {
	hash, idx, ok := strings.Cut(strings.TrimSpace(s), "#")
	if !ok || len(hash) != 64 {
		return OutRef{}, fmt.Errorf("invalid output reference %q", s)
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return OutRef{}, fmt.Errorf("invalid output reference %q: %w", s, err)
	}
	n, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return OutRef{}, fmt.Errorf("invalid output reference %q: %w", s, err)
	}
	return OutRef{TxHash: TxHash(strings.ToLower(hash)), Index: uint32(n)}, nil
}

// UTxO 未花费输出
type UTxO struct {
	OutRef
	Address string `json:"address"`
	Value   Value  `json:"value"`
	// Datum 内联 datum 的 CBOR，没有时为空
	Datum     []byte `json:"datum,omitempty"`
	DatumHash string `json:"datumHash,omitempty"`
}

// HasInlineDatum 是否带内联 datum
func (u UTxO) HasInlineDatum() bool {
	return len(u.Datum) > 0
}

// IsPureADA 只含 lovelace
func (u UTxO) IsPureADA() bool {
	return !u.Value.HasAssets()
}

var footprintMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	footprintMode = em
}

// Footprint 输入与输出按账本格式序列化后的字节数，用于 nonce 选择
func (u UTxO) Footprint() int {
	h, _ := hex.DecodeString(string(u.TxHash))
	out := map[uint64]interface{}{0: make([]byte, bech32PayloadLen(u.Address))}
	if u.Value.HasAssets() {
		ma := map[cbor.ByteString]map[cbor.ByteString]int64{}
		for unit, q := range u.Value.Assets {
			policy, name := unit.Split()
			p, _ := hex.DecodeString(string(policy))
			n, _ := hex.DecodeString(string(name))
			if ma[cbor.ByteString(p)] == nil {
				ma[cbor.ByteString(p)] = map[cbor.ByteString]int64{}
			}
			ma[cbor.ByteString(p)][cbor.ByteString(n)] = q
		}
		out[1] = []interface{}{uint64(u.Value.Lovelace), ma}
	} else {
		out[1] = uint64(u.Value.Lovelace)
	}
	switch {
	case len(u.Datum) > 0:
		out[2] = []interface{}{1, cbor.Tag{Number: 24, Content: u.Datum}}
	case u.DatumHash != "":
		dh, _ := hex.DecodeString(u.DatumHash)
		out[2] = []interface{}{0, dh}
	}

	b, err := footprintMode.Marshal([]interface{}{[]interface{}{h, u.Index}, out})
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return len(b)
}

// bech32PayloadLen bech32 地址解码后的字节数
func bech32PayloadLen(addr string) int {
	sep := strings.LastIndexByte(addr, '1')
	chars := len(addr) - sep - 1 - 6
	if sep < 0 || chars <= 0 {
		return len(addr)
	}
	return chars * 5 / 8
}
