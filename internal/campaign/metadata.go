package campaign

import (
	"encoding/json"
	"fmt"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
)

// MetadataLabel CIP-25 元数据标签
const MetadataLabel uint64 = 721

// Metadata 随铸币交易发布的活动参数，用于按 policy id 恢复身份
type Metadata struct {
	Platform cardano.KeyHash `json:"platform"`
	Creator  cardano.KeyHash `json:"creator"`
	Hash     cardano.TxHash  `json:"hash"`
	Index    uint32          `json:"index"`
}

// Metadata 活动身份对应的元数据
func (id Identity) Metadata() Metadata {
	return Metadata{Platform: id.Platform, Creator: id.Creator, Hash: id.Nonce.TxHash, Index: id.Nonce.Index}
}

// Nonce 元数据中记录的 nonce
func (m Metadata) Nonce() cardano.OutRef {
	return cardano.OutRef{TxHash: m.Hash, Index: m.Index}
}

// Validate 检查字段完整
func (m Metadata) Validate() error {
	if m.Platform == "" || m.Creator == "" || len(m.Hash) != 64 {
		return Lookupf(ErrMetadataMissing, "incomplete campaign metadata")
	}
	return nil
}

// TxMetadata 生成 {721: {policy: {assetName: {...}}}} 形式的交易元数据
func (id Identity) TxMetadata(token cardano.AssetName) map[uint64]interface{} {
	m := id.Metadata()
	return map[uint64]interface{}{
		MetadataLabel: map[string]interface{}{
			string(id.PolicyID): map[string]interface{}{
				token.Text(): map[string]interface{}{
					"platform": string(m.Platform),
					"creator":  string(m.Creator),
					"hash":     string(m.Hash),
					"index":    uint64(m.Index),
				},
			},
		},
	}
}

// ParseMetadata 解析单个资产的 CIP-25 字段
func ParseMetadata(raw json.RawMessage) (Metadata, error) {
	var fields struct {
		Platform string      `json:"platform"`
		Creator  string      `json:"creator"`
		Hash     string      `json:"hash"`
		Index    json.Number `json:"index"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Metadata{}, Lookupf(ErrMetadataMissing, "decode: %v", err)
	}
	idx, err := fields.Index.Int64()
	if err != nil || idx < 0 {
		return Metadata{}, Lookupf(ErrMetadataMissing, "invalid index %q", fields.Index)
	}
	m := Metadata{
		Platform: cardano.KeyHash(fields.Platform),
		Creator:  cardano.KeyHash(fields.Creator),
		Hash:     cardano.TxHash(fields.Hash),
		Index:    uint32(idx),
	}
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// String 用于日志
func (m Metadata) String() string {
	return fmt.Sprintf("platform=%s creator=%s nonce=%s", m.Platform, m.Creator, m.Nonce())
}
