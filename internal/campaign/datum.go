package campaign

import (
	"fmt"
	"math/big"
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

// Credentials 支付密钥哈希与可选的质押密钥哈希
type Credentials struct {
	PaymentKeyHash cardano.KeyHash `json:"paymentKeyHash"`
	StakeKeyHash   cardano.KeyHash `json:"stakeKeyHash,omitempty"`
}

// BackerDatum 支持输出上的内联 datum
type BackerDatum = Credentials

// Address 由凭证推导出的钱包地址
func (c Credentials) Address(n cardano.Network) cardano.Address {
	return cardano.KeyAddress(n, c.PaymentKeyHash, c.StakeKeyHash)
}

// ToData 编码为 [pkh, skh]，没有质押哈希时为空字节串
func (c Credentials) ToData() (plutus.Data, error) {
	pkh, err := plutus.BytesFromHex(string(c.PaymentKeyHash))
	if err != nil {
		return nil, fmt.Errorf("payment key hash: %w", err)
	}
	skh, err := plutus.BytesFromHex(string(c.StakeKeyHash))
	if err != nil {
		return nil, fmt.Errorf("stake key hash: %w", err)
	}
	return plutus.List{pkh, skh}, nil
}

// CredentialsFromData 从 [pkh, skh] 解码
func CredentialsFromData(d plutus.Data) (Credentials, error) {
	list, ok := d.(plutus.List)
	if !ok || len(list) == 0 || len(list) > 2 {
		return Credentials{}, fmt.Errorf("credentials: expected a list of one or two key hashes")
	}
	pkh, ok := list[0].(plutus.Bytes)
	if !ok || len(pkh) != 28 {
		return Credentials{}, fmt.Errorf("credentials: invalid payment key hash")
	}
	c := Credentials{PaymentKeyHash: cardano.KeyHash(pkh.Hex())}
	if len(list) == 2 {
		skh, ok := list[1].(plutus.Bytes)
		if !ok || (len(skh) != 0 && len(skh) != 28) {
			return Credentials{}, fmt.Errorf("credentials: invalid stake key hash")
		}
		c.StakeKeyHash = cardano.KeyHash(skh.Hex())
	}
	return c, nil
}

// DecodeBackerDatum 解码支持输出上的 datum
func DecodeBackerDatum(raw []byte) (BackerDatum, error) {
	d, err := plutus.Decode(raw)
	if err != nil {
		return BackerDatum{}, err
	}
	return CredentialsFromData(d)
}

// CampaignDatum 状态代币输出上的内联 datum
type CampaignDatum struct {
	Name     string           `json:"name"`
	Goal     cardano.Lovelace `json:"goal"`
	Deadline time.Time        `json:"deadline"`
	Creator  Credentials      `json:"creator"`
	State    State            `json:"state"`
}

// WithState 返回更新了状态的副本
func (d CampaignDatum) WithState(s State) CampaignDatum {
	d.State = s
	return d
}

// ToData 编码为 Constr 0 [name, goal, deadline, creator, state]
func (d CampaignDatum) ToData() (plutus.Data, error) {
	creator, err := d.Creator.ToData()
	if err != nil {
		return nil, err
	}
	return plutus.NewConstr(0,
		plutus.Bytes(d.Name),
		plutus.NewInt(int64(d.Goal)),
		plutus.NewInt(d.Deadline.UnixMilli()),
		creator,
		plutus.NewConstr(uint64(d.State)),
	), nil
}

// Encode 编码为 CBOR
func (d CampaignDatum) Encode() ([]byte, error) {
	data, err := d.ToData()
	if err != nil {
		return nil, err
	}
	return plutus.Encode(data)
}

// CampaignDatumFromData 从 Plutus 数据解码
func CampaignDatumFromData(d plutus.Data) (CampaignDatum, error) {
	c, ok := d.(plutus.Constr)
	if !ok || c.Index != 0 || len(c.Fields) != 5 {
		return CampaignDatum{}, fmt.Errorf("campaign datum: expected constructor 0 with 5 fields")
	}
	name, ok := c.Fields[0].(plutus.Bytes)
	if !ok {
		return CampaignDatum{}, fmt.Errorf("campaign datum: name is not bytes")
	}
	goal, ok := int64Field(c.Fields[1])
	if !ok {
		return CampaignDatum{}, fmt.Errorf("campaign datum: invalid goal")
	}
	deadline, ok := int64Field(c.Fields[2])
	if !ok {
		return CampaignDatum{}, fmt.Errorf("campaign datum: invalid deadline")
	}
	creator, err := CredentialsFromData(c.Fields[3])
	if err != nil {
		return CampaignDatum{}, fmt.Errorf("campaign datum: %w", err)
	}
	st, ok := c.Fields[4].(plutus.Constr)
	if !ok || st.Index > uint64(Finished) || len(st.Fields) != 0 {
		return CampaignDatum{}, fmt.Errorf("campaign datum: invalid state")
	}
	return CampaignDatum{
		Name:     string(name),
		Goal:     cardano.Lovelace(goal),
		Deadline: time.UnixMilli(deadline).UTC(),
		Creator:  creator,
		State:    State(st.Index),
	}, nil
}

// DecodeCampaignDatum 从 CBOR 解码
func DecodeCampaignDatum(raw []byte) (CampaignDatum, error) {
	d, err := plutus.Decode(raw)
	if err != nil {
		return CampaignDatum{}, err
	}
	return CampaignDatumFromData(d)
}

func int64Field(d plutus.Data) (int64, bool) {
	i, ok := d.(plutus.Int)
	if !ok {
		return 0, false
	}
	return i.Int64()
}

// nonceData 一次性输出引用：Constr 0 [txHash, index]
func nonceData(ref cardano.OutRef) (plutus.Data, error) {
	hash, err := plutus.BytesFromHex(string(ref.TxHash))
	if err != nil {
		return nil, fmt.Errorf("nonce tx hash: %w", err)
	}
	return plutus.NewConstr(0, hash, plutus.Int{Value: new(big.Int).SetUint64(uint64(ref.Index))}), nil
}
