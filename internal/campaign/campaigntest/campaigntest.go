// Package campaigntest 提供构造活动快照与链上输出的测试夹具
package campaigntest

import (
	"fmt"
	"testing"
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

// 固定的密钥哈希
const (
	PlatformKeyHash cardano.KeyHash = "11111111111111111111111111111111111111111111111111111111"
	CreatorKeyHash  cardano.KeyHash = "22222222222222222222222222222222222222222222222222222222"
	CreatorStake    cardano.KeyHash = "23232323232323232323232323232323232323232323232323232323"
	AliceKeyHash    cardano.KeyHash = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	BobKeyHash      cardano.KeyHash = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	CarolKeyHash    cardano.KeyHash = "cccccccccccccccccccccccccccccccccccccccccccccccccccccccc"
)

// Network 夹具使用的网络
const Network = cardano.Preprod

// IdentityProgram (program 1.1.0 (lam x x)) 的 CBOR
const IdentityProgram = "46010100200101"

// Deadline 夹具的截止时间
var Deadline = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Nonce 夹具的 nonce
var Nonce = cardano.OutRef{TxHash: TxHash(0xfeed), Index: 1}

// TxHash 由序号生成交易哈希
func TxHash(n int) cardano.TxHash {
	return cardano.TxHash(fmt.Sprintf("%064x", n))
}

// Creds 只有支付哈希的凭证
func Creds(pkh cardano.KeyHash) campaign.Credentials {
	return campaign.Credentials{PaymentKeyHash: pkh}
}

// AddressOf 凭证对应的地址
func AddressOf(c campaign.Credentials) string {
	return c.Address(Network).String()
}

// Platform 夹具平台
func Platform() campaign.Platform {
	return campaign.Platform{
		Address:        AddressOf(Creds(PlatformKeyHash)),
		PaymentKeyHash: PlatformKeyHash,
	}
}

// BaseScript 未参数化的验证器
func BaseScript(t testing.TB) plutus.Script {
	t.Helper()
	s, err := plutus.NewScriptFromHex(plutus.PlutusV3, IdentityProgram)
	if err != nil {
		t.Fatalf("base script: %v", err)
	}
	return s
}

// Identity 夹具活动身份
func Identity(t testing.TB) campaign.Identity {
	t.Helper()
	id, err := campaign.DeriveIdentity(BaseScript(t), Network, PlatformKeyHash, CreatorKeyHash, Nonce)
	if err != nil {
		t.Fatalf("derive identity: %v", err)
	}
	return id
}

// Builder 逐步构造活动地址上的输出
type Builder struct {
	t       testing.TB
	ID      campaign.Identity
	Tokens  campaign.Tokens
	Datum   campaign.CampaignDatum
	extra   []cardano.UTxO
	backers []cardano.UTxO
	seq     int
}

// New 创建一个运行中的活动：目标 100 ADA
func New(t testing.TB) *Builder {
	t.Helper()
	return &Builder{
		t:      t,
		ID:     Identity(t),
		Tokens: campaign.DefaultTokens(),
		Datum: campaign.CampaignDatum{
			Name:     "Solar Roof",
			Goal:     cardano.ADA(100),
			Deadline: Deadline,
			Creator:  campaign.Credentials{PaymentKeyHash: CreatorKeyHash, StakeKeyHash: CreatorStake},
			State:    campaign.Running,
		},
		seq: 100,
	}
}

// WithState 设置状态
func (b *Builder) WithState(s campaign.State) *Builder {
	b.Datum.State = s
	return b
}

// Units 代币单位
func (b *Builder) Units() campaign.Units {
	return b.ID.Units(b.Tokens)
}

func (b *Builder) nextRef() cardano.OutRef {
	b.seq++
	return cardano.OutRef{TxHash: TxHash(b.seq), Index: 0}
}

func (b *Builder) encode(d plutus.Data) []byte {
	raw, err := plutus.Encode(d)
	if err != nil {
		b.t.Fatalf("encode datum: %v", err)
	}
	return raw
}

// Back 增加一个带支持代币的支持输出
func (b *Builder) Back(c campaign.Credentials, l cardano.Lovelace) *Builder {
	return b.back(c, l, 1)
}

// BackWithoutToken 增加一个不带支持代币的支持输出
func (b *Builder) BackWithoutToken(c campaign.Credentials, l cardano.Lovelace) *Builder {
	return b.back(c, l, 0)
}

func (b *Builder) back(c campaign.Credentials, l cardano.Lovelace, tokens int64) *Builder {
	d, err := c.ToData()
	if err != nil {
		b.t.Fatalf("backer datum: %v", err)
	}
	b.backers = append(b.backers, cardano.UTxO{
		OutRef:  b.nextRef(),
		Address: b.ID.ScriptAddress,
		Value:   cardano.NewValue(l).WithAsset(b.Units().Support, tokens),
		Datum:   b.encode(d),
	})
	return b
}

// Orphan 增加一个没有 datum 的输出
func (b *Builder) Orphan(l cardano.Lovelace) *Builder {
	b.extra = append(b.extra, cardano.UTxO{OutRef: b.nextRef(), Address: b.ID.ScriptAddress, Value: cardano.NewValue(l)})
	return b
}

// Garbage 增加一个 datum 无法解码的输出
func (b *Builder) Garbage(l cardano.Lovelace) *Builder {
	b.extra = append(b.extra, cardano.UTxO{
		OutRef:  b.nextRef(),
		Address: b.ID.ScriptAddress,
		Value:   cardano.NewValue(l),
		Datum:   b.encode(plutus.NewConstr(9, plutus.NewInt(1))),
	})
	return b
}

// StateOutput 状态代币输出
func (b *Builder) StateOutput() cardano.UTxO {
	raw, err := b.Datum.Encode()
	if err != nil {
		b.t.Fatalf("campaign datum: %v", err)
	}
	return cardano.UTxO{
		OutRef:  cardano.OutRef{TxHash: TxHash(1), Index: 0},
		Address: b.ID.ScriptAddress,
		Value:   cardano.NewValue(cardano.ADA(2)).WithAsset(b.Units().State, 1),
		Datum:   raw,
	}
}

// Outputs 活动地址上的全部输出：状态输出、支持输出、其他输出
func (b *Builder) Outputs() []cardano.UTxO {
	out := []cardano.UTxO{b.StateOutput()}
	out = append(out, b.backers...)
	return append(out, b.extra...)
}

// Snapshot 投影得到的快照
func (b *Builder) Snapshot() *campaign.Snapshot {
	b.t.Helper()
	snap, err := campaign.Project(b.ID, b.Tokens, b.Outputs(), Deadline.Add(-time.Hour))
	if err != nil {
		b.t.Fatalf("project: %v", err)
	}
	return snap
}

// WalletUTxO 钱包中的纯 ADA 输出
func WalletUTxO(n int, c campaign.Credentials, l cardano.Lovelace) cardano.UTxO {
	return cardano.UTxO{
		OutRef:  cardano.OutRef{TxHash: TxHash(0x1000 + n), Index: 0},
		Address: AddressOf(c),
		Value:   cardano.NewValue(l),
	}
}
