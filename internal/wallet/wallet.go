// Package wallet 钱包连接与签名
package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
)

// ErrInvalidKey 签名密钥无法解析
var ErrInvalidKey = errors.New("invalid signing key")

// Connection 已连接钱包的身份
type Connection struct {
	Address        string          `json:"address"`
	StakeAddress   string          `json:"stakeAddress,omitempty"`
	PaymentKeyHash cardano.KeyHash `json:"pkh"`
	StakeKeyHash   cardano.KeyHash `json:"skh,omitempty"`
}

// Validate 没有地址或支付哈希视为未连接
func (c Connection) Validate() error {
	if c.Address == "" || c.PaymentKeyHash == "" {
		return campaign.Precondition(campaign.ErrDisconnectedWallet)
	}
	return nil
}

// Credentials 钱包对应的链上凭证
func (c Connection) Credentials() campaign.Credentials {
	return campaign.Credentials{PaymentKeyHash: c.PaymentKeyHash, StakeKeyHash: c.StakeKeyHash}
}

// Handle 已启用的钱包
type Handle interface {
	Connection() Connection
	// ChangeAddress 找零地址
	ChangeAddress() cardano.Address
	// SpendableOutputs 可用于资金与抵押的输出
	SpendableOutputs(ctx context.Context) ([]cardano.UTxO, error)
	// Sign 对交易签名
	Sign(u *tx.Unsigned) (*tx.Signed, error)
}

// Wallet 可以被启用的钱包
type Wallet interface {
	Enable(ctx context.Context) (Handle, error)
}

// OutputSource 列出地址上的输出
type OutputSource interface {
	OutputsAtAddress(ctx context.Context, address string) ([]cardano.UTxO, error)
}

// KeyWallet 由 ed25519 种子派生的服务端钱包
type KeyWallet struct {
	network cardano.Network
	payment ed25519.PrivateKey
	stake   cardano.KeyHash
	source  OutputSource
	address cardano.Address
}

var (
	_ Wallet = (*KeyWallet)(nil)
	_ Handle = (*KeyWallet)(nil)
)

// NewKeyWallet 从十六进制种子创建钱包；stakeSeed 可为空
func NewKeyWallet(network cardano.Network, paymentSeed, stakeSeed string, source OutputSource) (*KeyWallet, error) {
	payment, err := keyFromSeed(paymentSeed)
	if err != nil {
		return nil, fmt.Errorf("payment key: %w", err)
	}
	w := &KeyWallet{network: network, payment: payment, source: source}
	if stakeSeed != "" {
		stake, err := keyFromSeed(stakeSeed)
		if err != nil {
			return nil, fmt.Errorf("stake key: %w", err)
		}
		w.stake = cardano.KeyHashFromPublicKey(stake.Public().(ed25519.PublicKey))
	}
	w.address = cardano.KeyAddress(network, w.paymentKeyHash(), w.stake)
	return w, nil
}

func keyFromSeed(s string) (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(s)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidKey
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func (w *KeyWallet) paymentKeyHash() cardano.KeyHash {
	return cardano.KeyHashFromPublicKey(w.payment.Public().(ed25519.PublicKey))
}

// Enable 服务端钱包无需授权
func (w *KeyWallet) Enable(context.Context) (Handle, error) {
	return w, nil
}

// Connection 钱包身份
func (w *KeyWallet) Connection() Connection {
	c := Connection{
		Address:        w.address.String(),
		PaymentKeyHash: w.paymentKeyHash(),
		StakeKeyHash:   w.stake,
	}
	if w.stake != "" {
		if s, err := cardano.StakeAddress(w.network, w.stake); err == nil {
			c.StakeAddress = s
		}
	}
	return c
}

// ChangeAddress 钱包地址
func (w *KeyWallet) ChangeAddress() cardano.Address {
	return w.address
}

// SpendableOutputs 钱包地址上的全部输出
func (w *KeyWallet) SpendableOutputs(ctx context.Context) ([]cardano.UTxO, error) {
	return w.source.OutputsAtAddress(ctx, w.address.String())
}

// Sign 用支付密钥签名交易哈希
func (w *KeyWallet) Sign(u *tx.Unsigned) (*tx.Signed, error) {
	sig := ed25519.Sign(w.payment, u.HashBytes())
	return u.Sign(tx.VKeyWitness{VKey: []byte(w.payment.Public().(ed25519.PublicKey)), Signature: sig})
}

// Disconnected 未配置密钥时使用，启用即报告钱包未连接
type Disconnected struct{}

// Enable 总是返回前置条件错误
func (Disconnected) Enable(context.Context) (Handle, error) {
	return nil, campaign.Precondition(campaign.ErrDisconnectedWallet)
}
