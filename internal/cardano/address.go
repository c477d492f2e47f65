package cardano

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// CredentialKind 凭证类型
type CredentialKind int

const (
	KeyCredential CredentialKind = iota
	ScriptCredential
)

// Credential 支付或质押凭证
type Credential struct {
	Kind CredentialKind
	Hash string
}

// IsZero 是否为空凭证
func (c Credential) IsZero() bool {
	return c.Hash == ""
}

// Address 由凭证组成的 Shelley 地址
type Address struct {
	Network Network
	Payment Credential
	Stake   Credential
}

var errNoPayment = errors.New("address without payment credential")

// KeyAddress 密钥地址：有质押哈希时为 base 地址，否则为 enterprise 地址
func KeyAddress(n Network, payment, stake KeyHash) Address {
	addr := Address{Network: n, Payment: Credential{Kind: KeyCredential, Hash: string(payment)}}
	if stake != "" {
		addr.Stake = Credential{Kind: KeyCredential, Hash: string(stake)}
	}
	return addr
}

// ScriptAddress 脚本 enterprise 地址
func ScriptAddress(n Network, script ScriptHash) Address {
	return Address{Network: n, Payment: Credential{Kind: ScriptCredential, Hash: string(script)}}
}

// Bytes 地址的原始字节
func (a Address) Bytes() ([]byte, error) {
	if a.Payment.IsZero() {
		return nil, errNoPayment
	}
	payment, err := hex.DecodeString(a.Payment.Hash)
	if err != nil || len(payment) != 28 {
		return nil, fmt.Errorf("invalid payment credential %q", a.Payment.Hash)
	}

	var header byte
	out := make([]byte, 0, 57)
	if a.Stake.IsZero() {
		// enterprise: 0110 key / 0111 script
		header = 0x60
		if a.Payment.Kind == ScriptCredential {
			header = 0x70
		}
		out = append(out, header|a.Network.ID())
		return append(out, payment...), nil
	}

	stake, err := hex.DecodeString(a.Stake.Hash)
	if err != nil || len(stake) != 28 {
		return nil, fmt.Errorf("invalid stake credential %q", a.Stake.Hash)
	}
	if a.Payment.Kind == ScriptCredential {
		header |= 0x10
	}
	if a.Stake.Kind == ScriptCredential {
		header |= 0x20
	}
	out = append(out, header|a.Network.ID())
	out = append(out, payment...)
	return append(out, stake...), nil
}

// Bech32 返回 bech32 编码
func (a Address) Bech32() (string, error) {
	raw, err := a.Bytes()
	if err != nil {
		return "", err
	}
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(a.Network.hrp(), conv)
}

// String 返回 bech32 编码，失败时返回空串
func (a Address) String() string {
	s, err := a.Bech32()
	if err != nil {
		return ""
	}
	return s
}

// StakeAddress 质押密钥对应的奖励地址（stake 前缀）
func StakeAddress(n Network, stake KeyHash) (string, error) {
	raw, err := stake.Bytes()
	if err != nil || len(raw) != 28 {
		return "", fmt.Errorf("invalid stake key hash %q", stake)
	}
	conv, err := bech32.ConvertBits(append([]byte{0xe0 | n.ID()}, raw...), 8, 5, true)
	if err != nil {
		return "", err
	}
	hrp := "stake_test"
	if n == Mainnet {
		hrp = "stake"
	}
	return bech32.Encode(hrp, conv)
}
