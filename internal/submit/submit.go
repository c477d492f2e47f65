// Package submit 签名并提交交易
package submit

import (
	"context"
	"fmt"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/logger"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
	"github.com/MiroslavRet/CF-RewardToken/internal/wallet"
)

// Submitter 把已完成的交易签名后提交到账本
type Submitter interface {
	Submit(ctx context.Context, signer wallet.Handle, u *tx.Unsigned) (cardano.TxHash, error)
}

// Backend 接收已签名交易
type Backend interface {
	SubmitTx(ctx context.Context, cbor []byte) (cardano.TxHash, error)
}

// LedgerSubmitter 通过账本服务提交
type LedgerSubmitter struct {
	backend Backend
}

var _ Submitter = (*LedgerSubmitter)(nil)

// NewLedgerSubmitter 创建提交器
func NewLedgerSubmitter(b Backend) *LedgerSubmitter {
	return &LedgerSubmitter{backend: b}
}

// Submit 签名并提交；账本返回的哈希与本地不一致时以本地为准
func (s *LedgerSubmitter) Submit(ctx context.Context, signer wallet.Handle, u *tx.Unsigned) (cardano.TxHash, error) {
	signed, err := signer.Sign(u)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	h, err := s.backend.SubmitTx(ctx, signed.CBOR)
	if err != nil {
		return "", err
	}
	if h != "" && h != signed.Hash {
		logger.Warn("ledger reported tx hash %s, computed %s", h, signed.Hash)
	}
	return signed.Hash, nil
}
