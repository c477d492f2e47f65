// Package ledgertest 内存中的账本，供工作流测试使用
package ledgertest

import (
	"context"
	"sync"
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/ledger"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
)

// Ledger 可编程的 ledger.Provider
type Ledger struct {
	mu        sync.Mutex
	Now       time.Time
	Outputs   map[string][]cardano.UTxO
	Assets    map[cardano.PolicyID][]ledger.AssetInfo
	Params    ledger.ProtocolParameters
	Submitted [][]byte
	SubmitErr error
	ReadErr   error
	NextHash  cardano.TxHash
}

var _ ledger.Provider = (*Ledger)(nil)

// New 空账本，成本模型只含 PlutusV3
func New(now time.Time) *Ledger {
	return &Ledger{
		Now:     now,
		Outputs: make(map[string][]cardano.UTxO),
		Assets:  make(map[cardano.PolicyID][]ledger.AssetInfo),
		Params: ledger.ProtocolParameters{
			CostModels: map[plutus.Language][]int64{plutus.PlutusV3: {100, 200, 300}},
		},
	}
}

// Put 在地址上追加输出
func (l *Ledger) Put(address string, outputs ...cardano.UTxO) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Outputs[address] = append(l.Outputs[address], outputs...)
}

// SubmitCount 已提交交易数
func (l *Ledger) SubmitCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Submitted)
}

func (l *Ledger) CurrentTime(context.Context) (time.Time, error) {
	return l.Now, l.ReadErr
}

func (l *Ledger) OutputsAtAddress(_ context.Context, address string) ([]cardano.UTxO, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ReadErr != nil {
		return nil, l.ReadErr
	}
	return append([]cardano.UTxO{}, l.Outputs[address]...), nil
}

func (l *Ledger) AssetsByPolicy(_ context.Context, policy cardano.PolicyID) ([]ledger.AssetInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Assets[policy], l.ReadErr
}

func (l *Ledger) ProtocolParameters(context.Context) (ledger.ProtocolParameters, error) {
	return l.Params, l.ReadErr
}

// SubmitTx 记录交易并返回 NextHash
func (l *Ledger) SubmitTx(_ context.Context, cbor []byte) (cardano.TxHash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.SubmitErr != nil {
		return "", l.SubmitErr
	}
	l.Submitted = append(l.Submitted, cbor)
	return l.NextHash, nil
}
