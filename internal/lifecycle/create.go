package lifecycle

import (
	"strings"
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
)

// CreateParams 创建活动的参数
type CreateParams struct {
	Name     string           `json:"name"`
	Goal     cardano.Lovelace `json:"goal"`
	Deadline time.Time        `json:"deadline"`
}

// Validate 检查参数；now 为账本时间
func (p CreateParams) Validate(now time.Time) error {
	if strings.TrimSpace(p.Name) == "" {
		return campaign.Precondition(campaign.ErrInvalidName)
	}
	if p.Goal <= 0 {
		return campaign.Precondition(campaign.ErrInvalidGoal)
	}
	if !now.IsZero() && !p.Deadline.After(now) {
		return campaign.Preconditionf(campaign.ErrInvalidDeadline, "deadline %s is not after %s",
			p.Deadline.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	return nil
}

// Create 消耗 nonce 输出，铸造状态代币，并把它与 CampaignDatum 一起锁到新的脚本地址
func Create(env Env, base plutus.Script, caller Caller, wallet []cardano.UTxO, p CreateParams) (*Transition, error) {
	if err := env.Platform.Validate(); err != nil {
		return nil, err
	}
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := p.Validate(env.Now); err != nil {
		return nil, err
	}
	nonce, err := campaign.SelectNonce(wallet)
	if err != nil {
		return nil, err
	}

	id, err := campaign.DeriveIdentity(base, env.Network, env.Platform.PaymentKeyHash, caller.KeyHash(), nonce.OutRef)
	if err != nil {
		return nil, err
	}
	units := id.Units(env.Tokens)

	datum := campaign.CampaignDatum{
		Name:     strings.TrimSpace(p.Name),
		Goal:     p.Goal,
		Deadline: time.UnixMilli(p.Deadline.UnixMilli()).UTC(),
		Creator:  caller.Credentials,
		State:    campaign.Running,
	}
	datumData, err := datum.ToData()
	if err != nil {
		return nil, err
	}
	datumRaw, err := plutus.Encode(datumData)
	if err != nil {
		return nil, err
	}
	redeemer, err := campaign.MintInit{Datum: datum}.ToData()
	if err != nil {
		return nil, err
	}

	value := cardano.NewValue(env.MinOutput).WithAsset(units.State, 1)
	plan := &tx.Plan{
		WalletInputs: []cardano.UTxO{nonce},
		ValidFrom:    env.Now,
		Metadata:     id.TxMetadata(env.Tokens.State),
	}
	idx := plan.Pay(id.Address, value, datumData)
	plan.MintAssets(id.PolicyID, env.Tokens.State, 1, redeemer)
	plan.AttachScript(id.Validator)
	plan.AddSigner(caller.KeyHash())

	return &Transition{
		Action: campaign.ActionCreate,
		Plan:   plan,
		commit: func(h cardano.TxHash) Outcome {
			snap := &campaign.Snapshot{
				Info: campaign.Info{
					Identity: id,
					Datum:    datum,
					View: campaign.View{
						Name:     datum.Name,
						Goal:     campaign.NewAmount(datum.Goal),
						Deadline: datum.Deadline,
						Creator: campaign.Creator{
							Address:     datum.Creator.Address(env.Network).String(),
							Credentials: datum.Creator,
						},
						Backers: []campaign.Backer{},
						Orphans: []cardano.UTxO{},
						Support: campaign.NewAmount(0),
						State:   campaign.Running,
					},
				},
				Units: units,
				StateOutput: cardano.UTxO{
					OutRef:  cardano.OutRef{TxHash: h, Index: uint32(idx)},
					Address: id.ScriptAddress,
					Value:   value,
					Datum:   datumRaw,
				},
				Freshness:  campaign.Optimistic,
				ObservedAt: env.Now,
			}
			return Outcome{
				Snapshot: snap,
				Minted:   &campaign.TokenReceipt{TxHash: h, Unit: units.State, Quantity: 1, Recipients: []string{id.ScriptAddress}},
			}
		},
	}, nil
}
