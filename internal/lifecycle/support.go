package lifecycle

import (
	"github.com/MiroslavRet/CF-RewardToken/internal/campaign"
	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/plutus"
	"github.com/MiroslavRet/CF-RewardToken/internal/tx"
)

// Support 铸造一个支持代币，与支持金额和 BackerDatum 一起锁到活动地址
func Support(env Env, snap *campaign.Snapshot, caller Caller, amount cardano.Lovelace) (*Transition, error) {
	if err := requireCampaign(snap); err != nil {
		return nil, err
	}
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if snap.State() != campaign.Running {
		return nil, campaign.Preconditionf(campaign.ErrInvalidState, "campaign is %s", snap.State())
	}
	if amount <= 0 || amount < env.MinOutput {
		return nil, campaign.Preconditionf(campaign.ErrInvalidAmount, "minimum is %s ADA", cardano.FormatADA(env.MinOutput))
	}

	backer := caller.Credentials
	backerData, err := backer.ToData()
	if err != nil {
		return nil, err
	}
	backerRaw, err := plutus.Encode(backerData)
	if err != nil {
		return nil, err
	}
	redeemer, err := campaign.MintSupport{Backer: backer}.ToData()
	if err != nil {
		return nil, err
	}

	value := cardano.NewValue(amount).WithAsset(snap.Units.Support, campaign.SupportMintQuantity)
	plan := &tx.Plan{
		ReferenceInputs: []cardano.UTxO{snap.StateOutput},
		Metadata:        snap.Info.TxMetadata(env.Tokens.Support),
	}
	idx := plan.Pay(snap.Info.Address, value, backerData)
	plan.MintAssets(snap.PolicyID(), env.Tokens.Support, campaign.SupportMintQuantity, redeemer)
	plan.AttachScript(snap.Info.Validator)

	return &Transition{
		Action: campaign.ActionSupport,
		Plan:   plan,
		commit: func(h cardano.TxHash) Outcome {
			address := backer.Address(env.Network).String()
			record := campaign.Backer{
				Address:     address,
				Credentials: backer,
				Contributed: campaign.NewAmount(amount),
				Output:      scriptOutput(snap, h, idx, value, backerRaw),
			}
			next := snap.WithBackers(append(append([]campaign.Backer{}, snap.Backers()...), record), env.Now)
			return Outcome{
				Snapshot: next,
				Minted: &campaign.TokenReceipt{
					TxHash: h, Unit: snap.Units.Support, Quantity: campaign.SupportMintQuantity, Recipients: []string{address},
				},
			}
		},
	}, nil
}
