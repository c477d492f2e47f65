package campaign

import (
	"time"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
	"github.com/MiroslavRet/CF-RewardToken/internal/logger"
)

// Project 由活动地址上的全部输出构建快照。
// 状态代币输出必须唯一且可解码；其余输出能解码为 BackerDatum 的成为支持记录，否则归为孤儿输出。
func Project(id Identity, tokens Tokens, outputs []cardano.UTxO, observedAt time.Time) (*Snapshot, error) {
	units := id.Units(tokens)

	var (
		stateOutput cardano.UTxO
		found       int
		rest        = make([]cardano.UTxO, 0, len(outputs))
	)
	for _, u := range outputs {
		if u.Value.Quantity(units.State) > 0 {
			stateOutput = u
			found++
			continue
		}
		rest = append(rest, u)
	}
	switch {
	case found == 0:
		return nil, Lookupf(ErrStateTokenMissing, "policy %s", id.PolicyID)
	case found > 1:
		return nil, Lookupf(ErrStateTokenAmbiguous, "policy %s has %d", id.PolicyID, found)
	}
	if q := stateOutput.Value.Quantity(units.State); q != 1 {
		return nil, Lookupf(ErrStateTokenAmbiguous, "output %s holds %d state tokens", stateOutput.OutRef, q)
	}
	if !stateOutput.HasInlineDatum() {
		return nil, Lookupf(ErrNoDatum, "output %s", stateOutput.OutRef)
	}
	datum, err := DecodeCampaignDatum(stateOutput.Datum)
	if err != nil {
		return nil, Lookupf(ErrNoDatum, "output %s: %v", stateOutput.OutRef, err)
	}

	network := id.Address.Network
	backers := make([]Backer, 0, len(rest))
	orphans := make([]cardano.UTxO, 0)
	for _, u := range rest {
		if !u.HasInlineDatum() {
			orphans = append(orphans, u)
			continue
		}
		creds, err := DecodeBackerDatum(u.Datum)
		if err != nil {
			logger.Debug("Skipping undecodable output %s at %s: %v", u.OutRef, id.ScriptAddress, err)
			orphans = append(orphans, u)
			continue
		}
		backers = append(backers, Backer{
			Address:     creds.Address(network).String(),
			Credentials: creds,
			Contributed: NewAmount(u.Value.Lovelace),
			Output:      u,
		})
	}

	snap := &Snapshot{
		Info: Info{
			Identity: id,
			Datum:    datum,
			View: View{
				Name:     datum.Name,
				Goal:     NewAmount(datum.Goal),
				Deadline: datum.Deadline,
				Creator: Creator{
					Address:     datum.Creator.Address(network).String(),
					Credentials: datum.Creator,
				},
				Backers: backers,
				Orphans: orphans,
				Support: NewAmount(Settle(backers)),
				State:   datum.State,
			},
		},
		Units:       units,
		StateOutput: stateOutput,
		Freshness:   Projected,
		ObservedAt:  observedAt,
	}
	return snap, nil
}
