package campaign

import "github.com/MiroslavRet/CF-RewardToken/internal/plutus"

// MintRedeemer 铸币策略的动作
type MintRedeemer interface {
	ToData() (plutus.Data, error)
	mintRedeemer()
}

// MintInit 初始化活动并铸造状态代币
type MintInit struct {
	Datum CampaignDatum
}

// MintSupport 铸造一个支持代币
type MintSupport struct {
	Backer BackerDatum
}

// MintFinish 销毁支持代币并铸造奖励代币；Backer 为空表示作用于全部支持者
type MintFinish struct {
	Backer *BackerDatum
}

func (MintInit) mintRedeemer()    {}
func (MintSupport) mintRedeemer() {}
func (MintFinish) mintRedeemer()  {}

// ToData Constr 0 [datum]
func (r MintInit) ToData() (plutus.Data, error) {
	d, err := r.Datum.ToData()
	if err != nil {
		return nil, err
	}
	return plutus.NewConstr(0, d), nil
}

// ToData Constr 1 [backer]
func (r MintSupport) ToData() (plutus.Data, error) {
	d, err := r.Backer.ToData()
	if err != nil {
		return nil, err
	}
	return plutus.NewConstr(1, d), nil
}

// ToData Constr 2 [backer] 或 Constr 2 []
func (r MintFinish) ToData() (plutus.Data, error) {
	if r.Backer == nil {
		return plutus.NewConstr(2), nil
	}
	d, err := r.Backer.ToData()
	if err != nil {
		return nil, err
	}
	return plutus.NewConstr(2, d), nil
}

// SpendRedeemer 花费脚本输出时的动作
type SpendRedeemer interface {
	ToData() (plutus.Data, error)
	spendRedeemer()
}

// SpendAction 活动动作：Cancel/Finish/Refund/Collect
type SpendAction uint64

const (
	SpendCancel SpendAction = iota
	SpendFinish
	SpendRefund
	SpendCollect
)

// SpendVoid 领取无 datum 输出使用的空 redeemer
type SpendVoid struct{}

// SpendRerun 运维重启活动时使用的自定义构造子
type SpendRerun struct {
	Tag uint64
}

func (SpendAction) spendRedeemer() {}
func (SpendVoid) spendRedeemer()   {}
func (SpendRerun) spendRedeemer()  {}

// ToData Constr i []
func (a SpendAction) ToData() (plutus.Data, error) {
	return plutus.NewConstr(uint64(a)), nil
}

// ToData Constr 0 []
func (SpendVoid) ToData() (plutus.Data, error) {
	return plutus.NewConstr(0), nil
}

// ToData Constr tag []
func (r SpendRerun) ToData() (plutus.Data, error) {
	return plutus.NewConstr(r.Tag), nil
}
