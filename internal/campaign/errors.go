package campaign

import (
	"errors"
	"fmt"
)

// 错误类别：前置条件错误在访问账本之前返回，查询错误意味着调用方需要重新投影
var (
	ErrPrecondition = errors.New("precondition failed")
	ErrLookup       = errors.New("lookup failed")
)

// 具体原因
var (
	ErrNoCampaign          = errors.New("no campaign")
	ErrDisconnectedWallet  = errors.New("disconnected wallet")
	ErrNoAddress           = errors.New("no address")
	ErrPlatformUnset       = errors.New("platform not configured")
	ErrEmptyWallet         = errors.New("empty wallet")
	ErrInvalidName         = errors.New("campaign name is required")
	ErrInvalidGoal         = errors.New("campaign goal must be positive")
	ErrInvalidDeadline     = errors.New("campaign deadline must be in the future")
	ErrInvalidAmount       = errors.New("support amount is too small")
	ErrInvalidState        = errors.New("campaign state does not allow this action")
	ErrBeforeDeadline      = errors.New("platform can only act after the deadline")
	ErrNotCreator          = errors.New("caller is not the campaign creator")
	ErrNotPlatform         = errors.New("caller is not the platform")
	ErrNothingToRefund     = errors.New("nothing to refund")
	ErrNothingToCollect    = errors.New("nothing to collect")
	ErrNothingToBurn       = errors.New("no support tokens to burn")
	ErrNoOrphans           = errors.New("no orphan outputs to claim")
	ErrStateTokenMissing   = errors.New("state token output not found")
	ErrStateTokenAmbiguous = errors.New("more than one state token output")
	ErrNoDatum             = errors.New("state token output has no datum")
	ErrMetadataMissing     = errors.New("campaign metadata not found")
	ErrBackerOutputMissing = errors.New("backer output not found")
	ErrOutputMissing       = errors.New("output not found at campaign address")
)

// Precondition 生成前置条件错误，同时匹配类别与具体原因
func Precondition(reason error) error {
	return errors.Join(ErrPrecondition, reason)
}

// Preconditionf 带附加说明的前置条件错误
func Preconditionf(reason error, format string, args ...interface{}) error {
	return errors.Join(ErrPrecondition, fmt.Errorf("%w: %s", reason, fmt.Sprintf(format, args...)))
}

// Lookup 生成查询错误
func Lookup(reason error) error {
	return errors.Join(ErrLookup, reason)
}

// Lookupf 带附加说明的查询错误
func Lookupf(reason error, format string, args ...interface{}) error {
	return errors.Join(ErrLookup, fmt.Errorf("%w: %s", reason, fmt.Sprintf(format, args...)))
}
