package campaign

import (
	"fmt"
	"strings"
)

// State 募资活动的生命周期状态
type State int

const (
	Running State = iota
	Cancelled
	Finished
)

// String 实现 fmt.Stringer
func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Cancelled:
		return "Cancelled"
	case Finished:
		return "Finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState 解析状态名，大小写不敏感
func ParseState(s string) (State, error) {
	switch strings.ToLower(s) {
	case "running":
		return Running, nil
	case "cancelled", "canceled":
		return Cancelled, nil
	case "finished":
		return Finished, nil
	}
	return 0, fmt.Errorf("unknown campaign state %q", s)
}

// MarshalText 以名称序列化
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 从名称反序列化
func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// CanTransition 普通用户可走的状态迁移：只能从 Running 走向终态
func CanTransition(from, to State) bool {
	return from == Running && (to == Cancelled || to == Finished)
}

// AllowsRefund 退款要求 Running 或 Cancelled
func (s State) AllowsRefund() bool {
	return s == Running || s == Cancelled
}
