package cardano

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Lovelace 账本最小货币单位，1 ADA = 1_000_000 lovelace
type Lovelace int64

// LovelacePerADA 每个 ADA 对应的 lovelace 数量
const LovelacePerADA Lovelace = 1_000_000

const adaDecimals = 6

// ErrInvalidAmount 金额格式不合法
var ErrInvalidAmount = errors.New("invalid ada amount")

// ADA 将整数 ADA 转换为 lovelace
func ADA(n int64) Lovelace {
	return Lovelace(n) * LovelacePerADA
}

// FormatADA 格式化为固定六位小数的 ADA 字符串，例如 1500000 -> "1.500000"
func FormatADA(l Lovelace) string {
	sign := ""
	v := uint64(l)
	if l < 0 {
		sign = "-"
		v = uint64(-(l + 1)) + 1
	}
	return fmt.Sprintf("%s%d.%06d", sign, v/uint64(LovelacePerADA), v%uint64(LovelacePerADA))
}

// String 实现 fmt.Stringer
func (l Lovelace) String() string {
	return FormatADA(l)
}

// ParseADA 精确解析十进制 ADA 字符串，最多六位小数，不允许负数
func ParseADA(s string) (Lovelace, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (frac == "" || len(frac) > adaDecimals) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if strings.ContainsAny(whole, "+-") || strings.ContainsAny(frac, "+-") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if w > int64(^uint64(0)>>1)/int64(LovelacePerADA) {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}

	var f int64
	if hasFrac {
		f, err = strconv.ParseInt(frac+strings.Repeat("0", adaDecimals-len(frac)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	return Lovelace(w)*LovelacePerADA + Lovelace(f), nil
}
