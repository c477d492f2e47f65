package plutus

import (
	"errors"
	"fmt"
)

// ErrFlat 无法解析 flat 编码的程序
var ErrFlat = errors.New("malformed flat program")

type bitReader struct {
	buf []byte
	pos int // 比特位置
}

func (r *bitReader) bit() (uint8, error) {
	if r.pos >= len(r.buf)*8 {
		return 0, fmt.Errorf("%w: unexpected end of input", ErrFlat)
	}
	b := r.buf[r.pos/8] >> (7 - uint(r.pos%8)) & 1
	r.pos++
	return b, nil
}

func (r *bitReader) bits(n int) (uint64, error) {
	var v uint64
	for i := 0; i < n; i++ {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint64(b)
	}
	return v, nil
}

// natural 以 7 比特分组、首位为后续标志的变长自然数
func (r *bitReader) natural() error {
	for {
		more, err := r.bit()
		if err != nil {
			return err
		}
		if _, err := r.bits(7); err != nil {
			return err
		}
		if more == 0 {
			return nil
		}
	}
}

func (r *bitReader) filler() error {
	for {
		b, err := r.bit()
		if err != nil {
			return err
		}
		if b == 1 {
			return nil
		}
	}
}

func (r *bitReader) byteString() error {
	if err := r.filler(); err != nil {
		return err
	}
	if r.pos%8 != 0 {
		return fmt.Errorf("%w: misaligned byte string", ErrFlat)
	}
	for {
		n, err := r.bits(8)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if r.pos+int(n)*8 > len(r.buf)*8 {
			return fmt.Errorf("%w: truncated byte string", ErrFlat)
		}
		r.pos += int(n) * 8
	}
}

// list 每个元素前有 1 比特，0 结束
func (r *bitReader) list(item func() error) error {
	for {
		more, err := r.bit()
		if err != nil {
			return err
		}
		if more == 0 {
			return nil
		}
		if err := item(); err != nil {
			return err
		}
	}
}

const (
	termVar = iota
	termDelay
	termLambda
	termApply
	termConstant
	termForce
	termError
	termBuiltin
	termConstr
	termCase
)

const (
	typeInteger = iota
	typeByteString
	typeString
	typeUnit
	typeBool
	typeList
	typePair
	typeApply
	typeData
)

type constType struct {
	tag  uint64
	args []constType
}

// skipTerm 跳过一个完整的项
func (r *bitReader) skipTerm() error {
	tag, err := r.bits(4)
	if err != nil {
		return err
	}
	switch tag {
	case termVar:
		return r.natural()
	case termDelay, termLambda, termForce:
		return r.skipTerm()
	case termApply:
		if err := r.skipTerm(); err != nil {
			return err
		}
		return r.skipTerm()
	case termConstant:
		return r.skipConstant()
	case termError:
		return nil
	case termBuiltin:
		_, err := r.bits(7)
		return err
	case termConstr:
		if err := r.natural(); err != nil {
			return err
		}
		return r.list(r.skipTerm)
	case termCase:
		if err := r.skipTerm(); err != nil {
			return err
		}
		return r.list(r.skipTerm)
	default:
		return fmt.Errorf("%w: unknown term tag %d", ErrFlat, tag)
	}
}

func (r *bitReader) skipConstant() error {
	var tags []uint64
	if err := r.list(func() error {
		t, err := r.bits(4)
		tags = append(tags, t)
		return err
	}); err != nil {
		return err
	}
	typ, rest, err := parseType(tags)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: trailing type tags", ErrFlat)
	}
	return r.skipValue(typ)
}

func parseType(tags []uint64) (constType, []uint64, error) {
	if len(tags) == 0 {
		return constType{}, nil, fmt.Errorf("%w: empty type", ErrFlat)
	}
	head, rest := tags[0], tags[1:]
	switch head {
	case typeInteger, typeByteString, typeString, typeUnit, typeBool, typeData:
		return constType{tag: head}, rest, nil
	case typeApply:
		if len(rest) == 0 {
			return constType{}, nil, fmt.Errorf("%w: dangling type application", ErrFlat)
		}
		switch {
		case rest[0] == typeList:
			elem, rest, err := parseType(rest[1:])
			if err != nil {
				return constType{}, nil, err
			}
			return constType{tag: typeList, args: []constType{elem}}, rest, nil
		case rest[0] == typeApply && len(rest) > 1 && rest[1] == typePair:
			a, rest, err := parseType(rest[2:])
			if err != nil {
				return constType{}, nil, err
			}
			b, rest, err := parseType(rest)
			if err != nil {
				return constType{}, nil, err
			}
			return constType{tag: typePair, args: []constType{a, b}}, rest, nil
		}
	}
	return constType{}, nil, fmt.Errorf("%w: unsupported constant type %d", ErrFlat, head)
}

func (r *bitReader) skipValue(t constType) error {
	switch t.tag {
	case typeInteger:
		return r.natural()
	case typeByteString, typeString, typeData:
		return r.byteString()
	case typeUnit:
		return nil
	case typeBool:
		_, err := r.bit()
		return err
	case typeList:
		return r.list(func() error { return r.skipValue(t.args[0]) })
	case typePair:
		if err := r.skipValue(t.args[0]); err != nil {
			return err
		}
		return r.skipValue(t.args[1])
	}
	return fmt.Errorf("%w: unsupported constant type %d", ErrFlat, t.tag)
}

type bitWriter struct {
	buf []byte
	n   int // 已写比特数
}

func (w *bitWriter) bit(b uint8) {
	if w.n%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if b != 0 {
		w.buf[len(w.buf)-1] |= 1 << (7 - uint(w.n%8))
	}
	w.n++
}

func (w *bitWriter) bits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.bit(uint8(v >> uint(i) & 1))
	}
}

func (w *bitWriter) copyBits(src []byte, from, to int) {
	for p := from; p < to; p++ {
		w.bit(src[p/8] >> (7 - uint(p%8)) & 1)
	}
}

func (w *bitWriter) filler() {
	for w.n%8 != 7 {
		w.bit(0)
	}
	w.bit(1)
}

func (w *bitWriter) byteString(b []byte) {
	w.filler()
	for len(b) > 0 {
		n := min(len(b), 255)
		w.buf = append(w.buf, byte(n))
		w.buf = append(w.buf, b[:n]...)
		w.n += (n + 1) * 8
		b = b[n:]
	}
	w.buf = append(w.buf, 0)
	w.n += 8
}

// applyFlat 把参数依次应用到 flat 程序的主体上
func applyFlat(program []byte, params []Data) ([]byte, error) {
	r := &bitReader{buf: program}
	for i := 0; i < 3; i++ {
		if err := r.natural(); err != nil {
			return nil, fmt.Errorf("%w: version: %v", ErrFlat, err)
		}
	}
	versionEnd := r.pos
	if err := r.skipTerm(); err != nil {
		return nil, err
	}
	termEnd := r.pos

	w := &bitWriter{}
	w.copyBits(program, 0, versionEnd)
	for range params {
		w.bits(termApply, 4)
	}
	w.copyBits(program, versionEnd, termEnd)
	for _, p := range params {
		cbor, err := Encode(p)
		if err != nil {
			return nil, err
		}
		w.bits(termConstant, 4)
		// 类型列表 [data]
		w.bit(1)
		w.bits(typeData, 4)
		w.bit(0)
		w.byteString(cbor)
	}
	w.filler()
	return w.buf, nil
}
