package plutus

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

const (
	majorUint   = 0
	majorNegInt = 1
	majorBytes  = 2
	majorArray  = 4
	majorMap    = 5
	majorTag    = 6

	tagPosBignum   = 2
	tagNegBignum   = 3
	tagConstrAlt   = 102
	tagConstrShort = 121
	tagConstrLong  = 1280

	bytesChunk = 64

	indefinite = 31
	breakByte  = 0xff
)

// ErrMalformed 无法解码为 Plutus 数据
var ErrMalformed = errors.New("malformed plutus data")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{BigIntConvert: cbor.BigIntConvertShortest}.EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{MaxNestedLevels: 256}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Encode 编码为 CBOR；非空列表使用不定长数组，超过 64 字节的字节串分块
func Encode(d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeTo(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeHex 编码为十六进制 CBOR
func EncodeHex(d Data) (string, error) {
	b, err := Encode(d)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MustEncode 编码失败时 panic，仅用于常量数据
func MustEncode(d Data) []byte {
	b, err := Encode(d)
	if err != nil {
		panic(err)
	}
	return b
}

func encodeTo(buf *bytes.Buffer, d Data) error {
	switch v := d.(type) {
	case Constr:
		switch {
		case v.Index < 7:
			writeHeader(buf, majorTag, tagConstrShort+v.Index)
		case v.Index < 128:
			writeHeader(buf, majorTag, tagConstrLong+v.Index-7)
		default:
			writeHeader(buf, majorTag, tagConstrAlt)
			writeHeader(buf, majorArray, 2)
			writeHeader(buf, majorUint, v.Index)
		}
		return encodeList(buf, v.Fields)
	case Int:
		if v.Value == nil {
			return fmt.Errorf("%w: nil integer", ErrMalformed)
		}
		b, err := encMode.Marshal(v.Value)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Bytes:
		if len(v) <= bytesChunk {
			writeHeader(buf, majorBytes, uint64(len(v)))
			buf.Write(v)
			return nil
		}
		buf.WriteByte(majorBytes<<5 | indefinite)
		for i := 0; i < len(v); i += bytesChunk {
			end := min(i+bytesChunk, len(v))
			writeHeader(buf, majorBytes, uint64(end-i))
			buf.Write(v[i:end])
		}
		buf.WriteByte(breakByte)
	case List:
		return encodeList(buf, v)
	case Map:
		writeHeader(buf, majorMap, uint64(len(v)))
		for _, p := range v {
			if err := encodeTo(buf, p.Key); err != nil {
				return err
			}
			if err := encodeTo(buf, p.Value); err != nil {
				return err
			}
		}
	case nil:
		return fmt.Errorf("%w: nil value", ErrMalformed)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrMalformed, d)
	}
	return nil
}

func encodeList(buf *bytes.Buffer, items []Data) error {
	if len(items) == 0 {
		writeHeader(buf, majorArray, 0)
		return nil
	}
	buf.WriteByte(majorArray<<5 | indefinite)
	for _, item := range items {
		if err := encodeTo(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(breakByte)
	return nil
}

func writeHeader(buf *bytes.Buffer, major byte, n uint64) {
	m := major << 5
	switch {
	case n < 24:
		buf.WriteByte(m | byte(n))
	case n <= 0xff:
		buf.Write([]byte{m | 24, byte(n)})
	case n <= 0xffff:
		buf.Write([]byte{m | 25, byte(n >> 8), byte(n)})
	case n <= 0xffffffff:
		buf.Write([]byte{m | 26, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	default:
		buf.WriteByte(m | 27)
		for s := 56; s >= 0; s -= 8 {
			buf.WriteByte(byte(n >> uint(s)))
		}
	}
}

// Decode 解码 CBOR 为 Plutus 数据
func Decode(b []byte) (Data, error) {
	if err := decMode.Wellformed(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decodeItem(b)
}

// DecodeHex 解码十六进制 CBOR
func DecodeHex(s string) (Data, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Decode(b)
}

func decodeItem(raw []byte) (Data, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	switch raw[0] >> 5 {
	case majorUint, majorNegInt:
		var n big.Int
		if err := decMode.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Int{Value: &n}, nil
	case majorBytes:
		var bs []byte
		if err := decMode.Unmarshal(raw, &bs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if bs == nil {
			bs = []byte{}
		}
		return Bytes(bs), nil
	case majorArray:
		items, err := decodeArray(raw)
		if err != nil {
			return nil, err
		}
		return List(items), nil
	case majorMap:
		return decodeMap(raw)
	case majorTag:
		return decodeTag(raw)
	default:
		return nil, fmt.Errorf("%w: unexpected major type %d", ErrMalformed, raw[0]>>5)
	}
}

func decodeArray(raw []byte) ([]Data, error) {
	var parts []cbor.RawMessage
	if err := decMode.Unmarshal(raw, &parts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	items := make([]Data, 0, len(parts))
	for _, p := range parts {
		item, err := decodeItem(p)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeMap(raw []byte) (Data, error) {
	body, count, err := splitHeader(raw)
	if err != nil {
		return nil, err
	}
	dec := decMode.NewDecoder(bytes.NewReader(body))
	var out Map
	for i := 0; count < 0 || i < count; i++ {
		if count < 0 && dec.NumBytesRead() < len(body) && body[dec.NumBytesRead()] == breakByte {
			break
		}
		var k, v cbor.RawMessage
		if err := dec.Decode(&k); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, err := decodeItem(k)
		if err != nil {
			return nil, err
		}
		val, err := decodeItem(v)
		if err != nil {
			return nil, err
		}
		out = append(out, Pair{Key: key, Value: val})
	}
	if out == nil {
		out = Map{}
	}
	return out, nil
}

// splitHeader 去掉条目头部，返回内容与长度（不定长为 -1）
func splitHeader(raw []byte) ([]byte, int, error) {
	info := raw[0] & 0x1f
	switch {
	case info < 24:
		return raw[1:], int(info), nil
	case info == indefinite:
		return raw[1:], -1, nil
	case info <= 27:
		size := 1 << (info - 24)
		if len(raw) < 1+size {
			return nil, 0, fmt.Errorf("%w: truncated header", ErrMalformed)
		}
		var n uint64
		for _, b := range raw[1 : 1+size] {
			n = n<<8 | uint64(b)
		}
		return raw[1+size:], int(n), nil
	default:
		return nil, 0, fmt.Errorf("%w: invalid additional info %d", ErrMalformed, info)
	}
}

func decodeTag(raw []byte) (Data, error) {
	var tag cbor.RawTag
	if err := decMode.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch {
	case tag.Number == tagPosBignum || tag.Number == tagNegBignum:
		var n big.Int
		if err := decMode.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Int{Value: &n}, nil
	case tag.Number >= tagConstrShort && tag.Number < tagConstrShort+7:
		return decodeConstr(tag.Number-tagConstrShort, tag.Content)
	case tag.Number >= tagConstrLong && tag.Number < tagConstrLong+121:
		return decodeConstr(tag.Number-tagConstrLong+7, tag.Content)
	case tag.Number == tagConstrAlt:
		var parts []cbor.RawMessage
		if err := decMode.Unmarshal(tag.Content, &parts); err != nil || len(parts) != 2 {
			return nil, fmt.Errorf("%w: bad alternative constructor", ErrMalformed)
		}
		var idx uint64
		if err := decMode.Unmarshal(parts[0], &idx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return decodeConstr(idx, parts[1])
	default:
		return nil, fmt.Errorf("%w: unexpected tag %d", ErrMalformed, tag.Number)
	}
}

func decodeConstr(index uint64, content []byte) (Data, error) {
	if len(content) == 0 || content[0]>>5 != majorArray {
		return nil, fmt.Errorf("%w: constructor fields must be an array", ErrMalformed)
	}
	fields, err := decodeArray(content)
	if err != nil {
		return nil, err
	}
	return Constr{Index: index, Fields: fields}, nil
}
