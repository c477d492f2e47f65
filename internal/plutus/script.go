package plutus

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/MiroslavRet/CF-RewardToken/internal/cardano"
)

// Language Plutus 语言版本
type Language int

const (
	PlutusV1 Language = iota + 1
	PlutusV2
	PlutusV3
)

// String 返回账本使用的名称
func (l Language) String() string {
	return fmt.Sprintf("PlutusV%d", int(l))
}

// ViewKey 语言在成本模型视图中的键
func (l Language) ViewKey() uint64 {
	return uint64(l) - 1
}

// Script 编译后的验证器，CBOR 为包了一层字节串的 flat 程序
type Script struct {
	Language Language `json:"language"`
	CBOR     []byte   `json:"cbor"`
}

// ErrNoScript 没有可用的验证器
var ErrNoScript = errors.New("validator script not configured")

// NewScriptFromHex 由蓝图中的 compiledCode 创建脚本；兼容双层包装
func NewScriptFromHex(lang Language, compiled string) (Script, error) {
	raw, err := hex.DecodeString(compiled)
	if err != nil {
		return Script{}, fmt.Errorf("decode compiled code: %w", err)
	}
	if len(raw) == 0 {
		return Script{}, ErrNoScript
	}
	// 双层包装时剥掉外层
	var inner []byte
	if err := decMode.Unmarshal(raw, &inner); err == nil {
		var innermost []byte
		if err := decMode.Unmarshal(inner, &innermost); err == nil {
			raw = inner
		}
	} else {
		return Script{}, fmt.Errorf("compiled code is not a cbor byte string: %w", err)
	}
	return Script{Language: lang, CBOR: raw}, nil
}

// Flat 返回未包装的 flat 程序
func (s Script) Flat() ([]byte, error) {
	var flat []byte
	if err := decMode.Unmarshal(s.CBOR, &flat); err != nil {
		return nil, fmt.Errorf("unwrap script: %w", err)
	}
	return flat, nil
}

// Hash 脚本哈希：blake2b-224(语言标签 || 脚本字节)
func (s Script) Hash() cardano.ScriptHash {
	tagged := append([]byte{byte(s.Language)}, s.CBOR...)
	return cardano.ScriptHash(hex.EncodeToString(cardano.Blake2b224(tagged)))
}

// Hex 返回十六进制 CBOR
func (s Script) Hex() string {
	return hex.EncodeToString(s.CBOR)
}

// IsZero 未设置脚本
func (s Script) IsZero() bool {
	return len(s.CBOR) == 0
}

// ApplyParams 将数据参数依次应用到验证器上，得到新的脚本
func ApplyParams(s Script, params ...Data) (Script, error) {
	flat, err := s.Flat()
	if err != nil {
		return Script{}, err
	}
	applied, err := applyFlat(flat, params)
	if err != nil {
		return Script{}, fmt.Errorf("apply params: %w", err)
	}
	wrapped, err := cbor.Marshal(applied)
	if err != nil {
		return Script{}, err
	}
	return Script{Language: s.Language, CBOR: wrapped}, nil
}

type blueprint struct {
	Preamble struct {
		PlutusVersion string `json:"plutusVersion"`
	} `json:"preamble"`
	Validators []struct {
		Title        string `json:"title"`
		CompiledCode string `json:"compiledCode"`
	} `json:"validators"`
}

// LoadBlueprint 从 plutus.json 中读取指定标题的验证器
func LoadBlueprint(path, title string) (Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read blueprint: %w", err)
	}
	var bp blueprint
	if err := json.Unmarshal(raw, &bp); err != nil {
		return Script{}, fmt.Errorf("parse blueprint: %w", err)
	}

	lang := PlutusV3
	switch bp.Preamble.PlutusVersion {
	case "v1":
		lang = PlutusV1
	case "v2":
		lang = PlutusV2
	}
	for _, v := range bp.Validators {
		if title == "" || v.Title == title {
			return NewScriptFromHex(lang, v.CompiledCode)
		}
	}
	return Script{}, fmt.Errorf("%w: no validator titled %q", ErrNoScript, title)
}
