package cardano

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Blake2b224 计算 28 字节摘要，用于密钥哈希与脚本哈希
func Blake2b224(data []byte) []byte {
	h, err := blake2b.New(28, nil)
	if err != nil {
		panic(err)
	}
	h.Write(data)
	return h.Sum(nil)
}

// Blake2b256 计算 32 字节摘要，用于交易体与辅助数据
func Blake2b256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// KeyHash 公钥哈希（十六进制）
type KeyHash string

// KeyHashFromPublicKey 由 ed25519 公钥计算密钥哈希
func KeyHashFromPublicKey(pub []byte) KeyHash {
	return KeyHash(hex.EncodeToString(Blake2b224(pub)))
}

// Bytes 解码为字节
func (k KeyHash) Bytes() ([]byte, error) {
	return hex.DecodeString(string(k))
}

// ScriptHash 脚本哈希（十六进制）
type ScriptHash string

// PolicyID 铸币策略 id 与脚本哈希相同
func (s ScriptHash) PolicyID() PolicyID {
	return PolicyID(s)
}
