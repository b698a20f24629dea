package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Store 推荐结果缓存接口，值为序列化后的字节
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key 使用SHA-256生成唯一键
func Key(parts ...string) string {
	hasher := sha256.New()
	for _, p := range parts {
		hasher.Write([]byte(p))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
