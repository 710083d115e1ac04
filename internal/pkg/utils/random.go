package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateAuthKey 生成 256 位随机值并以十六进制编码，作为分享链接的 authKey
// 结果固定为 64 个十六进制字符
func GenerateAuthKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random auth key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
