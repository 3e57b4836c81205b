package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword 生成密码的bcrypt哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword 校验密码。优先按bcrypt比较；
// 存量行和自动补建的占位用户存的是明文，回退到明文相等比较。
func CheckPassword(stored, provided string) bool {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(provided)); err == nil {
		return true
	}
	return stored != "" && stored == provided
}
