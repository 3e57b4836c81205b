package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
)

// AccessTokenDuration 访问令牌有效期
const AccessTokenDuration = 24 * time.Hour

// JWTService JWT服务
type JWTService struct {
	secretKey []byte
}

// NewJWTService 创建JWT服务
func NewJWTService(secretKey string) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
	}
}

// GenerateToken 为用户生成签名的访问令牌（HS256，24小时过期）
func (j *JWTService) GenerateToken(userID int, email string) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(AccessTokenDuration)

	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		JTI:    uuid.New().String(),
		Exp:    expiresAt.Unix(),
		Iat:    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, expiresAt.Unix(), nil
}

// ValidateToken 验证令牌并返回声明
func (j *JWTService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	// 检查是否过期
	if time.Now().Unix() > claims.Exp {
		return nil, fmt.Errorf("token has expired")
	}

	return claims, nil
}

// DemoToken 生成演示模式令牌（数据库不可用时的降级登录）
func DemoToken() string {
	return fmt.Sprintf("demo-token-%d", time.Now().UnixMilli())
}

// IsDemoToken 判断是否为演示模式令牌
func IsDemoToken(tokenString string) bool {
	return strings.HasPrefix(tokenString, "demo-token-")
}
