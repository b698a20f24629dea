package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const issuer = "skillsync"

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("invalid token")

// Claims JWT声明
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTManager 签发和校验JWT令牌
type JWTManager struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewJWTManager 创建令牌管理器，expiresIn 单位为小时
func NewJWTManager(secret string, expiresIn int) *JWTManager {
	if expiresIn <= 0 {
		expiresIn = 24
	}
	return &JWTManager{
		secret:     []byte(secret),
		expiration: time.Duration(expiresIn) * time.Hour,
		now:        time.Now,
	}
}

// GenerateToken 生成JWT令牌
func (m *JWTManager) GenerateToken(userID uint) (string, error) {
	nowTime := m.now()
	expireTime := nowTime.Add(m.expiration)

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expireTime),
			IssuedAt:  jwt.NewNumericDate(nowTime),
			Issuer:    issuer,
		},
	}

	tokenClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenClaims.SignedString(m.secret)
}

// ParseToken 解析JWT令牌
func (m *JWTManager) ParseToken(token string) (*Claims, error) {
	tokenClaims, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := tokenClaims.Claims.(*Claims); ok && tokenClaims.Valid && claims.Issuer == issuer && claims.UserID != 0 {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
