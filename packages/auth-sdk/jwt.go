package authsdk

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrNoToken      = errors.New("no token provided")
)

// 令牌用途，防止重置密码令牌被当作访问令牌使用
const (
	PurposeAccess = "access"
	PurposeReset  = "reset"
)

// Claims JWT 自定义声明
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	Purpose  string `json:"purpose"`
	jwt.RegisteredClaims
}

// UserContext 用户上下文信息
type UserContext struct {
	UserID   uint
	Username string
	IsAdmin  bool
}

// IsAuthenticated 未登录时 UserID 为 0
func (u *UserContext) IsAuthenticated() bool {
	return u != nil && u.UserID != 0
}

// GenerateToken 签发访问令牌
func GenerateToken(user UserContext, secret string, ttl time.Duration) (string, error) {
	return sign(&Claims{
		UserID:   user.UserID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		Purpose:  PurposeAccess,
	}, secret, ttl)
}

// GenerateResetToken 签发重置密码令牌
func GenerateResetToken(userID uint, secret string, ttl time.Duration) (string, error) {
	return sign(&Claims{UserID: userID, Purpose: PurposeReset}, secret, ttl)
}

func sign(claims *Claims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken 解析并验证访问令牌
// secret: JWT 签名密钥
func ParseToken(tokenString, secret string) (*UserContext, error) {
	claims, err := parse(tokenString, secret, PurposeAccess)
	if err != nil {
		return nil, err
	}
	return &UserContext{
		UserID:   claims.UserID,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}, nil
}

// ParseResetToken 解析重置密码令牌，返回用户ID
func ParseResetToken(tokenString, secret string) (uint, error) {
	claims, err := parse(tokenString, secret, PurposeReset)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func parse(tokenString, secret, purpose string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
