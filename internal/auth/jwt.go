package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken 令牌无效
var ErrInvalidToken = errors.New("invalid token")

// JWTService JWT 令牌服务
type JWTService struct {
	secretKey []byte
	issuer    string
	expiry    time.Duration
	now       func() time.Time
}

// NewJWTService 创建 JWT 服务，默认有效期 2 小时
func NewJWTService(secretKey, issuer string) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		expiry:    2 * time.Hour,
		now:       time.Now,
	}
}

// TokenClaims JWT 声明
type TokenClaims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// GenerateToken 生成访问令牌
func (s *JWTService) GenerateToken(username string, roles []string) (string, error) {
	now := s.now()
	claims := &TokenClaims{
		Username: username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("签名令牌失败: %w", err)
	}
	return tokenString, nil
}

// ValidateToken 验证并解析 JWT 令牌
func (s *JWTService) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("无效的签名算法: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Principal 将声明转换为调用者
func (c *TokenClaims) Principal() *Principal {
	return &Principal{
		Username:      c.Username,
		Roles:         c.Roles,
		Authenticated: true,
	}
}

// ExtractTokenFromBearer 从 Bearer 令牌中提取纯令牌字符串
func ExtractTokenFromBearer(bearerToken string) string {
	const prefix = "Bearer "
	if len(bearerToken) > len(prefix) && strings.EqualFold(bearerToken[:len(prefix)], prefix) {
		return strings.TrimSpace(bearerToken[len(prefix):])
	}
	return strings.TrimSpace(bearerToken)
}

// Expiry 令牌有效期
func (s *JWTService) Expiry() time.Duration {
	return s.expiry
}
