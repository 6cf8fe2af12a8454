package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/fulfil-next/internal/config"
	"github.com/fulfil-next/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims 运营端令牌声明
type OperatorClaims struct {
	Operator string `json:"operator"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IsOperatorRole 判断是否为内置角色
func IsOperatorRole(role string) bool {
	switch role {
	case constants.OperatorRoleViewer, constants.OperatorRoleFulfillment, constants.OperatorRoleMarketing, constants.OperatorRoleOwner:
		return true
	}
	return false
}

// IssueOperatorToken 签发运营端令牌
func IssueOperatorToken(cfg config.JWTConfig, operator, role string) (string, time.Time, error) {
	operator = strings.TrimSpace(operator)
	role = strings.ToLower(strings.TrimSpace(role))
	if operator == "" || !IsOperatorRole(role) {
		return "", time.Time{}, ErrOperatorTokenInvalid
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty secret", ErrOperatorTokenInvalid)
	}
	hours := cfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := OperatorClaims{
		Operator: operator,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseOperatorToken 解析运营端令牌
func ParseOperatorToken(cfg config.JWTConfig, tokenString string) (*OperatorClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperatorTokenInvalid, err)
	}
	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid || !IsOperatorRole(claims.Role) {
		return nil, ErrOperatorTokenInvalid
	}
	return claims, nil
}
