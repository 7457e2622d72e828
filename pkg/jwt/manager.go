package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// Claims 세션 토큰 페이로드
// Subject 는 외부 인증 공급자의 사용자 ID 이다.
type Claims struct {
	jwt.RegisteredClaims
	Email          string `json:"email,omitempty"`
	OrganizationID string `json:"org_id,omitempty"`
}

// ExternalUserID returns the identity provider subject
func (c *Claims) ExternalUserID() string {
	return c.Subject
}

// Manager 세션 토큰 검증/발급
type Manager struct {
	secretKey []byte
	issuer    string
}

// NewManager 생성자
func NewManager(secret, issuer string) *Manager {
	return &Manager{secretKey: []byte(secret), issuer: issuer}
}

// VerifyToken 토큰 서명/만료/발급자 검증
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateToken 토큰 발급 (개발용 시드/테스트에서 사용)
func (m *Manager) GenerateToken(externalUserID, email, orgID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   externalUserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:          email,
		OrganizationID: orgID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}
