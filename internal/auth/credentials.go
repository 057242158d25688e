package auth

import (
	"time"

	"procureflow-data/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims 令牌载荷（只携带用户 ID，会话用户每次请求时重新加载）
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// CredentialVerifier 凭证校验能力
// hash/verify 口令摘要；issue/validate 访问令牌
type CredentialVerifier interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	Issue(userID string) (string, error)
	Validate(token string) (*Claims, error)
}

// verifier bcrypt + HS256 JWT 实现
type verifier struct {
	secret   []byte
	validity time.Duration
}

// NewVerifier 创建 CredentialVerifier 实例
func NewVerifier(secret string, validity time.Duration) CredentialVerifier {
	return &verifier{secret: []byte(secret), validity: validity}
}

const bcryptCost = 8

func (v *verifier) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (v *verifier) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

func (v *verifier) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.validity)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *verifier) Validate(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.New(apperr.KindUnauthorized, "unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "invalid or expired token", err)
	}
	return &claims, nil
}
