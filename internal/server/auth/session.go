// Package auth issues and reads the signed session tokens carried in the
// session cookie.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
)

// Session identifies the principal of a request. The zero value is the
// anonymous session. AccountID pins the session to the account it was
// issued for, so a later account reusing the username does not inherit it.
type Session struct {
	Principal string
	AccountID int64
}

func Anonymous() Session { return Session{} }

func (s Session) Authenticated() bool { return s.Principal != "" }

// Claims carries the username both as subject and as its own field.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	AccountID int64  `json:"uid"`
}

type SessionManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewSessionManager(secretKey []byte, ttl time.Duration) *SessionManager {
	return &SessionManager{secretKey: secretKey, ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens; the HTTP layer uses it for the
// cookie max-age.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Establish issues a token authenticating the account.
func (m *SessionManager) Establish(account *models.Account) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username:  account.Username,
		AccountID: account.ID,
	})

	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Parse validates the token and returns its session. Expired tokens report
// common.ErrTokenExpired, any other defect common.ErrInvalidToken.
func (m *SessionManager) Parse(tokenString string) (Session, error) {
	if tokenString == "" {
		return Anonymous(), common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Anonymous(), common.ErrTokenExpired
		}
		return Anonymous(), common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" || claims.Subject != claims.Username {
		return Anonymous(), common.ErrInvalidToken
	}

	return Session{Principal: claims.Subject, AccountID: claims.AccountID}, nil
}

// Current never fails: every unusable token yields the anonymous session.
func (m *SessionManager) Current(tokenString string) Session {
	s, err := m.Parse(tokenString)
	if err != nil {
		return Anonymous()
	}
	return s
}

func (m *SessionManager) Clear() Session {
	return Anonymous()
}
