package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

// Seat identifies the country a token holder plays in one campaign.
type Seat struct {
	CampaignID string `json:"campaign_id"`
	Country    string `json:"country"`
}

// Claims holds the JWT payload.
type Claims struct {
	Seat
	jwt.RegisteredClaims
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret []byte
	expiry time.Duration
}

// NewJWTManager creates a JWTManager with the given secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		expiry: 24 * time.Hour,
	}
}

// Token holds a signed seat token.
type Token struct {
	AccessToken string `json:"access_token"`
	CampaignID  string `json:"campaign_id"`
	Country     string `json:"country"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// GenerateToken creates a token that lets its holder act as country in
// the given campaign.
func (m *JWTManager) GenerateToken(seat Seat) (*Token, error) {
	now := time.Now()
	claims := &Claims{
		Seat: seat,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   seat.CampaignID + "/" + seat.Country,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}
	return &Token{
		AccessToken: signed,
		CampaignID:  seat.CampaignID,
		Country:     seat.Country,
		ExpiresIn:   int(m.expiry.Seconds()),
	}, nil
}

// ValidateToken parses and validates a JWT string, returning the claims.
func (m *JWTManager) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.CampaignID == "" || claims.Country == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
