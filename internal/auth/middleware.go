package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const seatKey contextKey = "seat"

var (
	// ErrNoSeat means the request carried no valid seat token.
	ErrNoSeat = errors.New("missing seat")
	// ErrForeignCampaign means the seat belongs to a different campaign.
	ErrForeignCampaign = errors.New("token is for another campaign")

	errMissingHeader = errors.New("missing authorization header")
	errBadFormat     = errors.New("invalid authorization format")
	errBadToken      = errors.New("invalid or expired token")
)

// bearerToken returns the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errBadFormat
	}
	return token, nil
}

// SeatFromRequest validates the bearer header or, for WebSocket upgrades
// which cannot set headers, the token query parameter.
func SeatFromRequest(jwtMgr *JWTManager, r *http.Request) (Seat, error) {
	token, err := bearerToken(r)
	if errors.Is(err, errMissingHeader) {
		token = r.URL.Query().Get("token")
		if token == "" {
			return Seat{}, ErrNoSeat
		}
	} else if err != nil {
		return Seat{}, err
	}
	claims, err := jwtMgr.ValidateToken(token)
	if err != nil {
		return Seat{}, errBadToken
	}
	return claims.Seat, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// token's seat in the request context.
func Middleware(jwtMgr *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeUnauthorized(w, err)
				return
			}
			claims, err := jwtMgr.ValidateToken(token)
			if err != nil {
				writeUnauthorized(w, errBadToken)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), seatKey, claims.Seat)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusUnauthorized)
}

// SeatFromContext extracts the authenticated seat from the request context.
func SeatFromContext(ctx context.Context) (Seat, bool) {
	s, ok := ctx.Value(seatKey).(Seat)
	return s, ok
}

// SeatForCampaign returns the context's seat if it sits in campaignID.
func SeatForCampaign(ctx context.Context, campaignID string) (Seat, error) {
	seat, ok := SeatFromContext(ctx)
	if !ok {
		return Seat{}, ErrNoSeat
	}
	if seat.CampaignID != campaignID {
		return Seat{}, ErrForeignCampaign
	}
	return seat, nil
}
