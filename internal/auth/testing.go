package auth

import "context"

// SetSeatForTest injects a seat into the context for testing purposes.
func SetSeatForTest(ctx context.Context, seat Seat) context.Context {
	return context.WithValue(ctx, seatKey, seat)
}
