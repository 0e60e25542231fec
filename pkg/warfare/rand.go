package warfare

// RandomU64 advances the snapshot-owned xorshift64 stream and returns the
// next value. A zero state is bumped to 1 so the stream never sticks.
func (ws *WorldState) RandomU64() uint64 {
	x := ws.RNG
	if x == 0 {
		x = 1
	}
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	ws.RNG = x
	return x
}

// rollDie returns a value in [0, n).
func (ws *WorldState) rollDie(n int) int {
	if n <= 0 {
		return 0
	}
	return int(ws.RandomU64() % uint64(n))
}
