package warfare

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

// MarshalSnapshot encodes ws as canonical JSON. encoding/json sorts map keys,
// so equal snapshots always produce equal bytes.
func MarshalSnapshot(ws *WorldState) ([]byte, error) {
	b, err := json.Marshal(ws)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return b, nil
}

// UnmarshalSnapshot decodes a snapshot written by MarshalSnapshot and
// restores empty maps so the result is ready for Step.
func UnmarshalSnapshot(b []byte) (*WorldState, error) {
	ws := NewWorldState(Date{}, 0)
	if err := json.Unmarshal(b, ws); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	ws.normalize()
	return ws, nil
}

func (ws *WorldState) normalize() {
	if ws.Countries == nil {
		ws.Countries = make(map[Tag]*Country)
	}
	if ws.Provinces == nil {
		ws.Provinces = make(map[ProvinceID]*ProvinceState)
	}
	if ws.Armies == nil {
		ws.Armies = make(map[ArmyID]*Army)
	}
	if ws.Fleets == nil {
		ws.Fleets = make(map[FleetID]*Fleet)
	}
	if ws.Generals == nil {
		ws.Generals = make(map[GeneralID]*Leader)
	}
	if ws.Admirals == nil {
		ws.Admirals = make(map[AdmiralID]*Leader)
	}
	if ws.Sieges == nil {
		ws.Sieges = make(map[ProvinceID]*Siege)
	}
	if ws.NavalBattles == nil {
		ws.NavalBattles = make(map[NavalBattleID]*NavalBattle)
	}
	if ws.Diplomacy.Wars == nil {
		ws.Diplomacy.Wars = make(map[WarID]*War)
	}
	if ws.Diplomacy.Truces == nil {
		ws.Diplomacy.Truces = make(map[string]Truce)
	}
	if ws.Diplomacy.MilitaryAccess == nil {
		ws.Diplomacy.MilitaryAccess = make(map[string]bool)
	}
}

// Checksum returns the hex blake3 digest of the canonical encoding. Two runs
// with the same seed and inputs produce the same checksum every tick.
func Checksum(ws *WorldState) (string, error) {
	b, err := MarshalSnapshot(ws)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// CompressSnapshot returns the lz4-framed canonical encoding of ws.
func CompressSnapshot(ws *WorldState) ([]byte, error) {
	raw, err := MarshalSnapshot(ws)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressSnapshot reverses CompressSnapshot.
func DecompressSnapshot(b []byte) (*WorldState, error) {
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(b)))
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return UnmarshalSnapshot(raw)
}
