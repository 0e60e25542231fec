package warfare

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// EventType names a record in the event log.
type EventType string

const (
	EventWarDeclared          EventType = "war_declared"
	EventPeaceWhite           EventType = "peace_white"
	EventPeaceProvinces       EventType = "peace_provinces"
	EventPeaceAnnexation      EventType = "peace_annexation"
	EventWarDissolved         EventType = "war_dissolved"
	EventCountryEliminated    EventType = "country_eliminated"
	EventProvinceOwnerChanged EventType = "province_owner_changed"
	EventSiegeCompleted       EventType = "siege_completed"
	EventNavalBattleStarted   EventType = "naval_battle_started"
	EventNavalBattleEnded     EventType = "naval_battle_ended"
)

// Event is one line of the event log. Only fields relevant to Type are set.
type Event struct {
	Type           EventType     `json:"type"`
	Tick           int           `json:"tick"`
	Date           Date          `json:"date"`
	WarID          WarID         `json:"war_id,omitempty"`
	WarName        string        `json:"war_name,omitempty"`
	Attackers      []Tag         `json:"attackers,omitempty"`
	Defenders      []Tag         `json:"defenders,omitempty"`
	AttackerScore  int           `json:"attacker_score,omitempty"`
	DefenderScore  int           `json:"defender_score,omitempty"`
	Provinces      []ProvinceID  `json:"provinces,omitempty"`
	Province       ProvinceID    `json:"province,omitempty"`
	FromTag        Tag           `json:"from_tag,omitempty"`
	ToTag          Tag           `json:"to_tag,omitempty"`
	AnnexedTag     Tag           `json:"annexed_tag,omitempty"`
	AnnexerTag     Tag           `json:"annexer_tag,omitempty"`
	BattleID       NavalBattleID `json:"battle_id,omitempty"`
	Result         BattleResult  `json:"result,omitempty"`
	AttackerLosses int           `json:"attacker_losses,omitempty"`
	DefenderLosses int           `json:"defender_losses,omitempty"`
}

// DiffEvents derives the events that turned prev into next.
func DiffEvents(prev, next *WorldState) []Event {
	base := Event{Tick: next.Tick(), Date: next.Date}
	var out []Event
	emit := func(e Event) {
		e.Tick, e.Date = base.Tick, base.Date
		out = append(out, e)
	}

	for _, id := range sortedKeys(next.Diplomacy.Wars) {
		if _, ok := prev.Diplomacy.Wars[id]; ok {
			continue
		}
		w := next.Diplomacy.Wars[id]
		emit(Event{Type: EventWarDeclared, WarID: id, WarName: w.Name,
			Attackers: slices.Clone(w.Attackers), Defenders: slices.Clone(w.Defenders)})
	}

	for _, id := range sortedKeys(prev.Diplomacy.Wars) {
		if _, ok := next.Diplomacy.Wars[id]; ok {
			continue
		}
		emit(peaceEvent(prev, next, prev.Diplomacy.Wars[id]))
	}

	for _, tag := range sortedKeys(prev.Countries) {
		if !next.CountryExists(tag) {
			emit(Event{Type: EventCountryEliminated, FromTag: tag})
		}
	}

	for _, id := range sortedKeys(next.Provinces) {
		before, after := prev.Provinces[id], next.Provinces[id]
		if before == nil {
			continue
		}
		if before.Owner != after.Owner {
			emit(Event{Type: EventProvinceOwnerChanged, Province: id, FromTag: before.Owner, ToTag: after.Owner})
		}
		if s := prev.Sieges[id]; s != nil && next.Sieges[id] == nil && after.Controller == s.Attacker && before.Controller != s.Attacker {
			emit(Event{Type: EventSiegeCompleted, Province: id, FromTag: s.Defender, ToTag: s.Attacker})
		}
	}

	started := make([]*NavalBattle, 0, len(next.NavalBattles))
	for _, id := range sortedKeys(next.NavalBattles) {
		started = append(started, next.NavalBattles[id])
	}
	for i := range next.FinishedBattles {
		started = append(started, &next.FinishedBattles[i])
	}
	slices.SortFunc(started, func(a, b *NavalBattle) int { return int(a.ID - b.ID) })
	for _, b := range started {
		if _, ok := prev.NavalBattles[b.ID]; ok {
			continue
		}
		emit(Event{Type: EventNavalBattleStarted, BattleID: b.ID, Province: b.SeaZone,
			FromTag: b.AttackerTag, ToTag: b.DefenderTag})
	}
	for _, b := range next.FinishedBattles {
		e := Event{Type: EventNavalBattleEnded, BattleID: b.ID, Province: b.SeaZone,
			FromTag: b.AttackerTag, ToTag: b.DefenderTag,
			AttackerLosses: b.AttackerLosses, DefenderLosses: b.DefenderLosses}
		if b.Result != nil {
			e.Result = *b.Result
		}
		emit(e)
	}
	return out
}

// peaceEvent classifies how a war that disappeared between prev and next
// ended. A war left without a side after an elimination elsewhere signs no
// truce and is reported as dissolved, naming the vanished participant.
func peaceEvent(prev, next *WorldState, w *War) Event {
	e := Event{WarID: w.ID, WarName: w.Name, Attackers: slices.Clone(w.Attackers), Defenders: slices.Clone(w.Defenders),
		AttackerScore: w.AttackerScore, DefenderScore: w.DefenderScore}
	participants := slices.Concat(w.Attackers, w.Defenders)
	if !truceSigned(prev, next, w) {
		e.Type = EventWarDissolved
		for _, tag := range participants {
			if !next.CountryExists(tag) {
				e.FromTag = tag
				break
			}
		}
		return e
	}
	for _, tag := range participants {
		if next.CountryExists(tag) {
			continue
		}
		e.Type = EventPeaceAnnexation
		e.AnnexedTag = tag
		for _, id := range prev.ProvincesOwnedBy(tag) {
			if p := next.Provinces[id]; p != nil && p.Owner != tag {
				e.AnnexerTag = p.Owner
				break
			}
		}
		return e
	}
	for _, id := range sortedKeys(prev.Provinces) {
		before, after := prev.Provinces[id], next.Provinces[id]
		if after == nil || before.Owner == after.Owner {
			continue
		}
		if w.Opposed(before.Owner, after.Owner) {
			e.Provinces = append(e.Provinces, id)
			e.FromTag, e.ToTag = before.Owner, after.Owner
		}
	}
	if len(e.Provinces) > 0 {
		e.Type = EventPeaceProvinces
		return e
	}
	e.Type = EventPeaceWhite
	return e
}

// truceSigned reports whether any attacker and defender of w gained a new
// truce between prev and next.
func truceSigned(prev, next *WorldState, w *War) bool {
	for _, a := range w.Attackers {
		for _, b := range w.Defenders {
			k := truceKey(a, b)
			if t, ok := next.Diplomacy.Truces[k]; ok && t != prev.Diplomacy.Truces[k] {
				return true
			}
		}
	}
	return false
}

// WriteNDJSON writes one JSON object per event, newline separated.
func WriteNDJSON(w io.Writer, events []Event) error {
	enc := json.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode %s event: %w", e.Type, err)
		}
	}
	return nil
}
