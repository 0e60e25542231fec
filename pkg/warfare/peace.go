package warfare

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

// PeaceCost returns the war score the demanding side must hold to offer
// terms against enemies. Province transfers cost half the province's
// development (rounded up) each, capped at the annexation cost.
func PeaceCost(ws *WorldState, terms PeaceTerms, d *Defines) int {
	d = orDefault(d)
	switch terms.Kind {
	case TakeProvinces:
		cost := 0
		for _, id := range terms.Provinces {
			if p := ws.Provinces[id]; p != nil {
				cost += int(p.Development().DivInt(2).Ceil())
			}
		}
		return min(cost, d.AnnexationCost)
	case FullAnnexation:
		return d.AnnexationCost
	}
	return 0
}

func validateOfferPeace(ws *WorldState, offerer Tag, warID WarID, terms PeaceTerms, d *Defines) error {
	if err := checkDiplomaticCooldown(ws, offerer); err != nil {
		return err
	}
	w := ws.Diplomacy.War(warID)
	if w == nil {
		return &ActionError{Kind: KindWarNotFound, Country: offerer, WarID: warID}
	}
	side, ok := w.SideOf(offerer)
	if !ok {
		return &ActionError{Kind: KindNotWarParticipant, Country: offerer, WarID: warID}
	}
	if c := ws.Countries[offerer]; c != nil {
		if until, ok := c.PeaceOfferCooldowns[warID]; ok && until.After(ws.Date) {
			return &ActionError{Kind: KindPeaceOfferOnCooldown, Country: offerer, WarID: warID, Expires: until}
		}
	}
	switch terms.Kind {
	case WhitePeace, FullAnnexation:
	case TakeProvinces:
		if len(terms.Provinces) == 0 {
			return &ActionError{Kind: KindInvalidPeaceTerms, Country: offerer, WarID: warID, Detail: "no provinces listed"}
		}
		enemies := w.Members(side.Opposite())
		for _, id := range terms.Provinces {
			p := ws.Provinces[id]
			if p == nil || !slices.Contains(enemies, p.Owner) {
				return &ActionError{Kind: KindInvalidPeaceTerms, Country: offerer, WarID: warID, Province: id,
					Detail: fmt.Sprintf("province %d is not held by the enemy side", id)}
			}
		}
	default:
		return &ActionError{Kind: KindInvalidPeaceTerms, Country: offerer, WarID: warID, Detail: string(terms.Kind)}
	}
	cost := PeaceCost(ws, terms, d)
	if score := w.Score(side); cost > score {
		return &ActionError{Kind: KindInsufficientWarScore, Country: offerer, WarID: warID, Required: cost, Available: score}
	}
	return nil
}

// OfferPeace records a peace offer from offerer. The terms favor the
// offering side and must be affordable with its war score.
func OfferPeace(ws *WorldState, offerer Tag, warID WarID, terms PeaceTerms, d *Defines) error {
	d = orDefault(d)
	if err := validateOfferPeace(ws, offerer, warID, terms, d); err != nil {
		return err
	}
	w := ws.Diplomacy.War(warID)
	side, _ := w.SideOf(offerer)
	terms.Provinces = slices.Clone(terms.Provinces)
	w.PendingPeace = &PendingPeace{
		FromAttacker: side == SideAttacker,
		Offerer:      offerer,
		Terms:        terms,
		OfferedOn:    ws.Date,
	}
	markDiplomaticAction(ws, offerer)
	return nil
}

func validateAcceptPeace(ws *WorldState, acceptor Tag, warID WarID) error {
	w := ws.Diplomacy.War(warID)
	if w == nil {
		return &ActionError{Kind: KindWarNotFound, Country: acceptor, WarID: warID}
	}
	if w.PendingPeace == nil {
		return &ActionError{Kind: KindNoPendingPeace, Country: acceptor, WarID: warID}
	}
	side, ok := w.SideOf(acceptor)
	if !ok {
		return &ActionError{Kind: KindNotWarParticipant, Country: acceptor, WarID: warID}
	}
	offerSide := SideDefender
	if w.PendingPeace.FromAttacker {
		offerSide = SideAttacker
	}
	if side == offerSide {
		return &ActionError{Kind: KindCannotAcceptOwnOffer, Country: acceptor, WarID: warID}
	}
	return nil
}

// AcceptPeace executes the pending offer and ends the war.
func AcceptPeace(ws *WorldState, acceptor Tag, warID WarID, d *Defines) error {
	d = orDefault(d)
	if err := validateAcceptPeace(ws, acceptor, warID); err != nil {
		return err
	}
	w := ws.Diplomacy.War(warID)
	p := w.PendingPeace
	winner := SideDefender
	if p.FromAttacker {
		winner = SideAttacker
	}
	concludePeace(ws, w, winner, p.Terms, d)
	return nil
}

// RejectPeace discards the pending offer and puts the offerer on cooldown.
func RejectPeace(ws *WorldState, rejecter Tag, warID WarID, d *Defines) error {
	d = orDefault(d)
	if err := validateAcceptPeace(ws, rejecter, warID); err != nil {
		return err
	}
	w := ws.Diplomacy.War(warID)
	if c := ws.Countries[w.PendingPeace.Offerer]; c != nil {
		if c.PeaceOfferCooldowns == nil {
			c.PeaceOfferCooldowns = make(map[WarID]Date)
		}
		c.PeaceOfferCooldowns[warID] = ws.Date.AddDays(d.PeaceOfferCooldownDays)
	}
	w.PendingPeace = nil
	return nil
}

// concludePeace applies terms in favor of winner, reverts occupations between
// the war's participants, creates truces and removes the war.
func concludePeace(ws *WorldState, w *War, winner Side, terms PeaceTerms, d *Defines) {
	gainer := w.Leader(winner)
	losers := slices.Clone(w.Members(winner.Opposite()))
	attackers, defenders := slices.Clone(w.Attackers), slices.Clone(w.Defenders)

	switch terms.Kind {
	case TakeProvinces:
		for _, id := range terms.Provinces {
			if p := ws.Provinces[id]; p != nil && slices.Contains(losers, p.Owner) {
				p.Owner, p.Controller = gainer, gainer
			}
		}
	case FullAnnexation:
		for _, id := range sortedKeys(ws.Provinces) {
			if p := ws.Provinces[id]; slices.Contains(losers, p.Owner) {
				p.Owner, p.Controller = gainer, gainer
			}
		}
	}

	restoreControllers(ws, append(slices.Clone(attackers), defenders...))
	for _, a := range attackers {
		for _, b := range defenders {
			ws.Diplomacy.CreateTruce(a, b, ws.Date.AddYears(d.TruceYears))
		}
	}
	for _, c := range w.Members(SideAttacker) {
		if cc := ws.Countries[c]; cc != nil {
			delete(cc.PeaceOfferCooldowns, w.ID)
		}
	}
	for _, c := range w.Members(SideDefender) {
		if cc := ws.Countries[c]; cc != nil {
			delete(cc.PeaceOfferCooldowns, w.ID)
		}
	}
	ws.Diplomacy.RemoveWar(w.ID)

	if terms.Kind == FullAnnexation {
		for _, tag := range losers {
			eliminateCountry(ws, tag)
		}
	}
	log.Debug().Int("warId", int(w.ID)).Str("terms", string(terms.Kind)).Str("winner", string(gainer)).
		Msg("Peace concluded")
}

// restoreControllers hands back every province owned by one of tags and
// controlled by another of tags.
func restoreControllers(ws *WorldState, tags []Tag) {
	for _, id := range sortedKeys(ws.Provinces) {
		p := ws.Provinces[id]
		if p.Controller != p.Owner && slices.Contains(tags, p.Owner) && slices.Contains(tags, p.Controller) {
			p.Controller = p.Owner
		}
	}
}

// eliminateCountry removes tag and everything it owns from the world.
func eliminateCountry(ws *WorldState, tag Tag) {
	for _, id := range sortedKeys(ws.Armies) {
		if ws.Armies[id].Owner == tag {
			delete(ws.Armies, id)
		}
	}
	for _, id := range sortedKeys(ws.Fleets) {
		if f := ws.Fleets[id]; f.Owner == tag {
			if f.InBattle != nil {
				if b := ws.NavalBattles[*f.InBattle]; b != nil {
					b.Attackers = slices.DeleteFunc(b.Attackers, func(x FleetID) bool { return x == id })
					b.Defenders = slices.DeleteFunc(b.Defenders, func(x FleetID) bool { return x == id })
				}
			}
			delete(ws.Fleets, id)
		}
	}
	for _, id := range sortedKeys(ws.Generals) {
		if ws.Generals[id].Owner == tag {
			delete(ws.Generals, id)
		}
	}
	for _, id := range sortedKeys(ws.Admirals) {
		if ws.Admirals[id].Owner == tag {
			delete(ws.Admirals, id)
		}
	}
	for _, id := range sortedKeys(ws.Sieges) {
		s := ws.Sieges[id]
		if s.Attacker == tag || s.Defender == tag {
			delete(ws.Sieges, id)
		}
	}
	for _, id := range sortedKeys(ws.Provinces) {
		if p := ws.Provinces[id]; p.Controller == tag {
			p.Controller = p.Owner
		}
	}
	ws.Diplomacy.removeCountry(tag)
	delete(ws.Countries, tag)
	log.Info().Str("country", string(tag)).Str("date", ws.Date.String()).Msg("Country eliminated")
}

// endStaleWars closes wars older than StaleWarYears with a white peace.
func endStaleWars(ws *WorldState, d *Defines) {
	if d.StaleWarYears <= 0 {
		return
	}
	for _, id := range ws.Diplomacy.WarIDs() {
		w := ws.Diplomacy.War(id)
		if w == nil {
			continue
		}
		if !w.StartDate.AddYears(d.StaleWarYears).After(ws.Date) {
			concludePeace(ws, w, SideAttacker, PeaceTerms{Kind: WhitePeace}, d)
		}
	}
}
