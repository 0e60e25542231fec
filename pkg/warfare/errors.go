package warfare

import "fmt"

// ErrorKind classifies why a command was rejected. The set is closed.
type ErrorKind string

const (
	KindFirstMonthImmunity       ErrorKind = "first_month_immunity"
	KindTruceActive              ErrorKind = "truce_active"
	KindNotOwned                 ErrorKind = "not_owned"
	KindSelfTargeting            ErrorKind = "self_targeting"
	KindAlreadyAtWar             ErrorKind = "already_at_war"
	KindUnknownCountry           ErrorKind = "unknown_country"
	KindInsufficientMana         ErrorKind = "insufficient_mana"
	KindInvalidPercentage        ErrorKind = "invalid_percentage"
	KindInsufficientCrownLand    ErrorKind = "insufficient_crown_land"
	KindInsufficientEstateLand   ErrorKind = "insufficient_estate_land"
	KindAlreadyGranted           ErrorKind = "already_granted"
	KindNotGranted               ErrorKind = "not_granted"
	KindWrongEstate              ErrorKind = "wrong_estate"
	KindWarNotFound              ErrorKind = "war_not_found"
	KindNotWarParticipant        ErrorKind = "not_war_participant"
	KindNoPendingPeace           ErrorKind = "no_pending_peace"
	KindCannotAcceptOwnOffer     ErrorKind = "cannot_accept_own_offer"
	KindInsufficientWarScore     ErrorKind = "insufficient_war_score"
	KindPeaceOfferOnCooldown     ErrorKind = "peace_offer_on_cooldown"
	KindDiplomaticActionCooldown ErrorKind = "diplomatic_action_cooldown"
	KindInvalidPeaceTerms        ErrorKind = "invalid_peace_terms"
	KindArmyNotFound             ErrorKind = "army_not_found"
	KindFleetNotFound            ErrorKind = "fleet_not_found"
	KindProvinceNotFound         ErrorKind = "province_not_found"
	KindNotAdjacent              ErrorKind = "not_adjacent"
	KindInvalidDestination       ErrorKind = "invalid_destination"
	KindNoMilitaryAccess         ErrorKind = "no_military_access"
	KindZoneOfControl            ErrorKind = "zone_of_control"
	KindFleetInBattle            ErrorKind = "fleet_in_battle"
	KindUnknownCommand           ErrorKind = "unknown_command"
)

// ActionError describes why a command was rejected. Only the fields relevant
// to Kind are set.
type ActionError struct {
	Kind      ErrorKind
	Country   Tag
	Target    Tag
	WarID     WarID
	ArmyID    ArmyID
	FleetID   FleetID
	Province  ProvinceID
	Expires   Date
	Required  int
	Available int
	Detail    string
}

func (e *ActionError) Error() string {
	switch e.Kind {
	case KindTruceActive:
		return fmt.Sprintf("%s: truce between %s and %s until %s", e.Kind, e.Country, e.Target, e.Expires)
	case KindInsufficientWarScore:
		return fmt.Sprintf("%s: need %d, have %d", e.Kind, e.Required, e.Available)
	case KindUnknownCountry, KindAlreadyAtWar, KindSelfTargeting:
		return fmt.Sprintf("%s: %s -> %s", e.Kind, e.Country, e.Target)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return string(e.Kind)
}

// Is matches any *ActionError of the same Kind, so sentinels work with errors.Is.
func (e *ActionError) Is(target error) bool {
	t, ok := target.(*ActionError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrFirstMonthImmunity       = &ActionError{Kind: KindFirstMonthImmunity}
	ErrTruceActive              = &ActionError{Kind: KindTruceActive}
	ErrNotOwned                 = &ActionError{Kind: KindNotOwned}
	ErrSelfTargeting            = &ActionError{Kind: KindSelfTargeting}
	ErrAlreadyAtWar             = &ActionError{Kind: KindAlreadyAtWar}
	ErrUnknownCountry           = &ActionError{Kind: KindUnknownCountry}
	ErrWarNotFound              = &ActionError{Kind: KindWarNotFound}
	ErrNotWarParticipant        = &ActionError{Kind: KindNotWarParticipant}
	ErrNoPendingPeace           = &ActionError{Kind: KindNoPendingPeace}
	ErrCannotAcceptOwnOffer     = &ActionError{Kind: KindCannotAcceptOwnOffer}
	ErrInsufficientWarScore     = &ActionError{Kind: KindInsufficientWarScore}
	ErrPeaceOfferOnCooldown     = &ActionError{Kind: KindPeaceOfferOnCooldown}
	ErrDiplomaticActionCooldown = &ActionError{Kind: KindDiplomaticActionCooldown}
	ErrInvalidPeaceTerms        = &ActionError{Kind: KindInvalidPeaceTerms}
	ErrArmyNotFound             = &ActionError{Kind: KindArmyNotFound}
	ErrFleetNotFound            = &ActionError{Kind: KindFleetNotFound}
	ErrProvinceNotFound         = &ActionError{Kind: KindProvinceNotFound}
	ErrNotAdjacent              = &ActionError{Kind: KindNotAdjacent}
	ErrInvalidDestination       = &ActionError{Kind: KindInvalidDestination}
	ErrNoMilitaryAccess         = &ActionError{Kind: KindNoMilitaryAccess}
	ErrZoneOfControl            = &ActionError{Kind: KindZoneOfControl}
	ErrFleetInBattle            = &ActionError{Kind: KindFleetInBattle}
	ErrUnknownCommand           = &ActionError{Kind: KindUnknownCommand}
)
