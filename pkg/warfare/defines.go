package warfare

// Defines holds every calibrated constant the engine consults. Values are
// tuned for gameplay balance; change them through configuration rather than
// in code.
type Defines struct {
	// Diplomacy
	ImmunityDays           int
	TruceYears             int
	PeaceOfferCooldownDays int
	StaleWarYears          int
	MaxWarScore            int
	AnnexationCost         int

	// War score
	ScorePerBattle     int
	MaxBattleScore     int
	MaxOccupationScore int

	// Movement
	ArmyMoveDays  int
	FleetMoveDays int

	// Naval combat
	NavalDaysPerPhase          int
	DiceMax                    int
	NavalHullDamageScale       Fixed
	DurabilityDamageMultiplier Fixed
	ShipDurabilityPerHull      Fixed
	Ships                      map[ShipType]ShipProfile

	// Siege
	SiegePhaseDays             int
	SiegeDie                   int
	SiegeWinThreshold          int
	MaxSiegeProgress           int
	ArtilleryBonusPerRegiment  int
	MaxArtilleryBonus          int
	GeneralSiegeBonusPerPip    int
	BlockadeBonus              int
	GarrisonPerFortLevel       int
	StarvationPercent          int
	GarrisonSurrenderThreshold int
	DiseaseCasualtyPercent     int
}

// ShipProfile is the combat profile of one ship type.
type ShipProfile struct {
	Fire     Fixed
	Shock    Fixed
	HullSize Fixed
}

// DefaultDefines returns the pinned default constants.
func DefaultDefines() *Defines {
	return &Defines{
		ImmunityDays:           30,
		TruceYears:             5,
		PeaceOfferCooldownDays: 30,
		StaleWarYears:          10,
		MaxWarScore:            100,
		AnnexationCost:         100,

		ScorePerBattle:     5,
		MaxBattleScore:     40,
		MaxOccupationScore: 60,

		ArmyMoveDays:  10,
		FleetMoveDays: 5,

		NavalDaysPerPhase:          3,
		DiceMax:                    9,
		NavalHullDamageScale:       FromInt(10), // tuned against ShipDurabilityPerHull
		DurabilityDamageMultiplier: One,
		ShipDurabilityPerHull:      One / 2,
		Ships: map[ShipType]ShipProfile{
			HeavyShip: {Fire: One, Shock: Zero, HullSize: FromInt(50)},
			LightShip: {Fire: FromMilli(400), Shock: FromMilli(300), HullSize: FromInt(10)},
			Galley:    {Fire: FromMilli(100), Shock: FromMilli(800), HullSize: FromInt(20)},
			Transport: {Fire: Zero, Shock: Zero, HullSize: FromInt(5)},
		},

		SiegePhaseDays:             30,
		SiegeDie:                   14,
		SiegeWinThreshold:          20,
		MaxSiegeProgress:           12,
		ArtilleryBonusPerRegiment:  1,
		MaxArtilleryBonus:          5,
		GeneralSiegeBonusPerPip:    1,
		BlockadeBonus:              2,
		GarrisonPerFortLevel:       1000,
		StarvationPercent:          10,
		GarrisonSurrenderThreshold: 100,
		DiseaseCasualtyPercent:     5,
	}
}

func orDefault(d *Defines) *Defines {
	if d == nil {
		return DefaultDefines()
	}
	return d
}

// Profile returns the ship profile for t, or a zero profile for unknown types.
func (d *Defines) Profile(t ShipType) ShipProfile {
	return d.Ships[t]
}
