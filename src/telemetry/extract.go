package telemetry

import (
	"math"
	"math/big"
	"strconv"
)

// extractFunc copies the values of one entry into the record.
// It must leave fields untouched when their value is absent.
type extractFunc func(e RawEntry, rec *Record, conv Converter)

// extractors maps each subscription path to its extraction rule
var extractors = map[string]extractFunc{
	PathDriverAid:    extractDriverAid,
	PathSpeed:        extractSpeed,
	PathPowerHandle:  extractPowerHandle,
	PathDirection:    number("Direction", func(r *Record) *float64 { return &r.Direction }),
	PathIsSlipping:   boolean("IsSlipping", func(r *Record) *bool { return &r.IsSlipping }),
	PathBrakeGauge1:  number("BrakeGauge", func(r *Record) *float64 { return &r.BrakeGauge1 }),
	PathBrakeGauge2:  number("BrakeGauge", func(r *Record) *float64 { return &r.BrakeGauge2 }),
	PathAcceleration: number("Acceleration", func(r *Record) *float64 { return &r.Acceleration }),
	PathSpeedControlTarget: speed("SpeedControlTarget",
		func(r *Record) *int { return &r.SpeedControlTarget }),
	PathMaxPermittedSpeed: speed("MaxPermittedSpeed",
		func(r *Record) *int { return &r.MaxPermittedSpeed }),
	PathAlerter:        number("Alerter", func(r *Record) *float64 { return &r.Alerter }),
	PathAmmeter:        number("Ammeter", func(r *Record) *float64 { return &r.Ammeter }),
	PathTractiveEffort: number("TractiveEffort", func(r *Record) *float64 { return &r.TractiveEffort }),
	PathEngineRPM:      extractEngineRPM,
	PathGearIndex:      number("GearIndex", func(r *Record) *float64 { return &r.GearIndex }),
	PathElectricBrakeHandle: brakeHandle(func(r *Record) (*float64, *int, *bool) {
		return &r.ElectricBrakeHandle, &r.ElectricDynamicBrake, &r.ElectricBrakeActive
	}),
	PathLocomotiveBrakeHandle: brakeHandle(func(r *Record) (*float64, *int, *bool) {
		return &r.LocomotiveBrakeHandle, nil, &r.LocomotiveBrakeActive
	}),
	PathTrainBrakeHandle: brakeHandle(func(r *Record) (*float64, *int, *bool) {
		return &r.TrainBrakeHandle, &r.TrainBrakePercent, &r.TrainBrakeActive
	}),
	PathIsTractionLocked: boolean("IsTractionLocked", func(r *Record) *bool { return &r.IsTractionLocked }),

	PathSteamBoilerPressure: number("SteamBoilerPressure", func(r *Record) *float64 { return &r.SteamBoilerPressure }),
	PathSteamChestPressure:  number("SteamChestPressure", func(r *Record) *float64 { return &r.SteamChestPressure }),
	PathCylinderCocks:       number("CylinderCocks", func(r *Record) *float64 { return &r.CylinderCocks }),
	PathBoilerWaterLevel:    number("BoilerWaterLevel", func(r *Record) *float64 { return &r.BoilerWaterLevel }),
	PathFireboxCoalLevel:    number("FireboxCoalLevel", func(r *Record) *float64 { return &r.FireboxCoalLevel }),
	PathBlowerFlow:          number("BlowerFlow", func(r *Record) *float64 { return &r.BlowerFlow }),
	PathDamperFlow:          number("DamperFlow", func(r *Record) *float64 { return &r.DamperFlow }),
	PathReverserCutoff:      number("ReverserCutoff", func(r *Record) *float64 { return &r.ReverserCutoff }),
	PathWaterTankLevel:      number("WaterTankLevel", func(r *Record) *float64 { return &r.WaterTankLevel }),
	PathCoalBunkerLevel:     number("CoalBunkerLevel", func(r *Record) *float64 { return &r.CoalBunkerLevel }),
	PathIsSteamRequired:     boolean("IsSteamRequired", func(r *Record) *bool { return &r.IsSteamRequired }),
}

// Extract applies the rule for e.Path to rec. Unknown paths and invalid
// nodes are ignored.
func Extract(e RawEntry, rec *Record, conv Converter) {
	if !e.NodeValid {
		return
	}
	fn, ok := extractors[e.Path]
	if !ok {
		return
	}
	fn(e, rec, conv)
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

// roundTenths rounds the exact decimal value of v to one place, ties away
// from zero. Scaling by ten first would round values like 1.15 (stored as
// 1.1499...) up to 1.2.
func roundTenths(v float64) float64 {
	abs := math.Abs(v)
	r, _ := strconv.ParseFloat(strconv.FormatFloat(abs, 'f', 1, 64), 64)

	// FormatFloat breaks exact ties (1.25) to even
	twenties := new(big.Float).SetPrec(128).SetFloat64(abs)
	twenties.Mul(twenties, big.NewFloat(20))
	if twenties.IsInt() {
		if m, acc := twenties.Int64(); acc == big.Exact && m%2 == 1 {
			r = float64((m+1)/2) / 10
		}
	}

	if r == 0 {
		return 0
	}
	return math.Copysign(r, v)
}

// number copies a numeric value verbatim
func number(key string, field func(*Record) *float64) extractFunc {
	return func(e RawEntry, rec *Record, _ Converter) {
		if v, ok := e.Number(key); ok {
			*field(rec) = v
		}
	}
}

// boolean copies a boolean value verbatim
func boolean(key string, field func(*Record) *bool) extractFunc {
	return func(e RawEntry, rec *Record, _ Converter) {
		if v, ok := e.Bool(key); ok {
			*field(rec) = v
		}
	}
}

// speed converts m/s to display units and rounds
func speed(key string, field func(*Record) *int) extractFunc {
	return func(e RawEntry, rec *Record, conv Converter) {
		if v, ok := e.Number(key); ok {
			*field(rec) = roundInt(conv.Speed(v))
		}
	}
}

// extractSpeed handles the speedometer reading. A present zero is applied
// like any other value.
func extractSpeed(e RawEntry, rec *Record, conv Converter) {
	if v, ok := e.Number("Speed (ms)"); ok {
		rec.Speed = roundInt(conv.Speed(v))
	}
}

// extractPowerHandle rounds away from zero. IsNegative=true forces a
// negative notch; otherwise the sign of Power is kept as reported.
func extractPowerHandle(e RawEntry, rec *Record, _ Converter) {
	power, ok := e.Number("Power")
	if !ok {
		return
	}

	var rounded float64
	if power >= 0 {
		rounded = math.Ceil(power)
	} else {
		rounded = math.Floor(power)
	}

	if negative, ok := e.Bool("IsNegative"); ok && negative {
		rounded = -math.Abs(rounded)
	}
	rec.PowerHandle = int(rounded)
}

func extractEngineRPM(e RawEntry, rec *Record, _ Converter) {
	if v, ok := e.Number("EngineRPM"); ok {
		rec.EngineRPM = roundInt(v)
	}
}

// brakeHandle stores the handle position, its percentage (when the record
// has one for this handle) and the active flag, which defaults to false.
func brakeHandle(fields func(*Record) (position *float64, percent *int, active *bool)) extractFunc {
	return func(e RawEntry, rec *Record, _ Converter) {
		pos, ok := e.Number("HandlePosition")
		if !ok {
			return
		}
		position, percent, active := fields(rec)
		*position = pos
		if percent != nil {
			*percent = roundInt(pos * 100)
		}
		isActive, _ := e.Bool("IsActive")
		*active = isActive
	}
}

// extractDriverAid unpacks the aggregate driver aid entry
func extractDriverAid(e RawEntry, rec *Record, conv Converter) {
	if v, ok := e.NestedNumber("speedLimit", "value"); ok {
		rec.Limit = roundInt(conv.Speed(v))
	}
	if v, ok := e.Number("gradient"); ok {
		rec.Incline = roundTenths(v)
	}
	if v, ok := e.NestedNumber("nextSpeedLimit", "value"); ok {
		rec.NextSpeedLimit = roundInt(conv.Speed(v))
	}
	if v, ok := e.Number("distanceToNextSpeedLimit"); ok {
		rec.DistanceToNextSpeedLimit = roundInt(conv.Distance(v))
	}
}
