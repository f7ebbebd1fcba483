package telemetry

import "encoding/json"

// DefaultSpeedLimit is shown until the driver aid reports a limit (display units)
const DefaultSpeedLimit = 120

// Record is the normalized snapshot pushed to dashboard clients.
// JSON names are the dashboard's wire contract.
type Record struct {
	Speed                    int     `json:"speed"`
	Limit                    int     `json:"limit"`
	Incline                  float64 `json:"incline"`
	NextSpeedLimit           int     `json:"nextSpeedLimit"`
	DistanceToNextSpeedLimit int     `json:"distanceToNextSpeedLimit"`

	PowerHandle        int     `json:"powerHandle"`
	Direction          float64 `json:"direction"`
	IsSlipping         bool    `json:"isSlipping"`
	BrakeGauge1        float64 `json:"brakeGauge1"`
	BrakeGauge2        float64 `json:"brakeGauge2"`
	Acceleration       float64 `json:"acceleration"`
	SpeedControlTarget int     `json:"speedControlTarget"`
	MaxPermittedSpeed  int     `json:"maxPermittedSpeed"`
	Alerter            float64 `json:"alerter"`
	Ammeter            float64 `json:"ammeter"`
	TractiveEffort     float64 `json:"tractiveEffort"`
	EngineRPM          int     `json:"engineRPM"`
	GearIndex          float64 `json:"gearIndex"`

	ElectricBrakeHandle   float64 `json:"electricBrakeHandle"`
	ElectricDynamicBrake  int     `json:"electricDynamicBrake"`
	ElectricBrakeActive   bool    `json:"electricBrakeActive"`
	LocomotiveBrakeHandle float64 `json:"locomotiveBrakeHandle"`
	LocomotiveBrakeActive bool    `json:"locomotiveBrakeActive"`
	TrainBrakeHandle      float64 `json:"trainBrakeHandle"`
	TrainBrakePercent     int     `json:"trainBreak"` // dashboard spells it this way
	TrainBrakeActive      bool    `json:"trainBrakeActive"`
	IsTractionLocked      bool    `json:"isTractionLocked"`

	// Steam locomotives only
	SteamBoilerPressure float64 `json:"steamBoilerPressure"`
	SteamChestPressure  float64 `json:"steamChestPressure"`
	CylinderCocks       float64 `json:"cylinderCocks"`
	BoilerWaterLevel    float64 `json:"boilerWaterLevel"`
	FireboxCoalLevel    float64 `json:"fireboxCoalLevel"`
	BlowerFlow          float64 `json:"blowerFlow"`
	DamperFlow          float64 `json:"damperFlow"`
	ReverserCutoff      float64 `json:"reverserCutoff"`
	WaterTankLevel      float64 `json:"waterTankLevel"`
	CoalBunkerLevel     float64 `json:"coalBunkerLevel"`
	IsSteamRequired     bool    `json:"isSteamRequired"`

	// Raw is the upstream poll body, passed through for diagnostics
	Raw json.RawMessage `json:"raw"`
}

// NewRecord returns a record with every field at its documented default
func NewRecord() Record {
	return Record{Limit: DefaultSpeedLimit}
}

// ErrorRecord replaces a Record when a poll tick fails
type ErrorRecord struct {
	Error string `json:"error"`
}
