package telemetry

const hud = "CurrentDrivableActor.Function.HUD_"

// Upstream subscription paths
const (
	PathDriverAid             = "DriverAid.Data"
	PathSpeed                 = hud + "GetSpeed"
	PathDirection             = hud + "GetDirection"
	PathPowerHandle           = hud + "GetPowerHandle"
	PathIsSlipping            = hud + "GetIsSlipping"
	PathBrakeGauge1           = hud + "GetBrakeGauge_1"
	PathBrakeGauge2           = hud + "GetBrakeGauge_2"
	PathAcceleration          = hud + "GetAcceleration"
	PathSpeedControlTarget    = hud + "GetSpeedControlTarget"
	PathMaxPermittedSpeed     = hud + "GetMaxPermittedSpeed"
	PathAlerter               = hud + "GetAlerter"
	PathAmmeter               = hud + "GetAmmeter"
	PathTractiveEffort        = hud + "GetTractiveEffort"
	PathEngineRPM             = hud + "GetEngineRPM"
	PathGearIndex             = hud + "GetGearIndex"
	PathElectricBrakeHandle   = hud + "GetElectricBrakeHandle"
	PathLocomotiveBrakeHandle = hud + "GetLocomotiveBrakeHandle"
	PathTrainBrakeHandle      = hud + "GetTrainBrakeHandle"
	PathIsTractionLocked      = hud + "GetIsTractionLocked"
	PathSteamBoilerPressure   = hud + "GetSteamBoilerPressure"
	PathSteamChestPressure    = hud + "GetSteamChestPressure"
	PathCylinderCocks         = hud + "GetCylinderCocks"
	PathBoilerWaterLevel      = hud + "GetBoilerWaterLevel"
	PathFireboxCoalLevel      = hud + "GetFireboxCoalLevel"
	PathBlowerFlow            = hud + "GetBlowerFlow"
	PathDamperFlow            = hud + "GetDamperFlow"
	PathReverserCutoff        = hud + "GetReverserCutoff"
	PathWaterTankLevel        = hud + "GetWaterTankLevel"
	PathCoalBunkerLevel       = hud + "GetCoalBunkerLevel"
	PathIsSteamRequired       = hud + "GetIsSteamRequired"
)

// Paths returns the subscription set in creation order
func Paths() []string {
	return []string{
		PathDriverAid,
		PathSpeed,
		PathDirection,
		PathPowerHandle,
		PathIsSlipping,
		PathBrakeGauge1,
		PathBrakeGauge2,
		PathAcceleration,
		PathSpeedControlTarget,
		PathMaxPermittedSpeed,
		PathAlerter,
		PathAmmeter,
		PathTractiveEffort,
		PathEngineRPM,
		PathGearIndex,
		PathElectricBrakeHandle,
		PathLocomotiveBrakeHandle,
		PathTrainBrakeHandle,
		PathIsTractionLocked,
		PathSteamBoilerPressure,
		PathSteamChestPressure,
		PathCylinderCocks,
		PathBoilerWaterLevel,
		PathFireboxCoalLevel,
		PathBlowerFlow,
		PathDamperFlow,
		PathReverserCutoff,
		PathWaterTankLevel,
		PathCoalBunkerLevel,
		PathIsSteamRequired,
	}
}
