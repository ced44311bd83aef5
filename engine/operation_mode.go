package engine

// OperationMode describes the sensor geometry a trigger pattern
// corresponds to: how many trigger cycles map to one physical engine
// revolution.
type OperationMode uint8

const (
	FourStrokeCrankSensor OperationMode = iota
	FourStrokeCamSensor
	FourStrokeThreeTimesCrankSensor
	FourStrokeSymmetricalCrankSensor
	FourStrokeTwelveTimesCrankSensor
)

// Wheel divider constants for the symmetrical crank variants: trigger
// cycles per 720 degrees, so cycles per revolution is divider/2.
const (
	SymmetricalCrankSensorDivider            = 4
	SymmetricalThreeTimesCrankSensorDivider  = 6
	SymmetricalTwelveTimesCrankSensorDivider = 24
)

func (m OperationMode) String() string {
	switch m {
	case FourStrokeCrankSensor:
		return "crank"
	case FourStrokeCamSensor:
		return "cam"
	case FourStrokeThreeTimesCrankSensor:
		return "crank-3x"
	case FourStrokeSymmetricalCrankSensor:
		return "crank-symmetrical"
	case FourStrokeTwelveTimesCrankSensor:
		return "crank-12x"
	}
	return "unknown"
}
