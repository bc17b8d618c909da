package domain

import "errors"

// ErrMissingHeight indicates that BMI cannot be derived without a positive height.
var ErrMissingHeight = errors.New("height must be > 0")

// Zone is a categorical body-mass-index bucket.
type Zone string

// BMI zones, ordered from lowest to highest BMI.
const (
	ZoneUnderweight Zone = "Underweight"
	ZoneNormal      Zone = "Normal"
	ZoneOverweight  Zone = "Overweight"
	ZoneObese       Zone = "Obese"
)

// Zones lists every zone in ascending BMI order.
var Zones = []Zone{ZoneUnderweight, ZoneNormal, ZoneOverweight, ZoneObese}

// Rank returns the zone's position in Zones, or -1 for an unknown zone.
func (z Zone) Rank() int {
	for i, v := range Zones {
		if v == z {
			return i
		}
	}
	return -1
}

// Valid reports whether z is one of the four zones.
func (z Zone) Valid() bool {
	return z.Rank() >= 0
}

// BMI is a computed body-mass index and its zone.
type BMI struct {
	Value float64 `json:"value"`
	Zone  Zone    `json:"zone"`
}

// ClassifyBMI maps a BMI value to its zone using half-open thresholds:
// <18.5, [18.5,25), [25,30), >=30.
func ClassifyBMI(v float64) Zone {
	switch {
	case v < 18.5:
		return ZoneUnderweight
	case v < 25:
		return ZoneNormal
	case v < 30:
		return ZoneOverweight
	default:
		return ZoneObese
	}
}

// CalculateBMI returns weight / (height in meters)^2 rounded to two decimals.
func CalculateBMI(weightKg, heightCM float64) (BMI, error) {
	if !ValidMeasure(heightCM) {
		return BMI{}, ErrMissingHeight
	}
	if !ValidMeasure(weightKg) {
		return BMI{}, ErrInvalidWeight
	}
	m := heightCM / 100
	v := Round(weightKg/(m*m), 2)
	return BMI{Value: v, Zone: ClassifyBMI(v)}, nil
}
