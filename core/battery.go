package core

// Battery thresholds for a single Li-ion/LiPo cell or 3xAAA pack
const (
	MaxBatteryVoltage float32 = 4.0
	MinBatteryVoltage float32 = 3.2
	BatteryLevels             = 4

	vrefVoltage float32 = 1.24 // onboard 1.24V reference
	vbatGain    float32 = 3    // VBAT is measured through a 1/3 divider
	adcFull     float32 = 65535
)

// SupplyVoltage estimates the logic supply from a reading of the 1.24V
// reference; it sags below 3.3V on a flat battery.
func SupplyVoltage(vrefRaw uint16) float32 {
	if vrefRaw == 0 {
		return 0
	}
	return vrefVoltage * (adcFull / float32(vrefRaw))
}

// BatteryVoltage converts the VBAT and VREF ADC readings into volts
func BatteryVoltage(vbatRaw, vrefRaw uint16) float32 {
	return float32(vbatRaw) / adcFull * vbatGain * SupplyVoltage(vrefRaw)
}

// BatteryLevel maps the readings onto 0..BatteryLevels bars
func BatteryLevel(vbatRaw, vrefRaw uint16) int {
	v := BatteryVoltage(vbatRaw, vrefRaw)
	level := int(mapRange(v, MinBatteryVoltage, MaxBatteryVoltage, 0, BatteryLevels))
	if level < 0 {
		return 0
	}
	if level > BatteryLevels {
		return BatteryLevels
	}
	return level
}

func mapRange(v, inMin, inMax, outMin, outMax float32) float32 {
	return (v-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}
