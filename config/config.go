// Package config holds the generator configuration. The firmware embeds a
// JSON copy; the host tool reads the same format from disk.
package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"sqwave/core"
)

var (
	ErrNoOutputPin     = errors.New("config: output pin must be a GPIO 0-29")
	ErrStateMachine    = errors.New("config: state machine must be 0-3")
	ErrPIOBlock        = errors.New("config: pio block must be 0 or 1")
	ErrDisplayPins     = errors.New("config: display pins must be distinct GPIOs 0-29, clear of the output pin")
	ErrIntervalTooLong = errors.New("config: intervals must be below one minute")
)

// GeneratorConfig selects the hardware resources and power-on settings
type GeneratorConfig struct {
	OutputPin     uint8  `json:"output_pin"`
	PIO           uint8  `json:"pio"`
	StateMachine  uint8  `json:"state_machine"`
	FeederDMA     uint8  `json:"feeder_dma"`
	RearmerDMA    uint8  `json:"rearmer_dma"`
	SystemClockHz uint32 `json:"system_clock_hz"`

	FrequencyHz uint32 `json:"frequency_hz"`
	IncrementHz uint32 `json:"increment_hz"`
	Duty        int    `json:"duty"` // percent, rounded to the nearest 10
	Autostart   bool   `json:"autostart"`
}

// DisplayConfig describes the badge's UC8151 e-paper panel on SPI0
type DisplayConfig struct {
	Enabled bool  `json:"enabled"`
	SCK     uint8 `json:"sck_pin"`
	MOSI    uint8 `json:"mosi_pin"`
	CS      uint8 `json:"cs_pin"`
	DC      uint8 `json:"dc_pin"`
	Reset   uint8 `json:"reset_pin"`
	Busy    uint8 `json:"busy_pin"`
	// FastRefresh trades some ghosting for a quicker update
	FastRefresh bool `json:"fast_refresh"`
}

// Pins lists the display pins in driver order
func (d DisplayConfig) Pins() [6]uint8 {
	return [6]uint8{d.SCK, d.MOSI, d.CS, d.DC, d.Reset, d.Busy}
}

// LinkConfig describes the serial link to the host
type LinkConfig struct {
	Device string `json:"device"`
	Baud   int    `json:"baud"`
}

// Config is the complete configuration
type Config struct {
	Generator GeneratorConfig `json:"generator"`
	Display   DisplayConfig   `json:"display"`
	Link      LinkConfig      `json:"link"`

	PollIntervalMS    uint32 `json:"poll_interval_ms"`
	BatteryIntervalMS uint32 `json:"battery_interval_ms"`
	Debug             bool   `json:"debug"`
}

// LoadConfig parses JSON over the defaults, so absent fields keep their
// default value
func LoadConfig(jsonData []byte) (*Config, error) {
	config := DefaultConfig()

	if err := json.Unmarshal(jsonData, config); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	applyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults replaces zero values that are never valid
func applyDefaults(config *Config) {
	g := &config.Generator
	if g.SystemClockHz == 0 {
		g.SystemClockHz = core.DefaultSystemClock
	}
	if g.FrequencyHz == 0 {
		g.FrequencyHz = uint32(core.DefaultFrequency)
	}
	if g.IncrementHz == 0 {
		g.IncrementHz = uint32(core.IncrementFine)
	}
	if g.Duty == 0 {
		g.Duty = int(core.DefaultDuty)
	}

	if config.Link.Baud == 0 {
		config.Link.Baud = 115200
	}

	if config.PollIntervalMS == 0 {
		config.PollIntervalMS = 10
	}
	if config.BatteryIntervalMS == 0 {
		config.BatteryIntervalMS = 5000
	}
}

// DefaultConfig returns the Badger 2040 setup: output on GP5, PIO0 SM0,
// DMA channels 0 and 1, 20 kHz at 50/50
func DefaultConfig() *Config {
	return &Config{
		Generator: GeneratorConfig{
			OutputPin:     5,
			PIO:           0,
			StateMachine:  0,
			FeederDMA:     0,
			RearmerDMA:    1,
			SystemClockHz: core.DefaultSystemClock,
			FrequencyHz:   uint32(core.DefaultFrequency),
			IncrementHz:   uint32(core.IncrementFine),
			Duty:          int(core.DefaultDuty),
			Autostart:     true,
		},
		Display: DisplayConfig{
			Enabled:     true,
			SCK:         18,
			MOSI:        19,
			CS:          17,
			DC:          20,
			Reset:       21,
			Busy:        26,
			FastRefresh: true,
		},
		Link: LinkConfig{
			Device: "/dev/ttyACM0",
			Baud:   115200,
		},
		PollIntervalMS:    10,
		BatteryIntervalMS: 5000,
	}
}

// Validate checks the hardware selection and the power-on settings
func (c *Config) Validate() error {
	g := c.Generator
	if g.OutputPin > 29 {
		return ErrNoOutputPin
	}
	if g.PIO > 1 {
		return ErrPIOBlock
	}
	if g.StateMachine > 3 {
		return ErrStateMachine
	}
	if g.FeederDMA >= core.DMAChannels || g.RearmerDMA >= core.DMAChannels {
		return core.ErrChainChannel
	}
	if g.FeederDMA == g.RearmerDMA {
		return core.ErrChainSame
	}
	if err := c.Settings().Validate(); err != nil {
		return err
	}
	if c.Display.Enabled {
		var used uint32 = 1 << g.OutputPin
		for _, pin := range c.Display.Pins() {
			if pin > 29 || used&(1<<pin) != 0 {
				return ErrDisplayPins
			}
			used |= 1 << pin
		}
	}
	if c.PollIntervalMS >= 60000 || c.BatteryIntervalMS >= 60000 {
		return ErrIntervalTooLong
	}
	return nil
}

// Settings returns the power-on settings with the duty rounded to a valid step
func (c *Config) Settings() core.Settings {
	return core.Settings{
		Frequency: core.Frequency(c.Generator.FrequencyHz),
		Increment: core.FrequencyIncrement(c.Generator.IncrementHz),
		Duty:      core.NormalizeDuty(c.Generator.Duty),
	}
}

// GeneratorConfig returns the hardware resources for core.NewGenerator
func (c *Config) GeneratorConfig() core.GeneratorConfig {
	return core.GeneratorConfig{
		Pin:           c.Generator.OutputPin,
		Feeder:        core.DMAChannel(c.Generator.FeederDMA),
		Rearmer:       core.DMAChannel(c.Generator.RearmerDMA),
		SystemClockHz: c.Generator.SystemClockHz,
	}
}
