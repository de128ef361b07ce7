//go:build rp2040

package main

import (
	"image/color"
	"machine"

	"sqwave/config"
	"sqwave/core"

	"tinygo.org/x/drivers/uc8151"
)

var (
	inkBlack = color.RGBA{1, 1, 1, 255}
	inkWhite = color.RGBA{0, 0, 0, 255}
)

// EPaperDisplay implements core.Display on the Badger 2040's UC8151 panel.
// The panel is mounted portrait-native, so the landscape screen is rotated
// onto it a pixel at a time.
type EPaperDisplay struct {
	dev    uc8151.Device
	screen *core.Screen
}

// NewEPaperDisplay brings up SPI0 and the panel
func NewEPaperDisplay(cfg config.DisplayConfig) (*EPaperDisplay, error) {
	err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 12000000,
		SCK:       machine.Pin(cfg.SCK),
		SDO:       machine.Pin(cfg.MOSI),
	})
	if err != nil {
		return nil, err
	}

	d := &EPaperDisplay{
		dev: uc8151.New(machine.SPI0,
			machine.Pin(cfg.CS), machine.Pin(cfg.DC),
			machine.Pin(cfg.Reset), machine.Pin(cfg.Busy)),
		screen: core.NewScreen(),
	}
	speed := uc8151.MEDIUM
	if cfg.FastRefresh {
		speed = uc8151.FAST
	}
	d.dev.Configure(uc8151.Config{
		Speed:    speed,
		Blocking: false,
	})
	return d, nil
}

// Show draws st and starts a refresh. The control loop keeps running while
// the panel updates; ErrDisplayBusy is returned until it is done.
func (d *EPaperDisplay) Show(st core.Status) error {
	if d.dev.IsBusy() {
		return core.ErrDisplayBusy
	}
	d.screen.DrawStatus(st)
	for y := 0; y < core.ScreenHeight; y++ {
		for x := 0; x < core.ScreenWidth; x++ {
			c := inkWhite
			if d.screen.Ink(x, y) {
				c = inkBlack
			}
			d.dev.SetPixel(int16(y), int16(core.ScreenWidth-1-x), c)
		}
	}
	return d.dev.Display()
}
