//go:build rp2040

package main

import (
	_ "embed"
	"log/slog"
	"machine"
	"time"

	"sqwave/config"
	"sqwave/core"
	"sqwave/protocol"
	"sqwave/remote"
)

//go:embed sqwave.json
var configJSON []byte

// Badger 2040 holds its own supply on while this pin is high
const pinEnable3V3 = machine.Pin(10)

const displayIntervalMS = 100

var (
	inputBuffer *protocol.FifoBuffer
	server      *remote.Server
	scheduler   core.Scheduler
	logLevel    slog.LevelVar
	log         *slog.Logger

	// Link health
	msgerrors                uint32
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	// Clear any watchdog state left from a previous run
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	pinEnable3V3.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinEnable3V3.High()

	usb.open()

	// Logs go to the debug UART so the USB link carries only frames
	_ = machine.UART0.Configure(machine.UARTConfig{BaudRate: 115200})
	log = slog.New(slog.NewTextHandler(machine.UART0, &slog.HandlerOptions{Level: &logLevel}))
	core.SetDebugWriter(func(s string) { log.Debug(s) })

	cfg, err := config.LoadConfig(configJSON)
	if err != nil {
		log.Error("embedded config rejected, using defaults", slog.String("err", err.Error()))
		cfg = config.DefaultConfig()
	}
	if cfg.Debug {
		logLevel.Set(slog.LevelDebug)
		core.SetDebugEnabled(true)
	}

	gc := cfg.GeneratorConfig()
	if hz := cpuHz(); hz != gc.SystemClockHz {
		log.Warn("system clock differs from config",
			slog.Uint64("config_hz", uint64(gc.SystemClockHz)),
			slog.Uint64("cpu_hz", uint64(hz)))
		gc.SystemClockHz = hz
	}

	stream := NewPIOStream(cfg.Generator.PIO, cfg.Generator.StateMachine)
	gen, err := core.NewGenerator(gc, stream, NewRPDMA(), cfg.Settings())
	if err != nil {
		halt("generator", err)
	}
	ctrl := core.NewController(gen)

	core.SetInputDriver(NewBadgerButtons())
	if err := core.MustInput().Configure(); err != nil {
		halt("buttons", err)
	}
	core.SetBatterySensor(NewBadgerBattery())
	if cfg.Display.Enabled {
		epd, err := NewEPaperDisplay(cfg.Display)
		if err != nil {
			log.Warn("display unavailable", slog.String("err", err.Error()))
		} else {
			core.SetDisplay(epd)
		}
	}
	panel := core.NewPanel(ctrl, core.MustInput(), core.GetBatterySensor(), core.GetDisplay())
	if err := panel.SampleBattery(); err != nil {
		log.Warn("battery read failed", slog.String("err", err.Error()))
	}

	inputBuffer = protocol.NewFifoBuffer(256)
	server = remote.NewServer(ctrl, panel.Battery)
	server.Transport().SetResetCallback(func() {
		log.Info("host opened a session")
	})

	if cfg.Generator.Autostart {
		if err := gen.Start(); err != nil {
			halt("start", err)
		}
	}
	log.Info("generator ready",
		slog.Uint64("frequency_hz", uint64(ctrl.Settings().Frequency)),
		slog.Uint64("actual_hz", uint64(gen.OutputFrequency())),
		slog.Int("duty", int(ctrl.Settings().Duty)),
		slog.Bool("running", gen.Running()))

	// Tasks are scheduled from the current time, not from zero
	syncClock()
	scheduleTasks(cfg, panel)

	go usbReaderLoop()

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
					server.ResetOutput()
				}
			}()

			syncClock()

			if inputBuffer.Available() > 0 {
				server.Receive(inputBuffer)
			}
			if len(server.Output()) > 0 {
				writeUSB()
			}

			scheduler.Dispatch(core.GetTime())
		}()

		// Yield to the USB reader
		time.Sleep(100 * time.Microsecond)
	}
}

// scheduleTasks registers the periodic front panel work
func scheduleTasks(cfg *config.Config, panel *core.Panel) {
	now := core.GetTime()
	every := func(ms uint32, fn func()) {
		scheduler.ScheduleEvery(now, core.TimerFromMS(ms), fn)
	}

	every(cfg.PollIntervalMS, func() {
		change, err := panel.PollInput()
		if err != nil {
			log.Error("apply settings", slog.String("err", err.Error()))
			return
		}
		if change != 0 {
			st := panel.Status()
			log.Debug("settings changed",
				slog.Uint64("frequency_hz", uint64(st.FrequencyHz)),
				slog.Int("duty", int(st.Duty)))
		}
	})
	every(cfg.BatteryIntervalMS, func() {
		if err := panel.SampleBattery(); err != nil {
			log.Warn("battery read failed", slog.String("err", err.Error()))
		}
	})
	every(displayIntervalMS, func() {
		if _, err := panel.Refresh(); err != nil {
			log.Warn("display write failed", slog.String("err", err.Error()))
		}
	})
	if cfg.Debug {
		every(10000, core.DumpEvents)
	}
}

// usbReaderLoop runs in a goroutine and moves USB bytes into inputBuffer
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		data, err := usb.drain()
		if err != nil {
			msgerrors++
			time.Sleep(1 * time.Millisecond)
		}
		if len(data) > 0 {
			// First bytes after a disconnect start a fresh session
			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				server.ResetOutput()
				server.Transport().Reset()
				consecutiveWriteFailures = 0
			}

			if inputBuffer.Write(data) < len(data) {
				msgerrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB sends pending replies. Repeated failures mean the host is gone,
// so stale replies are dropped rather than queued.
func writeUSB() {
	result := server.Output()
	written := 0
	for written < len(result) {
		n, err := usb.Write(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				server.ResetOutput()
				inputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	server.ResetOutput()
}

// halt reports a fatal setup error forever; the output stays off
func halt(stage string, err error) {
	for {
		log.Error("setup failed", slog.String("stage", stage), slog.String("err", err.Error()))
		time.Sleep(time.Second)
	}
}
