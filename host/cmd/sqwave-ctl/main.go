package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"sqwave/config"
	"sqwave/core"
	"sqwave/host/plot"
	"sqwave/host/serial"
	"sqwave/protocol"
	"sqwave/remote"
)

var (
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC, overrides config)")
	configPath = flag.String("config", "", "JSON config file")
	timeout    = flag.Duration("timeout", 500*time.Millisecond, "Reply timeout per attempt")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		printHelp()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if args[0] == "plot" {
		err = runPlot(cfg, args[1:])
	} else {
		err = runRemote(cfg, logger, args)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = config.LoadConfig(data); err != nil {
			return nil, fmt.Errorf("load %s: %w", *configPath, err)
		}
	}
	if *device != "" {
		cfg.Link.Device = *device
	}
	if *baud != 0 {
		cfg.Link.Baud = *baud
	}
	return cfg, nil
}

func runRemote(cfg *config.Config, logger *slog.Logger, args []string) error {
	port, err := serial.Open(serial.DefaultConfig(cfg.Link))
	if err != nil {
		return err
	}
	defer port.Close()

	client := remote.NewClient(port)
	client.Timeout = *timeout
	client.Logger = logger

	ctx := context.Background()
	var st protocol.StatusReply

	switch args[0] {
	case "status":
		st, err = client.Status(ctx)
	case "up":
		st, err = client.Increase(ctx)
	case "down":
		st, err = client.Decrease(ctx)
	case "inc":
		var hz uint64
		if hz, err = argUint(args, "inc"); err == nil {
			st, err = client.SelectIncrement(ctx, uint32(hz))
		}
	case "duty":
		st, err = client.StepDuty(ctx)
	case "set-duty":
		var pct uint64
		if pct, err = argUint(args, "set-duty"); err == nil {
			st, err = client.SetDuty(ctx, uint32(pct))
		}
	case "start":
		st, err = client.Start(ctx)
	case "stop":
		st, err = client.Stop(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}

	// A refused request still carries the device status
	if err != nil && !errors.Is(err, remote.ErrTimeout) && st.FrequencyHz != 0 {
		printStatus(st)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	printStatus(st)
	return nil
}

func argUint(args []string, name string) (uint64, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("usage: %s N", name)
	}
	v, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func printStatus(st protocol.StatusReply) {
	s := core.Status{
		FrequencyHz: st.FrequencyHz,
		ActualHz:    st.ActualHz,
		Duty:        core.DutyCycle(st.Duty),
		Increment:   core.FrequencyIncrement(st.Increment),
		Running:     st.Running,
		Battery:     int(st.Battery),
	}
	line1, line2 := s.Lines(nil, nil)
	fmt.Printf("%s  (actual %s)\n%s\n", line1, core.AppendFrequency(nil, st.ActualHz), line2)
}

func runPlot(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	out := fs.String("o", "sqwave.png", "Output PNG file")
	cycles := fs.Int("cycles", 8, "Waveform cycles to draw")
	freq := fs.Uint("freq", uint(cfg.Generator.FrequencyHz), "Frequency in Hz")
	duty := fs.Int("duty", cfg.Generator.Duty, "Duty cycle percent, rounded to a multiple of 10")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cycles <= 0 {
		return fmt.Errorf("cycles must be positive")
	}

	s := cfg.Settings()
	s.Frequency = core.Frequency(*freq)
	s.Duty = core.NormalizeDuty(*duty)

	trace, err := plot.Simulate(s, *cycles, cfg.Generator.SystemClockHz)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	if trace.Stalls != 0 {
		slog.Warn("simulated FIFO stalls", "count", trace.Stalls)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := plot.WritePNG(f, trace, plot.DefaultOptions()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", *out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", *out, plot.Caption(trace))
	return nil
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: sqwave-ctl [flags] command

Commands:
  status          Show device status
  up              Increase frequency by the selected increment
  down            Decrease frequency by the selected increment
  inc N           Select the increment (1000 or 10000 Hz)
  duty            Step the duty cycle by 10%%
  set-duty N      Set the duty cycle, rounded to a multiple of 10
  start           Enable the output
  stop            Disable the output
  plot [-o file.png] [-cycles N] [-freq HZ] [-duty PCT]
                  Simulate the waveform offline and write a PNG

Flags:
`)
	flag.PrintDefaults()
}
