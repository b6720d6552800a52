// Command riotsim runs the scheduler and timer subsystem on a simulated or
// host-clock board and reports what happened.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"riotgo/board"
	"riotgo/config"
	"riotgo/console"
	"riotgo/trace"
)

var (
	configPath  = flag.String("config", "", "Board description (JSON)")
	scenarioArg = flag.String("scenario", "all", "Scenario to run, or 'all'")
	native      = flag.Bool("native", false, "Use the host clock instead of the simulated timer")
	verbose     = flag.Bool("verbose", false, "Dump the event trace after each scenario")
	serialDev   = flag.String("serial", "", "Stream the event trace to this serial device")
	baud        = flag.Int("baud", console.DefaultBaud, "Serial baud rate")
	replay      = flag.String("replay", "", "Decode and print a previously exported trace file")
	interactive = flag.Bool("i", false, "Interactive mode")
)

func main() {
	flag.Parse()

	if *replay != "" {
		if err := replayTrace(*replay, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s := &session{cfg: cfg, out: os.Stdout, verbose: *verbose}
	stdout := func(line string) { fmt.Println(line) }
	trace.SetWriter(stdout)
	trace.SetEnabled(true)
	if *serialDev != "" {
		ccfg := console.DefaultConfig(*serialDev)
		ccfg.Baud = *baud
		port, err := console.Open(ccfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer port.Close()
		s.port = port
		cfg.Trace = true

		// Debug lines go to both the terminal and the port.
		mirror := console.Writer(port)
		trace.SetWriter(func(line string) {
			stdout(line)
			mirror(line)
		})
	}

	if *interactive {
		if err := s.repl(bufio.NewScanner(os.Stdin)); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
		return
	}

	names := []string{*scenarioArg}
	if *scenarioArg == "all" {
		names = scenarioNames()
	}
	for _, name := range names {
		if err := s.run(name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", name, err)
			os.Exit(1)
		}
	}
}

func loadConfig() (*config.BoardConfig, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if *native {
		cfg.Backend = config.BackendNative
	}
	if *verbose {
		cfg.Trace = true
	}
	return cfg, nil
}

// session carries the state shared by batch and interactive runs.
type session struct {
	cfg     *config.BoardConfig
	out     io.Writer
	port    console.Port
	verbose bool
	last    *board.Board
}

func (s *session) run(name string) error {
	trace.Clear()
	b, err := runScenario(name, func() (*board.Board, error) { return board.New(s.cfg) }, s.out)
	s.last = b
	if err != nil {
		return err
	}
	if s.verbose {
		s.dump()
	}
	if s.port != nil {
		trace.Println("sending " + trace.Itoa(len(trace.Events())) + " events to " + *serialDev)
		if err := console.SendTrace(s.port); err != nil {
			return fmt.Errorf("sending trace: %w", err)
		}
	}
	return nil
}

func (s *session) dump() {
	trace.Dump()
}

func replayTrace(path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	events, err := trace.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	for _, e := range events {
		fmt.Fprintln(out, e.Format())
	}
	fmt.Fprintf(out, "%d events\n", len(events))
	return nil
}
