package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/google/shlex"

	"riotgo/trace"
)

// repl reads commands until quit or end of input.
func (s *session) repl(in *bufio.Scanner) error {
	fmt.Fprintln(s.out, "Enter commands (type 'help' for available commands, 'quit' to exit):")
	for {
		fmt.Fprint(s.out, "> ")
		if !in.Scan() {
			return in.Err()
		}
		args, err := shlex.Split(in.Text())
		if err != nil {
			fmt.Fprintf(s.out, "Parse error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" || args[0] == "q" {
			return nil
		}
		if err := s.exec(args); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

// exec runs one parsed command line.
func (s *session) exec(args []string) error {
	switch args[0] {
	case "help", "?":
		s.printHelp()
	case "list":
		for _, name := range scenarioNames() {
			fmt.Fprintf(s.out, "  %-10s %s\n", name, scenarios[name].desc)
		}
	case "run":
		if len(args) != 2 {
			return fmt.Errorf("usage: run <scenario>")
		}
		return s.run(args[1])
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: set <key> <value>")
		}
		return s.set(args[1], args[2])
	case "config":
		c := s.cfg
		fmt.Fprintf(s.out, "backend=%s width=%d hz=%d backoff=%d overhead=%d isr_backoff=%d quantum=%dus rr=%v\n",
			c.Backend, c.Timer.Width, c.Timer.Hz, c.Timer.Backoff, c.Timer.Overhead,
			c.Timer.ISRBackoff, c.RoundRobin.QuantumUsec, !c.RoundRobin.Disabled)
	case "dump":
		s.dump()
	case "export":
		if len(args) != 2 {
			return fmt.Errorf("usage: export <file>")
		}
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := trace.Export(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case "threads":
		if s.last == nil {
			return fmt.Errorf("nothing has run yet")
		}
		k := s.last.Kernel
		fmt.Fprintf(s.out, "%d threads alive, %d context switches\n", k.NumThreads(), k.ContextSwitches())
	default:
		return fmt.Errorf("unknown command %q (type 'help' for available commands)", args[0])
	}
	return nil
}

// set changes one board parameter for the following runs.
func (s *session) set(key, value string) error {
	c := *s.cfg
	switch key {
	case "backend":
		c.Backend = value
	case "rr":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		c.RoundRobin.Disabled = !on
	case "verbose":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		s.verbose = on
		c.Trace = c.Trace || on
	default:
		n, err := strconv.ParseUint(value, 0, 32)
		if err != nil {
			return err
		}
		switch key {
		case "width":
			c.Timer.Width = uint(n)
		case "hz":
			c.Timer.Hz = uint32(n)
		case "counter":
			c.Timer.StartCounter = uint32(n)
		case "backoff":
			c.Timer.Backoff = uint32(n)
		case "overhead":
			c.Timer.Overhead = uint32(n)
		case "isr_backoff":
			c.Timer.ISRBackoff = uint32(n)
		case "quantum":
			c.RoundRobin.QuantumUsec = uint32(n)
		default:
			return fmt.Errorf("unknown key %q", key)
		}
	}
	if err := c.Validate(); err != nil {
		return err
	}
	s.cfg = &c
	return nil
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, "\nAvailable commands:")
	fmt.Fprintln(s.out, "  list               - List scenarios")
	fmt.Fprintln(s.out, "  run <scenario>     - Run a scenario on a fresh board")
	fmt.Fprintln(s.out, "  set <key> <value>  - Change width, hz, counter, backoff, overhead,")
	fmt.Fprintln(s.out, "                       isr_backoff, quantum, backend, rr or verbose")
	fmt.Fprintln(s.out, "  config             - Show the board configuration")
	fmt.Fprintln(s.out, "  threads            - Show kernel state after the last run")
	fmt.Fprintln(s.out, "  dump               - Print the event trace")
	fmt.Fprintln(s.out, "  export <file>      - Write the event trace in wire format")
	fmt.Fprintln(s.out, "  quit/exit/q        - Exit the program")
	fmt.Fprintln(s.out)
}
