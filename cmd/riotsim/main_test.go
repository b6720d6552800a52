package main

import (
	"bufio"
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"riotgo/board"
	"riotgo/config"
)

func simBuild() (*board.Board, error) {
	return board.New(config.Default())
}

func runOutput(t *testing.T, name string) string {
	t.Helper()
	var out bytes.Buffer
	if _, err := runScenario(name, simBuild, &out); err != nil {
		t.Fatalf("Scenario %s failed: %v\n%s", name, err, out.String())
	}
	return out.String()
}

func TestAllScenariosComplete(t *testing.T) {
	for _, name := range scenarioNames() {
		t.Run(name, func(t *testing.T) {
			out := runOutput(t, name)
			if !strings.Contains(out, "== "+name+" done") {
				t.Errorf("Scenario did not finish:\n%s", out)
			}
		})
	}
}

func TestTimersScenarioOrder(t *testing.T) {
	out := runOutput(t, "timers")
	re := regexp.MustCompile(`timer (\d) `)
	var order []string
	for _, m := range re.FindAllStringSubmatch(out, -1) {
		order = append(order, m[1])
	}
	if strings.Join(order, ",") != "3,1,0,2" {
		t.Errorf("Expected timers to fire 3,1,0,2, got %v\n%s", order, out)
	}
}

func TestMutexScenarioOutcomes(t *testing.T) {
	out := runOutput(t, "mutex")
	for _, want := range []string{"impatient: xtimer: timeout", "patient locked", "cancelled: "} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestUnknownScenario(t *testing.T) {
	var out bytes.Buffer
	if _, err := runScenario("nope", simBuild, &out); err == nil {
		t.Error("Expected an error for an unknown scenario")
	}
}

func TestReplSession(t *testing.T) {
	export := filepath.Join(t.TempDir(), "trace.bin")
	var out bytes.Buffer
	s := &session{cfg: config.Default(), out: &out}
	s.cfg.Trace = true

	input := strings.Join([]string{
		"list",
		"set width 16",
		"set counter 65000",
		"set quantum 'not a number'",
		"config",
		"run periodic",
		"threads",
		"export " + export,
		"bogus",
		"quit",
		"run timers",
	}, "\n")
	if err := s.repl(bufio.NewScanner(strings.NewReader(input))); err != nil {
		t.Fatalf("repl failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"width=16", "== periodic done", "unknown command", "context switches"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output:\n%s", want, text)
		}
	}
	if strings.Contains(text, "== timers") {
		t.Error("Commands after quit were executed")
	}
	if s.cfg.Timer.StartCounter != 65000 {
		t.Errorf("Expected counter 65000, got %d", s.cfg.Timer.StartCounter)
	}

	var replayed bytes.Buffer
	if err := replayTrace(export, &replayed); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !strings.Contains(replayed.String(), " events") || strings.HasPrefix(replayed.String(), "0 events") {
		t.Errorf("Expected replayed events, got:\n%s", replayed.String())
	}
}

func TestSetRejectsInvalid(t *testing.T) {
	s := &session{cfg: config.Default(), out: &bytes.Buffer{}}
	if err := s.set("width", "40"); err == nil {
		t.Error("Expected width 40 to be rejected")
	}
	if s.cfg.Timer.Width != 32 {
		t.Errorf("Rejected change leaked into the config: width %d", s.cfg.Timer.Width)
	}
	if err := s.set("rr", "false"); err != nil || !s.cfg.RoundRobin.Disabled {
		t.Errorf("Expected rr to be disabled, err %v", err)
	}
}
