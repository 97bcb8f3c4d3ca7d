package main

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/takosim/internal/config"
)

func newTestCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	configFile, sets = "", nil
	cmd := &cobra.Command{Use: "run"}
	addSessionFlags(cmd)
	for k, v := range flags {
		if err := cmd.Flags().Set(k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	return cmd
}

func TestBuildConfigPresetAndFlags(t *testing.T) {
	cmd := newTestCmd(t, map[string]string{"dt": "0.02", "shaper": "fast", "set": "cadence=4.5"})
	cfg, name, err := buildConfig(cmd, []string{"master"})
	if err != nil {
		t.Fatal(err)
	}
	if name != "master" {
		t.Errorf("name = %s", name)
	}
	if cfg.Run.Dt != 0.02 || cfg.Session.Shaper != "fast" {
		t.Errorf("flags not applied: dt=%v shaper=%s", cfg.Run.Dt, cfg.Session.Shaper)
	}
	if cfg.Input.Synthetic.Cadence != 4.5 {
		t.Errorf("cadence = %v, want 4.5", cfg.Input.Synthetic.Cadence)
	}
	if !cfg.Input.Smooth {
		t.Error("preset smoothing should survive unchanged flags")
	}
}

func TestBuildConfigUnchangedFlagsKeepDefaults(t *testing.T) {
	cmd := newTestCmd(t, nil)
	cfg, name, err := buildConfig(cmd, nil)
	if err != nil {
		t.Fatal(err)
	}
	if name != "default" {
		t.Errorf("name = %s", name)
	}
	if cfg.Run.Duration != config.DefaultConfig().Run.Duration {
		t.Errorf("duration = %v", cfg.Run.Duration)
	}
}

func TestBuildConfigErrors(t *testing.T) {
	if _, _, err := buildConfig(newTestCmd(t, nil), []string{"nope"}); err == nil {
		t.Error("unknown preset should fail")
	}
	cmd := newTestCmd(t, map[string]string{"set": "bogus=1"})
	if _, _, err := buildConfig(cmd, nil); !errors.Is(err, config.ErrUnknownParam) {
		t.Errorf("err = %v, want ErrUnknownParam", err)
	}
	cmd = newTestCmd(t, map[string]string{"set": "cadence"})
	if _, _, err := buildConfig(cmd, nil); err == nil {
		t.Error("missing value should fail")
	}
}

func TestParseGrid(t *testing.T) {
	params, ranges, err := parseGrid([]string{"cadence=4:8:3", "noise=0:0.4:2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(params) != 2 || params[0] != "cadence" {
		t.Fatalf("params = %v", params)
	}
	if len(ranges[0]) != 3 || ranges[0][1] != 6 {
		t.Errorf("cadence range = %v", ranges[0])
	}

	for _, bad := range []string{"cadence", "cadence=1:2", "cadence=a:2:3", "cadence=1:2:0", "bogus=1:2:3"} {
		if _, _, err := parseGrid([]string{bad}); err == nil {
			t.Errorf("%q should fail", bad)
		}
	}
}
