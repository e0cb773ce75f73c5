package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("CMD_TEST_MODE", "env-mode")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.Address, "address", cfg.Address, "address")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "mode")

	if err := ParseArgs(fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.Address != "flag:9001" {
		t.Fatalf("expected flag value for address, got %q", cfg.Address)
	}
	if cfg.Mode != "env-mode" {
		t.Fatalf("expected env mode, got %q", cfg.Mode)
	}
}

func TestParseRejectsNilInputs(t *testing.T) {
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
	var cfg *testConfig
	if err := ParseConfig(cfg); err == nil {
		t.Fatal("expected parse config to reject nil target")
	}
}

func TestLogPrefix(t *testing.T) {
	if got := LogPrefix("catalog-importer"); got != "[CATALOG_IMPORTER] " {
		t.Fatalf("unexpected prefix %q", got)
	}
}

func TestNewLoggerHonorsVerbosity(t *testing.T) {
	log := NewLogger(ServiceVerifier, 1)
	if !log.V(1).Enabled() {
		t.Fatal("expected V(1) enabled")
	}
	if log.V(2).Enabled() {
		t.Fatal("expected V(2) disabled")
	}
	NewLogger(ServiceVerifier, 0)
}

func TestRunWithTelemetry(t *testing.T) {
	t.Setenv("RENOVATION_RUMBLE_OTEL_ENDPOINT", "")
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceVerifier, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
	boom := errors.New("boom")
	err := RunWithTelemetry(context.Background(), ServiceVerifier, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected run error, got %v", err)
	}
}
