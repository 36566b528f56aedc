package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	var config Config
	status, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"), &config)
	if status != ExitSuccess {
		t.Fatalf("expected ExitSuccess loading a missing file via the embedded default, got status=%d err=%v", status, err)
	}
	if config.DiscoveryPort != DefaultDiscoveryPort {
		t.Fatalf("expected default discovery port %d, got %d", DefaultDiscoveryPort, config.DiscoveryPort)
	}
	if config.ControlPort != DefaultControlPort {
		t.Fatalf("expected default control port %d, got %d", DefaultControlPort, config.ControlPort)
	}
}

func TestLoadConfigEmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("writing empty file: %v", err)
	}

	var config Config
	status, _ := LoadConfig(path, &config)
	if status != ExitSuccess {
		t.Fatalf("expected ExitSuccess for an empty config file, got %d", status)
	}
	if config.DiscoveryPort != DefaultDiscoveryPort {
		t.Fatalf("expected default discovery port for an empty file")
	}
}

func TestLoadConfigReadsProvidedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "DiscoveryPort: 11111\nControlPort: 22222\nSeedList:\n  - 10.0.0.5:11111\nAPIListen:\n  - 127.0.0.1:8080\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	var config Config
	status, err := LoadConfig(path, &config)
	if status != ExitSuccess {
		t.Fatalf("unexpected status=%d err=%v", status, err)
	}
	if config.DiscoveryPort != 11111 || config.ControlPort != 22222 {
		t.Fatalf("config values not applied: %+v", config)
	}
	if len(config.SeedList) != 1 || config.SeedList[0] != "10.0.0.5:11111" {
		t.Fatalf("unexpected SeedList: %v", config.SeedList)
	}
	if len(config.APIListen) != 1 || config.APIListen[0] != "127.0.0.1:8080" {
		t.Fatalf("unexpected APIListen: %v", config.APIListen)
	}
}

func TestLoadConfigParseErrorReturnsExitErrorConfigParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("DiscoveryPort: [this is not a port]"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	var config Config
	status, err := LoadConfig(path, &config)
	if status != ExitErrorConfigParse {
		t.Fatalf("expected ExitErrorConfigParse, got status=%d err=%v", status, err)
	}
}

func TestLoadConfigAppliesDefaultsForZeroFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("LogFile: custom.log\n"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	var config Config
	if status, err := LoadConfig(path, &config); status != ExitSuccess {
		t.Fatalf("unexpected status=%d err=%v", status, err)
	}
	if config.LogFile != "custom.log" {
		t.Fatalf("expected the explicit LogFile to survive, got %q", config.LogFile)
	}
	if config.DiscoveryPort != DefaultDiscoveryPort {
		t.Fatalf("expected unset DiscoveryPort to fall back to the default")
	}
	if config.ListenWorkers != 2 {
		t.Fatalf("expected unset ListenWorkers to default to 2, got %d", config.ListenWorkers)
	}
}
