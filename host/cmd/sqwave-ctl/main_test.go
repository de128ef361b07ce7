package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArgUint(t *testing.T) {
	v, err := argUint([]string{"inc", "10000"}, "inc")
	if err != nil || v != 10000 {
		t.Errorf("Expected 10000, got %d, %v", v, err)
	}
	if _, err := argUint([]string{"inc"}, "inc"); err == nil {
		t.Error("Expected an error for a missing value")
	}
	if _, err := argUint([]string{"inc", "-5"}, "inc"); err == nil {
		t.Error("Expected an error for a negative value")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqwave.json")
	if err := os.WriteFile(path, []byte(`{"link": {"device": "/dev/ttyACM3"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	*configPath = path
	*baud = 9600
	defer func() { *configPath, *baud = "", 0 }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Link.Device != "/dev/ttyACM3" {
		t.Errorf("Expected device from file, got %s", cfg.Link.Device)
	}
	if cfg.Link.Baud != 9600 {
		t.Errorf("Expected baud from flag, got %d", cfg.Link.Baud)
	}
}
