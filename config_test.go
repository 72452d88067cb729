package offlinegate

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfigYaml = `
origin: http://localhost:3000
listen: ":9090"
db: memory
manifest:
  - /
  - /assets/app.js
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(filename, []byte(testConfigYaml), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestLoadConfigFromFile(t *testing.T) {
	config, err := LoadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if config.Origin != "http://localhost:3000" {
		t.Fatalf("Origin is %s", config.Origin)
	}
	if config.Listen != ":9090" {
		t.Fatalf("Listen is %s", config.Listen)
	}
	if len(config.Manifest) != 2 {
		t.Fatalf("Manifest is %v", config.Manifest)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("Valid config rejected: %v", err)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if config.Listen != ":8080" {
		t.Fatalf("Listen default is %s", config.Listen)
	}
	if config.DB != "cache.db" {
		t.Fatalf("DB default is %s", config.DB)
	}
	if config.APIPathSegment != "/api/" {
		t.Fatalf("API segment default is %s", config.APIPathSegment)
	}
	if config.ControlPrefix != "/.offline-gate" {
		t.Fatalf("Control prefix default is %s", config.ControlPrefix)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("OFFLINE_GATE_ORIGIN", "http://origin.internal")
	t.Setenv("OFFLINE_GATE_LISTEN", ":7070")
	config, err := LoadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if config.Origin != "http://origin.internal" {
		t.Fatalf("Origin is %s", config.Origin)
	}
	if config.Listen != ":7070" {
		t.Fatalf("Listen is %s", config.Listen)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	bad := []FileConfig{
		{},
		{Origin: "localhost:3000", Manifest: []string{"/"}},
		{Origin: "http://localhost:3000/subpath", Manifest: []string{"/"}},
		{Origin: "http://localhost:3000", Manifest: nil},
		{Origin: "http://localhost:3000", Manifest: []string{"no-slash"}},
	}
	for i, config := range bad {
		if err := config.Validate(); err == nil {
			t.Fatalf("Config %d accepted: %+v", i, config)
		}
	}
}
