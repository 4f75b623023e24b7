package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

type section struct {
	Timeout   time.Duration            `mapstructure:"timeout"`
	QueueSize int                      `mapstructure:"queue_size"`
	Timeouts  map[string]time.Duration `mapstructure:"timeouts"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Ollama        section `mapstructure:"ollama"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestServiceConfigDefaults(t *testing.T) {
	cfg := ServiceConfig{Name: "ollamacmd", Debug: true}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" {
		t.Errorf("environment = %q", cfg.Environment)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("debug did not force debug logging: %q", cfg.Logging.Level)
	}
	if cfg.Logging.ServiceName != "ollamacmd" {
		t.Errorf("logging service name = %q", cfg.Logging.ServiceName)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("err = %v, want %q", err, tc.errMsg)
			}
		})
	}
}

func TestLoadConfigYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: ollamacmd
environment: staging
ollama:
  timeout: 45s
  queue_size: 8
  timeouts:
    serve: 0s
`)
	t.Setenv("OLLAMA_QUEUE_SIZE", "16")
	t.Setenv("OLLAMA_TIMEOUTS_LIST", "5s")
	t.Setenv("LOGGING_LEVEL", "warn")

	var cfg testConfig
	if err := LoadConfig("ollamacmd", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none.env"))); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Name != "ollamacmd" || cfg.Environment != "staging" {
		t.Errorf("service = %+v", cfg.ServiceConfig)
	}
	if cfg.Ollama.Timeout != 45*time.Second {
		t.Errorf("timeout = %v", cfg.Ollama.Timeout)
	}
	if cfg.Ollama.QueueSize != 16 {
		t.Errorf("env override ignored: queue_size = %d", cfg.Ollama.QueueSize)
	}
	if cfg.Ollama.Timeouts["list"] != 5*time.Second {
		t.Errorf("timeouts = %v", cfg.Ollama.Timeouts)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "OLLAMA_TIMEOUT=12s\n")
	t.Cleanup(func() { os.Unsetenv("OLLAMA_TIMEOUT") })

	var cfg testConfig
	if err := LoadConfig("ollamacmd", &cfg, WithEnvFile(envPath), WithFileSystem(OSFileSystem{})); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Ollama.Timeout != 12*time.Second {
		t.Errorf("timeout = %v", cfg.Ollama.Timeout)
	}
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("ollamacmd", &cfg, WithConfigFile("/nonexistent/config.yml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	if err := LoadConfig("ollamacmd", testConfig{}, WithConfigFile("")); err == nil {
		t.Fatal("expected error for non-pointer target")
	}
}

type fakeFS map[string]bool

func (f fakeFS) Exists(path string) bool { return f[path] }
func (f fakeFS) LoadEnv(string) error    { return nil }

func TestResolve(t *testing.T) {
	fs := fakeFS{
		filepath.Join("config", "config.yml"): true,
		".env":                                true,
	}
	files := Resolve("ollamacmd", LoaderConfig{FileSystem: fs})
	if files.ConfigFile != filepath.Join("config", "config.yml") {
		t.Errorf("config file = %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("env file = %q", files.EnvFile)
	}

	files = Resolve("ollamacmd", LoaderConfig{FileSystem: fs, ConfigFile: "x.yml"})
	if files.ConfigFile != "x.yml" {
		t.Errorf("explicit config file not kept: %q", files.ConfigFile)
	}
}

func TestKnownKeys(t *testing.T) {
	ks, err := knownKeys(&testConfig{})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"name", "logging.level", "ollama.timeout", "ollama.queue_size", "ollama.timeouts.serve"} {
		if !ks.accepts(key) {
			t.Errorf("key %q not accepted", key)
		}
	}
	for _, key := range []string{"path", "ollama", "ollama.host", "ollama.timeouts.serve.x"} {
		if ks.accepts(key) {
			t.Errorf("key %q accepted", key)
		}
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("DISPATCH_QUEUE_SIZE")
	sort.Strings(got)
	want := []string{"dispatch.queue.size", "dispatch.queue_size", "dispatch_queue.size", "dispatch_queue_size"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("variants = %v, want %v", got, want)
	}
	if got := envKeyVariants("HOME"); len(got) != 1 || got[0] != "home" {
		t.Errorf("HOME variants = %v", got)
	}
}
