package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts the file operations of the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem implements FileSystem on the real disk.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads path into the process environment without overriding
// variables that are already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// ResolvedFiles contains the config and env file paths that will be read.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolve finds the config and env files for service. Explicit paths win.
func Resolve(service string, lc LoaderConfig) ResolvedFiles {
	fs := lc.FileSystem
	if fs == nil {
		fs = OSFileSystem{}
	}
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(fs, configCandidates(service))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(fs, envCandidates(service))
	}
	return files
}

func configCandidates(service string) []string {
	return []string{
		filepath.Join("cmd", service, "config.yml"),
		filepath.Join("config", "config.yml"),
		"config.yml",
		filepath.Join(userConfigDir(), service, "config.yml"),
	}
}

func envCandidates(service string) []string {
	return []string{
		filepath.Join("cmd", service, ".env"),
		".env." + service,
		".env",
	}
}

func userConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if p != "" && fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig loads configuration for service into cfg, which must be a
// pointer to a struct with mapstructure tags.
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = OSFileSystem{}
	}
	files := Resolve(service, lc)

	v := viper.New()
	if files.ConfigFile != "" {
		if !lc.FileSystem.Exists(files.ConfigFile) {
			if lc.ConfigFile != "" {
				return fmt.Errorf("config file %s not found", files.ConfigFile)
			}
		} else {
			v.SetConfigFile(files.ConfigFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config file %s: %w", files.ConfigFile, err)
			}
		}
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", files.EnvFile, err)
		}
	}

	keys, err := knownKeys(cfg)
	if err != nil {
		return err
	}
	bindEnv(v, keys, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", service, err)
	}
	return nil
}

// keySet holds the dotted keys a config struct declares. Map-typed keys
// accept any sub-key.
type keySet struct {
	leaves map[string]bool
	maps   map[string]bool
}

func (k keySet) accepts(key string) bool {
	if k.leaves[key] {
		return true
	}
	for m := range k.maps {
		if strings.HasPrefix(key, m+".") && !strings.Contains(key[len(m)+1:], ".") {
			return true
		}
	}
	return false
}

// knownKeys walks the mapstructure tags of cfg.
func knownKeys(cfg any) (keySet, error) {
	t := reflect.TypeOf(cfg)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return keySet{}, fmt.Errorf("config target must be a pointer to a struct, got %T", cfg)
	}
	ks := keySet{leaves: map[string]bool{}, maps: map[string]bool{}}
	walk(t.Elem(), "", ks)
	return ks, nil
}

func walk(t reflect.Type, prefix string, ks keySet) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, squash := parseTag(f)
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}

		key := prefix
		if !squash {
			key = join(prefix, name)
		}

		switch {
		case ft.Kind() == reflect.Struct && ft.PkgPath() != "time":
			walk(ft, key, ks)
		case ft.Kind() == reflect.Map:
			ks.maps[key] = true
		default:
			ks.leaves[key] = true
		}
	}
}

func parseTag(f reflect.StructField) (name string, squash bool) {
	tag := f.Tag.Get("mapstructure")
	parts := strings.Split(tag, ",")
	for _, p := range parts[1:] {
		if p == "squash" {
			squash = true
		}
	}
	name = parts[0]
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	return name, squash || (f.Anonymous && parts[0] == "")
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// bindEnv sets every environment variable whose name maps onto a declared
// key. A variable may match more than one key shape; all matches are set.
func bindEnv(v *viper.Viper, keys keySet, environ []string) {
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, key := range envKeyVariants(name) {
			if keys.accepts(key) {
				v.Set(key, value)
			}
		}
	}
}

// envKeyVariants lists the dotted keys an environment variable could mean.
// Each underscore is either a level separator or part of a key name:
//
//	DISPATCH_QUEUE_SIZE -> dispatch_queue_size, dispatch.queue_size, dispatch.queue.size, ...
func envKeyVariants(name string) []string {
	parts := strings.Split(strings.ToLower(name), "_")
	if len(parts) > 6 {
		return []string{strings.Join(parts, ".")}
	}
	var out []string
	var build func(i int, cur string)
	build = func(i int, cur string) {
		if i == len(parts) {
			out = append(out, cur)
			return
		}
		build(i+1, cur+"."+parts[i])
		build(i+1, cur+"_"+parts[i])
	}
	build(1, parts[0])
	return out
}
