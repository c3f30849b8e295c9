// Package core wires the editing subsystems into a session: it owns the
// configuration, the logger, and the orchestration between the document
// engine, the sync tracker, and the host bridge.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/md4h/prosedown/pkg/filesystem"
	"github.com/md4h/prosedown/pkg/resync"
)

// WorkspaceDir is the marker directory identifying a workspace root.
const WorkspaceDir = ".md4h"

// How many parent directories to traverse when searching for the
// workspace marker.
const maxDepth = 10

// Default .md4h/config content
const DefaultConfig = `
[core]
extensions=["md", "markdown"]

[sync]
echo-window-ms=2000
flush-debounce-ms=300

[images]
folder="medias"
max-size-mb=20
check-timeout-ms=2000
generic-names=[]

[search]
timeout-ms=3000
`

// Default .md4h/.gitignore content
const DefaultGitIgnore = `
/image-backups/
`

var (
	// Lazy-load configuration and ensure a single read
	configOnce      resync.Once
	configSingleton *Config
)

// Note: Fields must be public for the toml package to unmarshal
type ConfigFile struct {
	Core   ConfigCore
	Sync   ConfigSync
	Images ConfigImages
	Search ConfigSearch
}
type ConfigCore struct {
	Extensions []string
}
type ConfigSync struct {
	EchoWindowMs    int64 `toml:"echo-window-ms"`
	FlushDebounceMs int64 `toml:"flush-debounce-ms"`
}
type ConfigImages struct {
	Folder         string   `toml:"folder"`
	MaxSizeMB      int64    `toml:"max-size-mb"`
	CheckTimeoutMs int64    `toml:"check-timeout-ms"`
	GenericNames   []string `toml:"generic-names"`
}
type ConfigSearch struct {
	TimeoutMs int64 `toml:"timeout-ms"`
}

// SupportExtension checks if the given file extension must be considered.
func (f *ConfigFile) SupportExtension(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".") // ".md" => "md"
	for _, extension := range f.Core.Extensions {
		if strings.EqualFold(extension, ext) { // case-insensitive
			return true
		}
	}
	return false
}

// EchoWindow returns how long an outbound save suppresses its own echo.
func (f *ConfigFile) EchoWindow() time.Duration {
	return time.Duration(f.Sync.EchoWindowMs) * time.Millisecond
}

// FlushDebounce returns how long external edits settle before a reload.
func (f *ConfigFile) FlushDebounce() time.Duration {
	return time.Duration(f.Sync.FlushDebounceMs) * time.Millisecond
}

// CheckTimeout returns the deadline for workspace-membership round-trips.
func (f *ConfigFile) CheckTimeout() time.Duration {
	return time.Duration(f.Images.CheckTimeoutMs) * time.Millisecond
}

// SearchTimeout returns the deadline for file-search round-trips.
func (f *ConfigFile) SearchTimeout() time.Duration {
	return time.Duration(f.Search.TimeoutMs) * time.Millisecond
}

// MaxImageBytes returns the pasted-image size limit in bytes.
func (f *ConfigFile) MaxImageBytes() int64 {
	return f.Images.MaxSizeMB * filesystem.MB
}

/* Main config */

type Config struct {
	// Absolute top directory containing the .md4h sub-directory, or the
	// starting directory when no marker was found.
	RootDirectory string

	// .md4h/config content
	ConfigFile ConfigFile
}

func CurrentConfig() *Config {
	configOnce.Do(func() {
		var err error
		configSingleton, err = ReadConfigFromDirectory(currentHome())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read current configuration: %v\n", err)
			os.Exit(1)
		}
	})
	return configSingleton
}

func currentHome() string {
	// Supports overriding the root directory mainly for testing purposes.
	// For example, when developing the CLI, it's convenient to try commands
	// without installing the binary. Ex:
	//
	//   $ env MD4H_HOME=./examples go run main.go outline notes.md
	if path, ok := os.LookupEnv("MD4H_HOME"); ok {
		abspath, err := filepath.Abs(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to evaluate $MD4H_HOME")
			os.Exit(1)
		}
		if _, err := os.Stat(abspath); os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "Path in $MD4H_HOME undefined")
			os.Exit(1)
		}
		return abspath
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to determine current directory: %v\n", err)
		os.Exit(1)
	}
	return cwd
}

// findRoot searches the given directory and its parents for the workspace
// marker directory.
func findRoot(path string) (string, bool) {
	rootPath := path
	for i := 0; i < maxDepth; i++ {
		if stat, err := os.Stat(filepath.Join(rootPath, WorkspaceDir)); err == nil && stat.IsDir() {
			return rootPath, true
		}
		parent := filepath.Dir(rootPath)
		if parent == rootPath {
			// Filesystem root reached
			return "", false
		}
		rootPath = parent
	}
	return "", false
}

// ReadConfigFromDirectory loads the configuration by searching for a .md4h
// directory in the given directory or any parent directory. Editing must
// work in any directory, so a missing marker is not an error: the starting
// directory becomes the root and the defaults apply.
func ReadConfigFromDirectory(path string) (*Config, error) {
	abspath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	rootPath, found := findRoot(abspath)
	if !found {
		rootPath = abspath
	}

	configFile, err := parseConfigFile(DefaultConfig)
	if err != nil {
		return nil, fmt.Errorf("default configuration is broken: %v", err)
	}

	configPath := filepath.Join(rootPath, WorkspaceDir, "config")
	if found {
		content, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			// The marker directory alone is enough, defaults apply.
		case err != nil:
			return nil, fmt.Errorf("failed to read %s file: %v", configPath, err)
		default:
			// Decode over the defaults so omitted keys keep their values.
			if err := decodeConfigFile(string(content), configFile); err != nil {
				return nil, fmt.Errorf("failed to parse %s file: %v", configPath, err)
			}
		}
	}

	config := &Config{
		RootDirectory: rootPath,
		ConfigFile:    *configFile,
	}
	if err := config.Check(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func parseConfigFile(content string) (*ConfigFile, error) {
	var result ConfigFile
	if err := decodeConfigFile(content, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func decodeConfigFile(content string, into *ConfigFile) error {
	d := toml.NewDecoder(strings.NewReader(content))
	d.DisallowUnknownFields()
	return d.Decode(into)
}

// InitConfigFromDirectory creates the .md4h configuration directory with
// default files.
func InitConfigFromDirectory(path string) (*Config, error) {
	abspath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, found := findRoot(abspath); found {
		// Do not override current configuration
		return nil, fmt.Errorf("current configuration detected")
	}

	markerPath := filepath.Join(abspath, WorkspaceDir)
	if err := os.Mkdir(markerPath, 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(markerPath, "config"), []byte(DefaultConfig), 0644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(markerPath, ".gitignore"), []byte(DefaultGitIgnore), 0644); err != nil {
		return nil, err
	}

	// Reread configuration
	return ReadConfigFromDirectory(abspath)
}

func (c *Config) Check() error {
	f := &c.ConfigFile
	if len(f.Core.Extensions) == 0 {
		return fmt.Errorf("no supported extensions")
	}
	if f.Sync.EchoWindowMs <= 0 {
		return fmt.Errorf("echo-window-ms must be positive, got %d", f.Sync.EchoWindowMs)
	}
	if f.Sync.FlushDebounceMs < 0 {
		return fmt.Errorf("flush-debounce-ms must not be negative, got %d", f.Sync.FlushDebounceMs)
	}
	if f.Images.CheckTimeoutMs <= 0 {
		return fmt.Errorf("check-timeout-ms must be positive, got %d", f.Images.CheckTimeoutMs)
	}
	if f.Search.TimeoutMs <= 0 {
		return fmt.Errorf("timeout-ms must be positive, got %d", f.Search.TimeoutMs)
	}
	if f.Images.MaxSizeMB < 1 {
		return fmt.Errorf("max-size-mb must be at least 1, got %d", f.Images.MaxSizeMB)
	}
	folder := f.Images.Folder
	if folder == "" {
		return fmt.Errorf("images folder must not be empty")
	}
	if filepath.IsAbs(folder) || strings.HasPrefix(filepath.ToSlash(folder), "../") {
		return fmt.Errorf("images folder %q must stay inside the workspace", folder)
	}
	return nil
}
