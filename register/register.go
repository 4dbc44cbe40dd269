// Package register adds a docindex serve entry to an MCP client configuration file.
package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Scope selects which client configuration file is written.
type Scope string

// Supported scopes.
const (
	ScopeProject Scope = "project" // <directory>/.mcp.json
	ScopeUser    Scope = "user"    // ~/.claude.json
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeProject, ScopeUser:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown scope %q (must be \"project\" or \"user\")", s)
	}
}

// Options describe the server entry to register.
type Options struct {
	Scope Scope
	// ConfigDir holds .mcp.json for ScopeProject; it defaults to RootDir.
	ConfigDir string
	// RootDir is the document directory the server indexes.
	RootDir string
	// ServerName defaults to the binary name without -mcp.
	ServerName string
	// BinaryPath defaults to the running executable.
	BinaryPath string
	// ExtraArgs are appended after "serve <RootDir>".
	ExtraArgs []string
}

// Result reports where the entry was written.
type Result struct {
	ServerName string
	ConfigPath string
}

type serverEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Register writes or replaces the server entry described by options.
func Register(options Options) (Result, error) {
	if options.RootDir == "" {
		return Result{}, errors.New("root directory is required")
	}
	rootDir, err := filepath.Abs(options.RootDir)
	if err != nil {
		return Result{}, fmt.Errorf("resolving directory %s: %w", options.RootDir, err)
	}

	binaryPath := options.BinaryPath
	if binaryPath == "" {
		if binaryPath, err = detectBinaryPath(); err != nil {
			return Result{}, err
		}
	}
	serverName := options.ServerName
	if serverName == "" {
		serverName = DeriveServerName(binaryPath)
	}

	configDir := options.ConfigDir
	if configDir == "" {
		configDir = rootDir
	}
	configPath, err := ConfigPath(options.Scope, configDir)
	if err != nil {
		return Result{}, err
	}

	serverArgs := append([]string{"serve", rootDir}, options.ExtraArgs...)
	if err := writeConfig(configPath, serverName, buildEntry(binaryPath, serverArgs)); err != nil {
		return Result{}, err
	}
	return Result{ServerName: serverName, ConfigPath: configPath}, nil
}

// DeriveServerName extracts a server name from a binary path by stripping .exe and -mcp suffixes.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

// ConfigPath returns the client configuration file for scope.
func ConfigPath(scope Scope, directory string) (string, error) {
	switch scope {
	case ScopeProject:
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	case ScopeUser:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(homeDir, ".claude.json"), nil
	default:
		return "", fmt.Errorf("unknown scope %q", scope)
	}
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func buildEntry(binaryPath string, serverArgs []string) serverEntry {
	if runtime.GOOS == "windows" {
		return serverEntry{
			Command: "cmd",
			Args:    append([]string{"/C", binaryPath}, serverArgs...),
		}
	}
	return serverEntry{Command: binaryPath, Args: serverArgs}
}

// writeConfig merges the entry into configPath, keeping every other key.
// The file is replaced atomically.
func writeConfig(configPath string, serverName string, entry serverEntry) error {
	config := map[string]any{}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("reading config %s: %w", configPath, err)
	}

	servers, ok := config["mcpServers"]
	if !ok {
		servers = map[string]any{}
		config["mcpServers"] = servers
	}
	serversMap, ok := servers.(map[string]any)
	if !ok {
		return fmt.Errorf("mcpServers in %s is not an object", configPath)
	}
	serversMap[serverName] = entry

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	output = append(output, '\n')

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", configDir, err)
	}
	tmpFile, err := os.CreateTemp(configDir, ".mcp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", configDir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(output); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, configPath, err)
	}
	return nil
}
