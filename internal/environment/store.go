// Package environment persists per-environment configuration and state for a
// project. Each environment owns two JSON files under the project's .appfx
// directory: an operator-edited config and a provisioning-owned state. Secret
// state values are sealed at rest through a CryptoProvider.
//
// Access is serialized per process by the command flow; there is no
// cross-process locking. Concurrent external edits lose by last-write-wins.
package environment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/appfx/appfx/pkg/errors"
)

const (
	// MetaDir is the project-relative directory holding all appfx files.
	MetaDir = ".appfx"
	// LocalEnvName is the environment used for local runs. It is created on
	// demand instead of failing like other missing environments.
	LocalEnvName = "local"

	configsDir = "configs"
	statesDir  = "states"
)

// Info is one loaded environment: its name, its config, and its state with
// all secrets in plaintext.
type Info struct {
	EnvName string
	Config  Config
	State   State
}

// ConfigPath returns the config file path for an environment.
func ConfigPath(projectPath, envName string) string {
	return filepath.Join(projectPath, MetaDir, configsDir, "config."+envName+".json")
}

// StatePath returns the state file path for an environment.
func StatePath(projectPath, envName string) string {
	return filepath.Join(projectPath, MetaDir, statesDir, "state."+envName+".json")
}

// Load reads one environment. The local environment is created empty when
// absent; any other missing environment is a user error. Sealed secret
// values are decrypted in the returned state, and a value that fails to
// decrypt aborts the load.
func Load(projectPath string, crypto CryptoProvider, envName string) (*Info, error) {
	cfgPath := ConfigPath(projectPath, envName)

	raw, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		if envName != LocalEnvName {
			return nil, apperrors.NewProjectEnvNotExistError(envName)
		}
		if err := CreateEnv(projectPath, LocalEnvName, Config{}); err != nil {
			return nil, err
		}
		return &Info{EnvName: LocalEnvName, Config: Config{}, State: State{}}, nil
	}
	if err != nil {
		return nil, apperrors.NewInvalidEnvConfigError(envName, cfgPath, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, apperrors.NewInvalidEnvConfigError(envName, cfgPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewInvalidEnvConfigError(envName, cfgPath, err)
	}

	state, err := loadState(projectPath, crypto, envName)
	if err != nil {
		return nil, err
	}

	return &Info{EnvName: envName, Config: cfg, State: state}, nil
}

func loadState(projectPath string, crypto CryptoProvider, envName string) (State, error) {
	statePath := StatePath(projectPath, envName)

	raw, err := os.ReadFile(statePath)
	if os.IsNotExist(err) {
		return State{}, nil
	}
	if err != nil {
		return nil, apperrors.NewInvalidEnvStateError(envName, statePath, err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, apperrors.NewInvalidEnvStateError(envName, statePath, err)
	}

	for component, slice := range state {
		for key, value := range slice {
			sealed, ok := value.(string)
			if !ok || !strings.HasPrefix(key, SecretKeyPrefix) || !IsSealed(sealed) {
				continue
			}
			plaintext, err := crypto.Decrypt(sealed)
			if err != nil {
				return nil, apperrors.NewDecryptionError(envName, component+"."+key, err)
			}
			slice[key] = plaintext
		}
	}

	return state, nil
}

// WriteState persists an environment's state, sealing secret values, and
// returns the path written. The on-disk file is replaced atomically so a
// crash never leaves a truncated state behind.
func WriteState(info *Info, projectPath string, crypto CryptoProvider) (string, error) {
	statePath := StatePath(projectPath, info.EnvName)

	onDisk := info.State.DeepCopy()
	for component, slice := range onDisk {
		for key, value := range slice {
			plaintext, ok := value.(string)
			if !ok || !strings.HasPrefix(key, SecretKeyPrefix) || IsSealed(plaintext) {
				continue
			}
			sealed, err := crypto.Encrypt(plaintext)
			if err != nil {
				return "", fmt.Errorf("failed to seal %s.%s for environment %q: %w", component, key, info.EnvName, err)
			}
			slice[key] = sealed
		}
	}

	data, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal state for environment %q: %w", info.EnvName, err)
	}

	if err := WriteFileAtomic(statePath, data); err != nil {
		return "", err
	}
	return statePath, nil
}

// WriteConfig persists an environment's config file.
func WriteConfig(projectPath, envName string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config for environment %q: %w", envName, err)
	}
	return WriteFileAtomic(ConfigPath(projectPath, envName), data)
}

// CreateEnv creates a new environment config file. Creating an environment
// that already exists is an error; state appears later, on first write.
func CreateEnv(projectPath, envName string, cfg Config) error {
	if !ValidateEnvName(envName) {
		return apperrors.New(apperrors.NameInvalidEnvConfig, apperrors.ClassUser,
			"%q is not a valid environment name; use lowercase letters, digits, and dashes", envName)
	}

	cfgPath := ConfigPath(projectPath, envName)
	if _, err := os.Stat(cfgPath); err == nil {
		return apperrors.NewProjectEnvAlreadyExistError(envName)
	}

	return WriteConfig(projectPath, envName, cfg)
}

// ListEnvs returns the environment names present in the project, sorted.
func ListEnvs(projectPath string) ([]string, error) {
	dir := filepath.Join(projectPath, MetaDir, configsDir)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list environments: %w", err)
	}

	var envs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "config.") || !strings.HasSuffix(name, ".json") {
			continue
		}
		env := strings.TrimSuffix(strings.TrimPrefix(name, "config."), ".json")
		if env != "" {
			envs = append(envs, env)
		}
	}

	sort.Strings(envs)
	return envs, nil
}

// WriteFileAtomic writes via a temporary file and rename so readers never
// observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
