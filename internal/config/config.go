// Package config reads and writes the TOML configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/SGullin/arpa/internal/checksum"
)

// Config is the full configuration, subdivided into categories.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Behaviour BehaviourConfig `toml:"behaviour"`
	Paths     PathsConfig     `toml:"paths"`
}

// DatabaseConfig describes the metadata database connection.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `toml:"driver"`
	// URL is the connection string: a file path for sqlite, a
	// postgres URL otherwise.
	URL string `toml:"url"`
	// PoolConnections caps the connection pool size.
	PoolConnections int `toml:"pool_connections"`
	// AcquireTimeoutMS bounds connection checkout, in milliseconds.
	AcquireTimeoutMS int64 `toml:"acquire_timeout_ms"`
}

// BehaviourConfig describes pipeline behaviour.
type BehaviourConfig struct {
	// ArchiveRawFiles moves raw files into a location determined by
	// their header data.
	ArchiveRawFiles bool `toml:"archive_rawfiles"`

	// MoveRawFiles removes the source after a verified archive copy.
	MoveRawFiles bool `toml:"move_rawfiles"`

	// AutoAddPulsars registers unrecognised pulsars on the fly.
	AutoAddPulsars bool `toml:"auto_add_pulsars"`

	// AutoResolveDuplicateUploads picks the existing entry when an
	// uploaded file's checksum is already in the database, instead of
	// erroring on the collision.
	AutoResolveDuplicateUploads bool `toml:"auto_resolve_duplicate_uploads"`

	// TOAFitting is the fitting method passed to the measurement
	// generator.
	TOAFitting string `toml:"toa_fitting"`

	// Diagnostics lists the diagnostics to run on cooked raw files.
	Diagnostics []string `toml:"diagnostics"`

	// ChecksumBlockSize is the read buffer size for checksums, in
	// bytes. Pick a value before deployment and keep it.
	ChecksumBlockSize int `toml:"checksum_block_size"`
}

// PathsConfig is a collection of filesystem roots.
type PathsConfig struct {
	// PSRChive is the directory holding the psrchive executables;
	// empty means take them from PATH.
	PSRChive string `toml:"psrchive"`
	// RawFileStorage is the root of the raw-file archive tree.
	RawFileStorage string `toml:"rawfile_storage"`
	// TempDir is the root for temporary working files.
	TempDir string `toml:"temp_dir"`
	// DiagnosticsDir is the root for diagnostic outputs.
	DiagnosticsDir string `toml:"diagnostics_dir"`
	// LogDir is where run logs are written.
	LogDir string `toml:"log_dir"`
}

// NewConfig creates a Config with workable defaults rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           "sqlite",
			URL:              filepath.Join(baseDir, "arpa.db"),
			PoolConnections:  4,
			AcquireTimeoutMS: 4000,
		},
		Behaviour: BehaviourConfig{
			ArchiveRawFiles:             true,
			MoveRawFiles:                false,
			AutoAddPulsars:              false,
			AutoResolveDuplicateUploads: true,
			TOAFitting:                  "FDM",
			Diagnostics:                 []string{"snr", "composite"},
			ChecksumBlockSize:           checksum.DefaultBlockSize,
		},
		Paths: PathsConfig{
			RawFileStorage: filepath.Join(baseDir, "raw"),
			TempDir:        filepath.Join(baseDir, "tmp"),
			DiagnosticsDir: filepath.Join(baseDir, "diagnostics"),
			LogDir:         filepath.Join(baseDir, "log"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path. It refuses
// to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
