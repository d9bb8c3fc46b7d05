package tecs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// MaxComponentTypesLimit bounds Config.MaxComponentTypes. Type ids index a
	// per-entity mask.Mask, so the highest usable id is 63.
	MaxComponentTypesLimit = 63

	DefaultMaxEntities       = 100_000
	DefaultMaxComponentTypes = 32
	DefaultChunkBytes        = 16 * 1024
	DefaultSparsePageSize    = 1024
	DefaultArenaBytes        = 64 * 1024 * 1024
)

// Config holds the fixed sizing of an engine. None of it can change after
// the engine is built.
type Config struct {
	MaxEntities       int           `toml:"max_entities" yaml:"max_entities"`
	MaxComponentTypes int           `toml:"max_component_types" yaml:"max_component_types"`
	ChunkBytes        int           `toml:"chunk_bytes" yaml:"chunk_bytes"`           // dense chunk byte budget per store
	SparsePageSize    int           `toml:"sparse_page_size" yaml:"sparse_page_size"` // identifiers per sparse page
	ArenaBytes        int           `toml:"arena_bytes" yaml:"arena_bytes"`           // used by callers that size their own buffer
	PanicOnFatal      bool          `toml:"panic_on_fatal" yaml:"panic_on_fatal"`
	Logging           LoggingConfig `toml:"logging" yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

func DefaultConfig() Config {
	return Config{
		MaxEntities:       DefaultMaxEntities,
		MaxComponentTypes: DefaultMaxComponentTypes,
		ChunkBytes:        DefaultChunkBytes,
		SparsePageSize:    DefaultSparsePageSize,
		ArenaBytes:        DefaultArenaBytes,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads a .toml, .yaml or .yml file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported extension", path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.MaxEntities < 1 || c.MaxEntities > MaxEntityID:
		return fmt.Errorf("%w: max_entities must be in [1, %d], got %d", ErrInvalidConfig, MaxEntityID, c.MaxEntities)
	case c.MaxComponentTypes < 1 || c.MaxComponentTypes > MaxComponentTypesLimit:
		return fmt.Errorf("%w: max_component_types must be in [1, %d], got %d", ErrInvalidConfig, MaxComponentTypesLimit, c.MaxComponentTypes)
	case c.ChunkBytes < 1:
		return fmt.Errorf("%w: chunk_bytes must be positive, got %d", ErrInvalidConfig, c.ChunkBytes)
	case c.SparsePageSize < 1:
		return fmt.Errorf("%w: sparse_page_size must be positive, got %d", ErrInvalidConfig, c.SparsePageSize)
	case c.ArenaBytes < 0:
		return fmt.Errorf("%w: arena_bytes must not be negative, got %d", ErrInvalidConfig, c.ArenaBytes)
	}
	return nil
}

// ArenaBytesFor returns an upper bound on the arena bytes an engine with this
// config needs when every entity carries every component whose payload sizes
// are given. Pass unsafe.Sizeof of each component type.
func (c Config) ArenaBytesFor(componentSizes ...uintptr) int {
	const pad = 2 * 8 // worst-case alignment padding per allocation
	slots := c.MaxEntities + 1
	total := slots*int(unsafe.Sizeof(entitySlot{})) + pad

	pages := (slots + c.SparsePageSize - 1) / c.SparsePageSize
	for _, size := range componentSizes {
		elem := max(int(size), 1)
		chunkLen := max(1, c.ChunkBytes/elem)
		chunks := (slots + chunkLen - 1) / chunkLen

		total += pages * (c.SparsePageSize*4 + pad)
		total += pages * int(unsafe.Sizeof([]uint32(nil)))
		total += chunks * (chunkLen*int(size) + chunkLen*int(unsafe.Sizeof(Entity{})) + 2*pad)
		total += chunks * int(unsafe.Sizeof([]Entity(nil))) * 2
	}
	return total
}
