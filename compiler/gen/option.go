package gen

import (
	"errors"
	"runtime"

	"github.com/despencer/dbmeta/schema"
)

// DefaultHeader is the header comment of generated files.
const DefaultHeader = "Code generated by dbmeta. DO NOT EDIT."

// Config holds the configuration of a compilation and generation run.
type Config struct {
	// Storage is the backend descriptor the entities are compiled against.
	Storage *Storage
	// Package is the import path of the generated package, for example
	// "github.com/org/project/billing".
	Package string
	// Target is the output directory of the generated package.
	Target string
	// Header is the comment written at the top of every generated file.
	Header string
	// Workers limits the number of files rendered in parallel.
	Workers int
	// Generator renders the compiled graph.
	Generator Generator
	// Hooks wrap the generator, outermost first.
	Hooks []Hook
	// Previous is the deployed version of the package. When set, the
	// generated Deploy upgrades a database holding it instead of creating
	// every table.
	Previous *schema.Package
	// AllowDrop lets an upgrade drop the columns and tables missing from
	// the new version.
	AllowDrop bool
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the output package import path.
// For example: "github.com/org/project/billing".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
// The directory where generated code will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithStorage sets the backend descriptor.
func WithStorage(storage *Storage) Option {
	return func(c *Config) error {
		if storage == nil {
			return NewConfigError("Storage", nil, "storage cannot be nil")
		}
		c.Storage = storage
		return nil
	}
}

// WithStorageDriver sets the backend descriptor by name.
// Supported drivers: "sqlite", "mysql", "postgres".
func WithStorageDriver(driver string) Option {
	return func(c *Config) error {
		s, err := NewStorage(driver)
		if err != nil {
			return NewConfigError("StorageDriver", driver, "unsupported driver; use sqlite, mysql, or postgres")
		}
		c.Storage = s
		return nil
	}
}

// WithTypes adds primitive mappings to the backend descriptor, for
// primitives declared by the schema itself.
func WithTypes(types map[string]string) Option {
	return func(c *Config) error {
		if c.Storage == nil {
			return NewConfigError("Types", nil, "no storage to extend")
		}
		c.Storage = c.Storage.With(types)
		return nil
	}
}

// WithWorkers sets the number of files rendered in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithGenerator sets the code generator.
func WithGenerator(g Generator) Option {
	return func(c *Config) error {
		if g == nil {
			return NewConfigError("Generator", nil, "generator cannot be nil")
		}
		c.Generator = g
		return nil
	}
}

// WithHooks adds generation hooks.
// Hooks are called before/after code generation.
func WithHooks(hooks ...Hook) Option {
	return func(c *Config) error {
		c.Hooks = append(c.Hooks, hooks...)
		return nil
	}
}

// WithPrevious sets the deployed version of the package to upgrade from.
func WithPrevious(pkg *schema.Package) Option {
	return func(c *Config) error {
		if pkg == nil {
			return NewConfigError("Previous", nil, "previous package cannot be nil")
		}
		c.Previous = pkg
		return nil
	}
}

// WithAllowDrop lets upgrades drop columns and tables.
func WithAllowDrop() Option {
	return func(c *Config) error {
		c.AllowDrop = true
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options. The storage
// defaults to sqlite.
func NewConfig(opts ...Option) (*Config, error) {
	storage, err := NewStorage("sqlite")
	if err != nil {
		return nil, err
	}
	c := &Config{
		Storage: storage,
		Header:  DefaultHeader,
		Workers: runtime.GOMAXPROCS(0),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
