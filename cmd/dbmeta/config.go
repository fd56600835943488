package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/despencer/dbmeta/compiler/gen"
	"github.com/despencer/dbmeta/dialect"
)

// config holds the defaults a config file may set. Command line flags
// take precedence.
//
//	dialect: postgres
//	dsn: postgres://localhost/app?sslmode=disable
//	target: ./internal/db
//	types:
//	  money: NUMERIC(12, 2)
type config struct {
	Dialect string            `yaml:"dialect"`
	DSN     string            `yaml:"dsn"`
	Storage string            `yaml:"storage"`
	Target  string            `yaml:"target"`
	Package string            `yaml:"package"`
	Dir     string            `yaml:"dir"`
	Types   map[string]string `yaml:"types"`
}

func loadConfig(path string) (*config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	c := &config{}
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// field returns the string setting with the given flag name.
func (c *config) field(name string) *string {
	switch name {
	case "dialect":
		return &c.Dialect
	case "dsn":
		return &c.DSN
	case "storage":
		return &c.Storage
	case "target":
		return &c.Target
	case "package":
		return &c.Package
	case "dir":
		return &c.Dir
	}
	panic("config: unknown setting " + name)
}

func (c *config) defaults() error {
	if c.Dialect == "" {
		c.Dialect = dialect.SQLite
	}
	if !slices.Contains([]string{dialect.SQLite, dialect.Postgres, dialect.MySQL}, c.Dialect) {
		return fmt.Errorf("config: unsupported dialect %q", c.Dialect)
	}
	if c.Storage == "" {
		c.Storage = c.Dialect
	}
	if !slices.Contains(gen.StorageNames(), c.Storage) {
		return fmt.Errorf("config: unsupported storage %q", c.Storage)
	}
	return nil
}
