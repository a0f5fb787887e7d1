// Package tuning loads reducer tuning from YAML.
//
// A tuning file can pin the architecture generation, override the size
// class thresholds, configure the execution backend and replace or extend
// the policy catalog:
//
//	arch: simd256
//	max_offset_width: wide
//	thresholds:
//	  small: 16
//	  medium: 512
//	backend:
//	  kind: cpu
//	  workers: 8
//	catalog:
//	  extend: true
//	  entries:
//	    - min_arch: simd512
//	      large: {items_per_lane: 64, load: streaming}
package tuning

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/segreduce"
	"github.com/hupe1980/segreduce/device"
	"github.com/hupe1980/segreduce/policy"
)

// ErrInvalidConfig is returned for tuning files that fail validation.
var ErrInvalidConfig = errors.New("invalid tuning config")

// Config is the root of a tuning file.
type Config struct {
	// Arch resolves policies for this generation instead of the backend's.
	Arch           string      `yaml:"arch,omitempty" validate:"omitempty,arch"`
	MaxElements    int64       `yaml:"max_elements,omitempty" validate:"gte=0"`
	MaxOffsetWidth string      `yaml:"max_offset_width,omitempty" validate:"omitempty,oneof=narrow wide"`
	Thresholds     *Thresholds `yaml:"thresholds,omitempty"`
	Backend        Backend     `yaml:"backend"`
	Catalog        *Catalog    `yaml:"catalog,omitempty"`
}

// Thresholds overrides the size class thresholds.
type Thresholds struct {
	Small  int64 `yaml:"small" validate:"gte=0"`
	Medium int64 `yaml:"medium" validate:"gtfield=Small"`
}

// Backend configures the execution backend.
type Backend struct {
	Kind                 string `yaml:"kind" validate:"omitempty,oneof=cpu sequential"`
	Workers              int    `yaml:"workers,omitempty" validate:"gte=0"`
	MaxInFlightLaunches  int64  `yaml:"max_in_flight_launches,omitempty" validate:"gte=0"`
	BandwidthBytesPerSec int64  `yaml:"bandwidth_bytes_per_sec,omitempty" validate:"gte=0"`
}

// Catalog replaces or extends the built-in policy catalog.
type Catalog struct {
	// Extend merges Entries into the built-in catalog. Entries with the
	// threshold of a built-in entry are layered on top of it.
	Extend  bool    `yaml:"extend"`
	Entries []Entry `yaml:"entries" validate:"required,min=1,dive"`
}

// Entry is one catalog entry.
type Entry struct {
	MinArch string `yaml:"min_arch" validate:"required,arch"`
	Small   Patch  `yaml:"small,omitempty"`
	Medium  Patch  `yaml:"medium,omitempty"`
	Large   Patch  `yaml:"large,omitempty"`
}

// Patch overrides the knobs it sets.
type Patch struct {
	GroupWidth   int    `yaml:"group_width,omitempty" validate:"gte=0"`
	ItemsPerLane int    `yaml:"items_per_lane,omitempty" validate:"gte=0"`
	VectorWidth  int    `yaml:"vector_width,omitempty" validate:"gte=0"`
	Network      string `yaml:"network,omitempty" validate:"omitempty,oneof=none tree shuffle"`
	Load         string `yaml:"load,omitempty" validate:"omitempty,oneof=default readonly streaming"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("arch", func(fl validator.FieldLevel) bool {
		_, ok := policy.ParseArch(fl.Field().String())
		return ok
	})
	return v
}

// Default returns a config that changes nothing.
func Default() *Config {
	return &Config{Backend: Backend{Kind: "cpu"}}
}

// Parse decodes and validates a tuning file. Unknown keys are rejected; an
// empty file yields Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the tuning file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-chosen path
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}
	return Parse(data)
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks field constraints and that the catalog flattens into
// valid policies.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Catalog != nil {
		if _, err := c.Chain(); err != nil {
			return err
		}
	}
	return nil
}

// Chain builds the policy catalog. Without a catalog section the built-in
// one is returned.
func (c *Config) Chain() (*policy.Chain, error) {
	if c.Catalog == nil {
		return policy.Default(), nil
	}

	var entries []policy.Entry
	if c.Catalog.Extend {
		entries = policy.DefaultEntries()
	}
	for _, e := range c.Catalog.Entries {
		pe, err := e.entry()
		if err != nil {
			return nil, err
		}
		entries = merge(entries, pe)
	}

	chain, err := policy.NewChain(entries...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return chain, nil
}

// merge inserts e into entries ordered by threshold. An entry with an
// existing threshold is applied on top of it.
func merge(entries []policy.Entry, e policy.Entry) []policy.Entry {
	for i, cur := range entries {
		switch {
		case cur.MinArch == e.MinArch:
			entries[i] = policy.Entry{
				MinArch: cur.MinArch,
				Small:   layer(cur.Small, e.Small),
				Medium:  layer(cur.Medium, e.Medium),
				Large:   layer(cur.Large, e.Large),
			}
			return entries
		case cur.MinArch > e.MinArch:
			return append(entries[:i], append([]policy.Entry{e}, entries[i:]...)...)
		}
	}
	return append(entries, e)
}

// layer returns base with the set fields of top applied.
func layer(base, top policy.Patch) policy.Patch {
	if top.GroupWidth != 0 {
		base.GroupWidth = top.GroupWidth
	}
	if top.ItemsPerLane != 0 {
		base.ItemsPerLane = top.ItemsPerLane
	}
	if top.VectorWidth != 0 {
		base.VectorWidth = top.VectorWidth
	}
	if top.Network != policy.NetworkUnset {
		base.Network = top.Network
	}
	if top.Load != policy.LoadUnset {
		base.Load = top.Load
	}
	return base
}

func (e Entry) entry() (policy.Entry, error) {
	arch, ok := policy.ParseArch(e.MinArch)
	if !ok {
		return policy.Entry{}, fmt.Errorf("%w: unknown arch %q", ErrInvalidConfig, e.MinArch)
	}
	out := policy.Entry{MinArch: arch}
	var err error
	if out.Small, err = e.Small.patch(); err != nil {
		return policy.Entry{}, err
	}
	if out.Medium, err = e.Medium.patch(); err != nil {
		return policy.Entry{}, err
	}
	if out.Large, err = e.Large.patch(); err != nil {
		return policy.Entry{}, err
	}
	return out, nil
}

func (p Patch) patch() (policy.Patch, error) {
	n, ok := policy.ParseNetwork(p.Network)
	if !ok {
		return policy.Patch{}, fmt.Errorf("%w: unknown network %q", ErrInvalidConfig, p.Network)
	}
	l, ok := policy.ParseLoadHint(p.Load)
	if !ok {
		return policy.Patch{}, fmt.Errorf("%w: unknown load hint %q", ErrInvalidConfig, p.Load)
	}
	return policy.Patch{
		GroupWidth:   p.GroupWidth,
		ItemsPerLane: p.ItemsPerLane,
		VectorWidth:  p.VectorWidth,
		Network:      n,
		Load:         l,
	}, nil
}

// NewBackend creates the configured backend. arch is passed through to the
// backend; 0 means detect.
func (c *Config) NewBackend() device.Backend {
	arch, _ := policy.ParseArch(c.Arch)
	if c.Backend.Kind == "sequential" {
		return device.NewSequential(arch)
	}
	return device.NewCPU(device.CPUConfig{
		Workers:              c.Backend.Workers,
		MaxInFlightLaunches:  c.Backend.MaxInFlightLaunches,
		BandwidthBytesPerSec: c.Backend.BandwidthBytesPerSec,
		Arch:                 arch,
	})
}

// Options translates c into reducer options.
func (c *Config) Options() ([]segreduce.Option, error) {
	chain, err := c.Chain()
	if err != nil {
		return nil, err
	}

	opts := []segreduce.Option{
		segreduce.WithBackend(c.NewBackend()),
		segreduce.WithCatalog(chain),
		segreduce.WithMaxElements(c.MaxElements),
	}
	if arch, ok := policy.ParseArch(c.Arch); ok {
		opts = append(opts, segreduce.WithArch(arch))
	}
	switch c.MaxOffsetWidth {
	case "narrow":
		opts = append(opts, segreduce.WithMaxOffsetWidth(segreduce.NarrowOffsets))
	case "wide":
		opts = append(opts, segreduce.WithMaxOffsetWidth(segreduce.WideOffsets))
	}
	if t := c.Thresholds; t != nil {
		opts = append(opts, segreduce.WithSizeThresholds(t.Small, t.Medium))
	}
	return opts, nil
}
