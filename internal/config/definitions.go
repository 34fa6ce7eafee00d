package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/edwinsyarief/katachi"
)

// ErrUnsupportedFormat is returned for definition files that are neither
// YAML nor TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported definitions format")

// ErrUnknownCallback is returned by Apply when a definition names a callback
// that no Callbacks source provides.
var ErrUnknownCallback = errors.New("config: unknown callback")

// Definitions describes component types, entity types and systems as data.
// Callbacks are referenced by name and resolved through a Callbacks source
// when the definitions are applied to a Context.
type Definitions struct {
	Components  []ComponentDef  `yaml:"components" toml:"components"`
	EntityTypes []EntityTypeDef `yaml:"entity_types" toml:"entity_types"`
	Systems     []SystemDef     `yaml:"systems" toml:"systems"`
}

type ComponentDef struct {
	Name        string `yaml:"name" toml:"name"`
	Size        int    `yaml:"size" toml:"size"`
	Initializer string `yaml:"initializer,omitempty" toml:"initializer"`
	Cleanup     string `yaml:"cleanup,omitempty" toml:"cleanup"`
}

type EntityTypeDef struct {
	Name       string   `yaml:"name" toml:"name"`
	Components []string `yaml:"components" toml:"components"`
}

type SystemDef struct {
	Name       string   `yaml:"name" toml:"name"`
	Requires   []string `yaml:"requires" toml:"requires"`
	Update     string   `yaml:"update" toml:"update"`
	PreUpdate  string   `yaml:"pre_update,omitempty" toml:"pre_update"`
	PostUpdate string   `yaml:"post_update,omitempty" toml:"post_update"`
}

// LoadDefinitions reads a definitions file, picking the decoder from the
// file extension.
func LoadDefinitions(path string) (*Definitions, error) {
	var decode func(io.Reader) (*Definitions, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decode = DecodeYAML
	case ".toml":
		decode = DecodeTOML
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions %s: %w", path, err)
	}
	defer f.Close()

	defs, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse definitions %s: %w", path, err)
	}
	return defs, nil
}

// DecodeYAML decodes definitions from YAML.
func DecodeYAML(r io.Reader) (*Definitions, error) {
	var d Definitions
	if err := yaml.NewDecoder(r).Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &d, nil
}

// DecodeTOML decodes definitions from TOML.
func DecodeTOML(r io.Reader) (*Definitions, error) {
	var d Definitions
	if _, err := toml.NewDecoder(r).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate reports every problem in d at once. Entity types and systems may
// only reference components defined in d.
func (d *Definitions) Validate() error {
	return d.validate(nil)
}

// validate checks d; names in known count as already defined components.
func (d *Definitions) validate(known []string) error {
	var errs error
	components := make(map[string]bool, len(d.Components)+len(known))
	for _, name := range known {
		components[name] = true
	}

	seen := make(map[string]bool, len(d.Components))
	for i, c := range d.Components {
		switch {
		case c.Name == "":
			errs = multierr.Append(errs, fmt.Errorf("components[%d]: %w", i, katachi.ErrMissingName))
			continue
		case seen[c.Name] || components[c.Name]:
			errs = multierr.Append(errs, fmt.Errorf("component %q: %w", c.Name, katachi.ErrDuplicateName))
		case c.Size <= 0:
			errs = multierr.Append(errs, fmt.Errorf("component %q: %w", c.Name, katachi.ErrZeroSize))
		}
		seen[c.Name] = true
	}
	for name := range seen {
		components[name] = true
	}

	clear(seen)
	for i, et := range d.EntityTypes {
		if et.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("entity_types[%d]: %w", i, katachi.ErrMissingName))
			continue
		}
		if seen[et.Name] {
			errs = multierr.Append(errs, fmt.Errorf("entity type %q: %w", et.Name, katachi.ErrDuplicateName))
		}
		seen[et.Name] = true
		for _, c := range et.Components {
			if !components[c] {
				errs = multierr.Append(errs, fmt.Errorf("entity type %q: %w %q", et.Name, katachi.ErrUnknownComponent, c))
			}
		}
	}

	clear(seen)
	for i, s := range d.Systems {
		if s.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("systems[%d]: %w", i, katachi.ErrMissingName))
			continue
		}
		if seen[s.Name] {
			errs = multierr.Append(errs, fmt.Errorf("system %q: %w", s.Name, katachi.ErrDuplicateName))
		}
		seen[s.Name] = true
		if s.Update == "" {
			errs = multierr.Append(errs, fmt.Errorf("system %q: %w", s.Name, katachi.ErrMissingUpdate))
		}
		for _, c := range s.Requires {
			if !components[c] {
				errs = multierr.Append(errs, fmt.Errorf("system %q: %w %q", s.Name, katachi.ErrUnknownComponent, c))
			}
		}
	}
	return errs
}

// Apply defines everything in d on ctx, in file order. Components already
// defined on ctx may be referenced. Nothing is defined unless d validates
// and every named callback resolves.
func (d *Definitions) Apply(ctx *katachi.Context, cb Callbacks) error {
	if err := d.validate(ctx.ComponentNames()); err != nil {
		return err
	}
	if cb == nil {
		cb = NewCallbackSet()
	}
	r := resolver{cb: cb}
	comps := make([]resolvedComponent, len(d.Components))
	for i, c := range d.Components {
		comps[i] = resolvedComponent{
			init:    r.component(c.Initializer),
			cleanup: r.component(c.Cleanup),
		}
	}
	systems := make([]resolvedSystem, len(d.Systems))
	for i, s := range d.Systems {
		systems[i] = resolvedSystem{
			update: r.update(s.Update),
			pre:    r.hook(s.PreUpdate),
			post:   r.hook(s.PostUpdate),
		}
	}
	if r.errs != nil {
		return r.errs
	}

	for i, c := range d.Components {
		b := ctx.ComponentBegin().SetName(c.Name).SetSize(c.Size)
		if fn := comps[i].init; fn != nil {
			b.SetOptionalInitializer(fn, c.Name)
		}
		if fn := comps[i].cleanup; fn != nil {
			b.SetOptionalCleanup(fn, c.Name)
		}
		if _, err := b.End(); err != nil {
			return err
		}
	}
	for _, et := range d.EntityTypes {
		b := ctx.EntityBegin().SetName(et.Name)
		for _, c := range et.Components {
			b.AddComponent(c)
		}
		if _, err := b.End(); err != nil {
			return err
		}
	}
	for i, s := range d.Systems {
		b := ctx.SystemBegin().SetName(s.Name).SetUpdate(systems[i].update).SetOptionalUdata(s.Name)
		for _, c := range s.Requires {
			b.RequireComponent(c)
		}
		if fn := systems[i].pre; fn != nil {
			b.SetOptionalPreUpdate(fn)
		}
		if fn := systems[i].post; fn != nil {
			b.SetOptionalPostUpdate(fn)
		}
		if _, err := b.End(); err != nil {
			return err
		}
	}
	return nil
}

type resolvedComponent struct {
	init, cleanup katachi.ComponentFn
}

type resolvedSystem struct {
	update    katachi.SystemUpdateFn
	pre, post katachi.SystemHookFn
}

// resolver looks callbacks up and collects every miss.
type resolver struct {
	cb   Callbacks
	errs error
}

func (r *resolver) miss(kind, name string) {
	r.errs = multierr.Append(r.errs, fmt.Errorf("%s %q: %w", kind, name, ErrUnknownCallback))
}

func (r *resolver) component(name string) katachi.ComponentFn {
	if name == "" {
		return nil
	}
	fn, ok := r.cb.Component(name)
	if !ok {
		r.miss("component callback", name)
	}
	return fn
}

func (r *resolver) update(name string) katachi.SystemUpdateFn {
	fn, ok := r.cb.Update(name)
	if !ok {
		r.miss("system update", name)
	}
	return fn
}

func (r *resolver) hook(name string) katachi.SystemHookFn {
	if name == "" {
		return nil
	}
	fn, ok := r.cb.Hook(name)
	if !ok {
		r.miss("system hook", name)
	}
	return fn
}
