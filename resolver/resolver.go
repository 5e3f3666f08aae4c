package resolver

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/FooFooDamon/kmodflags/resolver/contracts"
	"github.com/FooFooDamon/kmodflags/resolver/models"
	"github.com/zeebo/xxh3"
)

// Configuration holds the two flag tables and the application basename set.
// It is never modified after construction, so one value may be shared by
// any number of goroutines.
type Configuration struct {
	appFlags     models.FlagSet
	kernelFlags  models.FlagSet
	appBasenames map[string]struct{}
}

// Extension is the explicit way to derive a Configuration from another one.
type Extension struct {
	// ExtraKernelFlags are appended, in order, to the kernel-module table.
	// Duplicates of existing flags are kept.
	ExtraKernelFlags []string

	// AppBasenames replaces the basename set when non-nil.
	AppBasenames []string
}

var _ contracts.IFlagResolver = (*Configuration)(nil)

// NewConfiguration validates opts and builds both tables.
func NewConfiguration(opts Options) (*Configuration, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Configuration{
		appFlags:     models.FlagSet(opts.AppFlags).Clone(),
		kernelFlags:  buildKernelFlags(opts),
		appBasenames: basenameSet(opts.AppBasenames),
	}, nil
}

// Extend returns a new Configuration; c is left untouched.
func (c *Configuration) Extend(ext Extension) (*Configuration, error) {
	for i, flag := range ext.ExtraKernelFlags {
		if flag == "" {
			return nil, fmt.Errorf("invalid extension: extra kernel flag %d is empty", i)
		}
	}

	next := &Configuration{
		appFlags:     c.appFlags,
		kernelFlags:  append(c.kernelFlags.Clone(), ext.ExtraKernelFlags...),
		appBasenames: c.appBasenames,
	}

	if ext.AppBasenames != nil {
		for _, name := range ext.AppBasenames {
			if name == "" || strings.ContainsRune(name, '/') {
				return nil, fmt.Errorf("invalid extension: bad application basename %q", name)
			}
		}
		next.appBasenames = basenameSet(ext.AppBasenames)
	}

	return next, nil
}

// Classify maps any path to exactly one source kind. Application stems win;
// everything else, including empty or malformed paths, is kernel-module.
func (c *Configuration) Classify(filePath string) models.SourceKind {
	if _, ok := c.appBasenames[SourceStem(filePath)]; ok {
		return models.KindApplication
	}
	return models.KindKernelModule
}

// ResolveFlags returns the flags for filePath. It never fails and performs no I/O.
func (c *Configuration) ResolveFlags(filePath string) models.Resolution {
	kind := c.Classify(filePath)
	return models.Resolution{
		Flags:     c.FlagsFor(kind),
		Cacheable: true,
		Kind:      kind,
	}
}

// FlagsFor returns a copy of the table for kind.
func (c *Configuration) FlagsFor(kind models.SourceKind) models.FlagSet {
	if kind == models.KindApplication {
		return c.appFlags.Clone()
	}
	return c.kernelFlags.Clone()
}

func (c *Configuration) AppFlags() models.FlagSet    { return c.appFlags.Clone() }
func (c *Configuration) KernelFlags() models.FlagSet { return c.kernelFlags.Clone() }

// AppBasenames returns the basename set, sorted.
func (c *Configuration) AppBasenames() []string {
	names := make([]string, 0, len(c.appBasenames))
	for name := range c.appBasenames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fingerprint identifies the table contents. Two configurations with the
// same fingerprint resolve every path identically.
func (c *Configuration) Fingerprint() string {
	var b strings.Builder
	for _, part := range [][]string{c.appFlags, c.kernelFlags, c.AppBasenames()} {
		for _, s := range part {
			b.WriteString(s)
			b.WriteByte(0)
		}
		b.WriteByte(1)
	}
	return fmt.Sprintf("%016x", xxh3.HashString(b.String()))
}

// ResolveFunc adapts a plain function, typically one that wraps a
// Configuration's Classify with its own table choice, to IFlagResolver.
type ResolveFunc func(filePath string) models.Resolution

func (f ResolveFunc) ResolveFlags(filePath string) models.Resolution { return f(filePath) }

// SourceStem strips the directory and the last extension from filePath.
// Leading dots are part of the name, so ".config" has no extension.
// A path ending in a separator has an empty stem.
func SourceStem(filePath string) string {
	name := filePath
	if i := strings.LastIndexAny(name, "/"+string(os.PathSeparator)); i >= 0 {
		name = name[i+1:]
	}

	trimmed := strings.TrimLeft(name, ".")
	if i := strings.LastIndexByte(trimmed, '.'); i >= 0 {
		return name[:len(name)-len(trimmed)+i]
	}
	return name
}

func basenameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
