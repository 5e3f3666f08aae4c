package compiledb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/FooFooDamon/kmodflags/includes"
	"github.com/FooFooDamon/kmodflags/resolver"
	"github.com/FooFooDamon/kmodflags/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("int x;\n"), 0644))
	}
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	opts := resolver.DefaultOptions()
	opts.HomeDir = "/home/dev"
	conf, err := resolver.NewConfiguration(opts)
	require.NoError(t, err)
	return &Generator{Resolver: conf, Compiler: "arm-linux-gnueabihf-gcc"}
}

func TestGenerate(t *testing.T) {
	defer utils.ClearIgnoreCache()
	root := t.TempDir()
	writeTree(t, root,
		"src/main.c",
		"src/setting_app.c",
		"src/common.h",
		"src/dual_pcan_usb.mod.c",
		"3rdparty/lazy_coding/helper.c",
		".git/hooks/sample.c",
	)
	require.NoError(t, os.WriteFile(filepath.Join(root, utils.IgnoreFileName), []byte("3rdparty/\n"), 0644))

	g := newGenerator(t)
	entries, err := g.Generate(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[filepath.Base(e.File)] = e
	}

	app := byName["setting_app.c"]
	assert.Equal(t, root, app.Directory)
	assert.Equal(t, "arm-linux-gnueabihf-gcc", app.Arguments[0])
	assert.Equal(t, resolver.DefaultAppFlags(), app.Arguments[1:len(app.Arguments)-2])
	assert.Equal(t, []string{"-c", app.File}, app.Arguments[len(app.Arguments)-2:])

	drv := byName["main.c"]
	assert.Contains(t, drv.Arguments, "-DMODULE")
	assert.Contains(t, drv.Arguments, `-DKBUILD_MODNAME="dual_pcan_usb"`)
}

func TestGenerate_Extensions(t *testing.T) {
	defer utils.ClearIgnoreCache()
	root := t.TempDir()
	writeTree(t, root, "a.c", "b.h", "c.txt")

	g := newGenerator(t)
	g.Extensions = []string{".c", ".h"}

	entries, err := g.Generate(root)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGenerate_RelativeKernelRoot(t *testing.T) {
	defer utils.ClearIgnoreCache()
	root := t.TempDir()
	writeTree(t, root, "src/main.c", "src/linux/include/linux/module.h")

	opts := resolver.DefaultOptions()
	opts.HomeDir = ""
	conf, err := resolver.NewConfiguration(opts)
	require.NoError(t, err)

	g := &Generator{Resolver: conf}
	entries, err := g.Generate(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, root, entry.Directory)
	assert.Contains(t, entry.Arguments, filepath.Join("src", "linux", "include"))

	// The entry's directory and the include lookup must agree on where
	// relative -I values point.
	directives := []includes.Directive{{Path: "linux/module.h", System: true, Line: 1}}
	sp := includes.ParseSearchPaths(entry.Arguments[1 : len(entry.Arguments)-2])
	findings := includes.ResolveIncludes(entry.File, entry.Directory, directives, sp)
	require.NotEmpty(t, findings)
	module := findings[len(findings)-1]
	assert.Equal(t, "linux/module.h", module.Directive.Path)
	assert.Equal(t, filepath.Join(root, "src", "linux", "include", "linux", "module.h"), module.Resolved)
}

func TestGenerate_Directory(t *testing.T) {
	defer utils.ClearIgnoreCache()
	root := t.TempDir()
	writeTree(t, root, "drivers/can/main.c")

	g := newGenerator(t)
	g.Directory = root
	entries, err := g.Generate(filepath.Join(root, "drivers"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, root, entries[0].Directory)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	entries := []Entry{{Directory: "/src", File: "/src/main.c", Arguments: []string{"cc", "-c", "/src/main.c"}}}

	require.NoError(t, WriteFile(path, entries))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []Entry
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, entries, decoded)
}

func TestWriteFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, WriteFile(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
