package compiledb

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/FooFooDamon/kmodflags/resolver/contracts"
	"github.com/FooFooDamon/kmodflags/utils"
	"github.com/phuslu/log"
)

// FileName is the name clangd and ccls look for.
const FileName = "compile_commands.json"

// Entry is one compilation database record.
type Entry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments"`
}

// Generator turns a source tree into compilation database entries.
type Generator struct {
	Resolver   contracts.IFlagResolver
	Compiler   string
	Extensions []string
	// Directory is the working directory of every entry, which relative
	// -I and -include values are resolved against. Defaults to the walk root.
	Directory string
}

// Generate walks rootDir and returns one entry per matching source file,
// in walk order. Paths are absolute.
func (g *Generator) Generate(rootDir string) ([]Entry, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rootDir, err)
	}

	workDir := root
	if g.Directory != "" {
		if workDir, err = filepath.Abs(g.Directory); err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", g.Directory, err)
		}
	}

	ignorePatterns, err := utils.GetIgnorePatterns(root)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		relativePath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relativePath = filepath.ToSlash(relativePath)

		if utils.IsDefaultIgnored(relativePath) || utils.IsIgnored(relativePath, ignorePatterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !g.wants(path) {
			return nil
		}

		res := g.Resolver.ResolveFlags(path)
		args := make([]string, 0, len(res.Flags)+3)
		args = append(args, g.compiler())
		args = append(args, res.Flags...)
		args = append(args, "-c", path)

		entries = append(entries, Entry{
			Directory: workDir,
			File:      path,
			Arguments: args,
		})
		log.Debug().Str("file", relativePath).Str("kind", string(res.Kind)).Msg("added compile command")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return entries, nil
}

// WriteFile writes entries as indented JSON to path.
func WriteFile(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode compilation database: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (g *Generator) compiler() string {
	if g.Compiler == "" {
		return "cc"
	}
	return g.Compiler
}

func (g *Generator) wants(path string) bool {
	exts := g.Extensions
	if len(exts) == 0 {
		exts = []string{".c"}
	}
	ext := filepath.Ext(path)
	for _, want := range exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
