package includes

import (
	"os"
	"path/filepath"
	"strings"
)

// SearchPaths is the include lookup order a compiler derives from its flags.
type SearchPaths struct {
	Quote  []string // -iquote
	Angled []string // -I, then -isystem
	Forced []string // -include
}

// ParseSearchPaths extracts include directories from compiler flags. Both
// the split ("-I", "dir") and joined ("-Idir") forms are understood.
func ParseSearchPaths(flags []string) SearchPaths {
	var sp SearchPaths
	var isystem []string

	for i := 0; i < len(flags); i++ {
		flag := flags[i]
		for _, opt := range []string{"-iquote", "-isystem", "-include", "-I"} {
			if !strings.HasPrefix(flag, opt) {
				continue
			}

			value := strings.TrimPrefix(flag, opt)
			if value == "" {
				if i+1 >= len(flags) {
					break
				}
				i++
				value = flags[i]
			}

			switch opt {
			case "-iquote":
				sp.Quote = append(sp.Quote, value)
			case "-isystem":
				isystem = append(isystem, value)
			case "-include":
				sp.Forced = append(sp.Forced, value)
			case "-I":
				sp.Angled = append(sp.Angled, value)
			}
			break
		}
	}

	sp.Angled = append(sp.Angled, isystem...)
	return sp
}

// Finding is the lookup outcome for one include.
type Finding struct {
	Directive Directive
	Resolved  string // empty when not found
	Forced    bool
}

func (f Finding) Found() bool {
	return f.Resolved != ""
}

// ResolveIncludes looks every directive up the way a compiler would: local
// includes start in the source's directory, then -iquote dirs, then the
// angled list. Relative search directories are taken relative to workDir.
func ResolveIncludes(sourcePath, workDir string, directives []Directive, sp SearchPaths) []Finding {
	findings := make([]Finding, 0, len(sp.Forced)+len(directives))

	for _, forced := range sp.Forced {
		path := absolute(workDir, forced)
		f := Finding{Directive: Directive{Path: forced}, Forced: true}
		if isFile(path) {
			f.Resolved = path
		}
		findings = append(findings, f)
	}

	for _, d := range directives {
		var dirs []string
		if !d.System {
			dirs = append(dirs, filepath.Dir(absolute(workDir, sourcePath)))
			dirs = append(dirs, sp.Quote...)
		}
		dirs = append(dirs, sp.Angled...)

		f := Finding{Directive: d}
		for _, dir := range dirs {
			candidate := filepath.Join(absolute(workDir, dir), filepath.FromSlash(d.Path))
			if isFile(candidate) {
				f.Resolved = candidate
				break
			}
		}
		findings = append(findings, f)
	}

	return findings
}

func absolute(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workDir, path)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
