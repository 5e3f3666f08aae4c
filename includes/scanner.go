package includes

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/phuslu/log"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// Directive is one #include found in a source file.
type Directive struct {
	Path   string
	System bool
	Line   int
}

func (d Directive) String() string {
	if d.System {
		return fmt.Sprintf("<%s>", d.Path)
	}
	return fmt.Sprintf("%q", d.Path)
}

const includeQuery = `
(preproc_include path: (string_literal) @local)
(preproc_include path: (system_lib_string) @system)
`

// ParseIncludes returns the #include directives of a C source in file order.
// Includes whose target is a macro are skipped.
func ParseIncludes(ctx context.Context, source []byte) ([]Directive, error) {
	lang := c.GetLanguage()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	defer tree.Close()

	query, err := sitter.NewQuery([]byte(includeQuery), lang)
	if err != nil {
		return nil, fmt.Errorf("failed to compile include query: %w", err)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RootNode())

	var directives []Directive
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			text := capture.Node.Content(source)
			system := query.CaptureNameForId(capture.Index) == "system"
			directives = append(directives, Directive{
				Path:   strings.Trim(text, `"<>`),
				System: system,
				Line:   int(capture.Node.StartPoint().Row) + 1,
			})
		}
	}

	return directives, nil
}

// Scanner reads and parses source files, consulting the cache first when one is set.
type Scanner struct {
	cache *CacheManager
}

// NewScanner accepts a nil cache, in which case every file is parsed.
func NewScanner(cache *CacheManager) *Scanner {
	return &Scanner{cache: cache}
}

func (s *Scanner) Scan(ctx context.Context, sourcePath string) ([]Directive, error) {
	if s.cache != nil {
		if directives, found := s.cache.Get(sourcePath); found {
			log.Debug().Str("file", sourcePath).Msg("include scan cache hit")
			return directives, nil
		}
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}

	directives, err := ParseIncludes(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourcePath, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(sourcePath, directives); err != nil {
			log.Warn().Err(err).Str("file", sourcePath).Msg("failed to cache include scan")
		}
	}
	return directives, nil
}
