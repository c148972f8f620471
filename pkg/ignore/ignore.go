// Package ignore implements gitignore-style exclusion matching for the
// workspace ignore file.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// File is the name of the ignore file at the workspace root.
const File = ".memignore"

// MetaDir is the metadata directory, always ignored and never negatable.
const MetaDir = ".mem"

// Matcher decides whether a workspace-relative path is excluded from
// tracking. Patterns are applied in file order; the last matching pattern
// wins, so negations can re-include earlier exclusions.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	text     string
	negated  bool
	dirOnly  bool
	hasSlash bool // pattern contains a slash, so match against the full path
	regex    *regexp.Regexp
}

// Load reads <root>/.memignore and compiles a Matcher. A missing ignore
// file yields a matcher that only excludes the metadata directory.
func Load(root string) (*Matcher, error) {
	m := &Matcher{}

	f, err := os.Open(filepath.Join(root, File))
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("load %s: %w", File, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p := parseLine(scanner.Text()); p != nil {
			m.patterns = append(m.patterns, *p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", File, err)
	}
	return m, nil
}

// parseLine parses a single ignore-file line. Returns nil for blank lines
// and comments.
func parseLine(line string) *pattern {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	p := &pattern{}

	// Negation: lines starting with ! re-include a pattern.
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}

	// Directory-only: lines ending with / match directories and everything
	// beneath them.
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}

	// A leading slash anchors the pattern at the workspace root.
	if strings.HasPrefix(line, "/") {
		line = line[1:]
		p.hasSlash = true
	}
	if strings.Contains(line, "/") {
		p.hasSlash = true
	}

	p.text = line
	if strings.Contains(line, "**") {
		if re, err := regexp.Compile(globToRegex(line)); err == nil {
			p.regex = re
		}
	}
	return p
}

// Match reports whether the given workspace-relative path is ignored. The
// path should use forward slashes. Match answers for directories as well as
// files so walkers can prune whole subtrees before descending.
//
// The metadata directory is ignored unconditionally; user patterns cannot
// re-include it.
func (m *Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if rel == MetaDir || strings.HasPrefix(rel, MetaDir+"/") {
		return true
	}

	ignored := false
	for i := range m.patterns {
		if m.patterns[i].matches(rel) {
			ignored = !m.patterns[i].negated
		}
	}
	return ignored
}

// matches checks whether a relative path matches this single pattern.
func (p *pattern) matches(path string) bool {
	// Directory patterns match the directory itself and any path under it.
	if p.dirOnly {
		if path == p.text || strings.HasPrefix(path, p.text+"/") {
			return true
		}
		return false
	}

	if p.hasSlash {
		// Pattern contains a slash: match against the full relative path.
		return p.match(path)
	}

	// Pattern without a slash: match the basename of any path component.
	return p.match(filepath.Base(path))
}

func (p *pattern) match(target string) bool {
	if p.regex != nil {
		return p.regex.MatchString(target)
	}
	matched, _ := filepath.Match(p.text, target)
	return matched
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch == '*' {
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					// Globstar directory segment: match zero or more path segments.
					b.WriteString("(?:.*/)?")
					i += 2
				} else {
					b.WriteString(".*")
					i++
				}
				continue
			}
			b.WriteString("[^/]*")
			continue
		}
		if ch == '?' {
			b.WriteString("[^/]")
			continue
		}
		if strings.ContainsRune(`.+()|[]{}^$\\`, rune(ch)) {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}
	b.WriteString("$")
	return b.String()
}
