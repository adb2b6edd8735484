package compiler

import (
	"os"
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// Include expansion and origin mapping
// ---------------------------------------------------------------------------

// Include expansion operates on raw source text before lexing. A line is
// an include directive when, after left-trim, it begins with one of
// `use "`, `import "`, `include "`, `#include "`. The included file's
// text is recursively expanded and spliced in between two sentinel
// comment lines so the origin map can reconstruct per-line positions.

const (
	beginSentinelPrefix = "/* begin import: "
	endSentinelPrefix   = "/* end import: "
	sentinelSuffix      = " */"
)

var includePrefixes = []string{`use "`, `import "`, `include "`, `#include "`}

// ExpandFile reads path and expands its includes. The returned origin map
// covers every physical line of the expanded text.
func ExpandFile(path string) (string, *OriginMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	canonical := canonicalPath(path)
	visited := map[string]bool{canonical: true}
	expanded := expandText(string(data), filepath.Dir(path), visited)
	return expanded, BuildOriginMap(expanded, canonical), nil
}

// ExpandSource expands includes in source text that did not come from a
// file (REPL, tests). Relative include paths resolve against dir.
func ExpandSource(src, dir, name string) (string, *OriginMap) {
	visited := map[string]bool{}
	expanded := expandText(src, dir, visited)
	return expanded, BuildOriginMap(expanded, name)
}

// expandText splices included files into src. Missing or unreadable
// files contribute an empty body (best effort); cycles are broken
// silently via the visited set.
func expandText(src, dir string, visited map[string]bool) string {
	var sb strings.Builder
	for _, line := range splitLines(src) {
		path, ok := includeDirective(line)
		if !ok {
			sb.WriteString(line)
			sb.WriteString("\n")
			continue
		}

		resolved := path
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(dir, resolved)
		}
		canonical := canonicalPath(resolved)
		if visited[canonical] {
			continue // cycle: skip silently
		}
		visited[canonical] = true

		body := ""
		if data, err := os.ReadFile(resolved); err == nil {
			body = expandText(string(data), filepath.Dir(resolved), visited)
		}

		sb.WriteString(beginSentinelPrefix + canonical + sentinelSuffix + "\n")
		sb.WriteString(body)
		if body != "" && !strings.HasSuffix(body, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString(endSentinelPrefix + canonical + sentinelSuffix + "\n")
	}
	return sb.String()
}

// includeDirective returns the quoted path when the line is an include
// directive.
func includeDirective(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	for _, prefix := range includePrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			rest := trimmed[len(prefix):]
			end := strings.IndexByte(rest, '"')
			if end < 0 {
				return "", false
			}
			return rest[:end], true
		}
	}
	return "", false
}

func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}

func splitLines(src string) []string {
	src = strings.TrimSuffix(src, "\n")
	if src == "" {
		return nil
	}
	lines := strings.Split(src, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ---------------------------------------------------------------------------
// Origin map
// ---------------------------------------------------------------------------

// Origin is the (file, localLine) a physical expanded line maps back to.
type Origin struct {
	File string
	Line int // 1-based line within File
}

// OriginMap maps every physical line of the expanded text to exactly one
// origin, reconstructed from the sentinel structure.
type OriginMap struct {
	origins []Origin // index 0 = physical line 1
}

// BuildOriginMap walks the expanded text maintaining a stack of
// {file, lineInFile}: non-sentinel lines increment the top-of-stack
// counter, a begin-sentinel counts as the include directive's line in the
// parent file and then pushes the child file, an end-sentinel pops.
func BuildOriginMap(expanded, rootFile string) *OriginMap {
	type frame struct {
		file string
		line int
	}
	stack := []frame{{file: rootFile}}
	om := &OriginMap{}

	for _, line := range splitLines(expanded) {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, beginSentinelPrefix) && strings.HasSuffix(trimmed, sentinelSuffix):
			child := trimmed[len(beginSentinelPrefix) : len(trimmed)-len(sentinelSuffix)]
			stack[len(stack)-1].line++
			top := stack[len(stack)-1]
			om.origins = append(om.origins, Origin{File: top.file, Line: top.line})
			stack = append(stack, frame{file: child})

		case strings.HasPrefix(trimmed, endSentinelPrefix) && strings.HasSuffix(trimmed, sentinelSuffix):
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			top := stack[len(stack)-1]
			om.origins = append(om.origins, Origin{File: top.file, Line: top.line})

		default:
			stack[len(stack)-1].line++
			top := stack[len(stack)-1]
			om.origins = append(om.origins, Origin{File: top.file, Line: top.line})
		}
	}
	return om
}

// Lookup returns the origin of a 1-based physical line of the expanded
// text. Lines outside the map fall back to the root file.
func (om *OriginMap) Lookup(physicalLine int) Origin {
	if physicalLine >= 1 && physicalLine <= len(om.origins) {
		return om.origins[physicalLine-1]
	}
	if len(om.origins) > 0 {
		return om.origins[len(om.origins)-1]
	}
	return Origin{}
}

// Len returns the number of physical lines covered.
func (om *OriginMap) Len() int { return len(om.origins) }
