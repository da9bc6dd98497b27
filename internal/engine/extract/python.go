package extract

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// PythonExtractor recognizes import statements with a line scanner:
// `import a.b as c, d`, `from pkg.mod import x, y as z`, and relative
// forms `from . import x` / `from ..pkg import y` with leading dots
// preserved in the specifier. Backslash and parenthesis continuations
// are joined into one logical line first. Dynamic __import__ calls and
// imports built from strings are out of scope.
type PythonExtractor struct{}

var (
	pythonImportRe = regexp.MustCompile(`^\s*import\s+(.+)$`)
	pythonFromRe   = regexp.MustCompile(`^\s*from\s+(\.*[\w.]*)\s+import\s+(.+)$`)
)

func (e *PythonExtractor) Extract(content []byte) []string {
	var specifiers []string

	for _, line := range logicalPythonLines(content) {
		if m := pythonFromRe.FindStringSubmatch(line); m != nil {
			specifiers = append(specifiers, fromImportSpecifiers(m[1], m[2])...)
			continue
		}
		if m := pythonImportRe.FindStringSubmatch(line); m != nil {
			specifiers = append(specifiers, plainImportSpecifiers(m[1])...)
		}
	}

	return specifiers
}

// plainImportSpecifiers handles `import a.b as x, c`.
func plainImportSpecifiers(clause string) []string {
	var specs []string
	for _, part := range strings.Split(clause, ",") {
		name := importedName(part)
		if name != "" {
			specs = append(specs, name)
		}
	}
	return specs
}

// fromImportSpecifiers handles `from BASE import a, b as c`. The base
// module is emitted first, then one dotted specifier per imported name
// so that `from pkg import mod` can reach pkg/mod.py when mod is a
// submodule. Names that are plain attributes simply fail to resolve
// later. Wildcard imports contribute the base only.
func fromImportSpecifiers(base, clause string) []string {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil
	}

	specs := []string{base}
	for _, part := range strings.Split(clause, ",") {
		name := importedName(part)
		if name == "" || name == "*" {
			continue
		}
		if strings.HasSuffix(base, ".") {
			specs = append(specs, base+name)
		} else {
			specs = append(specs, base+"."+name)
		}
	}
	return specs
}

// importedName extracts the bare name from one clause element,
// dropping an `as` alias and any stray parentheses.
func importedName(part string) string {
	part = strings.TrimSpace(part)
	part = strings.Trim(part, "()")
	fields := strings.Fields(part)
	if len(fields) == 0 {
		return ""
	}
	name := fields[0]
	if name == "import" || name == "as" {
		return ""
	}
	return strings.Trim(name, "()")
}

// logicalPythonLines joins physical lines into logical statements:
// trailing backslashes and unbalanced parentheses continue onto the
// next line. Comment tails are stripped; a parenthesis left open at
// EOF flushes whatever accumulated.
func logicalPythonLines(content []byte) []string {
	var lines []string
	var pending strings.Builder
	depth := 0

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	flush := func() {
		if pending.Len() > 0 {
			lines = append(lines, pending.String())
			pending.Reset()
		}
		depth = 0
	}

	for scanner.Scan() {
		line := stripPythonComment(scanner.Text())

		continued := strings.HasSuffix(strings.TrimSpace(line), "\\")
		if continued {
			trimmed := strings.TrimSpace(line)
			line = trimmed[:len(trimmed)-1]
		}

		if pending.Len() > 0 {
			pending.WriteString(" ")
		}
		pending.WriteString(line)
		depth += strings.Count(line, "(") - strings.Count(line, ")")

		if continued || depth > 0 {
			continue
		}
		flush()
	}
	flush()

	return lines
}

func stripPythonComment(line string) string {
	inSingle, inDouble := false, false
	for i, r := range line {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if !inSingle && !inDouble {
				return line[:i]
			}
		}
	}
	return line
}
