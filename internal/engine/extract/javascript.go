package extract

import (
	"regexp"
	"sort"
)

// ScriptExtractor recognizes ES module and CommonJS imports across the
// JS/TS family: `import ... from "s"`, side-effect `import "s"`,
// `export ... from "s"`, dynamic `import("s")` and `require("s")`.
// Only string-literal specifiers are extracted; template literals and
// computed specifiers are skipped by design.
type ScriptExtractor struct{}

var scriptPatterns = []*regexp.Regexp{
	// import defaultExport, { a, b } from "spec"  (clause may span lines)
	regexp.MustCompile(`\bimport\s+[^'";()]+?\bfrom\s*["']([^"'\n]+)["']`),
	// import "spec"
	regexp.MustCompile(`\bimport\s*["']([^"'\n]+)["']`),
	// export { a } from "spec" / export * from "spec"
	regexp.MustCompile(`\bexport\s+[^'";()]+?\bfrom\s*["']([^"'\n]+)["']`),
	// import("spec") / require("spec")
	regexp.MustCompile(`\b(?:import|require)\s*\(\s*["']([^"'\n]+)["']\s*\)`),
}

func (e *ScriptExtractor) Extract(content []byte) []string {
	type match struct {
		offset int
		spec   string
	}

	var matches []match
	for _, pattern := range scriptPatterns {
		for _, loc := range pattern.FindAllSubmatchIndex(content, -1) {
			matches = append(matches, match{
				offset: loc[0],
				spec:   string(content[loc[2]:loc[3]]),
			})
		}
	}

	// First-occurrence order across all patterns. Two patterns can
	// anchor at the same statement (`import "x"` also satisfies the
	// side-effect rule only); identical (offset, spec) pairs collapse.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].offset == matches[j].offset {
			return matches[i].spec < matches[j].spec
		}
		return matches[i].offset < matches[j].offset
	})

	specs := make([]string, 0, len(matches))
	for i, m := range matches {
		if i > 0 && matches[i-1].offset == m.offset && matches[i-1].spec == m.spec {
			continue
		}
		specs = append(specs, m.spec)
	}
	return specs
}
