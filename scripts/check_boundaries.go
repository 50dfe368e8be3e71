// Command check_boundaries reports imports that break the layering of the
// bounded contexts under contexts/. Run it from the repository root.
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "humanity"

// valueTypeImports hold amount and identity value types; domain and
// application layers may import them.
var valueTypeImports = []string{
	"github.com/holiman/uint256",
	"github.com/ethereum/go-ethereum/common",
}

// layerAllowlist lists, per guarded layer, the service-relative packages it
// may import. Anything else outside the standard library is a violation.
var layerAllowlist = map[string][]string{
	"domain":      {"domain"},
	"application": {"application", "domain", "ports"},
}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func (v violation) String() string {
	if v.Import == "" {
		return fmt.Sprintf("%s:%d (%s)", v.File, v.Line, v.Rule)
	}
	return fmt.Sprintf("%s:%d imports %q (%s)", v.File, v.Line, v.Import, v.Rule)
}

func main() {
	violations, err := collectViolations(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s\n", v)
	}
	os.Exit(1)
}

// collectViolations walks root/contexts and returns violations sorted by file
// and line. Test files are skipped.
func collectViolations(root string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(filepath.Join(root, "contexts"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 4 {
			return nil
		}
		violations = append(violations, validateFile(path, filepath.ToSlash(rel), parts[1], parts[2], parts[3])...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	return violations, nil
}

func validateFile(path string, rel string, contextName string, serviceName string, layer string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: rel, Line: 1, Rule: "file must parse"}}
	}

	servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, contextName, serviceName)
	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		line := fset.Position(imp.Pos()).Line
		add := func(rule string) {
			violations = append(violations, violation{File: rel, Line: line, Import: importPath, Rule: rule})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
			add("cross-module imports are forbidden")
		}
		allowed, guarded := layerAllowlist[layer]
		if !guarded || isStdlib(importPath) {
			continue
		}
		if strings.Contains(importPath, "/adapters/") {
			add(layer + " must not import adapters")
		}
		if hasPrefix(importPath, modulePath+"/internal") {
			add(layer + " must not import runtime infrastructure")
		}
		if !isAllowed(importPath, allowedPrefixes(layer, servicePrefix, allowed)) {
			add(layer + " import is outside explicit allowlist")
		}
	}
	return violations
}

func allowedPrefixes(layer string, servicePrefix string, packages []string) []string {
	out := make([]string, 0, len(packages)+len(valueTypeImports)+1)
	for _, pkg := range packages {
		out = append(out, servicePrefix+"/"+pkg)
	}
	if layer == "application" {
		out = append(out, modulePath+"/contracts")
	}
	return append(out, valueTypeImports...)
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, prefixes []string) bool {
	for _, p := range prefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
