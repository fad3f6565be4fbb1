// reflectdi/cmd/digen/main.go
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/reflectdi/internal/logging"
)

// Manifest is the YAML input of digen.
type Manifest struct {
	// Package of the generated file. Defaults to the package of the source
	// files next to the manifest.
	Package string `yaml:"package"`

	// DI overrides the inferred import path of the di runtime.
	DI string `yaml:"di"`

	// Dir is the source package directory, relative to the manifest.
	Dir string `yaml:"dir"`

	Components []ComponentSpec `yaml:"components"`
}

// ComponentSpec names one component interface and the contracts generated
// around it.
type ComponentSpec struct {
	Interface string `yaml:"interface"`

	// Descriptor is a function in the package returning the component's
	// *di.ComponentDescriptor. Required for top-level components.
	Descriptor string `yaml:"descriptor"`

	Builder string `yaml:"builder"`
	Factory string `yaml:"factory"`

	// Create controls the Create<Interface> entry point. Defaults to true
	// when neither a builder nor a factory is declared.
	Create *bool `yaml:"create"`

	Subcomponents []ComponentSpec `yaml:"subcomponents"`
}

func (c ComponentSpec) wantsCreate() bool {
	if c.Create != nil {
		return *c.Create
	}
	return c.Builder == "" && c.Factory == ""
}

func run(args []string, logOut io.Writer) error {
	fs := flag.NewFlagSet("digen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	manifestPath := fs.String("manifest", "", "path to digen.yaml")
	outPath := fs.String("out", "", "output file (default <dir>/<package>_digen.go)")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")
	logFormat := fs.String("log-format", logging.FormatConsole, "console or json")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*manifestPath) == "" {
		return fmt.Errorf("missing -manifest")
	}

	log, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat}, logOut)
	if err != nil {
		return err
	}

	out := generate(*manifestPath, *outPath, log)
	log.Info().Str("manifest", *manifestPath).Str("out", out).Msg("shim generated")
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		panic(err)
	}
}

// generate writes the shim for manifestPath and returns the output path.
func generate(manifestPath, outPath string, log zerolog.Logger) string {
	raw := mustRead(manifestPath)

	var m Manifest
	must(yaml.Unmarshal(raw, &m))
	validateManifest(&m)

	pkgDir := filepath.Join(filepath.Dir(manifestPath), m.Dir)
	pkg := parsePackage(pkgDir, outPath)
	if m.Package == "" {
		m.Package = pkg.name
	}
	if strings.TrimSpace(outPath) == "" {
		outPath = filepath.Join(pkgDir, m.Package+"_digen.go")
	}
	inferDIImport(&m, pkg, pkgDir)

	sort.Slice(m.Components, func(i, j int) bool { return m.Components[i].Interface < m.Components[j].Interface })

	wrapped := map[string]string{}
	collectWrapped(m.Components, wrapped)

	var wrappers []wrapperData
	names := make([]string, 0, len(wrapped))
	for name := range wrapped {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		methods := pkg.methodSet(name)
		wrappers = append(wrappers, renderWrapper(name, wrapped[name], methods, wrapped))
		log.Debug().Str("interface", name).Int("methods", len(methods)).Msg("wrapper rendered")
	}

	var entries []entryData
	for _, c := range m.Components {
		entries = append(entries, entryPoints(c, wrapped)...)
	}

	required := []GoImport{diImport(m.DI)}
	required = append(required, usedImports(wrappers, pkg.imports)...)

	data := map[string]any{
		"Manifest":     m,
		"ManifestPath": filepath.ToSlash(manifestPath),
		"ManifestHash": sha256Hex(raw),
		"Imports":      mergeImports(required, nil),
		"Wrappers":     wrappers,
		"Entries":      entries,
	}

	src := mustExecTemplate(shimTpl, data)
	writeFormatted(outPath, src)
	return outPath
}

func validateManifest(m *Manifest) {
	if len(m.Components) == 0 {
		die("manifest missing: components")
	}
	seen := map[string]bool{}
	var check func(cs []ComponentSpec, top bool)
	check = func(cs []ComponentSpec, top bool) {
		for _, c := range cs {
			if strings.TrimSpace(c.Interface) == "" {
				die("manifest missing: components[].interface")
			}
			if seen[c.Interface] {
				die("manifest lists " + strconv.Quote(c.Interface) + " twice")
			}
			seen[c.Interface] = true
			if top && strings.TrimSpace(c.Descriptor) == "" {
				die("manifest missing: descriptor for " + c.Interface)
			}
			if !top && c.Descriptor != "" {
				die("subcomponent " + c.Interface + " has a descriptor; subcomponents are created through their parent")
			}
			if c.Create != nil && *c.Create && !top {
				die("subcomponent " + c.Interface + " cannot have a create entry point")
			}
			for _, other := range []string{c.Builder, c.Factory} {
				if other == "" {
					continue
				}
				if seen[other] {
					die("manifest lists " + strconv.Quote(other) + " twice")
				}
				seen[other] = true
			}
			check(c.Subcomponents, false)
		}
	}
	check(m.Components, true)
}

// collectWrapped maps every interface that gets a wrapper to the wrapper's
// type name.
func collectWrapped(cs []ComponentSpec, into map[string]string) {
	for _, c := range cs {
		for _, name := range []string{c.Interface, c.Builder, c.Factory} {
			if name != "" {
				into[name] = "digen" + name
			}
		}
		collectWrapped(c.Subcomponents, into)
	}
}

// -------------------------
// Source package scanning
// -------------------------

type sourcePackage struct {
	name       string
	interfaces map[string]*ast.InterfaceType
	imports    []GoImport
}

type methodSig struct {
	Name    string
	Params  []string
	Results []string
}

// parsePackage reads the interfaces and imports of the non-test files in
// dir, skipping generated shims.
func parsePackage(dir, outPath string) *sourcePackage {
	entries, err := os.ReadDir(dir)
	must(err)

	skip := ""
	if outPath != "" {
		skip, _ = filepath.Abs(outPath)
	}

	p := &sourcePackage{interfaces: map[string]*ast.InterfaceType{}}
	fset := token.NewFileSet()
	var imports []GoImport
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, "_digen.go") {
			continue
		}
		full := filepath.Join(dir, name)
		if abs, _ := filepath.Abs(full); abs == skip {
			continue
		}
		f, err := parser.ParseFile(fset, full, nil, parser.SkipObjectResolution)
		must(err)
		if p.name == "" {
			p.name = f.Name.Name
		}
		for _, imp := range f.Imports {
			gi := GoImport{Path: strings.Trim(imp.Path.Value, `"`)}
			if imp.Name != nil {
				gi.Name = imp.Name.Name
			}
			imports = append(imports, gi)
		}
		ast.Inspect(f, func(n ast.Node) bool {
			ts, ok := n.(*ast.TypeSpec)
			if !ok {
				return true
			}
			if it, ok := ts.Type.(*ast.InterfaceType); ok && ts.TypeParams == nil {
				p.interfaces[ts.Name.Name] = it
			}
			return false
		})
	}
	if p.name == "" {
		die("no Go source files in " + dir)
	}
	p.imports = dedupeAndSortImports(imports)
	return p
}

// methodSet returns the methods of interface name, including those of
// embedded interfaces declared in the same package, sorted by name.
func (p *sourcePackage) methodSet(name string) []methodSig {
	byName := map[string]methodSig{}
	p.collectMethods(name, byName, map[string]bool{})
	out := make([]methodSig, 0, len(byName))
	for _, m := range byName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *sourcePackage) collectMethods(name string, into map[string]methodSig, visiting map[string]bool) {
	it, ok := p.interfaces[name]
	if !ok {
		die("interface " + name + " not found in package " + p.name)
	}
	if visiting[name] {
		return
	}
	visiting[name] = true

	for _, field := range it.Methods.List {
		switch t := field.Type.(type) {
		case *ast.FuncType:
			for _, n := range field.Names {
				if !n.IsExported() {
					die(name + "." + n.Name + " is unexported; shims cannot implement it")
				}
				into[n.Name] = methodSig{Name: n.Name, Params: fieldTypes(name+"."+n.Name, t.Params), Results: fieldTypes(name+"."+n.Name, t.Results)}
			}
		case *ast.Ident:
			p.collectMethods(t.Name, into, visiting)
		default:
			die(name + " embeds " + types.ExprString(field.Type) + "; only interfaces of the same package can be embedded")
		}
	}
}

func fieldTypes(method string, fl *ast.FieldList) []string {
	if fl == nil {
		return nil
	}
	var out []string
	for _, f := range fl.List {
		if _, ok := f.Type.(*ast.Ellipsis); ok {
			die(method + " is variadic; shims cannot forward it")
		}
		typ := types.ExprString(f.Type)
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, typ)
		}
	}
	return out
}

// -------------------------
// Rendering
// -------------------------

type wrapperData struct {
	Type      string
	Interface string
	Methods   []methodData
}

type methodData struct {
	Name    string
	Params  string
	Results string
	Body    string
}

type entryData struct {
	Doc        string
	Func       string
	Interface  string
	Wrapper    string
	Must       string
	Descriptor string
}

func renderWrapper(iface, typ string, methods []methodSig, wrapped map[string]string) wrapperData {
	w := wrapperData{Type: typ, Interface: iface}
	for _, m := range methods {
		w.Methods = append(w.Methods, renderMethod(iface, m, wrapped))
	}
	return w
}

func renderMethod(iface string, m methodSig, wrapped map[string]string) methodData {
	params := make([]string, len(m.Params))
	call := []string{"w.call", strconv.Quote(m.Name)}
	for i, t := range m.Params {
		arg := "p" + strconv.Itoa(i)
		params[i] = arg + " " + t
		call = append(call, arg)
	}
	args := strings.Join(call, ", ")

	md := methodData{Name: m.Name, Params: strings.Join(params, ", ")}
	switch len(m.Results) {
	case 0:
		md.Body = "if _, err := w.call.Call(" + strings.Join(call[1:], ", ") + "); err != nil {\npanic(err)\n}"
	case 1:
		md.Results = m.Results[0]
		if m.Results[0] == "error" {
			md.Body = "_, err := w.call.Call(" + strings.Join(call[1:], ", ") + ")\nreturn err"
		} else if wt, ok := wrapped[m.Results[0]]; ok {
			md.Body = "return " + wt + "{call: di.MustCall[di.Caller](" + args + ")}"
		} else {
			md.Body = "return di.MustCall[" + m.Results[0] + "](" + args + ")"
		}
	case 2:
		if m.Results[1] != "error" {
			die(iface + "." + m.Name + " returns two values; the second must be error")
		}
		md.Results = "(" + m.Results[0] + ", error)"
		if wt, ok := wrapped[m.Results[0]]; ok {
			md.Body = "c, err := di.CallAs[di.Caller](" + args + ")\nif err != nil {\nreturn nil, err\n}\nreturn " + wt + "{call: c}, nil"
		} else {
			md.Body = "return di.CallAs[" + m.Results[0] + "](" + args + ")"
		}
	default:
		die(iface + "." + m.Name + " returns more than two values")
	}
	return md
}

func entryPoints(c ComponentSpec, wrapped map[string]string) []entryData {
	desc := c.Descriptor + "()"
	var out []entryData
	if c.wantsCreate() {
		out = append(out, entryData{
			Doc:        "creates a " + c.Interface + " from the default instances of its modules.",
			Func:       "Create" + c.Interface,
			Interface:  c.Interface,
			Wrapper:    wrapped[c.Interface],
			Must:       "MustCreate",
			Descriptor: desc,
		})
	}
	if c.Builder != "" {
		out = append(out, entryData{
			Doc:        "returns a new " + c.Builder + ".",
			Func:       "New" + c.Builder,
			Interface:  c.Builder,
			Wrapper:    wrapped[c.Builder],
			Must:       "MustBuilder",
			Descriptor: desc,
		})
	}
	if c.Factory != "" {
		out = append(out, entryData{
			Doc:        "returns a " + c.Factory + ".",
			Func:       "New" + c.Factory,
			Interface:  c.Factory,
			Wrapper:    wrapped[c.Factory],
			Must:       "MustFactory",
			Descriptor: desc,
		})
	}
	return out
}

// -------------------------
// Imports
// -------------------------

type GoImport struct {
	Name string // alias, empty when the package name is the last path element
	Path string
}

var qualifierRe = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.[A-Za-z_]`)

// usedImports returns the scanned imports whose package name qualifies a
// type in a rendered signature.
func usedImports(wrappers []wrapperData, scanned []GoImport) []GoImport {
	used := map[string]bool{}
	for _, w := range wrappers {
		for _, m := range w.Methods {
			for _, match := range qualifierRe.FindAllStringSubmatch(m.Params+" "+m.Results, -1) {
				used[match[1]] = true
			}
		}
	}
	var out []GoImport
	for _, gi := range scanned {
		if gi.Name == "_" || gi.Name == "." {
			continue
		}
		name := gi.Name
		if name == "" {
			name = packageName(gi.Path)
		}
		if used[name] && name != "di" {
			out = append(out, gi)
		}
	}
	return out
}

// packageName guesses the package name of an import path: its last element
// without a gopkg.in style ".vN" suffix or a trailing major version.
func packageName(path string) string {
	parts := strings.Split(path, "/")
	last := parts[len(parts)-1]
	if isMajorVersion(last) && len(parts) > 1 {
		last = parts[len(parts)-2]
	}
	if i := strings.Index(last, ".v"); i > 0 {
		last = last[:i]
	}
	return strings.TrimPrefix(last, "go-")
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

func diImport(path string) GoImport {
	if packageName(path) == "di" {
		return GoImport{Path: path}
	}
	return GoImport{Name: "di", Path: path}
}

// inferDIImport resolves the di runtime import: the manifest wins, then an
// import of the source package, then the enclosing module when it is the
// runtime's own module.
func inferDIImport(m *Manifest, pkg *sourcePackage, pkgDir string) {
	if strings.TrimSpace(m.DI) != "" {
		return
	}
	if gi, ok := findImportByAliasOrSuffix(pkg.imports, "di", "/di"); ok {
		m.DI = gi.Path
		return
	}
	if _, modPath, err := findModule(pkgDir); err == nil && modPath == runtimeModule {
		m.DI = runtimeModule + "/di"
		return
	}
	die("cannot infer di import; set di in the manifest")
}

const runtimeModule = "github.com/sghaida/reflectdi"

func findImportByAliasOrSuffix(imports []GoImport, preferAlias, preferSuffix string) (GoImport, bool) {
	if preferAlias != "" {
		for _, gi := range imports {
			if gi.Name == preferAlias {
				return gi, true
			}
		}
	}
	if preferSuffix != "" {
		for _, gi := range imports {
			if strings.HasSuffix(gi.Path, preferSuffix) {
				return gi, true
			}
		}
	}
	return GoImport{}, false
}

func dedupeAndSortImports(imps []GoImport) []GoImport {
	return mergeImports(imps, nil)
}

func mergeImports(required []GoImport, preserved []GoImport) []GoImport {
	seen := map[GoImport]bool{}
	out := make([]GoImport, 0, len(required)+len(preserved))
	for _, gi := range append(append([]GoImport{}, required...), preserved...) {
		if seen[gi] {
			continue
		}
		seen[gi] = true
		out = append(out, gi)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}

type cmdError struct{ msg string }

func (e *cmdError) Error() string { return e.msg }

// findModule walks up from startDir to the nearest go.mod and returns its
// directory and module path.
func findModule(startDir string) (modRoot string, modPath string, err error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", "", err
	}
	for {
		gomod := filepath.Join(dir, "go.mod")
		if b, rerr := os.ReadFile(gomod); rerr == nil {
			for _, line := range strings.Split(string(b), "\n") {
				line = strings.TrimSpace(line)
				if strings.HasPrefix(line, "module ") {
					return dir, strings.TrimSpace(strings.TrimPrefix(line, "module ")), nil
				}
			}
			return "", "", &cmdError{msg: "go.mod has no module line: " + gomod}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", &cmdError{msg: "go.mod not found above " + startDir}
		}
		dir = parent
	}
}

// -------------------------
// Misc helpers
// -------------------------

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func mustRead(path string) []byte {
	b, err := os.ReadFile(path)
	must(err)
	return b
}

func mustExecTemplate(tpl *template.Template, data any) []byte {
	var sb strings.Builder
	must(tpl.Execute(&sb, data))
	return []byte(sb.String())
}

// writeFormatted formats src and replaces out atomically.
func writeFormatted(out string, src []byte) {
	fmtSrc, err := format.Source(src)
	if err != nil {
		die("gofmt/format failed: " + err.Error())
	}
	tmp, err := os.CreateTemp(filepath.Dir(out), ".digen-*")
	must(err)
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(fmtSrc); err != nil {
		_ = tmp.Close()
		die("write " + tmp.Name() + ": " + err.Error())
	}
	must(tmp.Close())
	must(os.Chmod(tmp.Name(), 0o644))
	must(os.Rename(tmp.Name(), out))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func die(msg string) {
	panic(msg)
}

var shimTpl = template.Must(template.New("shim").Parse(`// Code generated by digen from {{ .ManifestPath }}; DO NOT EDIT.
// manifest sha256: {{ .ManifestHash }}

package {{ .Manifest.Package }}

import (
{{- range .Imports }}
	{{ if .Name }}{{ .Name }} {{ end }}"{{ .Path }}"
{{- end }}
)
{{ range .Entries }}
// {{ .Func }} {{ .Doc }}
func {{ .Func }}(opts ...di.Option) {{ .Interface }} {
	return {{ .Wrapper }}{call: di.{{ .Must }}({{ .Descriptor }}, opts...)}
}
{{ end }}
{{- range .Wrappers }}
{{- $w := . }}
// {{ .Type }} implements {{ .Interface }} by dispatching to the resolver.
type {{ .Type }} struct {
	call di.Caller
}

var _ {{ .Interface }} = {{ .Type }}{}
{{ range .Methods }}
func (w {{ $w.Type }}) {{ .Name }}({{ .Params }}) {{ .Results }} {
	{{ .Body }}
}
{{ end }}
{{- end }}
`))
