package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"text/template/parse"
	"time"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
)

//go:embed templates
var embedded embed.FS

// Extensions lists the file suffixes recognised as templates.
var Extensions = []string{".tmpl", ".template", ".j2", ".jinja"}

// Engine renders palette templates from a user directory layered over the
// built-in defaults.
type Engine struct {
	dir    string
	layers []fs.FS
	now    func() time.Time
	logger *slog.Logger
}

// New creates an engine. An empty dir or one that does not exist leaves only
// the built-in templates.
func New(dir string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	builtin, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}

	e := &Engine{dir: dir, now: time.Now, logger: logger.With("topic", "render")}
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			e.layers = append(e.layers, os.DirFS(dir))
		}
	}
	e.layers = append(e.layers, builtin)
	return e
}

// Dir is the user template directory.
func (e *Engine) Dir() string { return e.dir }

func isTemplate(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return slices.Contains(Extensions, ext)
}

// Templates lists every available template name, sorted.
func (e *Engine) Templates() ([]string, error) {
	seen := map[string]bool{}
	for _, layer := range e.layers {
		err := fs.WalkDir(layer, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isTemplate(p) {
				seen[p] = true
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}

// Path reports where name resolves: a file in the user directory, or an
// "embedded:" pseudo path for the built-in copy. Empty means not found.
func (e *Engine) Path(name string) string {
	for i, layer := range e.layers {
		if _, err := fs.Stat(layer, name); err == nil {
			if i == len(e.layers)-1 {
				return "embedded:" + name
			}
			return filepath.Join(e.dir, filepath.FromSlash(name))
		}
	}
	return ""
}

func (e *Engine) source(name string) (string, error) {
	for _, layer := range e.layers {
		b, err := fs.ReadFile(layer, name)
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("template not found: %s", name)
}

func (e *Engine) parse(name, src string) (*template.Template, error) {
	return template.New(name).Funcs(Funcs()).Option("missingkey=zero").Parse(src)
}

// Render executes the named template against p.
func (e *Engine) Render(name string, p *palette.Palette, extra Extra) (string, error) {
	src, err := e.source(name)
	if err != nil {
		return "", fmt.Errorf("template rendering failed: %w", err)
	}
	out, err := e.execute(name, src, p, extra)
	if err != nil {
		return "", err
	}
	e.logger.Debug("template rendered", "template", name, "bytes", len(out))
	return out, nil
}

// RenderString executes src as an anonymous template.
func (e *Engine) RenderString(src string, p *palette.Palette, extra Extra) (string, error) {
	return e.execute("inline", src, p, extra)
}

func (e *Engine) execute(name, src string, p *palette.Palette, extra Extra) (string, error) {
	t, err := e.parse(name, src)
	if err != nil {
		return "", fmt.Errorf("template rendering failed: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, newContext(p, extra, e.now())); err != nil {
		return "", fmt.Errorf("template rendering failed: %w", err)
	}
	return buf.String(), nil
}

// Validation is the outcome of rendering a template against a sample palette.
type Validation struct {
	Name      string   `json:"template_name"`
	Valid     bool     `json:"valid"`
	Length    int      `json:"rendered_length,omitempty"`
	Variables []string `json:"variables_used,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// SamplePalette is the fixed palette templates are validated against.
func SamplePalette() *palette.Palette {
	return &palette.Palette{
		Colors: map[palette.Role]palette.Color{
			palette.RoleBackground: palette.RGB(30, 30, 30, palette.RoleBackground),
			palette.RoleText:       palette.RGB(200, 200, 200, palette.RoleText),
			palette.RolePrimary:    palette.RGB(100, 150, 200, palette.RolePrimary),
			palette.RoleSecondary:  palette.RGB(150, 100, 200, palette.RoleSecondary),
			palette.RoleAccent:     palette.RGB(200, 100, 100, palette.RoleAccent),
		},
		SourceImage: "validation",
		Method:      "validation",
	}
}

// Validate renders name against SamplePalette.
func (e *Engine) Validate(name string) Validation {
	v := Validation{Name: name}
	src, err := e.source(name)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	t, err := e.parse(name, src)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Variables = fieldsUsed(t.Tree.Root)

	out, err := e.execute(name, src, SamplePalette(), Extra{AppName: "validation"})
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Valid = true
	v.Length = len(out)
	return v
}

// fieldsUsed collects the dotted field chains a template references.
func fieldsUsed(root parse.Node) []string {
	seen := map[string]bool{}
	var walk func(n parse.Node)
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.IfNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.WithNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.TemplateNode:
			walk(n.Pipe)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, c := range n.Cmds {
				walk(c)
			}
		case *parse.CommandNode:
			for _, a := range n.Args {
				walk(a)
			}
		case *parse.FieldNode:
			seen[strings.Join(n.Ident, ".")] = true
		case *parse.ChainNode:
			walk(n.Node)
		}
	}
	walk(root)

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
