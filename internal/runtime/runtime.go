// Package runtime runs Risor compatibility check scripts against loaded
// profiles.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/pscompat/internal/query"
)

// Runtime embeds a Risor VM and exposes profile queries to check scripts.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger routes the scripts' log calls to l.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime loading scripts from scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Input is what a check script sees.
type Input struct {
	// Targets are the profiles to check against, in report order.
	Targets []*query.Profile
	// Commands are command references such as "gci -Path -Recurse": a
	// command name or alias followed by parameter names.
	Commands []string
	// Types are type references such as "[System.IO.File]" or "List[int]".
	Types []string
}

// Diagnostic is one problem reported by a check script.
type Diagnostic struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Target   string `json:"target"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
}

// Check runs the script at scriptPath against in and returns what it
// reported, ordered by target, rule and subject.
func (r *Runtime) Check(ctx context.Context, scriptPath string, in *Input) ([]Diagnostic, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.check(ctx, src, scriptPath, in)
}

// CheckSource is Check for inline source.
func (r *Runtime) CheckSource(ctx context.Context, source string, in *Input) ([]Diagnostic, error) {
	return r.check(ctx, source, "<inline>", in)
}

// CheckAll runs every .risor script at the top of the script source, in
// name order, and returns all diagnostics.
func (r *Runtime) CheckAll(ctx context.Context, in *Input) ([]Diagnostic, error) {
	names, err := r.Scripts()
	if err != nil {
		return nil, err
	}
	var all []Diagnostic
	for _, name := range names {
		diags, err := r.Check(ctx, name, in)
		if err != nil {
			return nil, err
		}
		all = append(all, diags...)
	}
	sortDiagnostics(all)
	return all, nil
}

// Scripts lists the .risor files at the top of the script source.
func (r *Runtime) Scripts() ([]string, error) {
	var (
		entries []fs.DirEntry
		err     error
	)
	if r.fsys != nil {
		entries, err = fs.ReadDir(r.fsys, ".")
	} else {
		entries, err = os.ReadDir(r.scriptsDir)
	}
	if err != nil {
		return nil, fmt.Errorf("runtime: listing scripts: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".risor" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *Runtime) check(ctx context.Context, source, label string, in *Input) ([]Diagnostic, error) {
	if in == nil {
		in = &Input{}
	}
	h := newHost(in)
	if err := r.eval(ctx, source, label, h.globals()); err != nil {
		return nil, err
	}
	diags := h.diagnostics()
	sortDiagnostics(diags)
	return diags, nil
}

// RunSource executes Risor source code directly with the log global plus
// any extra globals. Useful for testing without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{logger: r.logger}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string)  { l.logger.Info(msg, "source", "script") }
func (l *logObject) Warn(msg string)  { l.logger.Warn(msg, "source", "script") }
func (l *logObject) Error(msg string) { l.logger.Error(msg, "source", "script") }

func sortDiagnostics(d []Diagnostic) {
	sort.SliceStable(d, func(i, j int) bool {
		if d[i].Target != d[j].Target {
			return d[i].Target < d[j].Target
		}
		if d[i].Rule != d[j].Rule {
			return d[i].Rule < d[j].Rule
		}
		return d[i].Subject < d[j].Subject
	})
}
