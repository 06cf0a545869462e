package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/neurodesk/trimmer/pkg/errwrap"
	"github.com/neurodesk/trimmer/pkg/netcache"
	"github.com/neurodesk/trimmer/pkg/trimmer"
	"github.com/neurodesk/trimmer/pkg/validator"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	exitUsage  = 1
	exitParse  = 2
	exitRender = 3
)

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

type cliOptions struct {
	output    string
	vars      []string
	jsonVars  []string
	yamlFiles []string
	starFiles []string
	syntax    string
	dumpAST   bool
	verbose   bool
	jobs      int
	cacheDir  string
}

func (o cliOptions) Validate() error {
	if o.jobs < 0 {
		return fmt.Errorf("--jobs must not be negative, got %d", o.jobs)
	}
	return validator.All(
		validator.MatchesAllowed(o.syntax, []string{"", "plain", "indent", "oneline"}, "--syntax"),
		validator.NoDuplicates(o.yamlFiles, "--yaml"),
		validator.NoDuplicates(o.starFiles, "--starlark"),
	)
}

func (o cliOptions) hasVars() bool {
	return len(o.vars) > 0 || len(o.jsonVars) > 0 || len(o.yamlFiles) > 0 || len(o.starFiles) > 0
}

type app struct {
	ctx    context.Context
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
	opts   cliOptions
	logger *slog.Logger
	cache  *netcache.Cache
}

func (a *app) parser() (*trimmer.Parser, error) {
	p := trimmer.NewParser().WithLogger(a.logger)
	if a.opts.syntax == "" {
		return p, nil
	}
	s, err := trimmer.ParseSyntax(a.opts.syntax)
	if err != nil {
		return nil, err
	}
	return p.WithOptions(trimmer.DefaultOptions().WithSyntax(s)), nil
}

func (a *app) loader() trimmer.Loader {
	return netcache.Loader{
		Cache:   a.cache,
		Local:   trimmer.FSLoader{Fs: a.fs},
		Context: a.ctx,
	}
}

func (a *app) readFile(name string) ([]byte, error) {
	return netcache.ReadFile(a.ctx, a.cache, a.fs, name)
}

// load reads and parses one template. Read failures are usage errors,
// syntax errors are parse errors.
func (a *app) load(p *trimmer.Parser, path string) (*trimmer.Template, error) {
	tpl, err := p.Load(a.loader(), path)
	if err == nil {
		return tpl, nil
	}
	var perr *trimmer.ParseError
	if errors.As(err, &perr) {
		return nil, withCode(exitParse, fmt.Errorf("error parsing %s", err))
	}
	return nil, withCode(exitUsage, errwrap.Wrapf(err, "error reading %q", path))
}

// check parses every template concurrently and reports all failures.
func (a *app) check(paths []string) error {
	if a.opts.hasVars() {
		return withCode(exitUsage, errors.New("no vars allowed in syntax check mode (use -o/--render-to-file to render a template)"))
	}
	p, err := a.parser()
	if err != nil {
		return withCode(exitUsage, err)
	}

	templates := make([]*trimmer.Template, len(paths))
	errs := make([]error, len(paths))
	var g errgroup.Group
	jobs := a.opts.jobs
	if jobs == 0 {
		jobs = runtime.NumCPU()
	}
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			templates[i], errs[i] = a.load(p, path)
			return nil
		})
	}
	_ = g.Wait()

	var result error
	code := 0
	for i, path := range paths {
		if errs[i] != nil {
			result = errwrap.Append(result, errs[i])
			var ee *exitError
			if errors.As(errs[i], &ee) {
				code = max(code, ee.code)
			}
			continue
		}
		a.logger.Debug("template ok", "path", path)
		if a.opts.dumpAST {
			fmt.Fprintf(a.stdout, "# %s\n%s", path, trimmer.Pretty(templates[i]))
		}
	}
	return withCode(code, result)
}

// render renders exactly one template to the output target.
func (a *app) render(paths []string) error {
	if len(paths) != 1 {
		return withCode(exitUsage, errors.New("exactly one template must be given in render mode (-o/--render-to-file)"))
	}
	path := paths[0]
	ctx, err := a.context()
	if err != nil {
		return withCode(exitUsage, err)
	}
	p, err := a.parser()
	if err != nil {
		return withCode(exitUsage, err)
	}
	tpl, err := a.load(p, path)
	if err != nil {
		return err
	}
	a.logger.Debug("rendering", "path", path, "vars", len(ctx))
	out, err := tpl.Render(ctx)
	if err != nil {
		return withCode(exitRender, fmt.Errorf("error rendering %q: %w", path, err))
	}
	if a.opts.output == "-" {
		_, err = io.WriteString(a.stdout, out)
	} else {
		err = afero.WriteFile(a.fs, a.opts.output, []byte(out), 0o644)
	}
	if err != nil {
		return withCode(exitRender, fmt.Errorf("error writing output %q: %w", a.opts.output, err))
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trimmer [flags] TEMPLATE...",
		Short: "Check or render trimmer templates",
		Long: "Without -o every TEMPLATE is syntax checked. With -o exactly one TEMPLATE\n" +
			"is rendered to the given file, or to stdout with `-o -`.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.ctx = cmd.Context()
			level := slog.LevelWarn
			if a.opts.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
			a.cache = netcache.New(a.fs, a.opts.cacheDir)
			a.cache.Logger = a.logger
			if err := a.opts.Validate(); err != nil {
				return withCode(exitUsage, err)
			}
			if cmd.Flags().Changed("render-to-file") {
				return a.render(args)
			}
			return a.check(args)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&a.opts.output, "render-to-file", "o", "", "Render the template to `FILE` instead of checking it, - for stdout")
	flags.StringArrayVarP(&a.opts.vars, "var", "D", nil, "Define a string variable as NAME=VALUE (render mode only)")
	flags.StringArrayVarP(&a.opts.jsonVars, "json", "J", nil, "Define variables from a JSON object, later objects override earlier ones")
	flags.StringArrayVarP(&a.opts.yamlFiles, "yaml", "Y", nil, "Define variables from a YAML mapping file")
	flags.StringArrayVarP(&a.opts.starFiles, "starlark", "S", nil, "Define variables by running a Starlark script")
	flags.StringVar(&a.opts.syntax, "syntax", "", "`SYNTAX` of templates without a syntax directive: plain, indent or oneline")
	flags.BoolVar(&a.opts.dumpAST, "ast", false, "Print the parsed statement tree of every checked template")
	flags.IntVarP(&a.opts.jobs, "jobs", "j", 0, "Templates checked in parallel, 0 for one per CPU")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&a.opts.cacheDir, "cache-dir", defaultCacheDir(), "`DIR` caching templates and variable files fetched over HTTP")
	return cmd
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "trimmer")
	}
	return filepath.Join(dir, "trimmer")
}

// run executes the command line and returns the process exit code.
func run(args []string, fs afero.Fs, stdout, stderr io.Writer) int {
	a := &app{fs: fs, stdout: stdout, stderr: stderr, logger: slog.Default()}
	cmd := newRootCmd(a)
	cmd.SetContext(context.Background())
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		fmt.Fprintln(stderr, errwrap.Lines(ee.err))
		return ee.code
	}
	fmt.Fprintln(stderr, err)
	return exitUsage
}

func main() {
	os.Exit(run(os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr))
}
