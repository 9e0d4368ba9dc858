package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"pebl/internal/ast"
	"pebl/internal/config"
	"pebl/internal/diag"
	"pebl/internal/evaluator"
	"pebl/internal/eventloop"
	"pebl/internal/gfx"
	"pebl/internal/lexer"
	"pebl/internal/lint"
	"pebl/internal/object"
	"pebl/internal/parser"
	"pebl/internal/repl"
	"pebl/internal/runtime"
	"pebl/internal/runtimeio"
	"pebl/internal/stdlib"
	"pebl/internal/token"
	"pebl/internal/tools"
	"pebl/internal/validate"
	"pebl/internal/vm"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "init":
			runInit(os.Args[2:])
			return
		case "lint":
			runLint(os.Args[2:])
			return
		case "validate":
			runValidate(os.Args[2:])
			return
		case "test":
			runTest(os.Args[2:])
			return
		case "tools":
			runTools(os.Args[2:])
			return
		}
	}

	tokensMode := flag.Bool("tokens", false, "print tokens instead of running")
	astMode := flag.Bool("ast", false, "print AST instead of running")
	recursive := flag.Bool("recursive", false, "run on the recursive evaluator")
	maxStack := flag.Int("max-stack", 0, "maximum call depth (0 uses pebl.yaml or the default)")
	maxSteps := flag.Int64("max-steps", 0, "maximum evaluation steps (0 is unlimited)")
	logLevel := flag.String("log-level", "", "log level (overrides pebl.yaml)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		runRepl(*recursive)
		return
	}

	cmd := args[0]
	cmdArgs := args[1:]
	if cmd != "run" && cmd != "repl" && cmd != "gfx" {
		cmd = "run"
		cmdArgs = args
	}

	if cmd == "repl" {
		if *tokensMode || *astMode {
			fmt.Println("repl does not support -tokens or -ast")
			os.Exit(1)
		}
		if len(cmdArgs) != 0 {
			fmt.Println("usage: pebl repl")
			os.Exit(1)
		}
		runRepl(*recursive)
		return
	}

	target := "."
	var params []string
	if len(cmdArgs) > 0 {
		target, params = cmdArgs[0], cmdArgs[1:]
	}
	man, err := resolveRunTarget(target)
	if err != nil {
		fmt.Println(cmd+" error:", err)
		os.Exit(1)
	}
	if *recursive {
		man.Mode = config.ModeRecursive
	}
	if *maxStack > 0 {
		man.Limits.MaxStackDepth = *maxStack
	}
	if *maxSteps > 0 {
		man.Limits.MaxSteps = *maxSteps
	}
	if *logLevel != "" {
		man.LogLevel = *logLevel
		if _, err := zerolog.ParseLevel(*logLevel); err != nil {
			fmt.Println(cmd+" error:", err)
			os.Exit(1)
		}
	}

	entryPath := man.EntryPath()
	b, err := os.ReadFile(entryPath)
	if err != nil {
		fmt.Println("read error:", err)
		os.Exit(1)
	}
	src := string(b)

	if *tokensMode {
		l := lexer.New(src)
		for {
			tok := l.NextToken()
			fmt.Printf("%4d:%-3d  %-10s  %q\n", tok.Line, tok.Col, tok.Type, tok.Literal)
			if tok.Type == token.EOF {
				break
			}
		}
		return
	}

	prog, diags := parser.ParseSource(entryPath, src)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Println(d.Format(entryPath))
		}
		os.Exit(1)
	}
	if *astMode {
		fmt.Println(prog.String())
		return
	}

	switch cmd {
	case "gfx":
		if man.Mode == config.ModeRecursive {
			fmt.Println("gfx does not support -recursive")
			os.Exit(1)
		}
		runGfx(prog, man, params)
	default:
		runHeadless(prog, man, params)
	}
}

// resolveRunTarget finds the manifest for target. A directory must hold
// pebl.yaml; a script uses the pebl.yaml next to it when there is one.
func resolveRunTarget(target string) (*config.Manifest, error) {
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("path not found: %s", target)
		}
		return nil, err
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return config.LoadManifest(filepath.Join(abs, config.ManifestName))
	}

	man := config.Defaults()
	manifestPath := filepath.Join(filepath.Dir(abs), config.ManifestName)
	if ok, err := pathExists(manifestPath); err != nil {
		return nil, err
	} else if ok {
		if man, err = config.LoadManifest(manifestPath); err != nil {
			return nil, err
		}
	}
	man.Entry = abs
	return man, nil
}

func newRuntime(man *config.Manifest) *runtime.Runtime {
	rt := runtime.New()
	rt.Log = man.Logger(os.Stderr)
	if man.Limits.MaxStackDepth > 0 {
		rt.MaxDepth = man.Limits.MaxStackDepth
	}
	rt.MaxSteps = man.Limits.MaxSteps
	return rt
}

func startParams(params []string) *object.List {
	elems := make([]object.Object, 0, len(params))
	for _, p := range params {
		elems = append(elems, object.NewString(p))
	}
	return object.NewList(elems...)
}

// runHeadless runs prog in the terminal. On an interactive terminal, keys
// feed the event loop; otherwise the loop only sees the clock and
// GetInput reads lines from stdin.
func runHeadless(prog *ast.Program, man *config.Manifest, params []string) {
	rt := newRuntime(man)
	defer rt.Close()

	var loop *eventloop.Loop
	if runtimeio.IsInteractive() {
		var term *runtimeio.Terminal
		term, err := runtimeio.OpenTerminal(os.Stdin, func() {
			term.Close()
			os.Exit(130)
		})
		if err != nil {
			fmt.Println("terminal error:", err)
			os.Exit(1)
		}
		defer term.Close()
		rt.Out = term.Writer(os.Stdout)
		rt.Err = term.Writer(os.Stderr)
		rt.Exit = func(code int) {
			term.Close()
			os.Exit(code)
		}
		loop = eventloop.New(rt, term, term)
	} else {
		loop = eventloop.New(rt, nil, nil)
		if err := rt.LoadLibrary(runtimeio.Functions()); err != nil {
			fmt.Println("load error:", err)
			os.Exit(1)
		}
	}
	if err := stdlib.Install(rt, loop); err != nil {
		fmt.Println("load error:", err)
		os.Exit(1)
	}
	if err := rt.LoadProgram(prog); err != nil {
		fmt.Println("load error:", err)
		os.Exit(1)
	}
	rt.Log.Debug().Str("entry", man.EntryPath()).Str("mode", man.Mode).Msg("starting")

	var err error
	if man.Mode == config.ModeRecursive {
		_, err = evaluator.New(rt).Start(startParams(params))
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		m := vm.New(rt)
		if err = m.Start(startParams(params)); err == nil {
			err = m.RunContext(ctx)
		}
	}
	// fatal errors have been reported and exited by the runtime already
	if err != nil {
		fmt.Println("run error:", err)
		rt.Exit(1)
	}
}

func runGfx(prog *ast.Program, man *config.Manifest, params []string) {
	host := gfx.NewHost(gfx.Options{
		Width:         man.Window.Width,
		Height:        man.Window.Height,
		Title:         man.Window.Title,
		StepsPerFrame: man.StepsPerFrame,
	})
	rt := newRuntime(man)
	defer rt.Close()
	rt.Exit = func(code int) {
		host.Close()
		os.Exit(code)
	}

	loop := eventloop.New(rt, host.Queue, host.Device)
	// the window drives the machine frame by frame; the loop must not sleep
	loop.Idle = nil
	if err := stdlib.Install(rt, loop); err != nil {
		fmt.Println("load error:", err)
		os.Exit(1)
	}
	if err := rt.LoadLibrary(host.Functions()); err != nil {
		fmt.Println("load error:", err)
		os.Exit(1)
	}
	if err := rt.LoadProgram(prog); err != nil {
		fmt.Println("load error:", err)
		os.Exit(1)
	}

	m := vm.New(rt)
	if err := m.Start(startParams(params)); err != nil {
		fmt.Println("gfx error:", err)
		os.Exit(1)
	}
	if err := gfx.Run(host, m); err != nil {
		fmt.Println("gfx error:", err)
		os.Exit(1)
	}
}

func runRepl(recursive bool) {
	rt := runtime.New()
	// the line editor owns stdin, so the event loop sees only the clock
	if err := stdlib.Install(rt, eventloop.New(rt, nil, nil)); err != nil {
		fmt.Println("repl error:", err)
		os.Exit(1)
	}
	if err := repl.Start(repl.NewSession(rt, recursive), os.Stdout); err != nil {
		fmt.Println("repl error:", err)
		os.Exit(1)
	}
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "project name")
	entry := fs.String("entry", "main.pbl", "entry file")
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		fmt.Println("usage: pebl init [--name <name>] [--entry <file>] [--force]")
		os.Exit(1)
	}
	if strings.TrimSpace(*entry) == "" {
		fmt.Println("init error: entry cannot be empty")
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	manifestPath := filepath.Join(cwd, config.ManifestName)
	manifestExists, err := pathExists(manifestPath)
	if err != nil {
		fmt.Println("init error:", err)
		os.Exit(1)
	}
	if manifestExists && !*force {
		fmt.Printf("init error: %s already exists (use --force to overwrite)\n", config.ManifestName)
		os.Exit(1)
	}

	man := config.Defaults()
	man.Name = *name
	man.Entry = *entry
	manifest, err := man.Encode()
	if err != nil {
		fmt.Println("init error:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(manifestPath, manifest, 0o644); err != nil {
		fmt.Println("init error:", err)
		os.Exit(1)
	}

	entryPath := filepath.Join(cwd, *entry)
	if err := ensureDir(entryPath); err != nil {
		fmt.Println("init error:", err)
		os.Exit(1)
	}

	entryExists, err := pathExists(entryPath)
	if err != nil {
		fmt.Println("init error:", err)
		os.Exit(1)
	}
	if !entryExists || *force {
		if err := os.WriteFile(entryPath, []byte(starterProgram), 0o644); err != nil {
			fmt.Println("init error:", err)
			os.Exit(1)
		}
	}
}

func runLint(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: pebl lint <file|dir> [more...]")
		os.Exit(2)
	}

	files, err := collectScriptFiles(args)
	if err != nil {
		fmt.Println("lint error:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		return
	}
	sort.Strings(files)

	hadErrors := false
	for _, path := range files {
		diags, err := lintFile(path)
		if err != nil {
			fmt.Println("lint error:", err)
			hadErrors = true
			continue
		}
		for _, d := range diags {
			fmt.Println(d.Format(path))
			if d.Severity == diag.SeverityError {
				hadErrors = true
			}
		}
	}

	if hadErrors {
		os.Exit(1)
	}
}

// runValidate checks every script in its own validator runtime, so one
// script's fatal error does not stop the rest.
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jobs := fs.Int("j", 0, "files checked at once (0 is unbounded)")
	run := fs.Bool("run", false, "also run Start with no input devices")
	maxSteps := fs.Int64("max-steps", validate.DefaultMaxSteps, "step cap for -run")
	withGfx := fs.Bool("gfx", false, "know the window functions")
	if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
		fmt.Println("usage: pebl validate [-j <n>] [-run] [-max-steps <n>] [-gfx] <file|dir> [more...]")
		os.Exit(2)
	}

	files, err := collectScriptFiles(fs.Args())
	if err != nil {
		fmt.Println("validate error:", err)
		os.Exit(1)
	}
	opts := validate.Options{Limit: *jobs, Lint: true, Run: *run, MaxSteps: *maxSteps}
	if *withGfx {
		opts.Libraries = gfx.NewHost(gfx.Options{}).Functions()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, err := validate.Files(ctx, files, opts)
	if err != nil {
		fmt.Println("validate error:", err)
		os.Exit(1)
	}

	failed := 0
	for _, res := range results {
		for _, d := range res.Diagnostics {
			fmt.Println(d.Format(res.Path))
		}
		if res.HasErrors() {
			failed++
		}
	}
	fmt.Printf("checked %d, failed %d\n", len(results), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func runTools(args []string) {
	if len(args) == 0 || args[0] != "install" {
		fmt.Println("usage: pebl tools install [--bin <dir>]")
		os.Exit(2)
	}

	fs := flag.NewFlagSet("tools install", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	binDir := fs.String("bin", "bin", "output directory for tools")
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 0 {
		fmt.Println("usage: pebl tools install [--bin <dir>]")
		os.Exit(2)
	}

	if err := tools.Install(context.Background(), tools.InstallOptions{BinDir: *binDir}); err != nil {
		fmt.Println("install error:", err)
		os.Exit(1)
	}
	fmt.Printf("installed: %s, %s\n", filepath.Join(*binDir, "pebl"), filepath.Join(*binDir, "pebl-lsp"))
}

func lintFile(path string) ([]diag.Diagnostic, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, diags := parser.ParseSource(path, string(b))
	if len(diags) == 0 && prog != nil {
		diags = append(diags, lint.Run(prog)...)
	}
	diag.Sort(diags)
	return diags, nil
}

func collectScriptFiles(targets []string) ([]string, error) {
	var files []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if strings.HasSuffix(target, scriptExt) {
				files = append(files, target)
			}
			continue
		}

		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				base := filepath.Base(path)
				if base == ".git" || base == "node_modules" {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, scriptExt) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

const scriptExt = ".pbl"

const starterProgram = `define Start(p)
{
  Print("Press any key")
  key <- WaitForAnyKeyPress()
  Print("You pressed " + key)
}
`

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
