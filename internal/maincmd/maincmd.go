// Package maincmd implements the lake driver's command-line surface: a
// flag-based frontend built on a Cmd/mainer.Parser shape, whose flag set
// and control flow (--run/--build/--externalize/--exec) cover parsing,
// running, externalizing and bundling a program behind one CLI.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"

	"github.com/lakevm/lake/internal/bundle"
	"github.com/lakevm/lake/lang/externalize"
	"github.com/lakevm/lake/lang/machine"
	"github.com/lakevm/lake/lang/parser"
)

const binName = "lake"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`Lake Virtual Machine

usage: %s -h|--help
       %[1]s -v|--version
       %[1]s --run --source FILE[,FILE...]
       %[1]s --externalize FILE --source FILE[,FILE...]
       %[1]s --build NAME --build-interpreter PATH --source FILE[,FILE...] [--resource FILE[,FILE...]]
       %[1]s --exec

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -t --trace N              Trace execution level, 0 (off)..5 (high).
       --tracestack              Make 'dump' print the whole stack.
       -r --run                  Parse --source and evaluate it directly.
       -s --source FILE,...      Input file(s) to parse, comma-separated.
       --externalize FILE        Write the parsed program's assembly back
                                 out to FILE before running/building it.
       --externalize-format FMT  "yaml" writes a debug YAML tree to FILE
                                 instead of canonical assembly text.
       --dbg                     Carried for CLI-surface compatibility; this
                                 implementation always attaches source
                                 positions, so there is no separate debug
                                 info mode to toggle.
       --appname NAME            Accepted for CLI-surface compatibility; the
                                 name is not used.
       --resource FILE,...       Extra files to embed in a built bundle,
                                 comma-separated.
       -b --build NAME           Build a self-contained executable named
                                 NAME from --build-interpreter plus
                                 --source (and --resource).
       --build-interpreter PATH  Path to the interpreter binary --build
                                 appends the bundle to.
       -e --exec                 Run the bundle attached to this executable.

More information on the lake project:
       https://github.com/lakevm/lake
`, binName)
)

// Cmd holds the parsed flags and drives the CLI's behavior.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Trace            int    `flag:"t,trace"`
	TraceStack       bool   `flag:"tracestack"`
	Run              bool   `flag:"r,run"`
	Source           string `flag:"s,source"`
	Externalize      string `flag:"externalize"`
	ExternalizeFormat string `flag:"externalize-format"`
	Dbg              bool   `flag:"dbg"`
	AppName          string `flag:"appname"`
	Resource         string `flag:"resource"`
	Build            string `flag:"b,build"`
	BuildInterpreter string `flag:"build-interpreter"`
	Exec             bool   `flag:"e,exec"`

	args  []string
	flags map[string]bool

	sources   []string
	resources []string

	// haltCode is the exit code the last-run program requested via the
	// `halt` opcode; zero unless a program halted with a nonzero code.
	haltCode int
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

// Validate checks the flag combination and splits the comma-separated
// --source/--resource lists. mna/mainer's flag tags bind to scalar struct
// fields, so a repeated-value flag is modeled here as one comma-separated
// string split in Validate, collecting any number of values into a single
// slice before the rest of the command ever inspects it.
func (c *Cmd) Validate() error {
	c.sources = splitList(c.Source)
	c.resources = splitList(c.Resource)

	if c.Help || c.Version || c.Exec {
		return nil
	}

	if c.Build != "" {
		if c.BuildInterpreter == "" {
			return errors.New("--build requires --build-interpreter")
		}
		if len(c.sources) == 0 {
			return errors.New("--build requires --source")
		}
		return nil
	}

	if c.Run || c.Externalize != "" {
		if len(c.sources) == 0 {
			return errors.New("--source is required")
		}
		return nil
	}

	return errors.New("one of --run, --build, --externalize or --exec is required")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

// Main parses args and dispatches to the requested action, returning the
// process exit code (0 on success, 1 on diagnostic failure).
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	// Nothing in lake's current action set yet observes ctx.Done, but every
	// action below receives it so a future streaming FFI call can honor it
	// without another plumbing pass.
	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	var err error
	switch {
	case c.Exec:
		err = c.runBundled(ctx, stdio)
	case c.Build != "":
		err = c.build(ctx, stdio)
	default:
		err = c.runOrExternalize(ctx, stdio)
	}
	if printError(stdio, err) != nil {
		return mainer.Failure
	}
	if c.haltCode != 0 {
		return mainer.ExitCode(c.haltCode)
	}
	return mainer.Success
}

// newVM builds a VM configured from the --trace/--tracestack flags and any
// LAKE_-prefixed environment overrides (env.go).
func (c *Cmd) newVM(stdio mainer.Stdio) *machine.VM {
	vm := machine.New()
	vm.TraceLevel = c.Trace
	vm.Tracer = &machine.Tracer{Out: stdio.Stdout, Level: c.Trace}
	vm.DumpStack = c.TraceStack

	if cfg, err := loadEnvConfig(); err == nil {
		if cfg.FloatPrecision > 0 {
			vm.FloatPrecision = cfg.FloatPrecision
		}
		if cfg.FreelistCap > 0 {
			vm.FreelistCap = cfg.FreelistCap
		}
	}
	return vm
}

// runOrExternalize implements --run and --externalize: parse --source,
// optionally write its externalized assembly to --externalize before ever
// evaluating it (externalization must happen before evaluation, since AST
// nodes may be reused, GC'ed and transformed in arbitrary ways during
// execution), then run it if --run was given.
func (c *Cmd) runOrExternalize(_ context.Context, stdio mainer.Stdio) error {
	vm := c.newVM(stdio)

	// Only the first source file is parsed and run; any further --source
	// files are not read here (the machine has no built-in multi-file
	// linking model).
	src, err := os.ReadFile(c.sources[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", c.sources[0], err)
	}
	body, err := parser.Parse(vm, c.sources[0], src)
	if err != nil {
		return err
	}

	if c.Externalize != "" {
		text := externalize.Program(body)
		if c.ExternalizeFormat == "yaml" {
			y, err := externalize.YAML(body)
			if err != nil {
				return fmt.Errorf("externalize %s as yaml: %w", c.sources[0], err)
			}
			text = y
		}
		if err := os.WriteFile(c.Externalize, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", c.Externalize, err)
		}
	}

	if c.Run {
		if _, err := vm.Run(body); err != nil {
			return err
		}
		c.haltCode = vm.ExitCode
		if c.Trace >= 4 {
			fmt.Fprintln(stdio.Stdout, "Execution completed successfully")
		}
	}
	return nil
}

// build implements --build: assemble a bundle.Resource list from --source
// (so a later --exec can run them) and --resource (extra static files),
// and write a self-contained executable combining --build-interpreter with
// that bundle.
func (c *Cmd) build(_ context.Context, stdio mainer.Stdio) error {
	paths := append(append([]string{}, c.sources...), c.resources...)
	resources := make([]bundle.Resource, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		resources = append(resources, bundle.Resource{Path: path, Data: data})
	}
	if err := bundle.Write(c.Build, c.BuildInterpreter, resources); err != nil {
		return err
	}
	if c.Trace >= 4 {
		fmt.Fprintf(stdio.Stdout, "Built %s with %d resource(s)\n", c.Build, len(resources))
	}
	return nil
}

// runBundled implements --exec: locate this running executable, extract
// its bundle (if any) and parse+run every bundled resource in its own VM.
func (c *Cmd) runBundled(_ context.Context, stdio mainer.Stdio) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate running executable: %w", err)
	}
	f, err := os.Open(exePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", exePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", exePath, err)
	}

	resources, err := bundle.Read(f, info.Size())
	if err != nil {
		return err
	}
	if resources == nil {
		fmt.Fprintln(stdio.Stdout, "No bundle found")
		return nil
	}

	for _, res := range resources {
		fmt.Fprintf(stdio.Stdout, "Resource: %s, len: %d\n", res.Path, len(res.Data))

		vm := c.newVM(stdio)
		body, err := parser.Parse(vm, res.Path, res.Data)
		if err != nil {
			return fmt.Errorf("parse resource %s: %w", res.Path, err)
		}
		if _, err := vm.Run(body); err != nil {
			return fmt.Errorf("run resource %s: %w", res.Path, err)
		}
		c.haltCode = vm.ExitCode
	}
	return nil
}
