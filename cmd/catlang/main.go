// CatLang CLI - compile, run, disassemble, and bundle CatLang programs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/catlang/bundle"
	"github.com/chazu/catlang/cache"
	"github.com/chazu/catlang/compiler"
	"github.com/chazu/catlang/manifest"
	"github.com/chazu/catlang/vm"
)

func main() {
	os.Exit(run())
}

func run() int {
	verbose := flag.Bool("v", false, "Verbose output")
	emitPath := flag.String("emit", "", "Explicit output path for the compiled chunk")
	runChunk := flag.Bool("run", false, "Load and execute a compiled chunk")
	disasm := flag.Bool("disasm", false, "Disassemble a compiled chunk")
	bundleExe := flag.Bool("bundle-exe", false, "Bundle a program into a copy of this executable")
	noCache := flag.Bool("no-cache", false, "Skip the compile cache")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: catlang [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles .cb sources to .cat chunks and executes them on the CatLang VM.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  catlang prog.cb                   # compile to prog.cat\n")
		fmt.Fprintf(os.Stderr, "  catlang --emit out.cat prog.cb    # compile with explicit output\n")
		fmt.Fprintf(os.Stderr, "  catlang prog.cat                  # load and execute\n")
		fmt.Fprintf(os.Stderr, "  catlang --disasm prog.cat         # human-readable listing\n")
		fmt.Fprintf(os.Stderr, "  catlang --bundle-exe prog.cb out  # self-contained executable\n")
		fmt.Fprintf(os.Stderr, "  catlang                           # REPL (or embedded payload)\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
	log := commonlog.GetLogger("catlang")

	mf, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg := manifest.Resolve(mf)
	if *noCache {
		cfg.Cache = false
	}

	args := flag.Args()

	if *bundleExe {
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: catlang --bundle-exe <file.cb|file.cat> <out>")
			return 1
		}
		if err := bundleProgram(args[0], args[1], cfg, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if len(args) == 0 {
		// A bundled executable runs its embedded payload; a manifest entry
		// point runs next; otherwise REPL.
		if code, ok := runEmbedded(cfg, log); ok {
			return code
		}
		if cfg.Entry != "" {
			entry := cfg.Entry
			if mf != nil && !filepath.IsAbs(entry) {
				entry = filepath.Join(mf.Dir, entry)
			}
			c, failed := compileProgram(entry, cfg, log)
			if c == nil || failed {
				return 1
			}
			return execute(c, cfg)
		}
		return runREPL(cfg)
	}

	path := args[0]

	switch {
	case *disasm:
		c, err := loadChunk(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Print(c.Disassemble())
		return 0

	case *runChunk || strings.HasSuffix(path, ".cat"):
		c, err := loadChunk(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return execute(c, cfg)
	}

	// Compile a .cb source to a chunk next to it (or at --emit).
	c, failed := compileProgram(path, cfg, log)
	if c == nil {
		return 1
	}
	out := *emitPath
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".cat"
	}
	if err := os.WriteFile(out, c.Serialize(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	log.Infof("compiled %s -> %s (%d bytes)", path, out, len(c.Code))
	if failed {
		return 1
	}
	return 0
}

// compileProgram compiles a source file, consulting the compile cache
// when enabled. Diagnostics go to stderr; a chunk is still produced when
// some statements failed (failed=true signals the non-zero exit).
func compileProgram(path string, cfg manifest.Config, log commonlog.Logger) (*vm.Chunk, bool) {
	expanded, _, err := compiler.ExpandFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, true
	}

	var store *cache.Store
	hash := cache.HashSource(expanded)
	if cfg.Cache {
		if s, err := cache.OpenDefault(); err == nil {
			store = s
			defer store.Close()
			if c, ok, _ := store.Get(hash); ok {
				log.Debugf("cache hit for %s", path)
				return c, false
			}
		} else {
			log.Debugf("compile cache unavailable: %v", err)
		}
	}

	opts := compiler.Options{SourceName: path, Oracle: compiler.StaticOracle{}, AutoFix: cfg.AutoFix}

	result, err := compiler.CompileFileWith(path, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, true
	}
	for _, diag := range result.Diags {
		fmt.Fprintln(os.Stderr, diag.Error())
	}

	if store != nil && !result.Failed() {
		if err := store.Put(hash, result.Chunk); err != nil {
			log.Debugf("cache store failed: %v", err)
		}
	}
	return result.Chunk, result.Failed()
}

// execute runs a chunk and maps the outcome to a process exit code.
func execute(c *vm.Chunk, cfg manifest.Config) int {
	machine := vm.New()
	machine.SetMemDebug(cfg.MemDebug)
	if err := machine.Run(c); err != nil {
		return 1
	}
	if machine.Exited() {
		return machine.ExitCode()
	}
	return 0
}

func loadChunk(path string) (*vm.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return vm.Deserialize(data, path)
}

// bundleProgram compiles (or loads) the program and appends it to a copy
// of the running executable.
func bundleProgram(src, out string, cfg manifest.Config, log commonlog.Logger) error {
	var payload []byte
	if strings.HasSuffix(src, ".cat") {
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		payload = data
	} else {
		c, failed := compileProgram(src, cfg, log)
		if c == nil || failed {
			return fmt.Errorf("compilation of %s failed", src)
		}
		payload = c.Serialize()
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating host executable: %w", err)
	}
	var b bundle.ExeBundler
	if err := b.Bundle(self, out, payload); err != nil {
		return err
	}
	log.Infof("bundled %s -> %s (%d byte payload)", src, out, len(payload))
	return nil
}

// runEmbedded detects a CBPACK1 footer on the running executable and
// executes the embedded chunk.
func runEmbedded(cfg manifest.Config, log commonlog.Logger) (int, bool) {
	self, err := os.Executable()
	if err != nil {
		return 0, false
	}
	var b bundle.ExeBundler
	payload, ok, err := b.Extract(self)
	if err != nil || !ok {
		return 0, false
	}
	c, err := vm.Deserialize(payload, filepath.Base(self))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: corrupt embedded chunk: %v\n", err)
		return 1, true
	}
	log.Debugf("executing embedded chunk (%d bytes)", len(payload))
	return execute(c, cfg), true
}
