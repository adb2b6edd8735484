package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/chazu/catlang/compiler"
	"github.com/chazu/catlang/manifest"
	"github.com/chazu/catlang/vm"
)

// runREPL reads statements line by line, compiling each completed entry
// and evaluating it on a persistent VM so globals survive between
// entries. Top-level expression values echo via the OP_PRINT convention.
func runREPL(cfg manifest.Config) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, ".catlang_history")
		if f, err := os.Open(historyPath); err == nil {
			ln.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if historyPath == "" {
			return
		}
		if f, err := os.Create(historyPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("CatLang REPL — type a statement, or 'quit' to leave.")

	machine := vm.New()
	machine.SetMemDebug(cfg.MemDebug)

	opts := compiler.Options{
		SourceName: "<repl>",
		Oracle:     compiler.StaticOracle{},
		AutoFix:    cfg.AutoFix,
	}

	for {
		entry, ok := readEntry(ln)
		if !ok {
			return 0
		}
		if strings.TrimSpace(entry) == "" {
			continue
		}
		if trimmed := strings.TrimSpace(entry); trimmed == "quit" || trimmed == "exit" {
			return 0
		}
		ln.AppendHistory(strings.ReplaceAll(entry, "\n", " "))

		result := compiler.CompileSource(entry, opts)
		for _, diag := range result.Diags {
			fmt.Fprintln(os.Stderr, diag.Error())
		}
		if result.Failed() {
			continue
		}

		if err := machine.Eval(result.Chunk); err != nil {
			continue // already reported on stderr
		}
		if machine.Exited() {
			return machine.ExitCode()
		}
	}
}

// readEntry reads one logical entry, prompting for continuation lines
// while do/end or brace blocks are unbalanced.
func readEntry(ln *liner.State) (string, bool) {
	var buf strings.Builder
	prompt := "cat> "
	for {
		line, err := ln.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			return "", true // ctrl-c clears the entry
		}
		if err == io.EOF {
			fmt.Println()
			return "", false
		}
		if err != nil {
			return "", false
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(line)
		if !compiler.NeedsContinuation(buf.String()) {
			return buf.String(), true
		}
		prompt = "...> "
	}
}
