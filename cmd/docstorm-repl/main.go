// Package main is an interactive shell for driving a Docstorm document
// engine: editing, undo/redo, Lua macros, and inspecting the tree.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/docstorm/internal/config"
	"github.com/dshills/docstorm/internal/config/loader"
	"github.com/dshills/docstorm/internal/config/watcher"
	"github.com/dshills/docstorm/internal/engine"
	"github.com/dshills/docstorm/internal/engine/doc"
	"github.com/dshills/docstorm/internal/event/events"
	"github.com/dshills/docstorm/internal/event/topic"
	"github.com/dshills/docstorm/internal/log"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		origin      string
		logLevel    string
		readOnly    bool
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&origin, "origin", "", "Replica origin id (default: random UUID)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&readOnly, "readonly", false, "Reject local edits")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Docstorm - collaborative document engine shell\n\n")
		fmt.Fprintf(os.Stderr, "Usage: docstorm-repl [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("Docstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return 0
	}

	logger := log.New(log.Config{
		Level:  log.ParseLevel(logLevel),
		Prefix: "docstorm",
	})

	cfg, err := loader.Load(configPath)
	if err != nil {
		logger.Error("config: %v", err)
		return 1
	}

	opts := []engine.Option{engine.WithConfig(cfg)}
	if origin != "" {
		opts = append(opts, engine.WithOrigin(origin))
	}
	if readOnly {
		opts = append(opts, engine.WithReadOnly())
	}
	e := engine.New(opts...)

	// Echo every document change.
	_, _ = e.Bus().SubscribeFunc(events.TopicDocumentChanged, func(_ topic.Topic, payload any) error {
		change := payload.(events.DocumentChanged)
		name := change.BatchName
		if name == "" {
			name = string(change.Source)
		}
		fmt.Printf("-- %s: %d op(s), revision %d\n", name, len(change.Ops), e.Revision())
		return nil
	})

	// Reload the live-tunable settings when the config file changes.
	if configPath != "" {
		cfgLog := logger.WithComponent("config")
		w := watcher.New(configPath, func(path string) {
			fresh, err := loader.Load(path)
			if err != nil {
				cfgLog.Warn("reload: %v", err)
				return
			}
			e.SetMaxUndoEntries(fresh.History.MaxEntries)
			cfgLog.Info("reloaded from %s", path)
		}, watcher.WithErrorHandler(func(err error) {
			cfgLog.Warn("watch: %v", err)
		}))
		if err := w.Start(); err != nil {
			logger.Error("config watcher: %v", err)
			return 1
		}
		defer w.Close()
	}

	fmt.Printf("Docstorm %s, origin %s. Type 'help' for commands.\n", version, e.Origin())
	return repl(e, cfg)
}

func repl(e *engine.Engine, cfg *config.Config) int {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return 0
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		var err error
		switch cmd {
		case "help":
			printHelp()
		case "quit", "exit":
			return 0
		case "para":
			err = cmdPara(e, strings.Join(args, " "))
		case "insert":
			err = cmdInsert(e, args)
		case "delete":
			err = cmdDelete(e, args)
		case "mark":
			err = cmdMark(e, args)
		case "show":
			printNode(e.Document(), 0)
		case "undo":
			err = e.Undo()
		case "redo":
			err = e.Redo()
		case "history":
			cmdHistory(e)
		case "macro":
			err = cmdMacro(e, args)
		case "status":
			fmt.Printf("origin %s, revision %d, pending %d, undo %d, redo %d, macros %v\n",
				e.Origin(), e.Revision(), e.PendingCount(),
				e.UndoCount(), e.RedoCount(), cfg.Plugin.Enabled)
		default:
			err = fmt.Errorf("unknown command %q, try 'help'", cmd)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func printHelp() {
	fmt.Print(`Commands:
  para <text>                     append a paragraph
  insert <path> <offset> <text>   insert text into a leaf (path like 0.0)
  delete <path> <offset> <count>  delete bytes from a leaf
  mark <path> <type> <start> <end>  apply a mark to a range of a leaf
  show                            print the document tree
  undo / redo                     step through history
  history                         show undo/redo stacks
  macro <file.lua>                run a Lua macro as one batch
  status                          replica and history state
  quit                            exit
`)
}

func cmdPara(e *engine.Engine, text string) error {
	leaf := e.NewTextNode(text)
	para := e.NewElementNode("paragraph", nil, leaf)
	return e.Apply(&engine.InsertNode{
		Path: engine.Path{len(e.Document().Children)},
		Node: para,
	})
}

func cmdInsert(e *engine.Engine, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: insert <path> <offset> <text>")
	}
	p, err := parsePath(args[0])
	if err != nil {
		return err
	}
	offset, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad offset %q", args[1])
	}
	return e.Apply(&engine.InsertText{
		Path:   p,
		Offset: offset,
		Text:   strings.Join(args[2:], " "),
	})
}

func cmdDelete(e *engine.Engine, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: delete <path> <offset> <count>")
	}
	p, err := parsePath(args[0])
	if err != nil {
		return err
	}
	offset, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad offset %q", args[1])
	}
	count, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("bad count %q", args[2])
	}
	return e.Apply(&engine.DeleteText{Path: p, Offset: offset, Count: count})
}

func cmdMark(e *engine.Engine, args []string) error {
	if len(args) != 4 {
		return errors.New("usage: mark <path> <type> <start> <end>")
	}
	p, err := parsePath(args[0])
	if err != nil {
		return err
	}
	mt := engine.MarkType(args[1])
	if !mt.Valid() {
		return fmt.Errorf("unknown mark type %q", args[1])
	}
	start, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("bad start %q", args[2])
	}
	end, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("bad end %q", args[3])
	}
	return e.Apply(&engine.ApplyMark{
		Path:  p,
		Mark:  engine.Mark{Type: mt},
		Start: start,
		End:   end,
	})
}

func cmdHistory(e *engine.Engine) {
	if info, ok := e.PeekUndo(); ok {
		fmt.Printf("undo: %q (%d op(s)), %d total\n", info.Name, info.Size, e.UndoCount())
	} else {
		fmt.Println("undo: empty")
	}
	if info, ok := e.PeekRedo(); ok {
		fmt.Printf("redo: %q (%d op(s)), %d total\n", info.Name, info.Size, e.RedoCount())
	} else {
		fmt.Println("redo: empty")
	}
}

func cmdMacro(e *engine.Engine, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: macro <file.lua>")
	}
	script, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	return e.RunMacro(args[0], string(script))
}

func parsePath(s string) (engine.Path, error) {
	parts := strings.Split(s, ".")
	p := make(engine.Path, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad path %q", s)
		}
		p = append(p, n)
	}
	return p, nil
}

func printNode(n engine.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch node := n.(type) {
	case *doc.ElementNode:
		fmt.Printf("%s<%s id=%s", indent, node.Type, node.ID)
		for k, v := range node.Attributes {
			fmt.Printf(" %s=%v", k, v)
		}
		fmt.Println(">")
		for _, child := range node.Children {
			printNode(child, depth+1)
		}
	case *doc.TextNode:
		fmt.Printf("%s%q", indent, node.Text)
		for _, m := range node.Marks {
			fmt.Printf(" [%s]", m)
		}
		fmt.Println()
	}
}
