package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ergochat/readline"

	"github.com/drpcorg/rowbind"
	"github.com/drpcorg/rowbind/grid"
	"github.com/drpcorg/rowbind/loop"
	"github.com/drpcorg/rowbind/store"
	"github.com/drpcorg/rowbind/utils"
	"github.com/drpcorg/rowbind/workload"
)

// REPL per se. Engines and recorders live on the loop; commands reach
// them through loop.Do.
type REPL struct {
	Store *store.Store
	Loop  *loop.Loop
	Log   utils.Logger

	rl *readline.Instance

	sectioned *rowbind.Sectioned[store.Item, store.Item]
	sgrid     *grid.Recorder
	flat      *rowbind.Flat[store.Item]
	fgrid     *grid.Recorder
	flatOf    *store.Item

	rlock sync.Mutex
	rand  []*workload.Randomizer
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("sections"),
	readline.PcItem("rows"),
	readline.PcItem("add"),
	readline.PcItem("set"),
	readline.PcItem("del"),

	readline.PcItem("show"),
	readline.PcItem("detach"),
	readline.PcItem("attach"),
	readline.PcItem("flat"),
	readline.PcItem("random",
		readline.PcItem("start"),
		readline.PcItem("stop"),
	),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func itemCells() rowbind.CellFactory[store.Item] {
	return rowbind.CellConfig("Item", func(cell *grid.TextCell, ip grid.IndexPath, it store.Item) {
		cell.Text = it.Text
	})
}

func (repl *REPL) Open(ctx context.Context) (err error) {
	if err = repl.Bind(ctx); err != nil {
		return
	}
	repl.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "▤ ",
		HistoryFile:     ".rowbind_cmd_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return
	}
	repl.rl.CaptureExitSignal()
	return
}

// Bind sets up the sectioned view over the store's section list.
func (repl *REPL) Bind(ctx context.Context) (err error) {
	opts := rowbind.DefaultOptions()
	opts.Scheduler = repl.Loop
	opts.Log = repl.Log
	opts.Name = "sectioned"
	opts.SectionAnimations = grid.Animations{Insert: grid.Fade, Delete: grid.Fade, Update: grid.Fade}
	opts.RowAnimations = grid.Animations{Insert: grid.Right, Delete: grid.Left, Update: grid.Automatic}
	opts.TitleFunc = repl.title
	repl.sectioned, err = rowbind.NewSectioned[store.Item, store.Item](opts, itemCells(), repl.Store.Children)
	if err != nil {
		return
	}
	err = repl.Loop.Do(ctx, func() {
		repl.sgrid = grid.NewRecorder(repl.sectioned)
		repl.sectioned.Bind(repl.sgrid, repl.Store.List(store.RootList))
	})
	return
}

// title runs on the loop, where the engine is.
func (repl *REPL) title(section int) (string, bool) {
	s, err := repl.sectioned.Section(section)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%d. %s", section, s.Text), true
}

func (repl *REPL) Close() error {
	repl.stopRandom()
	_ = repl.Loop.Do(context.Background(), func() {
		repl.sectioned.Close()
		if repl.flat != nil {
			repl.flat.Close()
		}
	})
	if repl.rl != nil {
		_ = repl.rl.Close()
		repl.rl = nil
	}
	return nil
}

var ErrUnknownCommand = errors.New("command unknown")

func (repl *REPL) REPL(ctx context.Context) (err error) {
	var line string
	line, err = repl.rl.Readline()
	if err == readline.ErrInterrupt {
		if len(line) != 0 {
			return nil
		}
		return io.EOF
	}
	if err != nil {
		return err
	}

	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "help":
		err = repl.CommandHelp(args)
	case "sections":
		err = repl.CommandSections(args)
	case "rows":
		err = repl.CommandRows(args)
	case "add":
		err = repl.CommandAdd(args)
	case "set":
		err = repl.CommandSet(args)
	case "del":
		err = repl.CommandDel(args)
	case "show":
		err = repl.CommandShow(ctx, args)
	case "detach":
		err = repl.CommandAttach(ctx, false)
	case "attach":
		err = repl.CommandAttach(ctx, true)
	case "flat":
		err = repl.CommandFlat(ctx, args)
	case "random":
		err = repl.CommandRandom(ctx, args)
	case "exit", "quit":
		err = io.EOF
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	return
}

func (repl *REPL) Run(ctx context.Context) {
	var err error
	for err != io.EOF {
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		}
		err = repl.REPL(ctx)
	}
}
