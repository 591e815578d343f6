package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/drpcorg/rowbind"
	"github.com/drpcorg/rowbind/grid"
	"github.com/drpcorg/rowbind/store"
	"github.com/drpcorg/rowbind/workload"
)

var (
	HelpAdd    = errors.New("add <section|-> [index] text")
	HelpSet    = errors.New("set <section|-> index text")
	HelpDel    = errors.New("del <section|-> index")
	HelpRows   = errors.New("rows <section>")
	HelpRandom = errors.New("random start|stop")
)

const help = `sections                      list sections
rows <section>                list the rows of a section
add <section|-> [index] text  insert a row, or a section with -
set <section|-> index text    edit a row or a section
del <section|-> index         delete a row or a section
show                          render the grid and the edits since last show
detach, attach                take the grid out of the window and back
flat [section]                view one section flat; no argument goes back
random start|stop             generate random edits
exit`

func (repl *REPL) CommandHelp(args []string) error {
	fmt.Println(help)
	return nil
}

// parseList maps "-" to the section list and a section index to the
// rows of that section.
func (repl *REPL) parseList(arg string) (uuid.UUID, error) {
	if arg == "-" {
		return store.RootList, nil
	}
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return uuid.Nil, err
	}
	sections, err := repl.Store.Items(store.RootList)
	if err != nil {
		return uuid.Nil, err
	}
	if idx < 0 || idx >= len(sections) {
		return uuid.Nil, fmt.Errorf("no section %d of %d", idx, len(sections))
	}
	return sections[idx].ID, nil
}

func printItems(items []store.Item) {
	for i, it := range items {
		fmt.Printf("%3d  %s\n", i, it.String())
	}
}

func (repl *REPL) CommandSections(args []string) error {
	items, err := repl.Store.Items(store.RootList)
	if err == nil {
		printItems(items)
	}
	return err
}

func (repl *REPL) CommandRows(args []string) error {
	if len(args) != 1 {
		return HelpRows
	}
	list, err := repl.parseList(args[0])
	if err != nil {
		return err
	}
	items, err := repl.Store.Items(list)
	if err == nil {
		printItems(items)
	}
	return err
}

func (repl *REPL) CommandAdd(args []string) error {
	if len(args) < 2 {
		return HelpAdd
	}
	list, err := repl.parseList(args[0])
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(args[1])
	text := strings.Join(args[2:], " ")
	if err != nil {
		idx = -1
		text = strings.Join(args[1:], " ")
	}
	return repl.Store.Write(func(tx *store.Tx) error {
		if idx < 0 {
			if idx, err = tx.Len(list); err != nil {
				return err
			}
		}
		it, err := tx.Insert(list, idx, text)
		if err == nil {
			fmt.Printf("added %s\n", it.ID)
		}
		return err
	})
}

func (repl *REPL) CommandSet(args []string) error {
	if len(args) < 3 {
		return HelpSet
	}
	list, err := repl.parseList(args[0])
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return HelpSet
	}
	return repl.Store.Write(func(tx *store.Tx) error {
		_, err := tx.Update(list, idx, strings.Join(args[2:], " "))
		return err
	})
}

// CommandDel does not wait for the commit; the view catches up on its own.
func (repl *REPL) CommandDel(args []string) error {
	if len(args) != 2 {
		return HelpDel
	}
	list, err := repl.parseList(args[0])
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return HelpDel
	}
	return repl.Store.WriteAsync(func(tx *store.Tx) error {
		_, err := tx.Remove(list, idx)
		return err
	})
}

func (repl *REPL) current() *grid.Recorder {
	if repl.flat != nil {
		return repl.fgrid
	}
	return repl.sgrid
}

func (repl *REPL) CommandShow(ctx context.Context, args []string) error {
	var err error
	doErr := repl.Loop.Do(ctx, func() {
		g := repl.current()
		for _, op := range g.Take() {
			fmt.Printf("# %s %s\n", op.String(), op.Anim)
		}
		if repl.flatOf != nil {
			fmt.Printf("== %s\n", repl.flatOf.Text)
		}
		if _, err = g.WriteTo(os.Stdout); err != nil {
			return
		}
		err = g.Err()
		g.Errors = nil
	})
	return errors.Join(doErr, err)
}

func (repl *REPL) CommandAttach(ctx context.Context, attached bool) error {
	return repl.Loop.Do(ctx, func() {
		repl.current().SetAttached(attached)
	})
}

func (repl *REPL) CommandFlat(ctx context.Context, args []string) error {
	var section *store.Item
	if len(args) > 0 {
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		items, err := repl.Store.Items(store.RootList)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(items) {
			return fmt.Errorf("no section %d of %d", idx, len(items))
		}
		section = &items[idx]
	}
	return repl.Loop.Do(ctx, func() {
		if repl.flat != nil {
			repl.flat.Close()
			repl.flat, repl.fgrid, repl.flatOf = nil, nil, nil
		}
		if section == nil {
			return
		}
		opts := rowbind.DefaultOptions()
		opts.Log = repl.Log
		opts.Name = "flat"
		repl.flat = rowbind.NewFlat(opts, itemCells())
		repl.fgrid = grid.NewRecorder(repl.flat)
		repl.flatOf = section
		repl.flat.Bind(repl.fgrid, repl.Store.Children(*section))
	})
}

func (repl *REPL) CommandRandom(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return HelpRandom
	}
	switch args[0] {
	case "start":
		return repl.startRandom(ctx, store.RootList)
	case "stop":
		repl.stopRandom()
		return nil
	}
	return HelpRandom
}

// startRandom edits list and, for the section list, every section it
// creates gets a randomizer of its own.
func (repl *REPL) startRandom(ctx context.Context, list uuid.UUID) error {
	r := &workload.Randomizer{
		Store: repl.Store,
		List:  list,
		Log:   repl.Log,
	}
	if list == store.RootList {
		r.Create = func(it store.Item) {
			if err := repl.startRandom(ctx, it.ID); err != nil {
				repl.Log.Warn("cannot start section randomizer", "section", it.ID, "err", err)
			}
		}
	}
	repl.rlock.Lock()
	r.Seed = uint64(len(repl.rand) + 1)
	repl.rand = append(repl.rand, r)
	repl.rlock.Unlock()
	return r.Start(ctx)
}

// stopRandom repeats until no randomizer is left: a stopping parent may
// still have started a child.
func (repl *REPL) stopRandom() {
	for {
		repl.rlock.Lock()
		rs := repl.rand
		repl.rand = nil
		repl.rlock.Unlock()
		if len(rs) == 0 {
			return
		}
		for _, r := range rs {
			r.Stop()
		}
	}
}
