package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/cloudview/internal/app"
	"github.com/banshee-data/cloudview/internal/cloud"
	"github.com/banshee-data/cloudview/internal/snapshot"
)

// commandContext is everything a stdin command can reach.
type commandContext struct {
	sup   *app.Supervisor
	store *snapshot.Store
	out   io.Writer
	stop  func()
}

type command struct {
	usage string
	help  string
	run   func(cc *commandContext, args []string) error
}

// Interactive command table. Commands run on the consumer goroutine via
// Exec, so they never race the cycle.
var commandTable = map[string]command{
	"f+": {
		usage: "f+",
		help:  "Increase target frame rate by 5",
		run: func(cc *commandContext, args []string) error {
			cc.sup.State().UpdateView(func(v *app.ViewParams) { v.TargetFPS += 5 })
			fmt.Fprintf(cc.out, "target fps: %d\n", cc.sup.State().Snapshot().View.TargetFPS)
			return nil
		},
	},
	"f-": {
		usage: "f-",
		help:  "Decrease target frame rate by 5 (floor 1)",
		run: func(cc *commandContext, args []string) error {
			cc.sup.State().UpdateView(func(v *app.ViewParams) { v.TargetFPS -= 5 })
			fmt.Fprintf(cc.out, "target fps: %d\n", cc.sup.State().Snapshot().View.TargetFPS)
			return nil
		},
	},
	"r": {
		usage: "r <radius>",
		help:  "Set the correspondence search radius",
		run: func(cc *commandContext, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: r <radius>")
			}
			rad, err := strconv.ParseFloat(args[0], 64)
			if err != nil || rad < 0 {
				return fmt.Errorf("radius must be a non-negative number, got %q", args[0])
			}
			cc.sup.State().UpdateView(func(v *app.ViewParams) { v.SearchRad = rad })
			fmt.Fprintf(cc.out, "search radius: %g\n", rad)
			return nil
		},
	},
	"c": {
		usage: "c [source target]",
		help:  "Run correspondence (default: the two most recent clouds)",
		run: func(cc *commandContext, args []string) error {
			err := cc.sup.Exec(func(st *app.State) error {
				if len(args) == 2 {
					src, err1 := strconv.ParseUint(args[0], 10, 64)
					dst, err2 := strconv.ParseUint(args[1], 10, 64)
					if err1 != nil || err2 != nil {
						return fmt.Errorf("usage: c <source> <target>")
					}
					return st.Correspond(cloud.Handle(src), cloud.Handle(dst))
				}
				return st.CorrespondLatest()
			})
			if err != nil {
				return err
			}
			snap := cc.sup.State().Snapshot()
			matched := 0
			for _, m := range snap.Result.Matches {
				if m.Target != nil {
					matched++
				}
			}
			fmt.Fprintf(cc.out, "correspondence %d -> %d: %d/%d points matched (radius %g)\n",
				snap.Result.SourceHandle, snap.Result.TargetHandle,
				matched, len(snap.Result.Matches), snap.Result.Radius)
			return nil
		},
	},
	"l": {
		usage: "l",
		help:  "List promoted clouds",
		run: func(cc *commandContext, args []string) error {
			snap := cc.sup.State().Snapshot()
			if len(snap.Clouds) == 0 {
				fmt.Fprintln(cc.out, "no clouds promoted")
				return nil
			}
			for _, entry := range snap.Clouds {
				fmt.Fprintf(cc.out, "  cloud %d: %d points\n", entry.Handle, len(entry.Cloud.Points))
			}
			fmt.Fprintf(cc.out, "queue: %d pending\n", snap.QueueLen)
			return nil
		},
	},
	"s": {
		usage: "s",
		help:  "Save the session snapshot to the database",
		run: func(cc *commandContext, args []string) error {
			if err := cc.store.Save(cc.sup.State().Snapshot()); err != nil {
				return err
			}
			fmt.Fprintln(cc.out, "session saved")
			return nil
		},
	},
	"R": {
		usage: "R",
		help:  "Hot restart: rebuild the render context, keep the session",
		run: func(cc *commandContext, args []string) error {
			cc.sup.RequestRestart()
			fmt.Fprintln(cc.out, "restart requested")
			return nil
		},
	},
	"q": {
		usage: "q",
		help:  "Quit (saves the session on the way out)",
		run: func(cc *commandContext, args []string) error {
			cc.stop()
			return nil
		},
	},
}

func printHelp(out io.Writer) {
	names := make([]string, 0, len(commandTable))
	for name := range commandTable {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(out, "commands:")
	for _, name := range names {
		cmd := commandTable[name]
		fmt.Fprintf(out, "  %-18s %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintln(out, "  ?                  Show this help")
}

// runCommandLoop reads commands from r until EOF or quit. stop cancels the
// process context.
func runCommandLoop(r io.Reader, out io.Writer, sup *app.Supervisor, store *snapshot.Store, stop func()) {
	cc := &commandContext{sup: sup, store: store, out: out, stop: stop}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]

		if name == "?" || name == "help" {
			printHelp(out)
			continue
		}

		cmd, ok := commandTable[name]
		if !ok {
			fmt.Fprintf(out, "unknown command %q (? for help)\n", name)
			continue
		}
		if err := cmd.run(cc, args); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("command loop read error: %v", err)
	}
}
