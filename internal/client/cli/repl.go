package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Leads(ctx context.Context) error
	Stats(ctx context.Context) error
	Board(ctx context.Context) error
	AddBoardItem(ctx context.Context) error
	RemoveBoardItem(ctx context.Context, id string) error
	Move(ctx context.Context, id, x, y string) error
	Visuals(ctx context.Context) error
	AddVisual(ctx context.Context) error
	Approve(ctx context.Context, id string) error
	Generate(ctx context.Context, id string) error
	Reports(ctx context.Context) error
	GenerateReports(ctx context.Context) error
	Export(ctx context.Context, collection string) error
	Journal(ctx context.Context) error
	Notices(ctx context.Context) error
}

const helpText = `Available commands:
  leads                 list leads
  stats                 lead stats and recent report alerts
  board                 list board items
  board-add             add a board item
  board-rm <id>         remove a board item
  move <id> <x> <y>     move a board item
  visuals               list visuals
  visual-add            add a visual
  approve <id>          approve a draft visual
  generate <id>         generate an approved visual
  reports               list weekly reports
  reports-generate      start weekly report generation
  export <collection>   export leads, board, visuals or reports
  journal               recent mutations
  notices               recent notices
  exit | quit           leave the console`

// runREPL starts a simple read–eval–print loop for the lead console.
//
// It reads a line from in, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// operator. The loop exits on EOF or when the operator types "exit" or
// "quit".
//
// Handlers report their own failures, either directly or through the
// notice center, so errors returned here are dropped. Commands that take
// arguments print their usage when arguments are missing.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("lc %s> ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "leads":
			_ = a.Leads(ctx)

		case "stats":
			_ = a.Stats(ctx)

		case "board":
			_ = a.Board(ctx)

		case "board-add":
			_ = a.AddBoardItem(ctx)

		case "board-rm":
			if len(args) != 1 {
				printlnFn("Usage: board-rm <id>")
				continue
			}
			_ = a.RemoveBoardItem(ctx, args[0])

		case "move":
			if len(args) != 3 {
				printlnFn("Usage: move <id> <x> <y>")
				continue
			}
			_ = a.Move(ctx, args[0], args[1], args[2])

		case "visuals":
			_ = a.Visuals(ctx)

		case "visual-add":
			_ = a.AddVisual(ctx)

		case "approve", "generate":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			if cmd == "approve" {
				_ = a.Approve(ctx, args[0])
			} else {
				_ = a.Generate(ctx, args[0])
			}

		case "reports":
			_ = a.Reports(ctx)

		case "reports-generate":
			_ = a.GenerateReports(ctx)

		case "export":
			if len(args) != 1 {
				printlnFn("Usage: export <collection>")
				continue
			}
			_ = a.Export(ctx, args[0])

		case "journal":
			_ = a.Journal(ctx)

		case "notices":
			_ = a.Notices(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
