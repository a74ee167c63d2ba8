package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Systems(ctx context.Context) error
	Form(ctx context.Context, doctype string) error
	Fill(ctx context.Context, doctype string) error
	Queue(ctx context.Context) error
	Drain(ctx context.Context) error
	Unqueue(ctx context.Context, id string) error
}

func (a *App) getStatus() string {
	s := ""
	if a.isLoggedIn() {
		s = "authed "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root starts the interactive loop reading from stdin. It blocks until the
// user exits or stdin is closed.
func (a *App) Root(ctx context.Context) {
	printlnFn("fieldentry CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// runREPL is a simple read–eval–print loop. It reads a line from the provided
// scanner, parses the first token as the command, and dispatches to methods
// on 'a'. Unknown commands are reported back to the user. The loop exits on
// scanner EOF or when the user types "exit" or "quit".
//
// Commands
//
//	help            — show available commands
//	login           — store tokens for the backend
//	logout          — discard stored tokens
//	systems         — list ERP systems (cache-first)
//	form <doctype>  — resolve a form's schema graph and show its fields
//	fill <doctype>  — enter a document and submit or queue it
//	queue           — list pending submissions
//	drain           — upload pending submissions in order
//	unqueue <id>    — drop one pending submission
//	exit | quit     — leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("fe %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: systems, form <doctype>, fill <doctype>, queue, drain, unqueue <id>, logout, exit")
			} else {
				printlnFn("Available commands: login, queue, drain, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "systems":
			_ = a.Systems(ctx)

		case "form":
			if len(args) == 0 {
				printlnFn("Usage: form <doctype>")
				continue
			}
			_ = a.Form(ctx, args[0])

		case "fill":
			if len(args) == 0 {
				printlnFn("Usage: fill <doctype>")
				continue
			}
			_ = a.Fill(ctx, args[0])

		case "queue":
			_ = a.Queue(ctx)

		case "drain":
			_ = a.Drain(ctx)

		case "unqueue":
			if len(args) == 0 {
				printlnFn("Usage: unqueue <id>")
				continue
			}
			_ = a.Unqueue(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
