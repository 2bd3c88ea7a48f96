package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Account(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	AddLink(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Random(ctx context.Context, args []string) error
	Archive(ctx context.Context, args []string) error
	Unarchive(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
}

// runREPL starts a simple read-eval-print loop for the LinkStash CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - add                — save a link (interactive prompts)
//	  - list [terms]       — list links, optionally filtered by search terms
//	  - archived           — list archived links
//	  - show <id>          — show a single link
//	  - edit <id>          — change title/notes (interactive prompts)
//	  - random [archived]  — pick a random active (or archived) link
//	  - archive <id>       — move a link to the archive
//	  - unarchive <id>     — move a link back to the active set
//	  - delete <id>        — delete a link permanently
//	  - whoami             — show the identity in the current token
//	  - account            — show the account record
//	  - passwd             — change the password
//	  - deleteaccount      — delete the account and all its links
//	  - logout             — drop the session token
//	  - exit | quit        — leave the program
//
// Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	report := func(err error) {
		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}

	for {
		printlnFn(fmt.Sprintf("ls> %s > ", statusFn()))
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
				printlnFn("Available commands: add, (l)ist [terms], archived, show <id>, edit <id>, random [archived], archive <id>, unarchive <id>, delete <id>, whoami, account, passwd, deleteaccount, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			report(a.Register(ctx))

		case "login":
			report(a.Login(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "whoami":
			report(a.Whoami(ctx))

		case "account":
			report(a.Account(ctx))

		case "passwd":
			report(a.ChangePassword(ctx))

		case "deleteaccount":
			report(a.DeleteAccount(ctx))

		case "add":
			report(a.AddLink(ctx))

		case "l", "list":
			report(a.List(ctx, args))

		case "archived":
			report(a.List(ctx, append([]string{"-archived"}, args...)))

		case "show":
			report(a.Show(ctx, args))

		case "edit":
			report(a.Edit(ctx, args))

		case "random":
			report(a.Random(ctx, args))

		case "archive":
			report(a.Archive(ctx, args))

		case "unarchive":
			report(a.Unarchive(ctx, args))

		case "delete":
			report(a.Delete(ctx, args))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
