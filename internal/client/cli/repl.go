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
	Register(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Me(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Version(ctx context.Context, args []string) error
	Update(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Tags(ctx context.Context, args []string) error
	AddTag(ctx context.Context, args []string) error
	Projects(ctx context.Context, args []string) error
	AddProject(ctx context.Context, args []string) error
}

const (
	guestHelp = "Available commands: register, login, help, exit"
	userHelp  = "Available commands: (l)ist [search], show <id>, upload <path>, version <id> <path>, " +
		"update <id>, delete <id>, download <id> <dest>, tags, addtag, projects, addproject, me, logout, help, exit"
)

// runREPL reads commands from scanner until EOF or "exit"/"quit".
//
// The first token selects the command, the rest are its arguments. Scan,
// tag and project commands require a login. Command errors are printed and
// the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	type command func(context.Context, []string) error

	guest := map[string]command{
		"register": a.Register,
		"login":    a.Login,
	}
	member := map[string]command{
		"logout":     a.Logout,
		"me":         a.Me,
		"l":          a.List,
		"list":       a.List,
		"show":       a.Show,
		"upload":     a.Upload,
		"version":    a.Version,
		"update":     a.Update,
		"delete":     a.Delete,
		"download":   a.Download,
		"tags":       a.Tags,
		"addtag":     a.AddTag,
		"projects":   a.Projects,
		"addproject": a.AddProject,
	}

	for {
		printlnFn(fmt.Sprintf("scanvault%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(userHelp)
			} else {
				printlnFn(guestHelp)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		run, ok := guest[cmd]
		if !ok {
			if run, ok = member[cmd]; ok && !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
		}
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}

		if err := run(ctx, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}
