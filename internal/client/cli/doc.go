// Package cli provides the interactive scanvault command-line client.
//
// It wires configuration, the REST API client and a REPL. Typical flow:
// login (or register), then list, upload and download scans, manage tags
// and projects, and exit.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or stdin is closed. See runREPL for the command table.
package cli
