//go:build unix

// Command cmdrepl is an interactive shell for a running cmdserverd.
// It reads command lines on the terminal, shows a short result there and
// writes structured TOML entries to stdout.
//
// Usage:
//
//	./cmdrepl             # interactive, TOML on screen
//	./cmdrepl > log.toml  # prompt on screen, TOML to file
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Paranoid-AF/cmdserver"
	"github.com/Paranoid-AF/cmdserver/client"
)

const prompt = "> "

func main() {
	configPath := flag.String("config", "", "config file (default "+cmdserver.ConfigPath()+")")
	verbose := flag.Bool("verbose", false, "log requests and responses to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	c := client.FromConfig(cfg)

	lr, err := OpenTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer lr.Close()

	tty := lr.Out()
	fmt.Fprintf(tty, "\033[2J\033[H") // clear screen
	fmt.Fprintf(tty, "cmdrepl\r\n")
	fmt.Fprintf(tty, "dir: %s\r\n", c.Dir())
	fmt.Fprintf(tty, "\r\ncommands:\r\n")
	fmt.Fprintf(tty, "  :dir   show the communication directory\r\n")
	fmt.Fprintf(tty, "  :quit  exit\r\n\r\n")

	repl(context.Background(), lr, c, termWriter(os.Stdout))
}

func loadConfig(path string) (*cmdserver.Config, error) {
	if path == "" {
		return cmdserver.LoadConfig()
	}
	return cmdserver.LoadConfigFile(path)
}

// sender is the part of *client.Client the loop needs.
type sender interface {
	Send(ctx context.Context, call client.Call) (*cmdserver.Response, error)
	Dir() string
}

// repl reads lines until EOF, Ctrl-C or :quit. Results are summarized on the
// terminal and logged to out.
func repl(ctx context.Context, lr *LineReader, c sender, out io.Writer) {
	tty := termWriterFor(lr.Out())
	for {
		line, err := lr.ReadLine(prompt)
		if err == io.EOF || errors.Is(err, ErrInterrupt) {
			return
		}
		if err != nil {
			fmt.Fprintf(tty, "read error: %v\n", err)
			return
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ":quit", ":q":
			return
		case ":dir":
			fmt.Fprintf(tty, "%s\n\n", c.Dir())
			continue
		}

		call, err := client.ParseLine(line)
		if err != nil {
			fmt.Fprintf(tty, "error: %v\n\n", err)
			continue
		}
		call.ReturnOutput = true

		resp, err := c.Send(ctx, call)
		e := newEntry(time.Now(), line, call.CommandID, call.Args, resp, err)

		fmt.Fprintf(tty, "%s\n", summary(e))
		if err := writeEntry(out, e); err != nil {
			slog.Warn("failed to write entry", "error", err)
		}
	}
}

// termWriterFor adds CRLF translation to the tty writer.
func termWriterFor(w io.Writer) io.Writer {
	if f, ok := w.(*os.File); ok {
		return termWriter(f)
	}
	return w
}
