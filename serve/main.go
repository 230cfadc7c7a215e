//go:build unix

// Command cmdserverd hosts an editor buffer and serves command requests
// written to its communication directory by cmdctl or any other client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Paranoid-AF/cmdserver"
	"github.com/Paranoid-AF/cmdserver/editor"
	"github.com/Paranoid-AF/cmdserver/runner"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "log every request and response to stderr")
	file := flag.String("file", "", "document to open in the buffer")
	configPath := flag.String("config", "", "config file (default "+cmdserver.ConfigPath()+")")
	save := flag.Bool("save", false, "write the buffer back to -file on shutdown when modified")
	flag.Parse()

	if *showVersion {
		fmt.Println("cmdserverd", Version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for _, w := range cmdserver.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}

	buf, err := openBuffer(*file)
	if err != nil {
		slog.Error("failed to open document", "file", *file, "error", err)
		os.Exit(1)
	}

	r, err := runner.Initialize(cfg)
	if err != nil {
		slog.Error("failed to start runner", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)

	host := NewHost(r, buf, cmdserver.ResolveHostPollInterval(cfg))
	slog.Info("ready", "dir", r.Dir().Path(), "file", buf.FilePath(), "pid", os.Getpid())
	host.Serve(ctx, usr1)

	slog.Info("shutting down")
	r.Wait()
	r.Close()

	if *save && buf.Dirty() {
		if err := buf.Save(); err != nil {
			slog.Error("failed to save document", "file", buf.FilePath(), "error", err)
			os.Exit(1)
		}
		slog.Info("saved", "file", buf.FilePath())
	}
}

func loadConfig(path string) (*cmdserver.Config, error) {
	if path == "" {
		return cmdserver.LoadConfig()
	}
	return cmdserver.LoadConfigFile(path)
}

func openBuffer(path string) (*editor.Buffer, error) {
	if path == "" {
		return editor.NewBuffer(""), nil
	}
	return editor.Open(path)
}
