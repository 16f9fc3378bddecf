package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/quill/internal/config"
	"github.com/matheus3301/quill/internal/logging"
	"github.com/matheus3301/quill/internal/session"
	"github.com/matheus3301/quill/internal/tui"
	"github.com/matheus3301/quill/internal/tui/client"
)

const daemonBinary = "quilld"

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	configFlag := flag.String("config", "", "config file (default ~/.quill/config.toml)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = session.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := session.EnsureDir(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	// The terminal belongs to the UI, so the client logs to a file only.
	logger, err := logging.NewFile(session.ClientLogPath(sessionName), sessionName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	socketPath := session.SocketPath(sessionName)
	maxUpload := cfg.Uploads.MaxFileSize

	// Probe daemon health; auto-start if needed.
	if !probeDaemon(socketPath, maxUpload) {
		fmt.Fprintf(os.Stderr, "daemon not running for session %q, starting...\n", sessionName)
		if err := startDaemon(sessionName, *configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start daemon: %v\n", err)
			os.Exit(1)
		}
		if !waitForDaemon(socketPath, maxUpload, 10*time.Second) {
			fmt.Fprintf(os.Stderr, "daemon did not become ready\n")
			os.Exit(1)
		}
	}

	c, err := client.New(socketPath, maxUpload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to daemon: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	logger.Info("tui starting", zap.String("socket", socketPath))
	app := tui.NewApp(c, sessionName, cfg, logger)
	if err := app.Run(); err != nil {
		logger.Error("tui exited", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// probeDaemon checks if a daemon is running and responsive on the socket.
func probeDaemon(socketPath string, maxUpload int64) bool {
	c, err := client.New(socketPath, maxUpload)
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.Ping(ctx) == nil
}

func startDaemon(sessionName, configPath string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	bin := filepath.Join(filepath.Dir(executable), daemonBinary)
	if _, err := os.Stat(bin); err != nil {
		bin = daemonBinary
	}

	args := []string{"--session", sessionName}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd := exec.Command(bin, args...)
	// Inherit stderr so daemon startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

// waitForDaemon polls the daemon with a real status call, not just a
// socket connect.
func waitForDaemon(socketPath string, maxUpload int64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeDaemon(socketPath, maxUpload) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
