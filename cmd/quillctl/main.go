package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matheus3301/quill/internal/config"
	"github.com/matheus3301/quill/internal/domain"
	"github.com/matheus3301/quill/internal/session"
	"github.com/matheus3301/quill/internal/status"
	"github.com/matheus3301/quill/internal/tui/client"
)

const historyLimit = 20

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Listing sessions reads the filesystem and needs no daemon.
	if args[0] == "sessions" {
		if len(args) < 2 || args[1] != "list" {
			fmt.Fprintln(os.Stderr, "usage: quillctl sessions list")
			os.Exit(1)
		}
		cmdSessionsList(*jsonFlag)
		return
	}

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}

	socketPath := session.SocketPath(sessionName)
	c, err := client.New(socketPath, cfg.Uploads.MaxFileSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to daemon for session %q: %v\n", sessionName, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, c, *jsonFlag)
	case "auth":
		cmdAuth(ctx, c)
	case "sync":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: quillctl sync <start|stop|status>")
			os.Exit(1)
		}
		cmdSync(ctx, c, args[1], *jsonFlag)
	case "drafts":
		cmdDrafts(ctx, c, args[1:], *jsonFlag)
	case "send":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: quillctl send <channel> <text>")
			os.Exit(1)
		}
		cmdSend(ctx, c, args[1], strings.Join(args[2:], " "), *jsonFlag)
	case "history":
		cmdHistory(ctx, c, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: quillctl [--session <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                  Show session status")
	fmt.Fprintln(os.Stderr, "  auth                    Show auth state")
	fmt.Fprintln(os.Stderr, "  sync start|stop|status  Control sync")
	fmt.Fprintln(os.Stderr, "  drafts list             List stored drafts")
	fmt.Fprintln(os.Stderr, "  drafts clear <channel>  Delete a channel's draft")
	fmt.Fprintln(os.Stderr, "  send <channel> <text>   Post a message")
	fmt.Fprintln(os.Stderr, "  history                 Show recent submitted messages")
	fmt.Fprintln(os.Stderr, "  sessions list           List known sessions")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func cmdStatus(ctx context.Context, c *client.Client, jsonOut bool) {
	resp, err := c.Session.GetStatus(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Session: %s\n", resp.Session)
	fmt.Printf("State:   %s\n", resp.State)
	if resp.PhoneNumber != "" {
		fmt.Printf("Phone:   %s\n", resp.PhoneNumber)
	}
	fmt.Printf("Uptime:  %s\n", (time.Duration(resp.UptimeMs) * time.Millisecond).Round(time.Second))
}

func cmdAuth(ctx context.Context, c *client.Client) {
	resp, err := c.Session.GetStatus(ctx)
	if err != nil {
		fail(err)
	}
	if resp.State == string(status.AuthRequired) {
		fmt.Println("Auth required. Run quill to scan the pairing code.")
	} else {
		fmt.Printf("Session authenticated. State: %s\n", resp.State)
	}
}

func cmdSync(ctx context.Context, c *client.Client, subcmd string, jsonOut bool) {
	switch subcmd {
	case "start", "stop":
		start := c.Sync.Start
		if subcmd == "stop" {
			start = c.Sync.Stop
		}
		resp, err := start(ctx)
		if err != nil {
			fail(err)
		}
		if jsonOut {
			outputJSON(resp)
			return
		}
		fmt.Println(resp.Message)
	case "status":
		resp, err := c.Sync.Status(ctx)
		if err != nil {
			fail(err)
		}
		if jsonOut {
			outputJSON(resp)
			return
		}
		fmt.Printf("State:   %s\n", resp.State)
		fmt.Printf("Syncing: %v\n", resp.Syncing)
	default:
		fmt.Fprintf(os.Stderr, "unknown sync subcommand: %s\n", subcmd)
		os.Exit(1)
	}
}

func cmdDrafts(ctx context.Context, c *client.Client, args []string, jsonOut bool) {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		drafts, err := c.Drafts.ListDrafts(ctx)
		if err != nil {
			fail(err)
		}
		if jsonOut {
			outputJSON(drafts)
			return
		}
		if len(drafts) == 0 {
			fmt.Println("No drafts.")
			return
		}
		for _, d := range drafts {
			fmt.Printf("%-24s %-8s %s\n", d.ChannelID, fmt.Sprintf("%d file", len(d.FileInfos)), preview(d.Message))
		}
	case "clear":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: quillctl drafts clear <channel>")
			os.Exit(1)
		}
		if err := c.Drafts.SetDraft(ctx, domain.DraftKey(args[1]), nil); err != nil {
			fail(err)
		}
		fmt.Printf("Draft for %s cleared.\n", args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown drafts subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func cmdSend(ctx context.Context, c *client.Client, channelID, text string, jsonOut bool) {
	me, err := c.Users.Me(ctx)
	if err != nil {
		fail(fmt.Errorf("load profile: %w", err))
	}
	ch, err := c.Channels.Get(ctx, channelID)
	if err != nil {
		fail(fmt.Errorf("channel %s: %w", channelID, err))
	}
	now := time.Now().UnixMilli()
	post, err := c.Posts.CreatePost(ctx, &domain.Post{
		PendingPostID: fmt.Sprintf("%s:%d", me.ID, now),
		ChannelID:     ch.ID,
		UserID:        me.ID,
		Message:       text,
		CreateAt:      now,
	})
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(post)
		return
	}
	fmt.Printf("Queued %s in %s (%s).\n", post.PendingPostID, ch.Title(), post.Status)
}

func cmdHistory(ctx context.Context, c *client.Client, jsonOut bool) {
	items, err := c.History.ListHistory(ctx, historyLimit)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(items)
		return
	}
	for _, it := range items {
		fmt.Printf("%s  %s\n", time.UnixMilli(it.CreateAt).Format(time.DateTime), preview(it.Text))
	}
}

func cmdSessionsList(jsonOut bool) {
	names, err := session.List()
	if err != nil {
		fail(err)
	}
	type entry struct {
		Name    string `json:"name"`
		Path    string `json:"path"`
		Running bool   `json:"daemon_running"`
	}
	entries := make([]entry, 0, len(names))
	for _, n := range names {
		entries = append(entries, entry{Name: n, Path: session.Dir(n), Running: socketExists(session.SocketPath(n))})
	}
	if jsonOut {
		outputJSON(entries)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No sessions found.")
		return
	}
	for _, e := range entries {
		running := "stopped"
		if e.Running {
			running = "running"
		}
		fmt.Printf("%-20s %s (%s)\n", e.Name, e.Path, running)
	}
}

func socketExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode()&os.ModeSocket != 0
}

func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > 60 {
		return string(r[:59]) + "…"
	}
	return s
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
