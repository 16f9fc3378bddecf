package tui

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/matheus3301/quill/internal/composer"
	"github.com/matheus3301/quill/internal/rpc"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), ":"))
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Fields splits Args on whitespace.
func (c Command) Fields() []string {
	return strings.Fields(c.Args)
}

// expandPath resolves a leading ~ to the home directory.
func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// runCommand executes a ':' command. Call on the UI goroutine.
func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "":
	case "q", "quit":
		a.Stop()
	case "h", "help":
		a.push(pageHelp)
	case "c", "channel", "open":
		ch := a.vm.FindChannel(cmd.Args)
		if cmd.Args == "" || ch == nil {
			a.vm.Flash.Warn("No channel matches " + strconv.Quote(cmd.Args))
			return
		}
		a.openChannel(ch.ID)
	case "search":
		a.showSearch()
		if cmd.Args != "" {
			a.searchV.SetQuery(cmd.Args)
			a.runSearch(cmd.Args)
		}
	case "info":
		a.showInfo()
	case "header":
		a.editSetting(composer.SettingHeader, a.vm.GetActiveChannel())
	case "purpose":
		a.editSetting(composer.SettingPurpose, a.vm.GetActiveChannel())
	case "attach":
		paths := cmd.Fields()
		if len(paths) == 0 {
			a.vm.Flash.Warn("Usage: :attach <path>...")
			return
		}
		for i, p := range paths {
			paths[i] = expandPath(p)
		}
		go func() {
			ids, err := a.engine.AttachFiles(a.ctx, paths)
			if err != nil {
				a.vm.Flash.Errf("Attach failed", err)
				return
			}
			a.vm.Flash.Info("Uploading " + strconv.Itoa(len(ids)) + " file(s)")
		}()
	case "remove", "rm":
		n, err := strconv.Atoi(cmd.Args)
		if err != nil {
			a.vm.Flash.Warn("Usage: :remove <n>")
			return
		}
		a.removeAttachment(n)
	case "status":
		if cmd.Args == "" {
			a.vm.Flash.Warn("Usage: :status online|away|dnd|offline")
			return
		}
		status := strings.ToLower(cmd.Args)
		go func() {
			if err := a.vm.SetStatus(a.ctx, status); err != nil {
				a.vm.Flash.Errf("Status change failed", err)
				return
			}
			a.engine.SetUser(a.vm.GetMe())
			a.vm.Flash.Info("Status set to " + status)
		}()
	case "sync":
		a.runSync(cmd.Args)
	case "logout":
		a.confirm("Unlink this device? Local history stays on disk.", "Logout", "Cancel", func() {
			if err := a.client.Session.Logout(a.ctx); err != nil {
				a.vm.Flash.Errf("Logout failed", err)
				return
			}
			_ = a.vm.LoadSessionStatus(a.ctx)
			a.app.QueueUpdateDraw(a.startAuth)
		})
	default:
		a.vm.Flash.Warn("Unknown command: " + cmd.Name)
	}
}

func (a *App) runSync(arg string) {
	go func() {
		var (
			res *rpc.SyncResult
			err error
		)
		switch arg {
		case "start":
			res, err = a.client.Sync.Start(a.ctx)
		case "stop":
			res, err = a.client.Sync.Stop(a.ctx)
		case "", "status":
			var st *rpc.SyncStatusResponse
			if st, err = a.client.Sync.Status(a.ctx); err == nil {
				res = &rpc.SyncResult{Message: "Sync " + strings.ToLower(st.State)}
			}
		default:
			a.vm.Flash.Warn("Usage: :sync start|stop|status")
			return
		}
		if err != nil {
			a.vm.Flash.Errf("Sync "+arg+" failed", err)
			return
		}
		_ = a.vm.LoadSyncStatus(a.ctx)
		if res.Message != "" {
			a.vm.Flash.Info(res.Message)
		}
	}()
}

// removeAttachment drops entry n of the file strip. Finished uploads are
// also deleted on the daemon.
func (a *App) removeAttachment(n int) {
	files := a.thread.Files()
	id, ok := files.IDAt(n)
	if !ok {
		a.vm.Flash.Warn("No attachment " + strconv.Itoa(n))
		return
	}
	uploaded := files.Uploaded(n)
	go func() {
		if !a.engine.RemoveAttachment(id) || !uploaded {
			return
		}
		if err := a.client.Files.DeleteFile(a.ctx, id); err != nil {
			a.logger.Warn("failed to delete removed file", zap.String("file", id), zap.Error(err))
		}
	}()
}
