package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.quill, or $QUILL_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("QUILL_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".quill")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// SocketPath returns the UDS socket path for a session.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "daemon.sock")
}

// LockPath returns the lock file path for a session.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// DeviceDBPath returns the whatsmeow device store path.
func DeviceDBPath(name string) string {
	return filepath.Join(Dir(name), "device.db")
}

// AppDBPath returns the app-owned quill.db path (drafts, posts, history).
func AppDBPath(name string) string {
	return filepath.Join(Dir(name), "quill.db")
}

// FilesDir returns the directory holding uploaded attachment blobs.
func FilesDir(name string) string {
	return filepath.Join(Dir(name), "files")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// DaemonLogPath returns the daemon log file path.
func DaemonLogPath(name string) string {
	return filepath.Join(LogDir(name), "quilld.log")
}

// ClientLogPath returns the TUI log file path.
func ClientLogPath(name string) string {
	return filepath.Join(LogDir(name), "quill.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name), FilesDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}

// List returns the names of sessions that have a directory under BaseDir.
func List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(BaseDir(), "sessions"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && ValidateName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
