package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/md4h/prosedown/internal/bridge"
	"github.com/md4h/prosedown/internal/core"
	"github.com/md4h/prosedown/internal/syncer"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a document as it changes on disk",
	Long: `Keep a live editing session on a Markdown file and reload it whenever
another program writes it, filtered through the same echo suppression the
editor uses.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Requires exactly one file argument.")
			os.Exit(1)
		}
		if err := watch(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func watch(path string) error {
	cfg := core.CurrentConfig()
	logger := core.CurrentLogger()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	host, err := bridge.NewFileHost(cfg.RootDirectory)
	if err != nil {
		return err
	}

	local := &localHost{host: host, path: abs}
	session := core.NewSession(cfg, local)
	local.session = session
	defer session.Close()

	content, err := os.ReadFile(abs)
	if err != nil {
		return err
	}
	session.Load(string(content))
	fmt.Printf("Watching %s (%d headings)\n", displayPath(abs), len(session.Outline()))

	watcher, err := bridge.NewWatcher(abs, cfg.ConfigFile.FlushDebounce())
	if err != nil {
		return err
	}
	defer watcher.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// The session is single-threaded: every call happens on this loop.
	for {
		select {
		case <-sigs:
			return nil
		case _, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			current, err := os.ReadFile(abs)
			if err != nil {
				logger.Warnf("Unable to reread %s: %v", abs, err)
				continue
			}
			decision := session.ApplyExternal(string(current))
			logger.Debugf("Change on %s classified as %s", abs, decision)
			if decision == syncer.Apply {
				fmt.Printf("Reloaded %s (%d headings)\n", displayPath(abs), len(session.Outline()))
			}
		}
	}
}

// localHost answers session requests directly against the workspace,
// standing in for a remote editor host.
type localHost struct {
	host    *bridge.FileHost
	session *core.Session
	path    string
}

func (l *localHost) Send(env bridge.Envelope) error {
	switch env.Kind {
	case bridge.KindPushContent:
		var p bridge.PushContent
		if err := env.Decode(&p); err != nil {
			return err
		}
		return os.WriteFile(l.path, []byte(p.Markdown), 0644)
	case bridge.KindSaveImage:
		var p bridge.SaveImage
		if err := env.Decode(&p); err != nil {
			return err
		}
		saved, err := l.host.SaveImage(p)
		if err != nil {
			return l.reply(bridge.KindImageError, bridge.ImageError{PlaceholderID: p.PlaceholderID, Error: err.Error()})
		}
		return l.reply(bridge.KindImageSaved, saved)
	case bridge.KindResizeImage:
		var p bridge.ResizeImage
		if err := env.Decode(&p); err != nil {
			return err
		}
		resized, err := l.host.ResizeImage(p)
		if err != nil {
			return err
		}
		return l.reply(bridge.KindImageResized, resized)
	case bridge.KindUndoResize:
		var p bridge.UndoResize
		if err := env.Decode(&p); err != nil {
			return err
		}
		return l.host.UndoResize(p)
	case bridge.KindRedoResize:
		var p bridge.RedoResize
		if err := env.Decode(&p); err != nil {
			return err
		}
		return l.host.RedoResize(p)
	case bridge.KindCheckImageInWorkspace:
		var p bridge.CheckImageInWorkspace
		if err := env.Decode(&p); err != nil {
			return err
		}
		return l.reply(bridge.KindImageWorkspaceStatus, l.host.CheckImage(p))
	case bridge.KindFindImageVersions:
		var p bridge.FindImageVersions
		if err := env.Decode(&p); err != nil {
			return err
		}
		versions, err := l.host.FindImageVersions(p)
		if err != nil {
			return err
		}
		return l.reply(bridge.KindImageVersions, versions)
	case bridge.KindSearchFiles:
		var p bridge.SearchFiles
		if err := env.Decode(&p); err != nil {
			return err
		}
		return l.reply(bridge.KindSearchResults, l.host.SearchFiles(p))
	default:
		return fmt.Errorf("unexpected %s message", env.Kind)
	}
}

func (l *localHost) reply(kind string, payload any) error {
	env, err := bridge.NewEnvelope(kind, payload)
	if err != nil {
		return err
	}
	return l.session.HandleEnvelope(env)
}
