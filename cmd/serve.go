package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/md4h/prosedown/internal/bridge"
	"github.com/md4h/prosedown/internal/core"
	"github.com/md4h/prosedown/internal/syncer"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a document to an editor over stdio",
	Long: `Speak the editor protocol on stdin/stdout for one Markdown file: persist
content pushes, answer image and search requests against the workspace, and
notify the editor when the file changes on disk.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Requires exactly one file argument.")
			os.Exit(1)
		}
		if err := serve(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

// docServer owns the host side of one served document. A single mutex
// covers the stdout encoder and the sync state because the stdin loop and
// the watcher goroutine touch both.
type docServer struct {
	path    string
	host    *bridge.FileHost
	logger  *core.Logger
	tracker *syncer.Tracker

	mu        sync.Mutex
	out       *json.Encoder
	lastKnown string
}

func serve(path string) error {
	cfg := core.CurrentConfig()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	host, err := bridge.NewFileHost(cfg.RootDirectory)
	if err != nil {
		return err
	}

	server := &docServer{
		path:    abs,
		host:    host,
		logger:  core.CurrentLogger(),
		tracker: syncer.NewTracker(cfg.ConfigFile.EchoWindow()),
		out:     json.NewEncoder(os.Stdout),
	}

	// Initial push, so the editor does not start from a blank document.
	content, err := os.ReadFile(abs)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	server.lastKnown = string(content)
	server.send(bridge.KindUpdateContent, bridge.UpdateContent{Markdown: string(content)})

	watcher, err := bridge.NewWatcher(abs, cfg.ConfigFile.FlushDebounce())
	if err != nil {
		return err
	}
	defer watcher.Close()
	go func() {
		for range watcher.Events() {
			server.notifyChange()
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		watcher.Close()
		os.Exit(0)
	}()

	dec := json.NewDecoder(os.Stdin)
	for {
		var env bridge.Envelope
		if err := dec.Decode(&env); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("malformed message stream: %w", err)
		}
		server.handle(env)
	}
}

// notifyChange rereads the file after a watcher event and forwards it to
// the editor unless it is our own write coming back.
func (s *docServer) notifyChange() {
	current, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warnf("Unable to reread %s: %v", s.path, err)
		return
	}

	s.mu.Lock()
	decision := s.tracker.Classify(string(current), s.lastKnown)
	if decision == syncer.Apply {
		s.lastKnown = string(current)
	}
	s.mu.Unlock()

	s.logger.Debugf("File event on %s classified as %s", s.path, decision)
	if decision != syncer.Apply {
		return
	}
	s.logger.Infof("External change detected on %s", s.path)
	s.send(bridge.KindUpdateContent, bridge.UpdateContent{Markdown: string(current)})
}

func (s *docServer) handle(env bridge.Envelope) {
	switch env.Kind {
	case bridge.KindPushContent:
		var p bridge.PushContent
		if err := env.Decode(&p); err != nil {
			s.logger.Warnf("%v", err)
			return
		}
		s.persist(p.Markdown)
	case bridge.KindSaveImage:
		var p bridge.SaveImage
		if err := env.Decode(&p); err != nil {
			s.logger.Warnf("%v", err)
			return
		}
		saved, err := s.host.SaveImage(p)
		if err != nil {
			s.send(bridge.KindImageError, bridge.ImageError{PlaceholderID: p.PlaceholderID, Error: err.Error()})
			return
		}
		s.send(bridge.KindImageSaved, saved)
	case bridge.KindResizeImage:
		var p bridge.ResizeImage
		if err := env.Decode(&p); err != nil {
			s.logger.Warnf("%v", err)
			return
		}
		resized, err := s.host.ResizeImage(p)
		if err != nil {
			s.logger.Warnf("Unable to resize %s: %v", p.ImagePath, err)
			return
		}
		s.send(bridge.KindImageResized, resized)
	case bridge.KindUndoResize:
		var p bridge.UndoResize
		if err := env.Decode(&p); err != nil {
			s.logger.Warnf("%v", err)
			return
		}
		if err := s.host.UndoResize(p); err != nil {
			s.logger.Warnf("Unable to undo the resize of %s: %v", p.ImagePath, err)
		}
	case bridge.KindRedoResize:
		var p bridge.RedoResize
		if err := env.Decode(&p); err != nil {
			s.logger.Warnf("%v", err)
			return
		}
		if err := s.host.RedoResize(p); err != nil {
			s.logger.Warnf("Unable to redo the resize of %s: %v", p.ImagePath, err)
		}
	case bridge.KindCheckImageInWorkspace:
		var p bridge.CheckImageInWorkspace
		if err := env.Decode(&p); err != nil {
			s.logger.Warnf("%v", err)
			return
		}
		s.send(bridge.KindImageWorkspaceStatus, s.host.CheckImage(p))
	case bridge.KindFindImageVersions:
		var p bridge.FindImageVersions
		if err := env.Decode(&p); err != nil {
			s.logger.Warnf("%v", err)
			return
		}
		versions, err := s.host.FindImageVersions(p)
		if err != nil {
			s.logger.Warnf("Unable to list versions of %s: %v", p.ImagePath, err)
		}
		s.send(bridge.KindImageVersions, versions)
	case bridge.KindSearchFiles:
		var p bridge.SearchFiles
		if err := env.Decode(&p); err != nil {
			s.logger.Warnf("%v", err)
			return
		}
		s.send(bridge.KindSearchResults, s.host.SearchFiles(p))
	default:
		s.logger.Warnf("Unexpected %s message", env.Kind)
	}
}

// persist writes an editor push to disk. The content is tracked first so
// the watcher event raised by our own write is recognized as an echo.
func (s *docServer) persist(markdown string) {
	s.mu.Lock()
	s.tracker.TrackSent(markdown)
	s.lastKnown = markdown
	s.mu.Unlock()

	if err := os.WriteFile(s.path, []byte(markdown), 0644); err != nil {
		s.logger.Warnf("Unable to write %s: %v", s.path, err)
	}
}

func (s *docServer) send(kind string, payload any) {
	env, err := bridge.NewEnvelope(kind, payload)
	if err != nil {
		s.logger.Warnf("Dropping outbound message: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.out.Encode(env); err != nil {
		s.logger.Warnf("Unable to write %s message: %v", kind, err)
	}
}
