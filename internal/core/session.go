package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/md4h/prosedown/internal/autolink"
	"github.com/md4h/prosedown/internal/bridge"
	"github.com/md4h/prosedown/internal/editor"
	"github.com/md4h/prosedown/internal/frontmatter"
	"github.com/md4h/prosedown/internal/medias"
	"github.com/md4h/prosedown/internal/outline"
	"github.com/md4h/prosedown/internal/parser"
	"github.com/md4h/prosedown/internal/render"
	"github.com/md4h/prosedown/internal/schema"
	"github.com/md4h/prosedown/internal/syncer"
	"github.com/md4h/prosedown/pkg/text"
)

// Sender delivers an envelope to the host process. bridge.FileHost backed
// senders answer synchronously; the serve loop answers over stdio.
type Sender interface {
	Send(bridge.Envelope) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(bridge.Envelope) error

func (f SenderFunc) Send(env bridge.Envelope) error {
	return f(env)
}

// placeholderPrefix marks an image src as an upload still in flight.
const placeholderPrefix = "uploading://"

// Session orchestrates one open document: the keystroke engine owning the
// tree, the echo-suppressing sync tracker, the per-image resize histories,
// and the correlated request/response traffic with the host.
//
// A session is single-threaded: every method that touches the document
// must be called from the same goroutine that handles keystrokes. Timeout
// callbacks registered with the correlator only ever invoke the caller's
// result callback with a safe default, never a document mutation.
type Session struct {
	cfg     *Config
	logger  *Logger
	sender  Sender
	engine  *editor.Engine
	tracker *syncer.Tracker
	pending *bridge.Correlator
	history *medias.HistoryStore

	// placeholder id -> generated filename, for saves still in flight
	placeholders map[string]string
	// image path -> entry awaiting its backup path confirmation
	pendingResizes map[string]medias.ResizeEntry
}

func NewSession(cfg *Config, sender Sender) *Session {
	medias.RegisterGenericStems(cfg.ConfigFile.Images.GenericNames...)
	return &Session{
		cfg:            cfg,
		logger:         CurrentLogger(),
		sender:         sender,
		engine:         editor.NewEngine(parser.Parse("")),
		tracker:        syncer.NewTracker(cfg.ConfigFile.EchoWindow()),
		pending:        bridge.NewCorrelator(),
		history:        medias.NewHistoryStore(),
		placeholders:   make(map[string]string),
		pendingResizes: make(map[string]medias.ResizeEntry),
	}
}

// Load replaces the document with freshly parsed Markdown, e.g. when a
// file is opened.
func (s *Session) Load(markdown string) {
	doc := parser.Parse(markdown)
	s.warnOnBadFrontMatter(doc)
	s.engine.SetDoc(doc)
	s.tracker.Reset()
}

// Doc returns the current document tree.
func (s *Session) Doc() *schema.Node {
	return s.engine.Doc()
}

// Markdown serializes the current document.
func (s *Session) Markdown() string {
	return render.Render(s.engine.Doc())
}

// Save normalizes the document, serializes it, and pushes the text to the
// host. The content is tracked so the file watcher's reflection of this
// very write is recognized as an echo.
func (s *Session) Save() (string, error) {
	doc := schema.Normalize(s.engine.Doc())
	if doc != s.engine.Doc() {
		s.engine.SetDoc(doc)
	}
	content := render.Render(doc)
	s.tracker.TrackSent(content)
	if err := s.send(bridge.KindPushContent, bridge.PushContent{Markdown: content}); err != nil {
		return "", err
	}
	return content, nil
}

// ApplyExternal classifies a full-document update coming from outside and
// replaces the tree only when the content is genuinely new. The selection
// survives clamped; echoes of our own saves are dropped.
func (s *Session) ApplyExternal(markdown string) syncer.Decision {
	decision := s.tracker.Classify(markdown, s.Markdown())
	s.logger.Debugf("External content classified as %s", decision)
	if decision == syncer.Apply {
		doc := parser.Parse(markdown)
		s.warnOnBadFrontMatter(doc)
		s.engine.SetDoc(doc)
	}
	return decision
}

// warnOnBadFrontMatter logs when a document opens with YAML that does not
// parse. The block round-trips verbatim either way.
func (s *Session) warnOnBadFrontMatter(doc *schema.Node) {
	if len(doc.Children) == 0 || doc.Children[0].Type != schema.NodeFrontMatter {
		return
	}
	if err := frontmatter.FrontMatter(doc.Children[0].Literal).Validate(); err != nil {
		s.logger.Warnf("Malformed front matter: %v", err)
	}
}

/* Keystrokes */

func (s *Session) HandleKey(key editor.Key) bool {
	return s.engine.HandleKey(key)
}

func (s *Session) Selection() schema.Selection {
	return s.engine.Selection()
}

func (s *Session) SetSelection(sel schema.Selection) {
	s.engine.SetSelection(sel)
}

func (s *Session) SetOverlayFocus(focused bool) {
	s.engine.SetOverlayFocus(focused)
}

// Armed reports whether the next matching delete press will remove the
// selected image.
func (s *Session) Armed() bool {
	return s.engine.Armed()
}

func (s *Session) Decorations() []editor.Decoration {
	return s.engine.Decorations()
}

func (s *Session) RefreshAlerts() bool {
	return s.engine.RefreshAlerts()
}

// Outline returns the heading sections of the current document.
func (s *Session) Outline() []outline.Section {
	return outline.Sections(s.engine.Doc())
}

/* Text paste */

// PasteText intercepts a paste landing on a non-empty text selection. When
// the pasted fragment reads as a link target and the selection stays
// inside one text run, the selected text becomes a link to that target.
// Returns false when the default paste should proceed instead.
func (s *Session) PasteText(pasted string) bool {
	sel, ok := s.engine.Selection().(*schema.TextSelection)
	if !ok || sel.Empty() {
		return false
	}
	pasted = strings.TrimSpace(pasted)
	if !autolink.ShouldAutoLink(pasted) {
		return false
	}

	doc := s.engine.Doc()
	from, to := sel.From(), sel.To()
	leaf, start := s.findTextRun(from, to)
	if leaf == nil {
		return false
	}

	runes := []rune(leaf.Text)
	label := string(runes[from-start : to-start])
	marks := make([]schema.Mark, 0, len(leaf.Marks)+1)
	for _, m := range leaf.Marks {
		if m.Type != schema.MarkLink {
			marks = append(marks, m)
		}
	}
	marks = append(marks, schema.Mark{Type: schema.MarkLink, Href: pasted})

	next, nsel, err := schema.NewTransaction(doc, sel).
		SplitTextAt(from).
		SplitTextAt(to).
		DeleteNodeAt(from).
		InsertAt(from, schema.NewText(label, marks...)).
		SetSelection(schema.NewCaret(to)).
		Commit()
	if err != nil {
		s.logger.Warnf("Unable to link pasted target %s: %v", pasted, err)
		return false
	}
	s.engine.SetDoc(next)
	s.engine.SetSelection(nsel)
	return true
}

// findTextRun returns the text leaf covering [from, to] and its start
// position, or nil when the range crosses a leaf boundary.
func (s *Session) findTextRun(from, to int) (*schema.Node, int) {
	var leaf *schema.Node
	start := -1
	s.engine.Doc().Descendants(func(n *schema.Node, pos int) bool {
		if n.Type != schema.NodeText {
			return true
		}
		if pos <= from && to <= pos+n.NodeSize() {
			leaf = n
			start = pos
			return false
		}
		return true
	})
	return leaf, start
}

/* Image paste */

// PasteImage inserts a placeholder image at the caret and asks the host to
// persist the bytes. The returned placeholder id ties the eventual
// imageSaved or imageError answer back to the node.
func (s *Session) PasteImage(originalName, source, mimeType string, data []byte) (string, error) {
	doc := s.engine.Doc()
	at := s.engine.Selection().From()
	r, err := schema.Resolve(doc, at)
	if err != nil {
		return "", err
	}
	if !schema.AllowsChild(r.Parent().Type, schema.NodeImage) {
		return "", fmt.Errorf("cannot insert an image at position %d", at)
	}

	dims, _ := medias.ReadDimensions(bytes.NewReader(data))
	name := medias.GenerateImageName(originalName, source, dims)
	id := uuid.NewString()
	placeholder := schema.NewImage(placeholderPrefix+id, text.TrimExtension(name))

	next, sel, err := schema.NewTransaction(doc, s.engine.Selection()).
		SplitTextAt(at).
		InsertAt(at, placeholder).
		SetSelection(schema.NewCaret(at + 1)).
		Commit()
	if err != nil {
		return "", err
	}
	s.engine.SetDoc(next)
	s.engine.SetSelection(sel)

	// Registered before sending: an in-process host may answer before
	// send returns.
	s.placeholders[id] = name
	err = s.send(bridge.KindSaveImage, bridge.SaveImage{
		PlaceholderID: id,
		Name:          name,
		Data:          data,
		MimeType:      mimeType,
		TargetFolder:  s.cfg.ConfigFile.Images.Folder,
	})
	if err != nil {
		// The host was never reached: take the optimistic node back out.
		delete(s.placeholders, id)
		s.removeImage(placeholderPrefix + id)
		return "", err
	}
	return id, nil
}

func (s *Session) resolvePlaceholder(saved bridge.ImageSaved) {
	if _, ok := s.placeholders[saved.PlaceholderID]; !ok {
		s.logger.Warnf("No pending image for placeholder %s", saved.PlaceholderID)
		return
	}
	delete(s.placeholders, saved.PlaceholderID)

	node, pos := s.findImage(placeholderPrefix + saved.PlaceholderID)
	if pos < 0 {
		// The placeholder was edited away while the save was in flight.
		return
	}
	next, sel, err := schema.NewTransaction(s.engine.Doc(), s.engine.Selection()).
		DeleteNodeAt(pos).
		InsertAt(pos, schema.NewImage(saved.NewSrc, node.Alt)).
		Commit()
	if err != nil {
		s.logger.Warnf("Unable to finalize image %s: %v", saved.NewSrc, err)
		return
	}
	s.engine.SetDoc(next)
	s.engine.SetSelection(sel)
}

func (s *Session) failPlaceholder(failure bridge.ImageError) {
	if _, ok := s.placeholders[failure.PlaceholderID]; !ok {
		return
	}
	delete(s.placeholders, failure.PlaceholderID)
	s.logger.Warnf("Image save failed: %s", failure.Error)
	s.removeImage(placeholderPrefix + failure.PlaceholderID)
}

func (s *Session) findImage(src string) (*schema.Node, int) {
	var node *schema.Node
	pos := -1
	s.engine.Doc().Descendants(func(n *schema.Node, p int) bool {
		if pos >= 0 {
			return false
		}
		if n.Type == schema.NodeImage && n.Src == src {
			node, pos = n, p
			return false
		}
		return true
	})
	return node, pos
}

func (s *Session) removeImage(src string) {
	_, pos := s.findImage(src)
	if pos < 0 {
		return
	}
	tx := schema.NewTransaction(s.engine.Doc(), s.engine.Selection()).DeleteNodeAt(pos)
	caret := schema.NewCaret(tx.MapPos(s.engine.Selection().From()))
	next, sel, err := tx.SetSelection(caret).Commit()
	if err != nil {
		s.logger.Warnf("Unable to drop image %s: %v", src, err)
		return
	}
	s.engine.SetDoc(next)
	s.engine.SetSelection(sel)
}

/* Image resize */

// ResizeImage scales the image bytes to the target dimensions and sends
// the result to the host, which backs up the current file first. The
// resize only enters the undo history once the host confirms the backup.
func (s *Session) ResizeImage(path string, data []byte, target medias.Dimensions) error {
	original, err := medias.ReadDimensions(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unreadable image %s: %w", path, err)
	}
	resized, _, err := medias.Resize(data, target)
	if err != nil {
		return err
	}
	// Registered before sending: an in-process host may answer before
	// send returns.
	s.pendingResizes[path] = medias.ResizeEntry{
		Width:      target.Width,
		Height:     target.Height,
		PrevWidth:  original.Width,
		PrevHeight: original.Height,
		Data:       resized,
	}
	err = s.send(bridge.KindResizeImage, bridge.ResizeImage{
		ImagePath:      path,
		NewWidth:       target.Width,
		NewHeight:      target.Height,
		OriginalWidth:  original.Width,
		OriginalHeight: original.Height,
		ImageData:      resized,
	})
	if err != nil {
		delete(s.pendingResizes, path)
		return err
	}
	return nil
}

func (s *Session) confirmResize(confirmed bridge.ImageResized) {
	entry, ok := s.pendingResizes[confirmed.ImagePath]
	if !ok {
		s.logger.Warnf("No pending resize for %s", confirmed.ImagePath)
		return
	}
	delete(s.pendingResizes, confirmed.ImagePath)
	entry.BackupPath = confirmed.BackupPath
	s.history.ForImage(confirmed.ImagePath).Push(entry)
}

// UndoResize asks the host to restore the backup of the image's last
// resize. Stepping back past the first recorded resize is a no-op.
func (s *Session) UndoResize(path string) bool {
	hist := s.history.ForImage(path)
	entry, ok := hist.Undo()
	if !ok {
		return false
	}
	err := s.send(bridge.KindUndoResize, bridge.UndoResize{
		ImagePath:  path,
		BackupPath: entry.BackupPath,
	})
	if err != nil {
		// Keep the cursor where the file actually is.
		hist.Redo()
		s.logger.Warnf("Undo resize failed for %s: %v", path, err)
		return false
	}
	return true
}

// RedoResize re-applies the next undone resize, if any.
func (s *Session) RedoResize(path string) bool {
	hist := s.history.ForImage(path)
	entry, ok := hist.Redo()
	if !ok {
		return false
	}
	err := s.send(bridge.KindRedoResize, bridge.RedoResize{
		ImagePath: path,
		NewWidth:  entry.Width,
		NewHeight: entry.Height,
		ImageData: entry.Data,
	})
	if err != nil {
		hist.Undo()
		s.logger.Warnf("Redo resize failed for %s: %v", path, err)
		return false
	}
	return true
}

// ResizeHistory exposes the undo/redo state of an image, for the overlay
// to enable or grey out its buttons.
func (s *Session) ResizeHistory(path string) *medias.ResizeHistory {
	return s.history.ForImage(path)
}

/* Correlated round-trips */

// CheckImage asks whether an image path lives inside the workspace. On
// timeout the callback receives an in-workspace answer: not hearing back
// must never block the user behind a copy prompt.
func (s *Session) CheckImage(path string, onResult func(bridge.ImageWorkspaceStatus)) error {
	id := s.pending.Track(bridge.KindCheckImageInWorkspace, s.cfg.ConfigFile.CheckTimeout(),
		func(raw json.RawMessage) {
			var status bridge.ImageWorkspaceStatus
			if err := json.Unmarshal(raw, &status); err != nil {
				s.logger.Warnf("Malformed workspace status: %v", err)
				return
			}
			onResult(status)
		},
		func() {
			onResult(bridge.ImageWorkspaceStatus{InWorkspace: true})
		})
	err := s.send(bridge.KindCheckImageInWorkspace, bridge.CheckImageInWorkspace{
		ImagePath: path,
		RequestID: id,
	})
	if err != nil {
		s.pending.Cancel(bridge.KindCheckImageInWorkspace)
	}
	return err
}

// FindImageVersions asks for the stored versions of an image, resize
// backups included. On timeout the callback receives an empty list so the
// versions dialog still opens.
func (s *Session) FindImageVersions(path string, onResult func(bridge.ImageVersions)) error {
	id := s.pending.Track(bridge.KindFindImageVersions, s.cfg.ConfigFile.SearchTimeout(),
		func(raw json.RawMessage) {
			var versions bridge.ImageVersions
			if err := json.Unmarshal(raw, &versions); err != nil {
				s.logger.Warnf("Malformed versions answer: %v", err)
				return
			}
			onResult(versions)
		},
		func() {
			onResult(bridge.ImageVersions{})
		})
	err := s.send(bridge.KindFindImageVersions, bridge.FindImageVersions{
		ImagePath: path,
		RequestID: id,
	})
	if err != nil {
		s.pending.Cancel(bridge.KindFindImageVersions)
	}
	return err
}

// SearchFiles issues a workspace file search. Typing fires one request per
// keystroke; tracking the latest id per kind makes superseded answers fall
// on the floor.
func (s *Session) SearchFiles(query string, filters []string, onResult func(bridge.SearchResults)) error {
	id := s.pending.Track(bridge.KindSearchFiles, s.cfg.ConfigFile.SearchTimeout(),
		func(raw json.RawMessage) {
			var results bridge.SearchResults
			if err := json.Unmarshal(raw, &results); err != nil {
				s.logger.Warnf("Malformed search results: %v", err)
				return
			}
			onResult(results)
		},
		func() {
			onResult(bridge.SearchResults{})
		})
	err := s.send(bridge.KindSearchFiles, bridge.SearchFiles{
		Query:     query,
		Filters:   filters,
		RequestID: id,
	})
	if err != nil {
		s.pending.Cancel(bridge.KindSearchFiles)
	}
	return err
}

/* Inbound traffic */

// HandleEnvelope routes one message from the host into the session.
func (s *Session) HandleEnvelope(env bridge.Envelope) error {
	switch env.Kind {
	case bridge.KindUpdateContent:
		var p bridge.UpdateContent
		if err := env.Decode(&p); err != nil {
			return err
		}
		s.ApplyExternal(p.Markdown)
	case bridge.KindImageSaved:
		var p bridge.ImageSaved
		if err := env.Decode(&p); err != nil {
			return err
		}
		s.resolvePlaceholder(p)
	case bridge.KindImageError:
		var p bridge.ImageError
		if err := env.Decode(&p); err != nil {
			return err
		}
		s.failPlaceholder(p)
	case bridge.KindImageResized:
		var p bridge.ImageResized
		if err := env.Decode(&p); err != nil {
			return err
		}
		s.confirmResize(p)
	case bridge.KindImageWorkspaceStatus:
		return s.resolveReply(bridge.KindCheckImageInWorkspace, env)
	case bridge.KindImageVersions:
		return s.resolveReply(bridge.KindFindImageVersions, env)
	case bridge.KindSearchResults:
		return s.resolveReply(bridge.KindSearchFiles, env)
	default:
		return fmt.Errorf("unexpected %s message", env.Kind)
	}
	return nil
}

func (s *Session) resolveReply(requestKind string, env bridge.Envelope) error {
	var peek struct {
		RequestID string `json:"requestId"`
	}
	if err := env.Decode(&peek); err != nil {
		return err
	}
	if !s.pending.Resolve(requestKind, peek.RequestID, env.Payload) {
		s.logger.Debugf("Discarding stale %s answer %s", env.Kind, peek.RequestID)
	}
	return nil
}

func (s *Session) send(kind string, payload any) error {
	env, err := bridge.NewEnvelope(kind, payload)
	if err != nil {
		return err
	}
	return s.sender.Send(env)
}

// Close cancels every pending round-trip and forgets in-flight state. The
// document itself stays readable, e.g. for a final save.
func (s *Session) Close() {
	s.pending.CancelAll()
	s.placeholders = make(map[string]string)
	s.pendingResizes = make(map[string]medias.ResizeEntry)
}
