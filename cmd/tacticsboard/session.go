package main

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pitchside/tacticsboard/internal/api"
	"github.com/pitchside/tacticsboard/internal/board"
	"github.com/pitchside/tacticsboard/internal/telemetry"
	"github.com/pitchside/tacticsboard/pkg/core"
	"github.com/pitchside/tacticsboard/pkg/scene"
)

// captureSession freezes the current working set into a Session: every
// board slot's state and camera, the timeline marks and the roster.
func captureSession(name string) (*core.Session, error) {
	s := &core.Session{
		Name:    name,
		SavedAt: time.Now(),
		Boards:  make(map[string]core.BoardSave),
	}

	for _, boardID := range bus.Boards() {
		doc, err := bus.Board(boardID)
		if err != nil {
			return nil, err
		}
		s.Boards[boardID] = core.BoardSave{
			State:  doc.State(),
			Camera: doc.Camera(),
		}
		for _, m := range marks.Marks(boardID) {
			s.Marks = append(s.Marks, core.MarkSave{
				Board: m.Board,
				Clock: m.Clock,
				Label: m.Label,
				State: m.State,
			})
		}
	}

	if roster != nil {
		s.Roster = roster.All()
	}
	return s, nil
}

func saveSession(name string) error {
	s, err := captureSession(name)
	if err != nil {
		return fmt.Errorf("capturing session: %w", err)
	}
	if err := storageBackend.SaveSession(s); err != nil {
		return fmt.Errorf("saving session %q: %w", name, err)
	}
	Logger.Info("Session saved", "name", name, "boards", len(s.Boards), "marks", len(s.Marks))

	writeSessionPoint("save", s)
	return nil
}

// loadSession replaces the live working set with a saved session. Each
// board restore goes through the bus so it stays a single undoable entry
// on that board; cameras and marks bypass history.
func loadSession(name string) error {
	s, err := storageBackend.LoadSession(name)
	if err != nil {
		return fmt.Errorf("loading session %q: %w", name, err)
	}

	for boardID, save := range s.Boards {
		doc, err := bus.Board(boardID)
		if err != nil {
			doc = bus.AddBoard(boardID, save.State.Mode)
		}
		if _, err := bus.Execute(boardID, board.RestoreSnapshot{State: save.State}); err != nil {
			return fmt.Errorf("restoring board %q: %w", boardID, err)
		}
		doc.SetCamera(save.Camera)
	}

	for _, m := range s.Marks {
		marks.ImportMark(m.Board, m.Clock, m.Label, m.State, s.SavedAt)
	}

	Logger.Info("Session loaded", "name", name, "boards", len(s.Boards), "marks", len(s.Marks))
	writeSessionPoint("load", s)
	return nil
}

func writeSessionPoint(action string, s *core.Session) {
	if telemetryManager == nil {
		return
	}
	bucket, point := telemetry.SessionPoint(action, s.Name, len(s.Boards), len(s.Marks), time.Now())
	if err := telemetryManager.WritePoint(context.Background(), bucket, point); err != nil {
		Logger.Debug("Dropped telemetry point", "error", err)
	}
}

func listSessions() error {
	infos, err := storageBackend.ListSessions()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%-24s %s  boards=%d marks=%d\n",
			info.Name, info.SavedAt.Format("2006-01-02 15:04:05"), info.Boards, info.Marks)
	}
	return nil
}

// exportSession renders every board of a saved session into scenes and
// writes them as one JSON document. A .gz suffix on the output file turns
// on compression; the default name carries it.
func exportSession(name, outFile string) error {
	txStart := time.Now()
	s, err := storageBackend.LoadSession(name)
	if err != nil {
		return fmt.Errorf("loading session %q: %w", name, err)
	}

	scenes := make(map[string]scene.Scene, len(s.Boards))
	for boardID, save := range s.Boards {
		doc := board.New(save.State.Mode)
		if _, err := doc.Apply(board.RestoreSnapshot{State: save.State}); err != nil {
			return fmt.Errorf("rebuilding board %q: %w", boardID, err)
		}
		doc.SetCamera(save.Camera)
		scenes[boardID] = exporter.Export(boardID, 0, doc)
	}

	export := map[string]any{
		"session": s.Name,
		"savedAt": s.SavedAt,
		"scenes":  scenes,
		"marks":   s.Marks,
	}
	data, err := json.Marshal(export)
	if err != nil {
		return fmt.Errorf("marshalling export: %w", err)
	}

	if outFile == "" {
		outFile = fmt.Sprintf("%s_%s.json.gz", s.Name, s.SavedAt.Format("20060102_150405"))
		outFile = strings.ReplaceAll(outFile, " ", "_")
		outFile = strings.ReplaceAll(outFile, ":", "_")
	}

	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if strings.HasSuffix(outFile, ".gz") {
		gzWriter := gzip.NewWriter(f)
		defer gzWriter.Close()
		w = gzWriter
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	fmt.Println("Wrote", len(scenes), "scenes to", outFile, "in", time.Since(txStart))
	return nil
}

// uploadSession exports a saved session and hands the file to the web
// frontend.
func uploadSession(name string) error {
	if frontend == nil {
		return fmt.Errorf("no frontend configured, set api.serverUrl")
	}
	s, err := storageBackend.LoadSession(name)
	if err != nil {
		return fmt.Errorf("loading session %q: %w", name, err)
	}

	outFile := fmt.Sprintf("%s_%s.json.gz", s.Name, s.SavedAt.Format("20060102_150405"))
	outFile = strings.ReplaceAll(outFile, " ", "_")
	outFile = strings.ReplaceAll(outFile, ":", "_")
	if err := exportSession(name, outFile); err != nil {
		return err
	}

	txStart := time.Now()
	err = frontend.Upload(outFile, api.UploadMetadata{
		SessionName: s.Name,
		SavedAt:     s.SavedAt,
		Boards:      len(s.Boards),
		Marks:       len(s.Marks),
	})
	if err != nil {
		return fmt.Errorf("uploading %q: %w", outFile, err)
	}
	fmt.Println("Uploaded", outFile, "in", time.Since(txStart))
	return nil
}

// commandLog appends committed commands to a JSON-lines file, one
// envelope per line. The demo records through it; replay reads it back.
type commandLog struct {
	f *os.File
	w *bufio.Writer
}

func openCommandLog(path string) (*commandLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &commandLog{f: f, w: bufio.NewWriter(f)}, nil
}

func (l *commandLog) Record(cmd board.Command) error {
	data, err := board.MarshalCommand(cmd)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(data); err != nil {
		return err
	}
	return l.w.WriteByte('\n')
}

func (l *commandLog) Close() error {
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.f.Close()
}

// replayLog re-executes a recorded command log against the main board
// and prints the resulting document summary. Inverse-only command kinds
// never appear in logs; a line that fails to decode aborts the replay.
func replayLog(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening command log: %w", err)
	}
	defer f.Close()

	txStart := time.Now()
	applied := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		cmd, err := board.UnmarshalCommand(line)
		if err != nil {
			return fmt.Errorf("decoding command %d: %w", applied+1, err)
		}
		if _, err := bus.Execute(mainBoard, cmd); err != nil {
			return fmt.Errorf("replaying command %d (%s): %w", applied+1, cmd.Kind(), err)
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading command log: %w", err)
	}

	doc, err := bus.Board(mainBoard)
	if err != nil {
		return err
	}
	version, _ := bus.Version(mainBoard)
	fmt.Printf("Replayed %d commands in %s\n", applied, time.Since(txStart))
	fmt.Printf("Board %q at version %d: %d tokens, %d arrows, %d strokes, %d zones\n",
		mainBoard, version,
		len(doc.Tokens()), len(doc.Arrows()), len(doc.Strokes()), len(doc.Zones()))
	if doc.Formation() != "" {
		fmt.Println("Formation:", doc.Formation())
	}
	return nil
}
