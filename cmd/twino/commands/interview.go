package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twinoai/twino/pkg/archive"
	"github.com/twinoai/twino/pkg/cli"
	"github.com/twinoai/twino/pkg/extract"
	"github.com/twinoai/twino/pkg/interview"
	"github.com/twinoai/twino/pkg/monitor"
	"github.com/twinoai/twino/pkg/prompts"
	"github.com/twinoai/twino/pkg/realtime"
	"github.com/twinoai/twino/pkg/server"
	"github.com/twinoai/twino/pkg/twin"
)

var (
	interviewSlug    string
	interviewName    string
	interviewEmail   string
	interviewInput   string
	interviewRecord  bool
	interviewDocs    []string
	interviewMonitor string
	interviewSilence time.Duration
	interviewNoSave  bool
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a voice interview and save the resulting Digital Twin",
	Long: `Run one interview over an OpenAI Realtime WebRTC session.

The microphone is an Ogg/Opus file given with --input; without it the
session starts with a silent track. The interviewer's audio can be recorded
to ~/.twino/recordings with --record.

The session ends when the interviewer emits the profile block, when it
says goodbye without one, after prolonged silence, or on Ctrl-C. When no
profile block arrived the profile is extracted from the transcript.

Example:
  twino interview --slug anna-rossi --name Anna --input answers.ogg --doc cv.txt`,
	RunE: runInterview,
}

func init() {
	f := interviewCmd.Flags()
	f.StringVar(&interviewSlug, "slug", "", "twin slug (3-30 lowercase letters, digits and dashes)")
	f.StringVar(&interviewName, "name", "", "name used in the greeting and as display name")
	f.StringVar(&interviewEmail, "email", "", "owner email stored with the twin")
	f.StringVar(&interviewInput, "input", "", "Ogg/Opus file streamed as the microphone")
	f.BoolVar(&interviewRecord, "record", false, "record the interviewer audio")
	f.StringArrayVar(&interviewDocs, "doc", nil, "reference document (text file), repeatable")
	f.StringVar(&interviewMonitor, "monitor", "", "serve the live monitor WebSocket on this address")
	f.DurationVar(&interviewSilence, "silence-timeout", 0, "end the session after this much silence (default 90s)")
	f.BoolVar(&interviewNoSave, "no-save", false, "do not save the twin, only archive the session")
	interviewCmd.MarkFlagRequired("slug")
	rootCmd.AddCommand(interviewCmd)
}

func runInterview(cmd *cobra.Command, args []string) error {
	slug, err := twin.NormalizeSlug(interviewSlug)
	if err != nil {
		return fmt.Errorf("--slug %q: %w", interviewSlug, err)
	}
	cctx, err := GetContext()
	if err != nil {
		return err
	}
	apiKey := cctx.OpenAIKey()
	if apiKey == "" {
		return errors.New("no OpenAI API key: set openai.api_key or OPENAI_API_KEY")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	qs, err := loadQuestions(cctx)
	if err != nil {
		return err
	}
	cfg := qs.Apply(interview.DefaultConfig())
	if interviewSilence > 0 {
		cfg.SilenceTimeout = interviewSilence
	}
	docs, err := readDocuments(interviewDocs)
	if err != nil {
		return err
	}
	instructions, err := prompts.Interviewer(qs, prompts.InterviewerOptions{Name: interviewName, Documents: docs})
	if err != nil {
		return err
	}

	store, err := openStore(cctx)
	if err != nil {
		return err
	}
	defer store.Close()
	if exists, err := store.Exists(ctx, slug); err != nil {
		return err
	} else if exists && !interviewNoSave {
		return fmt.Errorf("slug %q is already in use", slug)
	}

	arch, err := openArchive(cctx)
	if err != nil {
		return err
	}
	ext, err := newExtractor(ctx, cctx)
	if err != nil {
		slog.Warn("profile extraction disabled", "reason", err)
	}

	devices := realtime.FileDevices{CapturePath: interviewInput}
	if interviewRecord {
		paths, err := cli.NewPaths()
		if err != nil {
			return err
		}
		if err := cli.EnsureDir(paths.RecordingsDir()); err != nil {
			return err
		}
		devices.RecordPath = paths.RecordingPath(fmt.Sprintf("%s-%s.ogg", slug, time.Now().Format("20060102-150405")))
	}

	client := realtime.NewClient(apiKey, realtimeOptions(cctx)...)
	newTransport := func() (interview.Transport, error) {
		sess, err := client.CreateSession(ctx, &realtime.SessionRequest{Model: cctx.Model, Voice: cctx.Voice})
		if err != nil {
			return nil, err
		}
		slog.Debug("realtime session created", "id", sess.ID, "model", sess.Model, "expires_at", sess.ExpiresAt)
		return realtime.NewConn(realtime.ConnectConfig{
			Token:        sess.ClientSecret,
			Model:        sess.Model,
			Voice:        sess.Voice,
			Instructions: instructions,
		}, devices), nil
	}

	console := newConsoleObserver(os.Stdout, cli.NewStyles(cli.DefaultTheme))
	observers := []interview.Observer{console}
	if interviewMonitor != "" {
		hub := monitor.NewHub(nil)
		defer hub.Close()
		observers = append(observers, hub)
		srv, err := server.New(server.Options{Twins: store, Monitor: hub, Questions: qs})
		if err != nil {
			return err
		}
		go func() {
			if err := listenAndServe(ctx, interviewMonitor, srv.Handler()); err != nil {
				slog.Error("monitor server", "error", err)
			}
		}()
	}

	ctrl, err := interview.New(newTransport, cfg, interview.Observers(observers...))
	if err != nil {
		return err
	}
	console.status("connessione in corso")
	if err := ctrl.Connect(ctx); err != nil {
		<-ctrl.Done()
		return fmt.Errorf("connect: %w", err)
	}

	select {
	case <-ctrl.Done():
	case <-ctx.Done():
		ctrl.Disconnect()
		<-ctrl.Done()
	}
	out, _ := ctrl.Outcome()

	saver := &sessionSaver{
		slug:        slug,
		displayName: interviewName,
		email:       interviewEmail,
		voice:       cctx.Voice,
		documents:   prompts.JoinDocuments(docs),
		store:       store,
		archive:     arch,
		extractor:   ext,
		save:        !interviewNoSave,
	}
	// The signal context may already be cancelled by Ctrl-C.
	res, err := saver.finish(context.WithoutCancel(ctx), out)
	if err != nil {
		return err
	}
	console.summary(res)
	return nil
}

func readDocuments(paths []string) ([]prompts.Document, error) {
	docs := make([]prompts.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		docs = append(docs, prompts.Document{Name: filepath.Base(p), Text: string(data)})
	}
	return docs, nil
}

// sessionResult is what an interview produced.
type sessionResult struct {
	Cause     string        `json:"cause" yaml:"cause"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Turns     int           `json:"turns" yaml:"turns"`
	Twin      *twin.Twin    `json:"twin,omitempty" yaml:"twin,omitempty"`
	Extracted bool          `json:"extracted,omitempty" yaml:"extracted,omitempty"`
	Record    string        `json:"record,omitempty" yaml:"record,omitempty"`
}

// sessionSaver turns a finished session into a stored twin and an archive
// record.
type sessionSaver struct {
	slug        string
	displayName string
	email       string
	voice       string
	documents   string

	store     twin.Store
	archive   *archive.Archive
	extractor extract.Extractor
	save      bool
}

func (s *sessionSaver) finish(ctx context.Context, out interview.Outcome) (*sessionResult, error) {
	res := &sessionResult{
		Cause:    out.Cause.String(),
		Duration: out.EndedAt.Sub(out.StartedAt),
		Turns:    len(out.Transcript),
	}
	rec := archive.NewRecord(s.slug, out)
	transcript := interview.FormatTranscript(out.Transcript)

	profile := out.Profile
	if profile == nil && needsExtraction(out) {
		if s.extractor == nil {
			rec.Error = joinErr(rec.Error, "no extractor configured")
		} else if p, err := s.extractor.Extract(ctx, transcript, s.documents); err != nil {
			slog.Error("profile extraction failed", "error", err)
			rec.Error = joinErr(rec.Error, err.Error())
		} else {
			profile = &p
			rec.Profile = &p
			rec.Extracted = true
			res.Extracted = true
		}
	}

	var saveErr error
	if profile != nil && s.save {
		t, err := twin.New(s.slug, s.displayName, *profile, transcript)
		if err == nil {
			t.Email = s.email
			t.Voice = s.voice
			t.Documents = s.documents
			err = s.store.Create(ctx, t)
		}
		if err != nil {
			saveErr = fmt.Errorf("save twin: %w", err)
			rec.Error = joinErr(rec.Error, saveErr.Error())
		} else {
			res.Twin = t
			slog.Info("twin saved", "slug", t.Slug, "extracted", res.Extracted)
		}
	}

	if s.archive != nil {
		key, err := s.archive.Save(ctx, rec)
		if err != nil {
			slog.Error("archive session", "error", err)
		} else {
			res.Record = key
		}
	}
	return res, saveErr
}

// needsExtraction reports whether the session ended naturally without a
// profile block and has answers to work from.
func needsExtraction(out interview.Outcome) bool {
	if out.Cause != interview.CauseCompletion && out.Cause != interview.CauseSilence {
		return false
	}
	for _, e := range out.Transcript {
		if e.Role == interview.RoleUser {
			return true
		}
	}
	return false
}

func joinErr(prev, next string) string {
	if prev == "" {
		return next
	}
	return prev + "; " + next
}

// consoleObserver prints the live session to a terminal.
type consoleObserver struct {
	w       io.Writer
	styles  cli.Styles
	printed int
	width   int
}

func newConsoleObserver(w io.Writer, styles cli.Styles) *consoleObserver {
	return &consoleObserver{w: w, styles: styles, width: 80}
}

func (c *consoleObserver) Observe(s interview.Signal) {
	switch s := s.(type) {
	case interview.TranscriptUpdated:
		c.transcript(s.Snapshot)
	case interview.ConnectionChanged:
		if s.Connected {
			c.status("connessa")
		} else {
			c.status("disconnessa")
		}
	case interview.SilenceWarning:
		fmt.Fprintln(c.w, c.styles.RenderWarning("Sei ancora lì? Chiusura tra "+cli.FormatCountdown(s.Remaining)))
	case interview.SilenceTimeout:
		fmt.Fprintln(c.w, c.styles.RenderWarning("Sessione chiusa per inattività"))
	case interview.ProfileDetected:
		c.status("profilo ricevuto")
	case interview.CompletionDetected:
		c.status("intervista completata, estrazione del profilo")
	case interview.Failed:
		fmt.Fprintln(c.w, c.styles.RenderWarning("Errore: "+s.Err.Error()))
	}
}

func (c *consoleObserver) transcript(snap interview.Snapshot) {
	for _, e := range snap.Entries[min(c.printed, len(snap.Entries)):] {
		text := e.Text
		if e.Role == interview.RoleAssistant {
			text = interview.DisplayText(text)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintln(c.w, c.styles.RenderTurn(cli.Turn{User: e.Role == interview.RoleUser, Text: text}, c.width))
	}
	c.printed = len(snap.Entries)
	fmt.Fprintln(c.w, c.styles.RenderProgress(cli.Progress{
		Status:   "in corso",
		Question: snap.Question,
		Max:      snap.Budget.Max,
		Phase:    snap.Phase.String(),
	}))
}

func (c *consoleObserver) status(s string) {
	fmt.Fprintln(c.w, c.styles.RenderProgress(cli.Progress{Status: s}))
}

func (c *consoleObserver) summary(res *sessionResult) {
	fmt.Fprintf(c.w, "\nSessione terminata (%s) dopo %s, %d turni\n", res.Cause, cli.FormatDuration(res.Duration), res.Turns)
	if res.Record != "" {
		fmt.Fprintf(c.w, "Archivio: %s\n", res.Record)
	}
	if res.Twin == nil {
		fmt.Fprintln(c.w, "Nessun Digital Twin salvato.")
		return
	}
	fmt.Fprintln(c.w, c.styles.RenderSummary(res.Twin.DisplayName+" ("+res.Twin.Slug+")", profileFields(res.Twin.Profile), c.width))
}

func profileFields(p twin.Profile) []cli.Field {
	return []cli.Field{
		{Label: "Chi sono", Value: p.IdentitySummary},
		{Label: "Come ragiono", Value: p.ThinkingPatterns},
		{Label: "Come lavoro", Value: p.Methodology},
		{Label: "I miei limiti", Value: p.Constraints},
		{Label: "I miei risultati", Value: p.ProofMetrics},
		{Label: "Il mio stile", Value: p.StyleTone},
		{Label: "Non dire mai", Value: strings.Join(p.DoNotSay, "; ")},
	}
}
