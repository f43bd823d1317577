package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fortuna/internal/assembly"
	"fortuna/internal/config"
	"fortuna/internal/fileutil"
	"fortuna/internal/generation"
	"fortuna/internal/ledger"
	"fortuna/internal/logging"
	"fortuna/internal/metadata"
	"fortuna/internal/narration"
	"fortuna/internal/notifications"
	"fortuna/internal/renderer"
	"fortuna/internal/screenplay"
	"fortuna/internal/script"
	"fortuna/internal/services"
	"fortuna/internal/uploader"
	"fortuna/internal/zodiac"
)

// sceneTailSeconds pads every scene past its narration so the last word is
// never clipped by the cut to the next scene.
const sceneTailSeconds = 0.3

// Stubbed in tests.
var (
	moveFile        = fileutil.MoveFile
	pickMusic       = assembly.PickMusic
	nextPublishTime = uploader.NextPublishTime
)

// SceneRenderer captures frames for one scene. Satisfied by *renderer.Renderer.
type SceneRenderer interface {
	RenderScene(ctx context.Context, sc renderer.Scene, framesDir string) ([]string, error)
}

// VideoAssembler runs the ffmpeg stages. Satisfied by *assembly.Assembler.
type VideoAssembler interface {
	SceneClip(ctx context.Context, framesPattern, audioPath string, fps int, outPath string) error
	Concat(ctx context.Context, clips []string, outPath string) error
	Finalize(ctx context.Context, videoPath, musicPath, outPath string) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// VideoUploader pushes a finished video. Satisfied by *uploader.Client.
type VideoUploader interface {
	Upload(ctx context.Context, filePath string, meta metadata.Video, publishAt *time.Time) (string, error)
}

// Deps bundles the pipeline collaborators a Producer drives.
type Deps struct {
	Writer    *script.Writer
	Director  *screenplay.Director
	Narrator  *narration.Narrator
	Renderer  SceneRenderer
	Assembler VideoAssembler
	// Uploader may be nil; productions are then recorded as upload-skipped.
	Uploader VideoUploader
	Ledger   *ledger.Store
	Notifier notifications.Service
	Logger   *slog.Logger
}

// Producer runs the production pipeline for one sign at a time.
type Producer struct {
	cfg      *config.Config
	deps     Deps
	logger   *slog.Logger
	notifier notifications.Service
	sleep    func(time.Duration)
	now      func() time.Time
	newRunID func() string
}

// New validates the dependency set and constructs a Producer.
func New(cfg *config.Config, deps Deps) (*Producer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "new", "config is required", nil)
	}
	if deps.Writer == nil || deps.Director == nil || deps.Narrator == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "new", "writer, director, and narrator are required", nil)
	}
	if deps.Renderer == nil || deps.Assembler == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "new", "renderer and assembler are required", nil)
	}
	if deps.Ledger == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "new", "ledger is required", nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Producer{
		cfg:      cfg,
		deps:     deps,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		notifier: notifier,
		sleep:    time.Sleep,
		now:      time.Now,
		newRunID: uuid.NewString,
	}, nil
}

// RunAll produces one video per configured sign, pausing between signs.
// Individual failures do not stop the sweep; the joined error reports every
// sign that failed.
func (p *Producer) RunAll(ctx context.Context, date time.Time, task string) ([]*ledger.Production, error) {
	signs := p.cfg.Workflow.Signs
	if len(signs) == 0 {
		for _, s := range zodiac.All() {
			signs = append(signs, s.Key)
		}
	}

	var produced []*ledger.Production
	var errs []error
	pause := time.Duration(p.cfg.Workflow.SignPauseSeconds) * time.Second
	for i, key := range signs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sign, ok := zodiac.Lookup(key)
		if !ok {
			errs = append(errs, services.Wrap(services.ErrValidation, "workflow", "run-all",
				fmt.Sprintf("unknown sign %q", key), nil))
			continue
		}
		if i > 0 && pause > 0 {
			p.sleep(pause)
		}
		prod, err := p.Run(ctx, sign, date, task)
		if prod != nil {
			produced = append(produced, prod)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sign.Key, err))
		}
	}
	return produced, errors.Join(errs...)
}

// Run produces a single video for the given sign, date, and task. The
// returned production is recorded in the ledger even when the upload step
// subsequently fails.
func (p *Producer) Run(ctx context.Context, sign zodiac.Sign, date time.Time, task string) (*ledger.Production, error) {
	if task == TaskAuto {
		task = PlanTask(sign, date)
	}
	runID := p.newRunID()
	ctx = services.WithRunID(services.WithSign(ctx, sign.Key), runID)

	r := &run{
		p:    p,
		sign: sign,
		date: date,
		task: task,
		id:   runID,
		dir:  filepath.Join(p.cfg.Paths.WorkspaceDir, "runs", runID),
	}

	log := logging.WithContext(ctx, p.logger)
	log.Info("production run started",
		logging.String("task", task),
		logging.String("date", dateLabel(task, date)))
	if err := p.notifier.NotifyRunStarted(ctx, sign.Name, task); err != nil {
		log.Warn("run-start notification failed", logging.Error(err))
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "run", "create run workspace", err)
	}

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"script", r.writeScript},
		{"screenplay", r.direct},
		{"narration", r.narrate},
		{"render", r.render},
		{"assembly", r.assemble},
		{"publish", r.publish},
	}
	for _, st := range stages {
		if err := p.stage(ctx, st.name, st.fn); err != nil {
			return nil, err
		}
	}

	// A failed upload leaves a published, ledger-recorded video behind, so
	// the production is returned alongside the error.
	if err := p.stage(ctx, "upload", r.upload); err != nil {
		return r.production, err
	}

	if err := os.RemoveAll(r.dir); err != nil {
		log.Warn("run workspace cleanup failed", logging.Error(err))
	}
	log.Info("production run completed",
		logging.String("output", r.production.OutputPath),
		logging.Float64("duration_seconds", r.production.DurationSeconds))
	return r.production, nil
}

func (p *Producer) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, name)
	log := logging.WithContext(ctx, p.logger)

	start := p.now()
	log.Info("stage started")
	if err := fn(ctx); err != nil {
		log.Error("stage failed",
			logging.Error(err),
			logging.Duration("stage_duration", p.now().Sub(start)))
		if notifyErr := p.notifier.NotifyError(ctx, err, name); notifyErr != nil {
			log.Warn("failure notification failed", logging.Error(notifyErr))
		}
		return err
	}
	log.Info("stage completed", logging.Duration("stage_duration", p.now().Sub(start)))
	return nil
}

// run carries the intermediate state of one production through the stages.
type run struct {
	p    *Producer
	sign zodiac.Sign
	date time.Time
	task string
	id   string
	dir  string

	doc      generation.Result
	plan     screenplay.Plan
	sections []string
	takes    map[string]narration.Take
	theme    zodiac.Theme
	header   string

	finalPath  string
	duration   float64
	meta       metadata.Video
	production *ledger.Production
}

func (r *run) writeScript(ctx context.Context) error {
	var (
		doc generation.Result
		err error
	)
	switch r.task {
	case generation.TaskDaily:
		doc, err = r.p.deps.Writer.Daily(ctx, r.sign, r.date)
	case generation.TaskMonthly:
		doc, err = r.p.deps.Writer.Monthly(ctx, r.sign, r.date)
	case generation.TaskYearly:
		doc, err = r.p.deps.Writer.Yearly(ctx, r.sign, r.date)
	case generation.TaskRemedy:
		doc, err = r.p.deps.Writer.Remedy(ctx, r.sign, r.date)
	default:
		return services.Wrap(services.ErrValidation, "workflow", "script",
			fmt.Sprintf("unknown task %q", r.task), nil)
	}
	if err != nil {
		return err
	}
	r.doc = doc
	r.sections = script.ActiveSections(doc)
	r.header = headerFor(r.task, r.sign, r.date)

	if err := r.p.notifier.NotifyScriptReady(ctx, r.sign.Name, r.task, len(r.sections)); err != nil {
		logging.WithContext(ctx, r.p.logger).Warn("script notification failed", logging.Error(err))
	}
	return nil
}

func (r *run) direct(ctx context.Context) error {
	plan, err := r.p.deps.Director.Plan(ctx, r.doc)
	if err != nil {
		return err
	}
	r.plan = plan

	r.theme = r.sign.Theme()
	if color, ok := zodiac.ExtractLuckyColor(script.SectionText(r.doc, "lucky_color")); ok {
		if theme, ok := zodiac.ThemeForColor(color); ok {
			r.theme = theme
			logging.WithContext(ctx, r.p.logger).Debug("lucky color theme applied",
				logging.String("color", color))
		}
	}
	return nil
}

func (r *run) narrate(ctx context.Context) error {
	audioDir := filepath.Join(r.dir, "audio")
	takes := make(map[string]narration.Take, len(r.sections))
	durations := make(map[string]float64, len(r.sections))
	for _, section := range r.sections {
		text := script.SpeechText(section, script.SectionText(r.doc, section))
		take, err := r.p.deps.Narrator.Speak(ctx, text, filepath.Join(audioDir, section+".mp3"))
		if err != nil {
			return fmt.Errorf("narrate %s: %w", section, err)
		}
		takes[section] = take
		durations[section] = take.Duration + sceneTailSeconds
	}
	r.takes = takes

	if r.task == generation.TaskDaily {
		kept, dropped := script.SmartTrim(r.sections, durations, script.TargetDailySeconds)
		if len(dropped) > 0 {
			logging.WithContext(ctx, r.p.logger).Info("trimmed sections to fit runtime",
				logging.String("dropped", strings.Join(dropped, ",")))
		}
		r.sections = kept
	}
	return nil
}

func (r *run) render(ctx context.Context) error {
	for _, section := range r.sections {
		take := r.takes[section]
		scene := renderer.Scene{
			Section:  section,
			Text:     script.SectionText(r.doc, section),
			Header:   r.header,
			Duration: take.Duration + sceneTailSeconds,
			Words:    take.Words,
			Theme:    r.theme,
		}
		framesDir := filepath.Join(r.dir, renderer.FramesDirName(section))
		if _, err := r.p.deps.Renderer.RenderScene(ctx, scene, framesDir); err != nil {
			return fmt.Errorf("render %s: %w", section, err)
		}
	}
	return nil
}

func (r *run) assemble(ctx context.Context) error {
	clips := make([]string, 0, len(r.sections))
	for _, section := range r.sections {
		framesDir := filepath.Join(r.dir, renderer.FramesDirName(section))
		clipPath := filepath.Join(r.dir, "clip_"+section+".mp4")
		take := r.takes[section]
		if err := r.p.deps.Assembler.SceneClip(ctx, renderer.FramePattern(framesDir), take.AudioPath, r.p.cfg.Video.FPS, clipPath); err != nil {
			return fmt.Errorf("clip %s: %w", section, err)
		}
		clips = append(clips, clipPath)
	}

	combined := filepath.Join(r.dir, "combined.mp4")
	if err := r.p.deps.Assembler.Concat(ctx, clips, combined); err != nil {
		return err
	}

	musicPath := ""
	if r.p.cfg.Paths.MusicDir != "" {
		if picked, ok := pickMusic(r.p.cfg.Paths.MusicDir, r.plan.Mood); ok {
			musicPath = picked
		}
	}

	r.finalPath = filepath.Join(r.dir, "final.mp4")
	if err := r.p.deps.Assembler.Finalize(ctx, combined, musicPath, r.finalPath); err != nil {
		return err
	}

	duration, err := r.p.deps.Assembler.ProbeDuration(ctx, r.finalPath)
	if err != nil {
		logging.WithContext(ctx, r.p.logger).Warn("final duration probe failed", logging.Error(err))
	} else {
		r.duration = duration
	}

	if err := r.p.notifier.NotifyRenderCompleted(ctx, r.sign.Name, time.Duration(r.duration*float64(time.Second))); err != nil {
		logging.WithContext(ctx, r.p.logger).Warn("render notification failed", logging.Error(err))
	}
	return nil
}

func (r *run) publish(ctx context.Context) error {
	name := fmt.Sprintf("%s_%s_%s.mp4", r.sign.Key, strings.ToLower(r.task), r.date.Format("2006-01-02"))
	outPath := filepath.Join(r.p.cfg.Paths.OutputDir, name)
	if err := moveFile(r.finalPath, outPath); err != nil {
		return services.Wrap(services.ErrTransient, "workflow", "publish", "move final video", err)
	}

	r.meta = metadata.Resolve(r.doc, r.sign, dateLabel(r.task, r.date), r.task)
	prod, err := r.p.deps.Ledger.Record(ctx, ledger.Production{
		RunID:           r.id,
		Sign:            r.sign.Key,
		Task:            r.task,
		Title:           r.meta.Title,
		OutputPath:      outPath,
		DurationSeconds: r.duration,
	})
	if err != nil {
		return err
	}
	r.production = prod

	if err := r.p.notifier.NotifyVideoReady(ctx, r.sign.Name, outPath); err != nil {
		logging.WithContext(ctx, r.p.logger).Warn("video notification failed", logging.Error(err))
	}
	return nil
}

func (r *run) upload(ctx context.Context) error {
	if r.p.deps.Uploader == nil || !r.p.cfg.YouTube.Enabled {
		if err := r.p.deps.Ledger.MarkUpload(ctx, r.production.ID, ledger.UploadSkipped, "", ""); err != nil {
			return err
		}
		r.production.UploadState = ledger.UploadSkipped
		return nil
	}

	publishAt := nextPublishTime(r.p.now())
	videoID, err := r.p.deps.Uploader.Upload(ctx, r.production.OutputPath, r.meta, &publishAt)
	if err != nil {
		if markErr := r.p.deps.Ledger.MarkUpload(ctx, r.production.ID, ledger.UploadFailed, "", ""); markErr != nil {
			logging.WithContext(ctx, r.p.logger).Warn("upload failure not recorded", logging.Error(markErr))
		} else {
			r.production.UploadState = ledger.UploadFailed
		}
		return err
	}

	publishLabel := publishAt.UTC().Format(time.RFC3339)
	if err := r.p.deps.Ledger.MarkUpload(ctx, r.production.ID, ledger.UploadScheduled, videoID, publishLabel); err != nil {
		return err
	}
	r.production.UploadState = ledger.UploadScheduled
	r.production.VideoID = videoID
	r.production.PublishAt = publishLabel

	if err := r.p.notifier.NotifyUploadCompleted(ctx, r.sign.Name, videoID, publishLabel); err != nil {
		logging.WithContext(ctx, r.p.logger).Warn("upload notification failed", logging.Error(err))
	}
	return nil
}
