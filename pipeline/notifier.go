package pipeline

import (
	"context"

	"github.com/kbukum/voicenote/logger"
)

// Stage names a pipeline step. Used in logs, spans, metrics and events.
type Stage string

const (
	StageStart    Stage = "start"
	StageConvert  Stage = "convert"
	StageUpload   Stage = "upload"
	StageProcess  Stage = "process"
	StageComplete Stage = "complete"
	StageCleanup  Stage = "cleanup"
)

// Notifier receives progress for one job. Hooks are called in order from
// the job's goroutine and must return promptly. Hooks return nothing and a
// panicking hook is recovered, so a notifier cannot fail a job.
type Notifier interface {
	OnStart(ctx context.Context, jobID string)
	OnConvert(ctx context.Context, jobID string)
	OnUpload(ctx context.Context, jobID string)
	OnProcess(ctx context.Context, jobID string)
	OnComplete(ctx context.Context, jobID string)
}

// ResultObserver is optionally implemented by notifiers that also want the
// terminal outcome. err is nil on success.
type ResultObserver interface {
	OnResult(ctx context.Context, jobID string, err error)
}

// Funcs adapts plain functions to Notifier. Nil fields are skipped.
type Funcs struct {
	Start    func(ctx context.Context, jobID string)
	Convert  func(ctx context.Context, jobID string)
	Upload   func(ctx context.Context, jobID string)
	Process  func(ctx context.Context, jobID string)
	Complete func(ctx context.Context, jobID string)
	Result   func(ctx context.Context, jobID string, err error)
}

var (
	_ Notifier       = Funcs{}
	_ ResultObserver = Funcs{}
)

func (f Funcs) OnStart(ctx context.Context, id string)    { call(f.Start, ctx, id) }
func (f Funcs) OnConvert(ctx context.Context, id string)  { call(f.Convert, ctx, id) }
func (f Funcs) OnUpload(ctx context.Context, id string)   { call(f.Upload, ctx, id) }
func (f Funcs) OnProcess(ctx context.Context, id string)  { call(f.Process, ctx, id) }
func (f Funcs) OnComplete(ctx context.Context, id string) { call(f.Complete, ctx, id) }

func (f Funcs) OnResult(ctx context.Context, id string, err error) {
	if f.Result != nil {
		f.Result(ctx, id, err)
	}
}

func call(fn func(context.Context, string), ctx context.Context, id string) {
	if fn != nil {
		fn(ctx, id)
	}
}

// Multi fans every hook out to each notifier in order. Nil entries are dropped.
func Multi(notifiers ...Notifier) Notifier {
	out := make(multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

type multi []Notifier

func (m multi) OnStart(ctx context.Context, id string) {
	for _, n := range m {
		n.OnStart(ctx, id)
	}
}

func (m multi) OnConvert(ctx context.Context, id string) {
	for _, n := range m {
		n.OnConvert(ctx, id)
	}
}

func (m multi) OnUpload(ctx context.Context, id string) {
	for _, n := range m {
		n.OnUpload(ctx, id)
	}
}

func (m multi) OnProcess(ctx context.Context, id string) {
	for _, n := range m {
		n.OnProcess(ctx, id)
	}
}

func (m multi) OnComplete(ctx context.Context, id string) {
	for _, n := range m {
		n.OnComplete(ctx, id)
	}
}

func (m multi) OnResult(ctx context.Context, id string, err error) {
	for _, n := range m {
		if o, ok := n.(ResultObserver); ok {
			o.OnResult(ctx, id, err)
		}
	}
}

// StatusText is the user-facing progress line for each hook, as shown by
// the chat front end.
var StatusText = map[Stage]string{
	StageStart:    "⚙️ Iniciando processamento...",
	StageConvert:  "🔄 Convertendo formato do áudio...",
	StageUpload:   "📤 Enviando áudio para processamento...",
	StageProcess:  "🎯 Transcrevendo áudio... (pode demorar alguns minutos)",
	StageComplete: "✨ Finalizando transcrição...",
}

// LogNotifier logs each hook with its status text.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.WithComponent("notifier")}
}

func (n *LogNotifier) emit(id string, stage Stage) {
	n.log.Info(StatusText[stage], map[string]interface{}{
		logger.FieldJobID: id,
		logger.FieldStage: string(stage),
	})
}

func (n *LogNotifier) OnStart(_ context.Context, id string)    { n.emit(id, StageStart) }
func (n *LogNotifier) OnConvert(_ context.Context, id string)  { n.emit(id, StageConvert) }
func (n *LogNotifier) OnUpload(_ context.Context, id string)   { n.emit(id, StageUpload) }
func (n *LogNotifier) OnProcess(_ context.Context, id string)  { n.emit(id, StageProcess) }
func (n *LogNotifier) OnComplete(_ context.Context, id string) { n.emit(id, StageComplete) }
