// Package engine walks a session through the questionnaire, resolving
// per-question branching, and triggers the recommendation pipeline when
// the walk completes.
package engine

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/DonatoReis/lynx/internal/model"
)

// DefaultWelcome greets the user when the questionnaire configures no
// welcome message.
const DefaultWelcome = "Olá! Bem-vindo ao Lynx, sua solução de inteligência artificial personalizada! Estamos aqui para oferecer uma experiência moldada às suas necessidades. Conte conosco para adaptar cada funcionalidade e interagir de forma inteligente com seus projetos. Vamos começar a criar juntos!"

// ErrorMessage is the fixed text shown when a pipeline run fails.
// Diagnostic detail is logged, never shown.
const ErrorMessage = "Ocorreu um erro durante o processamento. Por favor, tente novamente."

// RunFunc executes one pipeline run for the collected answers, streaming
// chunks through sink, and returns the final text.
type RunFunc func(ctx context.Context, answers map[string]string, sink model.EventSink) (string, error)

// Engine drives one conversation session over a fixed questionnaire.
type Engine struct {
	mu   sync.Mutex
	q    model.Questionnaire
	sink model.EventSink
	run  RunFunc
	sess Session

	// gen counts resets; pipeline results from a stale generation are
	// dropped so a reset session never renders old output.
	gen int
}

// New creates an Engine for one questionnaire. sink receives presentation
// events; run is invoked exactly once per completed questionnaire.
func New(q model.Questionnaire, sink model.EventSink, run RunFunc) *Engine {
	return &Engine{
		q:    q,
		sink: sink,
		run:  run,
		sess: newSession(),
	}
}

// Session returns a snapshot of the current session.
func (e *Engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Snapshot()
}

// Start begins a conversation: welcome message, then the first question.
// A no-op while a conversation is in flight. With an empty questionnaire
// the pipeline runs immediately.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.sess.Status == StatusAwaitingAnswer || e.sess.Status == StatusProcessing {
		e.mu.Unlock()
		return
	}
	e.gen++
	e.sess = newSession()

	welcome := e.q.Prompts.Welcome
	if welcome == "" {
		welcome = DefaultWelcome
	}

	if len(e.q.Questions) == 0 {
		e.sess.Status = StatusProcessing
		gen := e.gen
		answers := e.sess.Snapshot().Answers
		e.mu.Unlock()
		e.sink.ShowMessage(welcome, false, nil)
		e.launchRun(ctx, gen, answers)
		return
	}

	e.sess.Status = StatusAwaitingAnswer
	first := e.q.Questions[0]
	e.mu.Unlock()

	e.sink.ShowMessage(welcome, false, nil)
	e.sink.ShowMessage(first.Text, false, first.Options)
}

// Submit records an answer for the current question and advances the walk.
// Ignored unless the engine is awaiting an answer; empty submissions are
// ignored. Option-button answers and free text follow the same path. The
// return reports whether this answer completed the walk and launched the
// pipeline; callers must not infer that from a later status read, which
// races with fast runs.
func (e *Engine) Submit(ctx context.Context, answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}

	e.mu.Lock()
	if e.sess.Status != StatusAwaitingAnswer {
		e.mu.Unlock()
		return false
	}

	current := e.q.Questions[e.sess.CurrentIndex]
	e.sess.Answers[current.Var()] = answer

	next := ResolveBranch(e.q, e.sess.CurrentIndex, answer)
	e.sess.CurrentIndex = next

	if next < len(e.q.Questions) {
		question := e.q.Questions[next]
		e.mu.Unlock()
		e.sink.ShowMessage(question.Text, false, question.Options)
		return false
	}

	e.sess.Status = StatusProcessing
	gen := e.gen
	answers := e.sess.Snapshot().Answers
	e.mu.Unlock()

	e.launchRun(ctx, gen, answers)
	return true
}

// Reset discards the session. Always legal; an in-flight pipeline run may
// finish but its results are dropped.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.sess = newSession()
}

func (e *Engine) launchRun(ctx context.Context, gen int, answers map[string]string) {
	sink := &generationSink{e: e, gen: gen, inner: e.sink}
	go func() {
		final, err := e.run(ctx, answers, sink)
		e.finishRun(gen, final, err)
	}()
}

func (e *Engine) finishRun(gen int, final string, err error) {
	e.mu.Lock()
	if gen != e.gen || e.sess.Status != StatusProcessing {
		e.mu.Unlock()
		zap.L().Info("dropping result from discarded session")
		return
	}
	if err != nil {
		e.sess.Status = StatusErrored
		e.mu.Unlock()
		zap.L().Error("pipeline run failed", zap.Error(err))
		e.sink.ShowError(ErrorMessage)
		return
	}
	e.sess.Status = StatusCompleted
	e.mu.Unlock()
	e.sink.ShowResult(final)
}

// ResolveBranch computes the next question index for an answer. Matching
// is case- and whitespace-insensitive; a matched key whose target id does
// not exist is treated as unmatched. Unmatched answers fall through to
// index+1, so the result is always within [0, len(questions)]. Keys are
// scanned in sorted order so two keys normalizing to the same answer
// resolve the same way on every run.
func ResolveBranch(q model.Questionnaire, currentIndex int, answer string) int {
	current := q.Questions[currentIndex]
	normalized := normalize(answer)

	keys := make([]string, 0, len(current.Branching))
	for key := range current.Branching {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if normalize(key) != normalized {
			continue
		}
		if idx := q.FindIndex(current.Branching[key]); idx >= 0 {
			return idx
		}
	}
	return currentIndex + 1
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// generationSink forwards stream chunks only while its generation is
// current, so a reset session never renders stale output.
type generationSink struct {
	e     *Engine
	gen   int
	inner model.EventSink
}

func (g *generationSink) current() bool {
	g.e.mu.Lock()
	defer g.e.mu.Unlock()
	return g.gen == g.e.gen
}

func (g *generationSink) ShowMessage(text string, isUser bool, options []string) {
	if g.current() {
		g.inner.ShowMessage(text, isUser, options)
	}
}

func (g *generationSink) StreamChunk(text string) {
	if g.current() {
		g.inner.StreamChunk(text)
	}
}

func (g *generationSink) ShowResult(text string) {
	if g.current() {
		g.inner.ShowResult(text)
	}
}

func (g *generationSink) ShowError(text string) {
	if g.current() {
		g.inner.ShowError(text)
	}
}
