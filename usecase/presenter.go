package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/satriahrh/cocoa-fruit/shagen/domain"
	"github.com/satriahrh/cocoa-fruit/shagen/utils/log"
	"go.uber.org/zap"
)

const (
	DefaultRevealInterval = 5 * time.Millisecond
	DefaultErrorDuration  = 3 * time.Second

	// NoticeMessage is shown for every rejected submission. Empty input and
	// computation failures look the same on the page; only the log tells
	// them apart.
	NoticeMessage = "Input required"

	eventBuffer = 64
)

var ErrPresenterClosed = errors.New("presenter is closed")

type PresenterConfig struct {
	RevealInterval time.Duration
	ErrorDuration  time.Duration
}

func DefaultPresenterConfig() PresenterConfig {
	return PresenterConfig{
		RevealInterval: DefaultRevealInterval,
		ErrorDuration:  DefaultErrorDuration,
	}
}

type (
	submitEvent struct {
		text string
	}
	hashResultEvent struct {
		digest domain.Digest
		err    error
	}
	revealTickEvent struct {
		gen uint64
	}
	errorExpiredEvent struct {
		gen uint64
	}
)

// Presenter drives one view. Every input (submissions, hash results, timer
// callbacks) is an event handled by a single loop goroutine, so handlers never
// overlap. Display changes are published on the broker under
// domain.PresenterTopic with the session id as routing key.
type Presenter struct {
	sessionID string
	hasher    domain.Hasher
	broker    domain.MessageBroker
	cfg       PresenterConfig

	events    chan interface{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// Loop-owned state.
	digest     domain.Digest
	revealed   int
	typing     bool
	inFlight   int
	errorShown bool
	revealGen  uint64
	revealStop chan struct{}
	errorGen   uint64
	errorTimer *time.Timer

	mu   sync.RWMutex
	snap domain.DisplayState
}

func NewPresenter(sessionID string, hasher domain.Hasher, broker domain.MessageBroker, cfg PresenterConfig) *Presenter {
	if cfg.RevealInterval <= 0 {
		cfg.RevealInterval = DefaultRevealInterval
	}
	if cfg.ErrorDuration <= 0 {
		cfg.ErrorDuration = DefaultErrorDuration
	}
	return &Presenter{
		sessionID: sessionID,
		hasher:    hasher,
		broker:    broker,
		cfg:       cfg,
		events:    make(chan interface{}, eventBuffer),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		snap:      domain.DisplayState{State: domain.StateIdle},
	}
}

// Run processes events until ctx is cancelled or Close is called.
func (p *Presenter) Run(ctx context.Context) {
	defer close(p.stopped)
	defer p.stopTimers()

	for {
		select {
		case ev := <-p.events:
			p.handle(ctx, ev)
			p.refresh()
		case <-ctx.Done():
			p.Close()
			return
		case <-p.done:
			return
		}
	}
}

// Submit queues a submission of text.
func (p *Presenter) Submit(text string) error {
	select {
	case <-p.done:
		return ErrPresenterClosed
	default:
	}

	select {
	case p.events <- submitEvent{text: text}:
		return nil
	case <-p.done:
		return ErrPresenterClosed
	}
}

// Close stops the loop. Pending hash results are dropped.
func (p *Presenter) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Stopped is closed once Run has returned.
func (p *Presenter) Stopped() <-chan struct{} {
	return p.stopped
}

// Snapshot returns what the view currently shows.
func (p *Presenter) Snapshot() domain.DisplayState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

func (p *Presenter) handle(ctx context.Context, ev interface{}) {
	switch e := ev.(type) {
	case submitEvent:
		p.handleSubmit(ctx, e)
	case hashResultEvent:
		p.handleHashResult(ctx, e)
	case revealTickEvent:
		p.handleRevealTick(ctx, e)
	case errorExpiredEvent:
		p.handleErrorExpired(ctx, e)
	}
}

func (p *Presenter) handleSubmit(ctx context.Context, e submitEvent) {
	log.WithCtx(ctx).Debug("Validating submission", zap.String("state", string(domain.StateValidating)))

	if strings.TrimSpace(e.text) == "" {
		log.WithCtx(ctx).Debug("Rejected submission", zap.Error(domain.ErrEmptyInput))
		p.showError(ctx)
		return
	}

	p.inFlight++
	go func(text string) {
		digest, err := p.hasher.ComputeDigest(ctx, text)
		p.post(hashResultEvent{digest: digest, err: err})
	}(e.text)

	p.emit(ctx, domain.EventHashStarted, "")
}

func (p *Presenter) handleHashResult(ctx context.Context, e hashResultEvent) {
	p.inFlight--

	if e.err != nil {
		log.WithCtx(ctx).Error("Error processing hash", zap.Error(e.err))
		p.showError(ctx)
		return
	}

	p.startReveal(ctx, e.digest)
}

func (p *Presenter) handleRevealTick(ctx context.Context, e revealTickEvent) {
	if e.gen != p.revealGen || !p.typing {
		return
	}

	p.revealed++
	if p.revealed < len(p.digest) {
		p.emit(ctx, domain.EventRevealProgress, "")
		return
	}

	p.revealed = len(p.digest)
	p.stopReveal()
	p.typing = false
	p.emit(ctx, domain.EventRevealCompleted, "")
}

func (p *Presenter) handleErrorExpired(ctx context.Context, e errorExpiredEvent) {
	if e.gen != p.errorGen || !p.errorShown {
		return
	}

	p.errorShown = false
	p.errorTimer = nil
	p.emit(ctx, domain.EventErrorCleared, "")
}

// showError displays the notice and (re)arms its single expiry timer.
func (p *Presenter) showError(ctx context.Context) {
	if p.errorTimer != nil {
		p.errorTimer.Stop()
	}

	p.errorGen++
	gen := p.errorGen
	p.errorShown = true
	p.errorTimer = time.AfterFunc(p.cfg.ErrorDuration, func() {
		p.post(errorExpiredEvent{gen: gen})
	})

	p.emit(ctx, domain.EventErrorShown, NoticeMessage)
}

// startReveal replaces the current digest and restarts the reveal from its
// first character. The previous ticker is stopped before a new one starts.
func (p *Presenter) startReveal(ctx context.Context, digest domain.Digest) {
	p.stopReveal()

	p.revealGen++
	p.digest = digest
	p.revealed = 0
	p.typing = true
	p.revealStop = p.startTicker(p.revealGen)

	p.emit(ctx, domain.EventRevealStarted, "")
}

func (p *Presenter) startTicker(gen uint64) chan struct{} {
	stop := make(chan struct{})
	interval := p.cfg.RevealInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				select {
				case p.events <- revealTickEvent{gen: gen}:
				case <-stop:
					return
				case <-p.done:
					return
				}
			case <-stop:
				return
			case <-p.done:
				return
			}
		}
	}()

	return stop
}

func (p *Presenter) stopReveal() {
	if p.revealStop != nil {
		close(p.revealStop)
		p.revealStop = nil
	}
}

func (p *Presenter) stopTimers() {
	p.stopReveal()
	if p.errorTimer != nil {
		p.errorTimer.Stop()
		p.errorTimer = nil
	}
}

func (p *Presenter) post(ev interface{}) {
	select {
	case p.events <- ev:
	case <-p.done:
	}
}

func (p *Presenter) state() domain.PresenterState {
	switch {
	case p.errorShown:
		return domain.StateErrorShown
	case p.inFlight > 0:
		return domain.StateHashing
	case p.typing:
		return domain.StateResultRevealing
	default:
		return domain.StateIdle
	}
}

func (p *Presenter) refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.snap = domain.DisplayState{
		State:        p.state(),
		Digest:       p.digest,
		Displayed:    string(p.digest[:p.revealed]),
		Typing:       p.typing,
		ErrorVisible: p.errorShown,
		InFlight:     p.inFlight,
	}
}

func (p *Presenter) emit(ctx context.Context, eventType domain.EventType, message string) {
	p.refresh()

	event := domain.PresenterEvent{
		Type:      eventType,
		SessionID: p.sessionID,
		State:     p.state(),
		Displayed: string(p.digest[:p.revealed]),
		Typing:    p.typing,
		Message:   message,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.WithCtx(ctx).Error("Failed to marshal presenter event", zap.Error(err))
		return
	}

	if err := p.broker.Publish(ctx, domain.PresenterTopic, p.sessionID, payload); err != nil {
		log.WithCtx(ctx).Warn("Failed to publish presenter event",
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}
