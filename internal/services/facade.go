package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zubairashfaque/FuturNod-Agents/internal/agentapi"
	"github.com/zubairashfaque/FuturNod-Agents/internal/metrics"
	"github.com/zubairashfaque/FuturNod-Agents/internal/poller"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/history"
	"go.opentelemetry.io/otel/trace"
)

const certificateGuidance = "\n\nThis may be due to SSL certificate issues with the API server. The server is using a self-signed certificate which browsers typically block."

var (
	noticeAvailable = domain.Notice{
		Title:       "API Service Available",
		Description: "The AI service is currently online and ready to use.",
	}
	noticeUnavailable = domain.Notice{
		Title:       "API Service Unavailable",
		Description: "The AI service is currently unavailable. Please try again later. This may be due to SSL certificate issues with the API server.",
		Destructive: true,
	}
	missingInformation = "Please provide both company name and product description."
)

// AgentAPI is the remote side of a submission.
type AgentAPI interface {
	CheckHealth(ctx context.Context) bool
	StartTask(ctx context.Context, l agentapi.Launch) domain.StartResponse
}

type TaskPoller interface {
	Run(ctx context.Context, agent domain.Agent, requestID string) poller.Outcome
}

// State is an immutable snapshot of the Façade. History is newest first.
type State struct {
	IsLoading     bool                  `json:"isLoading"`
	CurrentResult *domain.SearchResult  `json:"currentResult"`
	History       []domain.SearchResult `json:"history"`
	// Notice is the notice raised by the change that produced this snapshot.
	Notice *domain.Notice `json:"notice,omitempty"`
}

type FacadeOptions struct {
	UserID       string
	SingleFlight bool
	Logger       *slog.Logger
	// Store serves history items that are no longer held in memory.
	Store  history.Sink
	Notify func(domain.Notice)
	Now    func() time.Time
	NewID  func() string
}

type attempt struct {
	result  domain.SearchResult
	key     string
	started time.Time
	done    chan struct{}
}

// Facade owns the searches of one user: it validates and launches them,
// runs one poll loop per launched task and publishes every state change.
type Facade struct {
	api      AgentAPI
	poller   TaskPoller
	recorder HistoryRecorder
	store    history.Sink
	root     context.Context

	userID       string
	singleFlight bool
	logger       *slog.Logger
	notify       func(domain.Notice)
	now          func() time.Time
	newID        func() string

	mu       sync.Mutex
	inflight map[string]*attempt
	byKey    map[string]string
	current  *domain.SearchResult
	history  []domain.SearchResult
	subs     map[int]chan State
	nextSub  int
}

// NewFacade builds a Façade whose poll loops stop when root is cancelled.
func NewFacade(root context.Context, api AgentAPI, p TaskPoller, recorder HistoryRecorder, opts FacadeOptions) *Facade {
	if root == nil {
		root = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NewHistoryRecorder(nil, "", logger, 1)
	}
	f := &Facade{
		api:          api,
		poller:       p,
		recorder:     recorder,
		store:        opts.Store,
		root:         root,
		userID:       opts.UserID,
		singleFlight: opts.SingleFlight,
		logger:       logger.With("user_id", opts.UserID),
		notify:       opts.Notify,
		now:          opts.Now,
		newID:        opts.NewID,
		inflight:     map[string]*attempt{},
		byKey:        map[string]string{},
		subs:         map[int]chan State{},
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.newID == nil {
		f.newID = uuid.NewString
	}
	return f
}

func (f *Facade) UserID() string { return f.userID }

// CheckHealth probes the agent API and raises an availability notice.
func (f *Facade) CheckHealth(ctx context.Context) bool {
	ok := f.api.CheckHealth(ctx)
	n := HealthNotice(ok)
	f.mu.Lock()
	f.publishLocked(&n)
	f.mu.Unlock()
	f.emit(n)
	return ok
}

// HealthNotice is the availability notice raised by CheckHealth.
func HealthNotice(ok bool) domain.Notice {
	if ok {
		return noticeAvailable
	}
	return noticeUnavailable
}

// Submit launches a free-form search. company doubles as the routing
// discriminator. The returned result is loading unless launching failed.
func (f *Facade) Submit(ctx context.Context, company, product string) (domain.SearchResult, error) {
	if strings.TrimSpace(company) == "" || strings.TrimSpace(product) == "" {
		f.validationFailed(missingInformation)
		return domain.SearchResult{}, fmt.Errorf("%w: please provide both company name and product description", domain.ErrValidation)
	}
	return f.submit(ctx, agentapi.Route(company, product, f.logger), company, product)
}

// SubmitStructured launches a search from an agent-specific form.
func (f *Facade) SubmitStructured(ctx context.Context, agent domain.Agent, params domain.StructuredParams) (domain.SearchResult, error) {
	l, err := agentapi.RouteParams(agent, params)
	if err != nil {
		f.validationFailed(validationDescription(err))
		return domain.SearchResult{}, err
	}
	company, product := params.Subject()
	return f.submit(ctx, l, company, product)
}

func (f *Facade) submit(ctx context.Context, l agentapi.Launch, company, product string) (domain.SearchResult, error) {
	key := flightKey(l.Agent, company, product)
	if sr, ok := f.joinInflight(key); ok {
		f.logger.Info("joining in-flight search", "id", sr.ID, "agent", l.Agent.String())
		return sr, nil
	}

	if !f.CheckHealth(ctx) {
		return domain.SearchResult{}, domain.ErrUnhealthy
	}

	sr := domain.NewSearchResult(f.newID(), f.now().UTC(), l.Agent, company, product)
	f.mu.Lock()
	if f.singleFlight {
		if id, ok := f.byKey[key]; ok {
			existing := f.inflight[id].result
			f.mu.Unlock()
			return existing, nil
		}
		f.byKey[key] = sr.ID
	}
	f.inflight[sr.ID] = &attempt{result: sr, key: key, started: f.now(), done: make(chan struct{})}
	f.current = &sr
	f.publishLocked(nil)
	f.mu.Unlock()

	log := f.logger.With("id", sr.ID, "agent", l.Agent.String())
	resp := f.api.StartTask(ctx, l)
	if !resp.Success {
		msg := resp.Message
		if strings.TrimSpace(msg) == "" {
			msg = "Unknown error occurred"
		}
		log.Warn("task launch failed", "err", fmt.Errorf("%w: %s", domain.ErrLaunch, domain.FirstLine(msg)))
		return f.finish(ctx, sr.Failed(withGuidance(msg))), nil
	}

	log.Info("task launched", "request_id", resp.RequestID)
	loopCtx := trace.ContextWithSpan(f.root, trace.SpanFromContext(ctx))
	go f.poll(loopCtx, sr, resp.RequestID)
	return sr, nil
}

func (f *Facade) poll(ctx context.Context, sr domain.SearchResult, requestID string) {
	final := sr.Failed("An unknown error occurred")
	defer func() {
		if p := recover(); p != nil {
			f.logger.Error("poll loop panicked", "id", sr.ID, "panic", fmt.Sprint(p))
			final = sr.Failed(fmt.Sprint(p))
		}
		f.finish(ctx, final)
	}()

	out := f.poller.Run(ctx, sr.Agent, requestID)
	if out.Succeeded() && out.Result != nil {
		final = sr.Succeeded(*out.Result)
		return
	}
	final = sr.Failed(withGuidance(out.Message))
}

// finish applies a terminal result once. Later calls for the same id are ignored.
func (f *Facade) finish(ctx context.Context, final domain.SearchResult) domain.SearchResult {
	f.mu.Lock()
	a, ok := f.inflight[final.ID]
	if !ok {
		f.mu.Unlock()
		return final
	}
	delete(f.inflight, final.ID)
	if f.byKey[a.key] == final.ID {
		delete(f.byKey, a.key)
	}
	if f.current != nil && f.current.ID == final.ID {
		f.current = &final
	}
	f.history = append([]domain.SearchResult{final}, f.history...)

	var n *domain.Notice
	if final.Status == domain.StatusError {
		n = &domain.Notice{Title: "Error", Description: final.ShortError(), Destructive: true}
	}
	f.publishLocked(n)
	f.mu.Unlock()

	agent := final.Agent.String()
	metrics.TasksCompletedTotal.WithLabelValues(agent, string(final.Status)).Inc()
	metrics.TaskLatencySeconds.WithLabelValues(agent, string(final.Status)).Observe(f.now().Sub(a.started).Seconds())
	f.logger.Info("search finished", "id", final.ID, "agent", agent, "status", string(final.Status))

	f.recorder.Record(ctx, domain.HistoryRecordFor(final, f.userID))
	close(a.done)
	if n != nil {
		f.emit(*n)
	}
	return final
}

func (f *Facade) joinInflight(key string) (domain.SearchResult, bool) {
	if !f.singleFlight {
		return domain.SearchResult{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byKey[key]
	if !ok {
		return domain.SearchResult{}, false
	}
	return f.inflight[id].result, true
}

// LoadHistoryItem makes a finished search current. Items no longer in
// memory are read back from the store.
func (f *Facade) LoadHistoryItem(ctx context.Context, id string) (domain.SearchResult, error) {
	f.mu.Lock()
	for _, sr := range f.history {
		if sr.ID == id {
			item := sr
			f.current = &item
			f.publishLocked(nil)
			f.mu.Unlock()
			return item, nil
		}
	}
	f.mu.Unlock()

	if f.store == nil {
		return domain.SearchResult{}, domain.ErrNotFound
	}
	rec, err := f.store.Get(ctx, f.userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.SearchResult{}, domain.ErrNotFound
		}
		return domain.SearchResult{}, fmt.Errorf("load history item: %w", err)
	}
	item := rec.SearchResult()
	f.mu.Lock()
	f.current = &item
	f.publishLocked(nil)
	f.mu.Unlock()
	return item, nil
}

// PersistedHistory lists the user's stored history, newest first.
func (f *Facade) PersistedHistory(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	if f.store == nil {
		return []domain.HistoryRecord{}, nil
	}
	return f.store.List(ctx, f.userID, limit)
}

// Wait blocks until the search with id is terminal and returns it.
func (f *Facade) Wait(ctx context.Context, id string) (domain.SearchResult, error) {
	f.mu.Lock()
	a, ok := f.inflight[id]
	f.mu.Unlock()
	if ok {
		select {
		case <-a.done:
		case <-ctx.Done():
			return a.result, ctx.Err()
		}
	}
	if sr, ok := f.find(id); ok {
		return sr, nil
	}
	return domain.SearchResult{}, domain.ErrNotFound
}

// Get returns the in-flight or finished search with id.
func (f *Facade) Get(id string) (domain.SearchResult, bool) {
	f.mu.Lock()
	a, ok := f.inflight[id]
	f.mu.Unlock()
	if ok {
		return a.result, true
	}
	return f.find(id)
}

func (f *Facade) find(id string) (domain.SearchResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sr := range f.history {
		if sr.ID == id {
			return sr, true
		}
	}
	return domain.SearchResult{}, false
}

func (f *Facade) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked(nil)
}

func (f *Facade) IsLoading() bool { return f.State().IsLoading }

func (f *Facade) CurrentResult() *domain.SearchResult { return f.State().CurrentResult }

func (f *Facade) History() []domain.SearchResult { return f.State().History }

// Subscribe returns a channel of snapshots, starting with the current one.
// Slow subscribers lose intermediate snapshots, never the latest.
func (f *Facade) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 16)
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = ch
	ch <- f.snapshotLocked(nil)
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			close(ch)
			f.mu.Unlock()
		})
	}
}

func (f *Facade) snapshotLocked(n *domain.Notice) State {
	s := State{
		IsLoading: len(f.inflight) > 0,
		History:   make([]domain.SearchResult, len(f.history)),
		Notice:    n,
	}
	copy(s.History, f.history)
	if f.current != nil {
		cur := *f.current
		s.CurrentResult = &cur
	}
	return s
}

func (f *Facade) publishLocked(n *domain.Notice) {
	if len(f.subs) == 0 {
		return
	}
	s := f.snapshotLocked(n)
	for _, ch := range f.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

func (f *Facade) validationFailed(description string) {
	n := domain.Notice{Title: "Missing information", Description: description, Destructive: true}
	f.mu.Lock()
	f.publishLocked(&n)
	f.mu.Unlock()
	f.emit(n)
}

func (f *Facade) emit(n domain.Notice) {
	if f.notify != nil {
		f.notify(n)
	}
}

func flightKey(agent domain.Agent, company, product string) string {
	return agent.String() + "|" + strings.TrimSpace(company) + "|" + strings.TrimSpace(product)
}

// withGuidance appends certificate troubleshooting to network failures.
func withGuidance(msg string) string {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"failed to fetch", "networkerror", "certificate"} {
		if strings.Contains(lower, marker) {
			return msg + certificateGuidance
		}
	}
	return msg
}

// validationDescription turns "missing information: please provide x" into
// "Please provide x."
func validationDescription(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	if msg == "" {
		return missingInformation
	}
	msg = strings.ToUpper(msg[:1]) + msg[1:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}
