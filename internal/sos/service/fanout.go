package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Perismakworo/Shesecure2/internal/apperr"
	circledomain "github.com/Perismakworo/Shesecure2/internal/circles/domain"
	locdomain "github.com/Perismakworo/Shesecure2/internal/locations/domain"
	"github.com/Perismakworo/Shesecure2/internal/logging"
	"github.com/Perismakworo/Shesecure2/internal/metrics"
	"github.com/Perismakworo/Shesecure2/internal/notify/email"
	"github.com/Perismakworo/Shesecure2/internal/notify/push"
	"github.com/Perismakworo/Shesecure2/internal/sos/domain"
	"github.com/Perismakworo/Shesecure2/internal/users"
)

type AudienceResolver interface {
	ResolveAudience(ctx context.Context, email string) (*circledomain.Audience, error)
}

type LocationWriter interface {
	UpdateLocation(ctx context.Context, email string, lat, lon float64) (locdomain.Sample, error)
}

type NameLookup interface {
	DisplayName(ctx context.Context, email string) (string, error)
}

type TokenPruner interface {
	Prune(ctx context.Context, tokens []string) (int64, error)
}

type DispatchLog interface {
	Create(ctx context.Context, d *domain.Dispatch) error
	RecordDelivery(ctx context.Context, id string, del domain.Delivery) error
	Finish(ctx context.Context, id string, at time.Time) error
	Get(ctx context.Context, id string) (*domain.Dispatch, error)
	ListByUser(ctx context.Context, email string) ([]string, error)
}

type Deps struct {
	Audience  AudienceResolver
	Locations LocationWriter
	Names     NameLookup
	Tokens    TokenPruner
	Log       DispatchLog
	// Push and Email may be nil when the channel is disabled. Their
	// deliveries are then recorded as skipped.
	Push    push.Sender
	Email   email.Sender
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type Options struct {
	// Concurrency bounds in-flight provider calls per SOS.
	Concurrency  int
	PushTimeout  time.Duration
	EmailTimeout time.Duration
}

// Engine fans an SOS out to every circle peer over push and email. Delivery
// runs after Trigger returns; a failure for one recipient is recorded and
// never affects another.
type Engine struct {
	deps  Deps
	opts  Options
	now   func() time.Time
	newID func() string

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewEngine(deps Deps, opts Options) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.PushTimeout <= 0 {
		opts.PushTimeout = 10 * time.Second
	}
	if opts.EmailTimeout <= 0 {
		opts.EmailTimeout = 10 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Engine{
		deps:  deps,
		opts:  opts,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// plan is everything the background delivery needs.
type plan struct {
	dispatch *domain.Dispatch
	push     push.Message
	mail     email.Message
	tokens   []string
	owners   map[string][]string // token -> peer emails
	emails   []string
}

// Trigger records an SOS from owner at (lat, lon) and schedules delivery.
// Only a failure to resolve the audience is returned; everything after that
// is best effort.
func (e *Engine) Trigger(ctx context.Context, owner string, lat, lon float64) (*domain.Trigger, error) {
	if err := locdomain.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx, e.deps.Logger)

	aud, err := e.deps.Audience.ResolveAudience(ctx, owner)
	if err != nil {
		return nil, apperr.Internal("sos.send", err)
	}

	name := users.FallbackName(owner)
	if e.deps.Names != nil {
		if n, err := e.deps.Names.DisplayName(ctx, owner); err != nil {
			log.Warn("sos name lookup failed", zap.String("owner", owner), zap.Error(err))
		} else if n != "" {
			name = n
		}
	}

	if e.deps.Locations != nil {
		if _, err := e.deps.Locations.UpdateLocation(ctx, owner, lat, lon); err != nil {
			log.Warn("sos location write failed", zap.String("owner", owner), zap.Error(err))
		}
	}

	p := e.buildPlan(owner, name, lat, lon, aud)

	if err := e.deps.Log.Create(ctx, p.dispatch); err != nil {
		log.Warn("sos dispatch log create failed", zap.String("sos_id", p.dispatch.ID), zap.Error(err))
	}
	if e.deps.Metrics != nil {
		e.deps.Metrics.ObserveSOS(aud.Size())
	}

	log.Info("sos triggered",
		zap.String("sos_id", p.dispatch.ID),
		zap.String("owner", owner),
		zap.Int("audience", aud.Size()),
		zap.Int("push_tokens", len(p.tokens)))

	trig := &domain.Trigger{SOSID: p.dispatch.ID, AudienceSize: aud.Size()}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		// Nothing drains background work any more, so deliver on the caller.
		log.Warn("sos engine closed, delivering inline", zap.String("sos_id", p.dispatch.ID))
		e.deliver(context.WithoutCancel(ctx), log, p)
		return trig, nil
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		e.deliver(context.WithoutCancel(ctx), log, p)
	}()

	return trig, nil
}

// Wait blocks until every scheduled delivery has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close stops scheduling background deliveries and waits for the ones in
// flight. Triggers that arrive afterwards deliver before returning.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

// Get returns a dispatch to its owner. Anyone else gets not found.
func (e *Engine) Get(ctx context.Context, id, caller string) (*domain.Dispatch, error) {
	d, err := e.deps.Log.Get(ctx, id)
	if errors.Is(err, domain.ErrDispatchNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, apperr.Internal("sos.get", err)
	}
	if d.Owner != caller {
		return nil, domain.ErrDispatchNotFound
	}
	return d, nil
}

// List returns summaries of the owner's unexpired dispatches, newest first.
func (e *Engine) List(ctx context.Context, owner string) ([]domain.Summary, error) {
	ids, err := e.deps.Log.ListByUser(ctx, owner)
	if err != nil {
		return nil, apperr.Internal("sos.list", err)
	}

	out := make([]domain.Summary, 0, len(ids))
	for _, id := range ids {
		d, err := e.deps.Log.Get(ctx, id)
		if errors.Is(err, domain.ErrDispatchNotFound) {
			// the index outlives records that expired first
			continue
		}
		if err != nil {
			return nil, apperr.Internal("sos.list", err)
		}
		if d.Owner != owner {
			continue
		}
		out = append(out, d.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (e *Engine) buildPlan(owner, name string, lat, lon float64, aud *circledomain.Audience) *plan {
	id := e.newID()
	now := e.now().UTC()
	latStr := strconv.FormatFloat(lat, 'f', -1, 64)
	lonStr := strconv.FormatFloat(lon, 'f', -1, 64)

	title := fmt.Sprintf("%s needs help", name)
	body := fmt.Sprintf("%s has triggered an SOS. View their current location in the SheSecure application.", name)

	p := &plan{
		dispatch: &domain.Dispatch{
			ID:           id,
			Owner:        owner,
			Latitude:     lat,
			Longitude:    lon,
			AudienceSize: aud.Size(),
			CreatedAt:    now,
		},
		push: push.Message{
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":      "sos",
				"from":      owner,
				"latitude":  latStr,
				"longitude": lonStr,
				"sos_id":    id,
			},
		},
		mail:   email.Message{Subject: title, Body: body},
		owners: map[string][]string{},
	}

	for _, peer := range aud.Peers {
		pushDel := domain.Delivery{Channel: domain.ChannelPush, Recipient: peer.Email, Status: domain.StatusPending, UpdatedAt: now}
		switch {
		case e.deps.Push == nil:
			pushDel.Status, pushDel.Error = domain.StatusSkipped, "push disabled"
		case peer.PushToken == nil || *peer.PushToken == "":
			pushDel.Status, pushDel.Error = domain.StatusSkipped, "no push token"
		case !push.ValidToken(*peer.PushToken):
			pushDel.Status, pushDel.Error = domain.StatusSkipped, "invalid push token"
		default:
			tok := *peer.PushToken
			if _, seen := p.owners[tok]; !seen {
				p.tokens = append(p.tokens, tok)
			}
			p.owners[tok] = append(p.owners[tok], peer.Email)
		}

		mailDel := domain.Delivery{Channel: domain.ChannelEmail, Recipient: peer.Email, Status: domain.StatusPending, UpdatedAt: now}
		if e.deps.Email == nil {
			mailDel.Status, mailDel.Error = domain.StatusSkipped, "email disabled"
		} else {
			p.emails = append(p.emails, peer.Email)
		}

		p.dispatch.Deliveries = append(p.dispatch.Deliveries, pushDel, mailDel)
	}
	return p
}

func (e *Engine) deliver(ctx context.Context, log *zap.Logger, p *plan) {
	id := p.dispatch.ID
	e.countSkipped(p.dispatch)

	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)

	if e.deps.Push != nil {
		for _, batch := range push.Chunk(p.tokens, e.deps.Push.MaxBatchSize()) {
			g.Go(func() error {
				e.guard(log, id, "push", func() { e.sendPushBatch(ctx, log, p, batch) })
				return nil
			})
		}
	}
	if e.deps.Email != nil {
		for _, to := range p.emails {
			g.Go(func() error {
				e.guard(log, id, "email", func() { e.sendEmail(ctx, log, p, to) })
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := e.deps.Log.Finish(ctx, id, e.now().UTC()); err != nil {
		log.Warn("sos dispatch finish failed", zap.String("sos_id", id), zap.Error(err))
	}
	log.Info("sos delivery finished", zap.String("sos_id", id))
}

// guard keeps a panicking provider call from taking the process down.
func (e *Engine) guard(log *zap.Logger, id, channel string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("sos delivery panicked",
				zap.String("sos_id", id),
				zap.String("channel", channel),
				zap.Any("panic", r))
		}
	}()
	fn()
}

func (e *Engine) sendPushBatch(ctx context.Context, log *zap.Logger, p *plan, batch []string) {
	id := p.dispatch.ID
	cctx, cancel := context.WithTimeout(ctx, e.opts.PushTimeout)
	defer cancel()

	res, err := e.deps.Push.SendBatch(cctx, batch, p.push)
	if err != nil {
		log.Warn("sos push batch failed", zap.String("sos_id", id), zap.Int("tokens", len(batch)), zap.Error(err))
		e.observePushBatch(metrics.OutcomeFailed, 0, len(batch))
		for _, tok := range batch {
			e.recordAll(ctx, log, id, domain.ChannelPush, p.owners[tok], domain.StatusFailed, err)
		}
		return
	}

	e.observePushBatch(metrics.OutcomeSent, len(res.Sent), len(res.Failed))
	for _, tok := range res.Sent {
		e.recordAll(ctx, log, id, domain.ChannelPush, p.owners[tok], domain.StatusSent, nil)
	}
	for _, f := range res.Failed {
		e.recordAll(ctx, log, id, domain.ChannelPush, p.owners[f.Token], domain.StatusFailed, f.Err)
	}

	if dead := res.Unregistered(); len(dead) > 0 && e.deps.Tokens != nil {
		n, err := e.deps.Tokens.Prune(ctx, dead)
		if err != nil {
			log.Warn("push token prune failed", zap.String("sos_id", id), zap.Error(err))
		} else {
			log.Info("pruned unregistered push tokens", zap.String("sos_id", id), zap.Int64("count", n))
		}
	}
}

func (e *Engine) sendEmail(ctx context.Context, log *zap.Logger, p *plan, to string) {
	cctx, cancel := context.WithTimeout(ctx, e.opts.EmailTimeout)
	defer cancel()

	msg := p.mail
	msg.To = to
	err := e.deps.Email.Send(cctx, msg)

	status, outcome := domain.StatusSent, metrics.OutcomeSent
	if err != nil {
		status, outcome = domain.StatusFailed, metrics.OutcomeFailed
	}
	if e.deps.Metrics != nil {
		e.deps.Metrics.IncEmail(outcome)
	}
	e.recordAll(ctx, log, p.dispatch.ID, domain.ChannelEmail, []string{to}, status, err)
}

func (e *Engine) recordAll(ctx context.Context, log *zap.Logger, id string, ch domain.Channel, recipients []string, status domain.Status, cause error) {
	for _, r := range recipients {
		del := domain.Delivery{Channel: ch, Recipient: r, Status: status, UpdatedAt: e.now().UTC()}
		if cause != nil {
			del.Error = apperr.Delivery("sos."+string(ch), cause).Error()
			log.Warn("sos delivery failed",
				zap.String("sos_id", id),
				zap.String("channel", string(ch)),
				zap.String("recipient", r),
				zap.Error(cause))
		}
		if err := e.deps.Log.RecordDelivery(ctx, id, del); err != nil {
			log.Warn("sos delivery record failed", zap.String("sos_id", id), zap.Error(err))
		}
	}
}

func (e *Engine) observePushBatch(outcome string, sent, failed int) {
	if e.deps.Metrics == nil {
		return
	}
	e.deps.Metrics.IncPushBatch(outcome)
	e.deps.Metrics.AddPush(metrics.OutcomeSent, sent)
	e.deps.Metrics.AddPush(metrics.OutcomeFailed, failed)
}

func (e *Engine) countSkipped(d *domain.Dispatch) {
	if e.deps.Metrics == nil {
		return
	}
	for _, del := range d.Deliveries {
		if del.Status != domain.StatusSkipped {
			continue
		}
		switch del.Channel {
		case domain.ChannelPush:
			e.deps.Metrics.AddPush(metrics.OutcomeSkipped, 1)
		case domain.ChannelEmail:
			e.deps.Metrics.IncEmail(metrics.OutcomeSkipped)
		}
	}
}
