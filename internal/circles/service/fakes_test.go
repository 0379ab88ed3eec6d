package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Perismakworo/Shesecure2/internal/circles/domain"
)

// memStore is an in-memory CircleStore + InviteStore for service tests.
type memStore struct {
	mu      sync.Mutex
	circles map[string]domain.Circle
	members map[string]map[string]bool
	invites map[string]domain.InviteCode
	tokens  map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		circles: map[string]domain.Circle{},
		members: map[string]map[string]bool{},
		invites: map[string]domain.InviteCode{},
		tokens:  map[string]string{},
	}
}

func (m *memStore) Create(_ context.Context, c *domain.Circle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circles[c.ID] = *c
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*domain.Circle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.circles[id]
	if !ok {
		return nil, domain.ErrCircleNotFound
	}
	return &c, nil
}

func (m *memStore) ListForUser(_ context.Context, email string) ([]domain.Circle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Circle{}
	for id, c := range m.circles {
		if c.LeaderEmail == email || m.members[id][email] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListMembers(_ context.Context, circleID string) ([]domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.circles[circleID]
	out := []domain.Member{m.member(c.LeaderEmail, true)}
	var emails []string
	for e := range m.members[circleID] {
		emails = append(emails, e)
	}
	sort.Strings(emails)
	for _, e := range emails {
		out = append(out, m.member(e, false))
	}
	return out, nil
}

func (m *memStore) member(email string, leader bool) domain.Member {
	mem := domain.Member{Email: email, IsLeader: leader}
	if tok, ok := m.tokens[email]; ok {
		mem.PushToken = &tok
	}
	return mem
}

func (m *memStore) IsParticipant(_ context.Context, circleID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.circles[circleID].LeaderEmail == email || m.members[circleID][email], nil
}

func (m *memStore) AddMember(_ context.Context, circleID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[circleID] == nil {
		m.members[circleID] = map[string]bool{}
	}
	if m.members[circleID][email] {
		return false, nil
	}
	m.members[circleID][email] = true
	return true, nil
}

func (m *memStore) RemoveMember(_ context.Context, circleID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.members[circleID][email] {
		return false, nil
	}
	delete(m.members[circleID], email)
	return true, nil
}

func (m *memStore) Audience(_ context.Context, email string) (*domain.Audience, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []domain.AudienceRow
	for id, c := range m.circles {
		if c.LeaderEmail != email && !m.members[id][email] {
			continue
		}
		rows = append(rows, domain.AudienceRow{Email: c.LeaderEmail, CircleID: id, CircleName: c.Name})
		for e := range m.members[id] {
			rows = append(rows, domain.AudienceRow{Email: e, CircleID: id, CircleName: c.Name})
		}
	}
	return domain.BuildAudience(email, rows), nil
}

func (m *memStore) memberCount(circleID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members[circleID])
}

// memInvites implements InviteStore over the same memStore.
type memInvites struct{ *memStore }

func (m memInvites) Create(_ context.Context, inv *domain.InviteCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.invites[inv.Code]; dup {
		return domain.ErrInviteCollision
	}
	m.invites[inv.Code] = *inv
	return nil
}

func (m memInvites) FindActive(_ context.Context, code string, now time.Time) (*domain.InviteCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[code]
	if !ok || !inv.Active(now) {
		return nil, domain.ErrInviteNotFound
	}
	return &inv, nil
}

type passthroughTx struct{ calls int }

func (p *passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func fixedCodes(codes ...string) CodeGenerator {
	i := 0
	return func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}
