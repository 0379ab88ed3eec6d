package domain

import (
	"sort"
	"time"
)

// Circle is a named group with exactly one leader. The leader is never
// stored in circle_members; their membership is implicit.
type Circle struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	LeaderEmail string    `json:"leaderEmail"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Member is a row of a circle's roster, leader included.
type Member struct {
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	PushToken *string `json:"pushToken"`
	IsLeader  bool    `json:"isLeader"`
}

// InviteCode admits users to a circle while now < ExpiresAt. Codes are
// multi-use and never updated.
type InviteCode struct {
	Code      string    `json:"code"`
	CircleID  string    `json:"circleId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (i *InviteCode) Active(now time.Time) bool {
	return now.Before(i.ExpiresAt)
}

type CircleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Peer is a user sharing at least one circle with the audience owner.
type Peer struct {
	Email     string
	Name      string
	PhotoURL  *string
	PushToken *string
	Circles   []CircleRef
}

// Audience is every user who shares a circle with Owner, Owner excluded.
// Location visibility and SOS fan-out both read from it.
type Audience struct {
	Owner string
	Peers []Peer
}

// AudienceRow is one (peer, shared circle) pair as read from storage.
type AudienceRow struct {
	Email      string
	Name       string
	PhotoURL   *string
	PushToken  *string
	CircleID   string
	CircleName string
}

// BuildAudience folds per-circle rows into one Peer per email. Rows for
// the owner are dropped. Peers are ordered by email, circles by name.
func BuildAudience(owner string, rows []AudienceRow) *Audience {
	byEmail := make(map[string]*Peer)
	seen := make(map[string]map[string]bool)
	for _, r := range rows {
		if r.Email == owner || r.Email == "" {
			continue
		}
		p, ok := byEmail[r.Email]
		if !ok {
			p = &Peer{Email: r.Email, Name: r.Name, PhotoURL: r.PhotoURL, PushToken: r.PushToken}
			byEmail[r.Email] = p
			seen[r.Email] = make(map[string]bool)
		}
		if !seen[r.Email][r.CircleID] {
			seen[r.Email][r.CircleID] = true
			p.Circles = append(p.Circles, CircleRef{ID: r.CircleID, Name: r.CircleName})
		}
	}

	a := &Audience{Owner: owner, Peers: make([]Peer, 0, len(byEmail))}
	for _, p := range byEmail {
		sort.Slice(p.Circles, func(i, j int) bool {
			if p.Circles[i].Name == p.Circles[j].Name {
				return p.Circles[i].ID < p.Circles[j].ID
			}
			return p.Circles[i].Name < p.Circles[j].Name
		})
		a.Peers = append(a.Peers, *p)
	}
	sort.Slice(a.Peers, func(i, j int) bool { return a.Peers[i].Email < a.Peers[j].Email })
	return a
}

func (a *Audience) Contains(email string) bool {
	for _, p := range a.Peers {
		if p.Email == email {
			return true
		}
	}
	return false
}

func (a *Audience) Emails() []string {
	out := make([]string, 0, len(a.Peers))
	for _, p := range a.Peers {
		out = append(out, p.Email)
	}
	return out
}

func (a *Audience) Size() int {
	return len(a.Peers)
}
