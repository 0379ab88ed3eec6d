package domain

import (
	"sort"
	"time"
)

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Delivery is the outcome of one channel for one recipient.
type Delivery struct {
	Channel   Channel   `json:"channel"`
	Recipient string    `json:"recipient"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key identifies a delivery within its dispatch.
func (d Delivery) Key() string {
	return string(d.Channel) + ":" + d.Recipient
}

// Dispatch is the record of one SOS and everything sent for it.
type Dispatch struct {
	ID           string     `json:"id"`
	Owner        string     `json:"owner"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	AudienceSize int        `json:"audienceSize"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	Deliveries   []Delivery `json:"deliveries"`
}

// SortDeliveries orders deliveries by channel then recipient.
func (d *Dispatch) SortDeliveries() {
	sort.Slice(d.Deliveries, func(i, j int) bool {
		if d.Deliveries[i].Channel == d.Deliveries[j].Channel {
			return d.Deliveries[i].Recipient < d.Deliveries[j].Recipient
		}
		return d.Deliveries[i].Channel < d.Deliveries[j].Channel
	})
}

// Counts tallies deliveries by status.
func (d *Dispatch) Counts() map[Status]int {
	out := map[Status]int{}
	for _, del := range d.Deliveries {
		out[del.Status]++
	}
	return out
}

// Summary is a dispatch without its per-recipient rows.
type Summary struct {
	ID           string         `json:"id"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	AudienceSize int            `json:"audienceSize"`
	CreatedAt    time.Time      `json:"createdAt"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	Counts       map[Status]int `json:"counts"`
}

func (d *Dispatch) Summary() Summary {
	return Summary{
		ID:           d.ID,
		Latitude:     d.Latitude,
		Longitude:    d.Longitude,
		AudienceSize: d.AudienceSize,
		CreatedAt:    d.CreatedAt,
		CompletedAt:  d.CompletedAt,
		Counts:       d.Counts(),
	}
}

// Trigger is what the caller gets back once fan-out has been scheduled.
type Trigger struct {
	SOSID        string
	AudienceSize int
}
