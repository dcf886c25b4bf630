package crm

import "context"

// Stage is the pipeline status a lead lands in, by payment outcome.
type Stage string

const (
	StageCompleted Stage = "completed"
	StageExpired   Stage = "expired"
	StageRejected  Stage = "rejected"
)

type Lead struct {
	Stage       Stage
	Email       string
	Name        string
	WhatsApp    string
	AmountCents int64
	Source      string
}

type Provider interface {
	Name() string
	CreateLead(ctx context.Context, lead Lead) error
}

type NoOpProvider struct{}

func (NoOpProvider) Name() string { return "noop" }

func (NoOpProvider) CreateLead(ctx context.Context, lead Lead) error { return nil }
