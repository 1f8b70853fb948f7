package onboarding

import "time"

// Record is the per-user onboarding progress row.
type Record struct {
	UserID                 string
	CurrentStep            Step
	HasCompletedOnboarding bool
	TaxID                  string
	OpenFinanceConnected   bool
	ConnectionDate         *time.Time
	BelvoLinkID            string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewRecord returns the implicit state of a user that has never written progress.
func NewRecord(userID string) Record {
	return Record{
		UserID:      userID,
		CurrentStep: StepWelcome,
	}
}

// State projects the sequencer state out of a persisted record.
func (r Record) State() State {
	step := r.CurrentStep
	if step == 0 {
		step = StepWelcome
	}
	return State{Current: step, Completed: r.HasCompletedOnboarding || step == StepFinished}
}

// Patch lists the fields one write touches. Nil fields are left as stored,
// so concurrent writers only overwrite what they own.
type Patch struct {
	CurrentStep            *Step
	HasCompletedOnboarding *bool
	TaxID                  *string
	OpenFinanceConnected   *bool
	ConnectionDate         *time.Time
	ClearConnectionDate    bool
	BelvoLinkID            *string
	At                     time.Time
}

func (p Patch) IsEmpty() bool {
	return p.CurrentStep == nil &&
		p.HasCompletedOnboarding == nil &&
		p.TaxID == nil &&
		p.OpenFinanceConnected == nil &&
		p.ConnectionDate == nil &&
		!p.ClearConnectionDate &&
		p.BelvoLinkID == nil
}

// ApplyTo merges the patch into an existing record.
func (p Patch) ApplyTo(record Record) Record {
	out := record
	if p.CurrentStep != nil {
		out.CurrentStep = *p.CurrentStep
	}
	if p.HasCompletedOnboarding != nil {
		out.HasCompletedOnboarding = *p.HasCompletedOnboarding
	}
	if p.TaxID != nil {
		out.TaxID = *p.TaxID
	}
	if p.OpenFinanceConnected != nil {
		out.OpenFinanceConnected = *p.OpenFinanceConnected
	}
	if p.ClearConnectionDate {
		out.ConnectionDate = nil
	} else if p.ConnectionDate != nil {
		at := *p.ConnectionDate
		out.ConnectionDate = &at
	}
	if p.BelvoLinkID != nil {
		out.BelvoLinkID = *p.BelvoLinkID
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = p.At
	}
	out.UpdatedAt = p.At
	return out
}
