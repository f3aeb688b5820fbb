package signup

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Step is a signup wizard stage
type Step int

const (
	StepUsername Step = iota + 1
	StepReferrer
	StepDetails
)

func (s Step) String() string {
	switch s {
	case StepUsername:
		return "username"
	case StepReferrer:
		return "referrer"
	case StepDetails:
		return "details"
	default:
		return "unknown"
	}
}

// Wizard holds an ephemeral signup draft and the verdicts gating its steps.
// Editing a checked field resets its verdict, and a username edit also
// resets the referrer verdict since referrer checks depend on it.
type Wizard struct {
	mu       sync.Mutex
	checker  Checker
	draft    Draft
	username UsernameVerdict
	referrer ReferrerResult
}

// NewWizard starts an empty draft
func NewWizard(checker Checker) *Wizard {
	w := &Wizard{checker: checker}
	w.Reset()
	return w
}

// Reset destroys the draft, used after submit or when navigating away
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = Draft{}
	w.username = UsernameUnchecked
	w.referrer = ReferrerResult{Verdict: ReferrerUnchecked}
}

// Draft returns a copy of the current draft
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// UsernameVerdict returns the current username verdict
func (w *Wizard) UsernameVerdict() UsernameVerdict {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.username
}

// ReferrerResult returns the current referrer verdict
func (w *Wizard) ReferrerResult() ReferrerResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.referrer
}

// Step returns the furthest revealed step
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step()
}

func (w *Wizard) step() Step {
	if w.username != UsernameAvailable {
		return StepUsername
	}
	if w.referrer.Verdict != ReferrerVerified {
		return StepReferrer
	}
	return StepDetails
}

// SetUsername edits the username
func (w *Wizard) SetUsername(value string) {
	w.Update(func(d *Draft) { d.Username = value })
}

// SetReferrer edits the referrer username
func (w *Wizard) SetReferrer(value string) {
	w.Update(func(d *Draft) { d.ReferrerUsername = value })
}

// Update applies fn to the draft and invalidates the verdicts whose source
// fields changed
func (w *Wizard) Update(fn func(d *Draft)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	before := w.draft
	fn(&w.draft)

	if before.Username != w.draft.Username {
		w.username = UsernameUnchecked
		w.referrer = ReferrerResult{Verdict: ReferrerUnchecked}
	}
	if before.ReferrerUsername != w.draft.ReferrerUsername {
		w.referrer = ReferrerResult{Verdict: ReferrerUnchecked}
	}
}

// CheckUsername runs the username check for the current draft. The verdict
// is dropped if the username was edited while the check was in flight, and
// a failed check leaves it unchecked.
func (w *Wizard) CheckUsername(ctx context.Context) (UsernameVerdict, error) {
	w.mu.Lock()
	candidate := w.draft.Username
	w.mu.Unlock()

	verdict, err := w.checker.CheckUsername(ctx, candidate)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.Username != candidate {
		return w.username, err
	}
	if err != nil {
		w.username = UsernameUnchecked
		w.referrer = ReferrerResult{Verdict: ReferrerUnchecked}
		return w.username, err
	}
	w.username = verdict
	return verdict, nil
}

// CheckReferrer runs the referrer check gated on the username verdict.
func (w *Wizard) CheckReferrer(ctx context.Context) (ReferrerResult, error) {
	w.mu.Lock()
	candidate := w.draft.ReferrerUsername
	username := w.draft.Username
	acting := w.username
	w.mu.Unlock()

	result, err := w.checker.CheckReferrer(ctx, acting, candidate)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.ReferrerUsername != candidate || w.draft.Username != username {
		return w.referrer, err
	}
	if err != nil {
		w.referrer = ReferrerResult{Verdict: ReferrerUnchecked}
		return w.referrer, err
	}
	w.referrer = result
	return result, nil
}

// Ready reports whether every gate passed and the draft is locally valid.
func (w *Wizard) Ready(now time.Time) FieldErrors {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step() {
	case StepUsername:
		return FieldErrors{"username": "check username availability first"}
	case StepReferrer:
		if strings.TrimSpace(w.draft.ReferrerUsername) == "" {
			return FieldErrors{"referrerUsername": "referrer is required"}
		}
		return FieldErrors{"referrerUsername": "verify the referrer first"}
	}

	return w.draft.Validate(now)
}
