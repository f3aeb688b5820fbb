package signup

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// CreateAccountMessage is the signup submission handled on the trusted
// boundary. It carries no referrer id, the referrer is always resolved from
// its username.
type CreateAccountMessage struct {
	Draft
}

func (e CreateAccountMessage) Type() string { return "account.create" }

// ProvisioningState tracks a single creation attempt
type ProvisioningState string

const (
	StateDraft            ProvisioningState = "draft"
	StateValidating       ProvisioningState = "validating"
	StateReferrerResolved ProvisioningState = "referrer_resolved"
	StateIdentityCreated  ProvisioningState = "identity_created"
	StateProfileCreated   ProvisioningState = "profile_created"
	StateCompensated      ProvisioningState = "compensated"
	StateFailed           ProvisioningState = "failed"
)

var provisioningTransitions = map[ProvisioningState]map[ProvisioningState]struct{}{
	StateDraft: {
		StateValidating: {},
	},
	StateValidating: {
		StateReferrerResolved: {},
		StateFailed:           {},
	},
	StateReferrerResolved: {
		StateIdentityCreated: {},
		StateFailed:          {},
	},
	StateIdentityCreated: {
		StateProfileCreated: {},
		StateCompensated:    {},
		StateFailed:         {},
	},
	StateCompensated: {
		StateFailed: {},
	},
}

// TransitionHook observes attempt state changes
type TransitionHook func(from, to ProvisioningState)

type attempt struct {
	state ProvisioningState
	hook  TransitionHook
}

func (a *attempt) to(next ProvisioningState) {
	allowed, ok := provisioningTransitions[a.state]
	if !ok {
		panic(fmt.Sprintf("provisioning: %s is terminal", a.state))
	}
	if _, ok := allowed[next]; !ok {
		panic(fmt.Sprintf("provisioning: transition %s -> %s not allowed", a.state, next))
	}
	prev := a.state
	a.state = next
	if a.hook != nil {
		a.hook(prev, next)
	}
}

// CreateAccountHandler creates an identity and its profile, deleting the
// identity again when the profile can not be stored
type CreateAccountHandler struct {
	identities IdentityStore
	profiles   ProfileStore
	rolePolicy RolePolicy
	logger     Logger
	activity   ActivitySink
	metrics    Recorder
	clock      Clock
	timeout    time.Duration
	onChange   TransitionHook
}

// CreateAccountOption configures a CreateAccountHandler
type CreateAccountOption func(*CreateAccountHandler)

// WithRolePolicy sets the policy deciding granted roles
func WithRolePolicy(policy RolePolicy) CreateAccountOption {
	return func(h *CreateAccountHandler) {
		if policy != nil {
			h.rolePolicy = policy
		}
	}
}

// WithCreateAccountLogger sets the logger
func WithCreateAccountLogger(logger Logger) CreateAccountOption {
	return func(h *CreateAccountHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithCreateAccountActivitySink sets the audit sink
func WithCreateAccountActivitySink(sink ActivitySink) CreateAccountOption {
	return func(h *CreateAccountHandler) {
		h.activity = normalizeActivitySink(sink)
	}
}

// WithCreateAccountMetrics sets the metrics recorder
func WithCreateAccountMetrics(metrics Recorder) CreateAccountOption {
	return func(h *CreateAccountHandler) {
		if metrics != nil {
			h.metrics = metrics
		}
	}
}

// WithCreateAccountClock overrides the clock used for age checks
func WithCreateAccountClock(clock Clock) CreateAccountOption {
	return func(h *CreateAccountHandler) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithCreateAccountTimeout bounds the remote calls of one attempt
func WithCreateAccountTimeout(timeout time.Duration) CreateAccountOption {
	return func(h *CreateAccountHandler) {
		if timeout > 0 {
			h.timeout = timeout
		}
	}
}

// WithTransitionHook observes attempt state changes
func WithTransitionHook(hook TransitionHook) CreateAccountOption {
	return func(h *CreateAccountHandler) {
		h.onChange = hook
	}
}

// NewCreateAccountHandler creates the orchestrator
func NewCreateAccountHandler(identities IdentityStore, profiles ProfileStore, opts ...CreateAccountOption) *CreateAccountHandler {
	h := &CreateAccountHandler{
		identities: identities,
		profiles:   profiles,
		rolePolicy: LowestPrivilegeRolePolicy,
		logger:     defLogger{},
		activity:   noopActivitySink{},
		metrics:    noopRecorder{},
		clock:      time.Now,
		timeout:    10 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Execute implements the command handler shape
func (h *CreateAccountHandler) Execute(ctx context.Context, event CreateAccountMessage) error {
	_, err := h.CreateAccount(ctx, event)
	return err
}

// CreateAccount provisions the account and returns its id
func (h *CreateAccountHandler) CreateAccount(ctx context.Context, event CreateAccountMessage) (string, error) {
	select {
	case <-ctx.Done():
		return "", goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled before account creation",
		)
	default:
		start := time.Now()
		id, err := h.execute(ctx, event)
		h.metrics.ObserveProvisioning(time.Since(start))
		return id, err
	}
}

func (h *CreateAccountHandler) execute(ctx context.Context, event CreateAccountMessage) (string, error) {
	att := &attempt{state: StateDraft, hook: h.onChange}
	att.to(StateValidating)

	if fields := event.Draft.Validate(h.clock()); fields != nil {
		att.to(StateFailed)
		h.metrics.AccountProvisioned("invalid")
		return "", NewInvalidInputError(fields)
	}

	requested, _ := ParseRole(event.Role)
	role := h.rolePolicy(requested)
	dob, _ := ParseDateOfBirth(event.DateOfBirth)
	email := normalizeEmail(event.Email)
	username := strings.TrimSpace(event.Username)

	// Once started an attempt runs to completion even if the caller goes away.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	referrerID, err := h.resolveReferrer(ctx, event.ReferrerUsername)
	if err != nil {
		att.to(StateFailed)
		h.metrics.AccountProvisioned("transport")
		return "", err
	}
	att.to(StateReferrerResolved)

	id, err := h.identities.Create(ctx, email, event.Password)
	if err != nil {
		h.logger.Error("identity creation failed", "error", err, "username", username)
		att.to(StateFailed)
		h.metrics.AccountProvisioned("identity_failed")
		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventAccountRejected,
			Username:  username,
			Metadata:  map[string]any{"kind": string(KindIdentityCreationFailed)},
		})
		return "", NewIdentityCreationError()
	}
	att.to(StateIdentityCreated)

	profile := &Profile{
		ID:          id,
		Username:    username,
		Email:       email,
		FirstName:   strings.TrimSpace(event.FirstName),
		LastName:    strings.TrimSpace(event.LastName),
		Phone:       NormalizePhone(event.Phone),
		DateOfBirth: dob,
		ReferrerID:  referrerID,
		Role:        role,
	}

	if err := h.profiles.Insert(ctx, profile); err != nil {
		reason := profileFailureReason(err, profile)
		h.logger.Error("profile insert failed", "error", err, "account_id", id, "reason", reason)
		h.compensate(ctx, att, id, username)
		att.to(StateFailed)
		h.metrics.AccountProvisioned("profile_failed")
		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventAccountRejected,
			AccountID: id,
			Username:  username,
			Metadata: map[string]any{
				"kind":   string(KindProfileCreationFailed),
				"reason": reason,
			},
		})
		return "", NewProfileCreationError(reason)
	}
	att.to(StateProfileCreated)

	h.metrics.AccountProvisioned("success")
	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventAccountCreated,
		AccountID: id,
		Username:  username,
		Email:     email,
		Metadata: map[string]any{
			"role":        string(role),
			"referrer_id": derefString(referrerID),
		},
	})

	return id, nil
}

func (h *CreateAccountHandler) resolveReferrer(ctx context.Context, username string) (*string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}

	referrer, err := h.profiles.GetByUsername(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		h.logger.Error("referrer lookup failed", "error", err, "referrer", username)
		return nil, NewTransportError(err, "lookup_referrer")
	}

	return &referrer.ID, nil
}

// compensate deletes the identity created for a failed attempt. A failed
// delete is left for reconciliation and never replaces the original error.
// The delete gets its own deadline since the attempt's may already be spent.
func (h *CreateAccountHandler) compensate(ctx context.Context, att *attempt, id, username string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	err := h.identities.Delete(ctx, id)
	if err == nil || IsNotFound(err) {
		att.to(StateCompensated)
		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventCompensationSucceeded,
			AccountID: id,
			Username:  username,
		})
		return
	}

	h.logger.Error("compensating identity delete failed, orphaned identity needs reconciliation",
		"error", err, "account_id", id)
	h.metrics.CompensationFailed()
	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventCompensationFailed,
		AccountID: id,
		Username:  username,
		Metadata:  map[string]any{"error": err.Error()},
	})
}

// profileFailureReason maps a rejected insert to a reason. A check violation
// on a profile whose role needs a referrer and has none is the referrer rule.
func profileFailureReason(err error, profile *Profile) string {
	switch ConstraintOf(err) {
	case ConstraintUnique:
		return ReasonUsernameTaken
	case ConstraintForeignKey:
		return ReasonReferrerRequired
	case ConstraintCheck:
		if profile.ReferrerID == nil && profile.Role.RequiresReferrer() {
			return ReasonReferrerRequired
		}
		if strings.Contains(strings.ToLower(ConstraintDetail(err)), "referrer") {
			return ReasonReferrerRequired
		}
	}
	return ReasonStoreRejected
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
