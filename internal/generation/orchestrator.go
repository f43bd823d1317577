package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fortuna/internal/services"
)

// Policy selects what happens once every generation path is exhausted.
type Policy int

const (
	// PolicyPlaceholder substitutes deterministic safe-default content so the
	// pipeline never crashes. Useful for staging; dangerous in production.
	PolicyPlaceholder Policy = iota
	// PolicyFail surfaces an *ExhaustedError so the run aborts rather than
	// publish fabricated content.
	PolicyFail
)

// ParsePolicy maps the config string to a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "placeholder":
		return PolicyPlaceholder, nil
	case "fail":
		return PolicyFail, nil
	default:
		return PolicyPlaceholder, fmt.Errorf("fallback policy: unsupported value %q", value)
	}
}

// Timing holds every cooldown the orchestrator observes. All delays are
// fixed per error class rather than exponential: the upstream free tiers
// throttle on fixed windows, so waiting a known interval beats guessing.
type Timing struct {
	// RateLimitCooldown applies after a rate-limit failure when no backup
	// credential remains to rotate to.
	RateLimitCooldown time.Duration
	// GenericCooldown applies after any other per-candidate failure.
	GenericCooldown time.Duration
	// PassPause separates full passes over the candidate list. Transient
	// provider overload often clears within tens of seconds.
	PassPause time.Duration
	// SecondaryCooldown follows a successful secondary-provider call to
	// respect that provider's own limits.
	SecondaryCooldown time.Duration
	// SuccessCooldown follows a successful candidate call.
	SuccessCooldown time.Duration
	// MaxPasses bounds how many times the full candidate list is retried.
	MaxPasses int
}

// DefaultTiming returns the stock cooldown schedule.
func DefaultTiming() Timing {
	return Timing{
		RateLimitCooldown: 30 * time.Second,
		GenericCooldown:   3 * time.Second,
		PassPause:         30 * time.Second,
		SecondaryCooldown: 5 * time.Second,
		SuccessCooldown:   2 * time.Second,
		MaxPasses:         3,
	}
}

// Config assembles an Orchestrator. Backend and Credentials drive the
// primary candidate loop; Secondary is optional and used per SecondaryFirst.
type Config struct {
	Backend     Backend
	Catalog     CatalogProvider
	Secondary   SecondaryProvider
	Credentials *Credentials

	// SecondaryFirst prioritizes the secondary provider ahead of the
	// candidate loop instead of keeping it as a last resort.
	SecondaryFirst bool

	Policy Policy
	Timing Timing

	// DisplayName names the subject of the content (e.g. a zodiac sign) for
	// safe-default interpolation.
	DisplayName string

	// Candidates, when non-empty, bypasses catalog discovery. Tests use this.
	Candidates []Candidate

	Logger  *slog.Logger
	Sleeper func(time.Duration)
	Now     func() time.Time
}

// Orchestrator resolves generation requests across every configured path.
// It is single-threaded by design: credential rotation state is not guarded
// by a lock, so concurrent producers must each construct their own instance.
type Orchestrator struct {
	backend        Backend
	catalog        CatalogProvider
	secondary      SecondaryProvider
	secondaryFirst bool
	creds          *Credentials
	policy         Policy
	timing         Timing
	displayName    string
	candidates     []Candidate
	logger         *slog.Logger
	sleeper        func(time.Duration)
	now            func() time.Time
}

// New validates the configuration and constructs an Orchestrator. Having no
// primary credentials and no secondary provider is a fatal configuration
// error: there would be no live path at all.
func New(cfg Config) (*Orchestrator, error) {
	creds := cfg.Credentials
	if creds == nil {
		creds = NewCredentials()
	}
	if creds.Len() == 0 && cfg.Secondary == nil {
		return nil, services.Wrap(services.ErrConfiguration, "generation", "new",
			"no primary credentials and no secondary provider configured", nil)
	}
	if creds.Len() > 0 && cfg.Backend == nil {
		return nil, services.Wrap(services.ErrConfiguration, "generation", "new",
			"primary credentials configured without a backend", nil)
	}
	timing := cfg.Timing
	if timing.MaxPasses <= 0 {
		timing.MaxPasses = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		backend:        cfg.Backend,
		catalog:        cfg.Catalog,
		secondary:      cfg.Secondary,
		secondaryFirst: cfg.SecondaryFirst,
		creds:          creds,
		policy:         cfg.Policy,
		timing:         timing,
		displayName:    cfg.DisplayName,
		candidates:     cfg.Candidates,
		logger:         logger,
		sleeper:        cfg.Sleeper,
		now:            now,
	}, nil
}

// Candidates returns the ranked candidate shortlist, discovering it on first
// use and caching it for the process lifetime.
func (o *Orchestrator) Candidates(ctx context.Context) []Candidate {
	if len(o.candidates) == 0 {
		o.candidates = Rank(ctx, o.catalog, o.logger)
	}
	return o.candidates
}

// CredentialIndex reports the active primary credential position.
func (o *Orchestrator) CredentialIndex() int {
	return o.creds.Index()
}

// The resolution state machine. Each state either produces a result, raises
// a terminal error, or names the next state; Generate just drives the loop.
type resolveState int

const (
	stateSecondaryPrimary resolveState = iota
	stateCandidatePass
	stateRotateCredential
	stateSecondaryFallback
	stateTerminal
)

// runState is the per-request bookkeeping discarded after resolution.
type runState struct {
	req            Request
	attempts       []Attempt
	rotated        bool
	secondaryDone  bool
	abandonPrimary bool
	pass           int
}

func (r *runState) record(target string, err error) {
	r.attempts = append(r.attempts, Attempt{Target: target, Err: err})
}

// Generate resolves one request, trying every available path before
// conceding. It blocks for the configured cooldowns; total latency is
// bounded by the pass limit and the fixed delays.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	run := &runState{req: req}
	st := stateCandidatePass
	if o.secondary != nil && o.secondaryFirst {
		st = stateSecondaryPrimary
	}
	for {
		next, result, err := o.step(ctx, st, run)
		if err != nil || result != nil {
			return result, err
		}
		st = next
	}
}

func (o *Orchestrator) step(ctx context.Context, st resolveState, run *runState) (resolveState, Result, error) {
	switch st {
	case stateSecondaryPrimary:
		result, err := o.trySecondary(ctx, run.req)
		if err == nil {
			if perr := o.pause(ctx, o.timing.SecondaryCooldown); perr != nil {
				return 0, nil, perr
			}
			return 0, result, nil
		}
		run.secondaryDone = true
		run.record("secondary", err)
		o.logger.Warn("secondary provider failed, falling back to candidates",
			slog.String("task", run.req.TaskLabel), slog.Any("error", err))
		return stateCandidatePass, nil, nil

	case stateCandidatePass:
		return o.candidatePass(ctx, run)

	case stateRotateCredential:
		// The rotation itself happened inside the candidate pass; this state
		// clears the accumulated errors and restarts the loop from the top.
		run.attempts = run.attempts[:0]
		return stateCandidatePass, nil, nil

	case stateSecondaryFallback:
		if o.secondary != nil && !run.secondaryDone {
			result, err := o.trySecondary(ctx, run.req)
			if err == nil {
				if perr := o.pause(ctx, o.timing.SecondaryCooldown); perr != nil {
					return 0, nil, perr
				}
				return 0, result, nil
			}
			run.secondaryDone = true
			run.record("secondary", err)
			o.logger.Warn("secondary provider failed",
				slog.String("task", run.req.TaskLabel), slog.Any("error", err))
		}
		return stateTerminal, nil, nil

	default: // stateTerminal
		if o.policy == PolicyPlaceholder {
			o.logger.Error("all providers exhausted, substituting placeholder content",
				slog.String("task", run.req.TaskLabel), slog.Int("attempts", len(run.attempts)))
			return 0, SafeDefault(run.req.TaskLabel, o.displayName, o.now()), nil
		}
		return 0, nil, &ExhaustedError{Task: run.req.TaskLabel, Attempts: run.attempts}
	}
}

func (o *Orchestrator) candidatePass(ctx context.Context, run *runState) (resolveState, Result, error) {
	cred, ok := o.creds.Current()
	if !ok || run.abandonPrimary {
		return stateSecondaryFallback, nil, nil
	}

	for _, candidate := range o.Candidates(ctx) {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		o.logger.Info("attempting candidate",
			slog.String("task", run.req.TaskLabel),
			slog.String("candidate", candidate.ID),
			slog.Int("credential_index", o.creds.Index()))

		raw, err := o.complete(ctx, candidate.ID, cred, run.req)
		if err == nil {
			doc, _, decodeErr := Decode(raw)
			if decodeErr == nil {
				if perr := o.pause(ctx, o.timing.SuccessCooldown); perr != nil {
					return 0, nil, perr
				}
				return 0, doc, nil
			}
			err = decodeErr
		}
		run.record(candidate.ID, err)

		switch Classify(err) {
		case ClassDailyQuota:
			// Nothing on this provider will succeed until the quota resets;
			// skip the remaining candidates and outer passes entirely.
			o.logger.Warn("daily free quota exhausted on primary provider",
				slog.String("task", run.req.TaskLabel))
			run.abandonPrimary = true
			return stateSecondaryFallback, nil, nil
		case ClassRateLimited:
			if !run.rotated && o.creds.Advance() {
				run.rotated = true
				o.logger.Info("rate limited, rotating to backup credential",
					slog.Int("credential_index", o.creds.Index()))
				return stateRotateCredential, nil, nil
			}
			if perr := o.pause(ctx, o.timing.RateLimitCooldown); perr != nil {
				return 0, nil, perr
			}
		default:
			o.logger.Warn("candidate failed",
				slog.String("candidate", candidate.ID), slog.Any("error", err))
			if perr := o.pause(ctx, o.timing.GenericCooldown); perr != nil {
				return 0, nil, perr
			}
		}
	}

	run.pass++
	if run.pass < o.timing.MaxPasses {
		o.logger.Info("candidate list exhausted, pausing before next pass",
			slog.Int("pass", run.pass), slog.Duration("pause", o.timing.PassPause))
		if perr := o.pause(ctx, o.timing.PassPause); perr != nil {
			return 0, nil, perr
		}
		return stateCandidatePass, nil, nil
	}
	return stateSecondaryFallback, nil, nil
}

// complete attempts a candidate in strict structured-output mode, retrying
// once in plain-text mode when the candidate rejects that mode specifically.
func (o *Orchestrator) complete(ctx context.Context, candidateID, credential string, req Request) (string, error) {
	raw, err := o.backend.Complete(ctx, candidateID, credential, req.System, req.User, true)
	if err == nil {
		return raw, nil
	}
	if Classify(err) != ClassBadRequest {
		return "", err
	}
	o.logger.Info("candidate rejected structured mode, retrying as plain text",
		slog.String("candidate", candidateID))
	user := req.User + "\n\nReturn ONLY a raw JSON object. No markdown, no code fences, no commentary."
	return o.backend.Complete(ctx, candidateID, credential, req.System, user, false)
}

func (o *Orchestrator) trySecondary(ctx context.Context, req Request) (Result, error) {
	raw, err := o.secondary.Complete(ctx, req.System, req.User)
	if err != nil {
		return nil, err
	}
	doc, _, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (o *Orchestrator) pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if o.sleeper != nil {
		o.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
