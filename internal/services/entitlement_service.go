package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	resp "koreafit/internal/models/response_models"
	"koreafit/internal/repositories"
	"koreafit/pkg/utils"
)

// Caller identifies who is making a request. Anonymous callers have no
// UserID, resolve to the free plan and are metered by ClientIP.
type Caller struct {
	UserID   string
	Email    string
	IsAdmin  bool
	ClientIP string
}

func (c Caller) Anonymous() bool { return c.UserID == "" }

func (c Caller) usageKey() string {
	if c.Anonymous() {
		return "anon:" + c.ClientIP
	}
	return c.UserID
}

// EntitlementService applies plan features and monthly limits outside the
// export path, which checks its own.
type EntitlementService interface {
	Require(ctx context.Context, caller Caller, feature string) error
	RedactIdeas(ctx context.Context, caller Caller, ideas []resp.Idea) []resp.Idea
	ConsumeIdeaView(ctx context.Context, caller Caller) error
}

type entitlementService struct {
	subs  SubscriptionService
	usage repositories.UsageRepository
	log   *zap.Logger
	now   func() time.Time
}

func NewEntitlementService(subs SubscriptionService, usage repositories.UsageRepository, log *zap.Logger) EntitlementService {
	return &entitlementService{subs: subs, usage: usage, log: log, now: time.Now}
}

func (s *entitlementService) plan(ctx context.Context, caller Caller) (resp.Plan, error) {
	if caller.Anonymous() {
		return freePlan(), nil
	}
	return s.subs.GetUserPlan(ctx, caller.UserID)
}

// Require fails with ErrUnauthorized for anonymous callers and
// ErrFeatureLocked when the caller's plan lacks feature. Admins pass.
func (s *entitlementService) Require(ctx context.Context, caller Caller, feature string) error {
	if caller.Anonymous() {
		return utils.ErrUnauthorized
	}
	if caller.IsAdmin {
		return nil
	}
	plan, err := s.plan(ctx, caller)
	if err != nil {
		return err
	}
	if !featureGates[plan.ID][feature] {
		return fmt.Errorf("%w: %s is not included in the %s plan", utils.ErrFeatureLocked, feature, plan.ID)
	}
	return nil
}

// RedactIdeas strips execution packs unless the caller's plan unlocks them.
// A failed plan lookup redacts.
func (s *entitlementService) RedactIdeas(ctx context.Context, caller Caller, ideas []resp.Idea) []resp.Idea {
	if caller.IsAdmin {
		return ideas
	}
	plan, err := s.plan(ctx, caller)
	if err != nil {
		s.log.Warn("plan lookup failed, redacting execution packs", zap.String("user_id", caller.UserID), zap.Error(err))
		plan = freePlan()
	}
	if featureGates[plan.ID][FeatureExecutionPack] {
		return ideas
	}

	out := make([]resp.Idea, len(ideas))
	copy(out, ideas)
	for i := range out {
		if out[i].ExecutionPack != nil {
			out[i].ExecutionPack = nil
			out[i].PackLocked = true
		}
	}
	return out
}

// ConsumeIdeaView counts one idea detail view against ideas_per_month. The
// counter is bumped before the comparison so concurrent views cannot both
// slip under the limit. Counter failures are logged and let the view through.
func (s *entitlementService) ConsumeIdeaView(ctx context.Context, caller Caller) error {
	plan, err := s.plan(ctx, caller)
	if err != nil {
		return err
	}
	limit, ok := planLimit(plan, LimitIdeasPerMonth)
	if !ok {
		return nil
	}

	used, err := s.usage.IncrementMonthly(ctx, caller.usageKey(), repositories.UsageIdeas, s.now())
	if err != nil {
		s.log.Warn("failed to count idea view", zap.String("viewer", caller.usageKey()), zap.Error(err))
		return nil
	}
	if used > limit {
		return fmt.Errorf("%w: %d idea views per month on the %s plan", utils.ErrUsageLimit, limit, plan.ID)
	}
	return nil
}
