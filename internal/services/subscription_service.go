package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"koreafit/internal/models/db_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/internal/repositories"
	"koreafit/pkg/utils"
)

type SubscriptionService interface {
	ListPlans() []resp.Plan
	GetUserPlan(ctx context.Context, userID string) (resp.Plan, error)
	CanAccessFeature(ctx context.Context, userID, feature string) (bool, error)
	CheckUsageLimit(ctx context.Context, userID, kind string, used int64) (bool, error)
	GetSubscription(ctx context.Context, userID string) (*resp.SubscriptionView, error)
	Subscribe(ctx context.Context, userID, planID string) (*resp.SubscriptionView, error)
	Activate(ctx context.Context, userID string) (*resp.SubscriptionView, error)
	Cancel(ctx context.Context, userID string) (*resp.SubscriptionView, error)
}

type subscriptionService struct {
	repo repositories.SubscriptionRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewSubscriptionService(repo repositories.SubscriptionRepository, log *zap.Logger) SubscriptionService {
	return &subscriptionService{repo: repo, log: log, now: time.Now}
}

func (s *subscriptionService) ListPlans() []resp.Plan {
	out := make([]resp.Plan, 0, len(planCatalog))
	for _, p := range planCatalog {
		out = append(out, clonePlan(p))
	}
	return out
}

// GetUserPlan derives the plan from status and period only. A trialing,
// cancelled or expired subscription resolves to free whatever its PlanID says.
func (s *subscriptionService) GetUserPlan(ctx context.Context, userID string) (resp.Plan, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return freePlan(), fmt.Errorf("%w: get subscription: %v", utils.ErrDatabaseError, err)
	}
	return s.effectivePlan(sub), nil
}

// live reports whether sub is active with an unexpired period.
func (s *subscriptionService) live(sub *db_models.Subscription) bool {
	if sub == nil || sub.Status != db_models.SubStatusActive {
		return false
	}
	return sub.CurrentPeriodEnd == 0 || sub.CurrentPeriodEnd > s.now().Unix()
}

func (s *subscriptionService) effectivePlan(sub *db_models.Subscription) resp.Plan {
	if !s.live(sub) {
		return freePlan()
	}
	plan, ok := findPlan(sub.PlanID)
	if !ok {
		s.log.Warn("subscription references unknown plan", zap.String("user_id", sub.UserID), zap.String("plan_id", sub.PlanID))
		return freePlan()
	}
	return plan
}

func (s *subscriptionService) CanAccessFeature(ctx context.Context, userID, feature string) (bool, error) {
	plan, err := s.GetUserPlan(ctx, userID)
	if err != nil {
		return false, err
	}
	return featureGates[plan.ID][feature], nil
}

// CheckUsageLimit reports whether one more unit of kind is allowed given
// used so far. A kind the plan does not declare is unlimited.
func (s *subscriptionService) CheckUsageLimit(ctx context.Context, userID, kind string, used int64) (bool, error) {
	plan, err := s.GetUserPlan(ctx, userID)
	if err != nil {
		return false, err
	}
	limit, ok := planLimit(plan, kind)
	if !ok {
		return true, nil
	}
	return used < limit, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, userID string) (*resp.SubscriptionView, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: get subscription: %v", utils.ErrDatabaseError, err)
	}
	return s.toView(userID, sub), nil
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, planID string) (*resp.SubscriptionView, error) {
	plan, ok := findPlan(planID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", utils.ErrInvalidPlan, planID)
	}

	sub, err := s.repo.Mutate(ctx, userID, func(current *db_models.Subscription) (*db_models.Subscription, error) {
		now := s.now()
		if plan.ID == PlanFree {
			if current == nil || current.Status == db_models.SubStatusCancelled {
				return nil, nil
			}
			cancelled := now.Unix()
			current.Status = db_models.SubStatusCancelled
			current.PendingPlanID = ""
			current.CancelledAt = &cancelled
			return current, nil
		}

		// A live subscriber keeps the current plan until the change is
		// activated; asking for the current plan again withdraws the change.
		if s.live(current) {
			switch {
			case current.PlanID != plan.ID:
				current.PendingPlanID = plan.ID
			case current.PendingPlanID != "":
				current.PendingPlanID = ""
			default:
				return nil, fmt.Errorf("%w: already subscribed to %s", utils.ErrInvalidTransition, plan.ID)
			}
			return current, nil
		}

		next := current
		if next == nil {
			next = &db_models.Subscription{UserID: userID}
		}
		next.PlanID = plan.ID
		next.PendingPlanID = ""
		next.Status = db_models.SubStatusTrialing
		next.CurrentPeriodStart = now.Unix()
		next.CurrentPeriodEnd = now.AddDate(0, 0, plan.TrialDays).Unix()
		next.CancelledAt = nil
		return next, nil
	})
	if err != nil {
		return nil, s.mutationError(err)
	}

	s.log.Info("subscription changed", zap.String("user_id", userID), zap.String("plan_id", plan.ID))
	return s.toView(userID, sub), nil
}

// Activate moves a trialing subscription, or an active one with a pending
// plan change, to active on the new plan for one month from now.
func (s *subscriptionService) Activate(ctx context.Context, userID string) (*resp.SubscriptionView, error) {
	sub, err := s.repo.Mutate(ctx, userID, func(current *db_models.Subscription) (*db_models.Subscription, error) {
		if current == nil {
			return nil, utils.ErrNoSubscription
		}
		switch {
		case current.Status == db_models.SubStatusTrialing:
		case current.Status == db_models.SubStatusActive && current.PendingPlanID != "":
			current.PlanID = current.PendingPlanID
			current.PendingPlanID = ""
		default:
			return nil, fmt.Errorf("%w: cannot activate from %s", utils.ErrInvalidTransition, current.Status)
		}
		now := s.now()
		current.Status = db_models.SubStatusActive
		current.CurrentPeriodStart = now.Unix()
		current.CurrentPeriodEnd = now.AddDate(0, 1, 0).Unix()
		return current, nil
	})
	if err != nil {
		return nil, s.mutationError(err)
	}

	s.log.Info("subscription activated", zap.String("user_id", userID), zap.String("plan_id", sub.PlanID))
	return s.toView(userID, sub), nil
}

func (s *subscriptionService) Cancel(ctx context.Context, userID string) (*resp.SubscriptionView, error) {
	sub, err := s.repo.Mutate(ctx, userID, func(current *db_models.Subscription) (*db_models.Subscription, error) {
		if current == nil || current.Status == db_models.SubStatusCancelled {
			return nil, utils.ErrNoSubscription
		}
		cancelled := s.now().Unix()
		current.Status = db_models.SubStatusCancelled
		current.PendingPlanID = ""
		current.CancelledAt = &cancelled
		return current, nil
	})
	if err != nil {
		return nil, s.mutationError(err)
	}

	s.log.Info("subscription cancelled", zap.String("user_id", userID))
	return s.toView(userID, sub), nil
}

// ---- helpers ----

func (s *subscriptionService) mutationError(err error) error {
	if isDomainError(err, utils.ErrNoSubscription, utils.ErrInvalidTransition, utils.ErrInvalidPlan) {
		return err
	}
	return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
}

func (s *subscriptionService) toView(userID string, sub *db_models.Subscription) *resp.SubscriptionView {
	view := &resp.SubscriptionView{
		UserID:        userID,
		PlanID:        PlanFree,
		Status:        string(db_models.SubStatusActive),
		EffectivePlan: s.effectivePlan(sub),
	}
	if sub == nil {
		return view
	}
	view.PlanID = sub.PlanID
	view.PendingPlanID = sub.PendingPlanID
	view.Status = string(sub.Status)
	view.CurrentPeriodStart = unixPtr(sub.CurrentPeriodStart)
	view.CurrentPeriodEnd = unixPtr(sub.CurrentPeriodEnd)
	if sub.CancelledAt != nil {
		view.CancelledAt = unixPtr(*sub.CancelledAt)
	}
	return view
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
