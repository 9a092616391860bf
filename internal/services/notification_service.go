package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"koreafit/internal/models/request_models"
	resp "koreafit/internal/models/response_models"
	"koreafit/internal/repositories"
	"koreafit/pkg/utils"
)

const (
	EventDelivered  = "email.delivered"
	EventBounced    = "email.bounced"
	EventComplained = "email.complained"
)

type NotificationService interface {
	Handle(ctx context.Context, req request_models.NotificationRequest, caller Caller) (*resp.NotificationResult, error)
	HandleDeliveryEvent(ctx context.Context, ev request_models.DeliveryEvent) (*resp.NotificationResult, error)
}

type notificationService struct {
	subscribers  repositories.NewsletterSubscriberRepository
	newsletter   NewsletterService
	regulatory   RegulatoryService
	entitlements EntitlementService
	mail         IMailService
	log          *zap.Logger
}

func NewNotificationService(
	subscribers repositories.NewsletterSubscriberRepository,
	newsletter NewsletterService,
	regulatory RegulatoryService,
	entitlements EntitlementService,
	mail IMailService,
	log *zap.Logger,
) NotificationService {
	return &notificationService{
		subscribers:  subscribers,
		newsletter:   newsletter,
		regulatory:   regulatory,
		entitlements: entitlements,
		mail:         mail,
		log:          log,
	}
}

// Handle runs one notification action. Subscribe and unsubscribe are open to
// anyone; send_test is admin only; send_alert needs the regulatory_alerts
// feature and, for non-admins, goes only to the caller's own address.
func (s *notificationService) Handle(ctx context.Context, req request_models.NotificationRequest, caller Caller) (*resp.NotificationResult, error) {
	action := strings.TrimSpace(req.Action)
	switch action {
	case request_models.ActionSubscribe, request_models.ActionUnsubscribe,
		request_models.ActionSendTest, request_models.ActionSendAlert:
	default:
		return nil, fmt.Errorf("%w: %q", utils.ErrInvalidAction, req.Action)
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, action, email, caller); err != nil {
		return nil, err
	}

	switch action {
	case request_models.ActionSubscribe:
		var userID *string
		if !caller.Anonymous() {
			userID = &caller.UserID
		}
		return s.subscribe(ctx, email, userID, req.Industries)
	case request_models.ActionUnsubscribe:
		return s.unsubscribe(ctx, email)
	case request_models.ActionSendTest:
		return s.sendTest(ctx, email)
	default:
		return s.sendAlert(ctx, email, req.Industries)
	}
}

func (s *notificationService) authorize(ctx context.Context, action, email string, caller Caller) error {
	switch action {
	case request_models.ActionSendTest:
		if caller.Anonymous() {
			return utils.ErrUnauthorized
		}
		if !caller.IsAdmin {
			return fmt.Errorf("%w: send_test is admin only", utils.ErrForbidden)
		}
	case request_models.ActionSendAlert:
		if err := s.entitlements.Require(ctx, caller, FeatureRegulatoryAlerts); err != nil {
			return err
		}
		if !caller.IsAdmin && !strings.EqualFold(email, caller.Email) {
			return fmt.Errorf("%w: alerts go only to the account's own address", utils.ErrForbidden)
		}
	}
	return nil
}

func (s *notificationService) subscribe(ctx context.Context, email string, userID *string, industries []string) (*resp.NotificationResult, error) {
	if _, err := s.subscribers.Subscribe(ctx, email, userID, industries); err != nil {
		return nil, fmt.Errorf("%w: subscribe: %v", utils.ErrDatabaseError, err)
	}
	// welcome mail is best-effort
	if err := s.mail.SendWelcome(ctx, email); err != nil {
		s.log.Warn("welcome mail failed", zap.String("email", email), zap.Error(err))
	}
	return &resp.NotificationResult{
		Action:  request_models.ActionSubscribe,
		Email:   email,
		Message: "뉴스레터 구독이 완료되었습니다.",
	}, nil
}

func (s *notificationService) unsubscribe(ctx context.Context, email string) (*resp.NotificationResult, error) {
	ok, err := s.subscribers.Deactivate(ctx, email, "unsubscribed")
	if err != nil {
		return nil, fmt.Errorf("%w: unsubscribe: %v", utils.ErrDatabaseError, err)
	}
	msg := "구독이 해지되었습니다."
	if !ok {
		msg = "구독 중인 이메일이 아닙니다."
	}
	return &resp.NotificationResult{Action: request_models.ActionUnsubscribe, Email: email, Message: msg}, nil
}

func (s *notificationService) sendTest(ctx context.Context, email string) (*resp.NotificationResult, error) {
	res, err := s.newsletter.SendTest(ctx, email)
	if err != nil {
		return nil, err
	}
	msg := "테스트 뉴스레터를 발송했습니다."
	if res.Failed > 0 {
		msg = "테스트 뉴스레터 발송에 실패했습니다."
	} else if res.Simulated {
		msg = "이메일 설정이 없어 발송을 시뮬레이션했습니다."
	}
	return &resp.NotificationResult{Action: request_models.ActionSendTest, Email: email, Message: msg, Sent: res.Sent}, nil
}

func (s *notificationService) sendAlert(ctx context.Context, email string, industries []string) (*resp.NotificationResult, error) {
	alerts, err := s.regulatory.Alerts(ctx, industries)
	if err != nil {
		return nil, err
	}
	result := &resp.NotificationResult{Action: request_models.ActionSendAlert, Email: email}
	if len(alerts) == 0 {
		result.Message = "보낼 규제 알림이 없습니다."
		return result, nil
	}
	if err := s.mail.SendRegulatoryAlerts(ctx, email, alerts); err != nil {
		return nil, err
	}
	result.Sent = len(alerts)
	result.Message = fmt.Sprintf("규제 알림 %d건을 발송했습니다.", len(alerts))
	return result, nil
}

// HandleDeliveryEvent deactivates every recipient of a bounced or
// complained message. Other event types are acknowledged and ignored.
func (s *notificationService) HandleDeliveryEvent(ctx context.Context, ev request_models.DeliveryEvent) (*resp.NotificationResult, error) {
	var reason string
	switch ev.Type {
	case EventBounced:
		reason = "bounced"
	case EventComplained:
		reason = "complained"
	default:
		return &resp.NotificationResult{Action: ev.Type, Message: "ignored"}, nil
	}

	deactivated := 0
	for _, to := range ev.Data.To {
		email, err := normalizeEmail(to)
		if err != nil {
			s.log.Warn("delivery event with invalid recipient", zap.String("to", to))
			continue
		}
		ok, err := s.subscribers.Deactivate(ctx, email, reason)
		if err != nil {
			return nil, fmt.Errorf("%w: deactivate subscriber: %v", utils.ErrDatabaseError, err)
		}
		if ok {
			deactivated++
			s.log.Info("subscriber deactivated", zap.String("email", email), zap.String("reason", reason))
		}
	}
	return &resp.NotificationResult{
		Action:  ev.Type,
		Message: fmt.Sprintf("%d subscriber(s) deactivated", deactivated),
		Sent:    deactivated,
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", fmt.Errorf("%w: %q", utils.ErrInvalidEmail, raw)
	}
	return strings.ToLower(addr.Address), nil
}
