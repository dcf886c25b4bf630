package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	accessdomain "github.com/tsfshop/storefront/internal/access/domain"
	catalogdomain "github.com/tsfshop/storefront/internal/catalog/domain"
	"github.com/tsfshop/storefront/internal/clock"
	"github.com/tsfshop/storefront/internal/fulfillment/domain"
	"github.com/tsfshop/storefront/internal/notification"
	"github.com/tsfshop/storefront/internal/observability/logger"
	"github.com/tsfshop/storefront/internal/observability/metrics"
	paymentdomain "github.com/tsfshop/storefront/internal/payment/domain"
	"github.com/tsfshop/storefront/internal/providers/crm"
	"github.com/tsfshop/storefront/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	lockTTL          = 60 * time.Second
	notifyTimeout    = 30 * time.Second
	defaultBuyerName = "trader"
)

// Notifier delivers the post-purchase email and CRM lead.
type Notifier interface {
	SendAccessEmail(ctx context.Context, msg notification.AccessEmail) error
	CreateLead(ctx context.Context, lead crm.Lead) error
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle `optional:"true"`
	Log       *zap.Logger
	Repo      domain.Repository
	Gateway   paymentdomain.CheckoutGateway
	Webhooks  paymentdomain.WebhookVerifier `optional:"true"`
	Catalog   catalogdomain.Repository
	Access    accessdomain.Service
	Notifier  Notifier
	Clock     clock.Clock
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	repo     domain.Repository
	gateway  paymentdomain.CheckoutGateway
	webhooks paymentdomain.WebhookVerifier
	catalog  catalogdomain.Repository
	access   accessdomain.Service
	notifier Notifier
	clock    clock.Clock
	metrics  *metrics.Metrics

	background sync.WaitGroup
}

func New(p Params) domain.Service {
	svc := &Service{
		log:      p.Log.Named("fulfillment.service"),
		repo:     p.Repo,
		gateway:  p.Gateway,
		webhooks: p.Webhooks,
		catalog:  p.Catalog,
		access:   p.Access,
		notifier: p.Notifier,
		clock:    p.Clock,
		metrics:  p.Metrics,
	}
	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{OnStop: svc.Drain})
	}
	return svc
}

// Drain waits for notifications still being sent in the background.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reconcile turns a paid checkout session into access records at most once.
func (s *Service) Reconcile(ctx context.Context, sessionID string, trigger domain.Trigger) (*domain.Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ErrInvalidSessionID
	}

	ctx, span := otel.Tracer("tsfshop/fulfillment").Start(ctx, "fulfillment.reconcile")
	defer span.End()
	span.SetAttributes(attribute.String("trigger", string(trigger)))

	ctx, correlationID := correlation.EnsureCorrelationID(ctx)
	log := logger.WithSession(logger.WithContext(ctx, s.log), sessionID).With(zap.String("trigger", string(trigger)))

	res, outcome, err := s.reconcile(ctx, log, sessionID, correlationID, trigger)
	s.metrics.RecordFulfillment(ctx, string(trigger), outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	return res, nil
}

func (s *Service) reconcile(ctx context.Context, log *zap.Logger, sessionID, correlationID string, trigger domain.Trigger) (*domain.Result, string, error) {
	marker, err := s.repo.FindMarker(ctx, sessionID)
	if err != nil {
		return nil, "error", err
	}
	if marker != nil {
		log.Debug("session already fulfilled")
		return marker.Result(), "cached", nil
	}

	lockToken, acquired, err := s.repo.Lock(ctx, sessionID, lockTTL)
	if err != nil {
		return nil, "error", err
	}
	if !acquired {
		marker, err := s.repo.FindMarker(ctx, sessionID)
		if err != nil {
			return nil, "error", err
		}
		if marker != nil {
			return marker.Result(), "cached", nil
		}
		log.Info("session fulfillment already running")
		return nil, "in_progress", domain.ErrInProgress
	}
	defer func() {
		if err := s.repo.Unlock(context.WithoutCancel(ctx), sessionID, lockToken); err != nil {
			log.Warn("failed to release fulfillment lock", zap.Error(err))
		}
	}()

	// The previous holder may have committed between the first read and the lock.
	marker, err = s.repo.FindMarker(ctx, sessionID)
	if err != nil {
		return nil, "error", err
	}
	if marker != nil {
		return marker.Result(), "cached", nil
	}

	session, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return nil, "provider_error", err
	}
	if !session.Paid() {
		log.Info("session not paid", zap.String("payment_status", session.PaymentStatus))
		return nil, "not_paid", domain.ErrPaymentNotCompleted
	}

	email := BuyerEmail(session)
	if email == "" {
		log.Warn("paid session without buyer email")
		return nil, "missing_email", domain.ErrMissingBuyerEmail
	}

	products, err := s.catalog.Get(ctx)
	if err != nil {
		return nil, "error", err
	}

	links := []domain.AccessLink{}
	issued := map[string]catalogdomain.Product{}
	for _, item := range session.LineItems {
		product, ok := MatchProduct(products, item)
		if !ok {
			log.Warn("line item does not match any product",
				zap.String("description", item.Description),
				zap.String("product_id", item.ProductID),
			)
			continue
		}
		if !product.GrantsAccess() {
			log.Debug("product has no digital delivery", zap.String("product_id", product.ID))
			continue
		}

		rec, err := s.access.Issue(ctx, accessdomain.IssueRequest{
			ProductID:     product.ID,
			ProductName:   product.Name,
			Email:         email,
			DeliveryType:  string(product.DeliveryType),
			DeliveryValue: product.DeliveryValue,
			Instructions:  product.Instructions,
			PDFURL:        product.PDFURL,
			SessionID:     sessionID,
			PriceCents:    product.PriceCents,
			Currency:      product.Currency,
		})
		if err != nil {
			return nil, "error", err
		}
		s.metrics.RecordAccessRecords(ctx, string(product.DeliveryType), 1)
		issued[rec.Token] = product
		links = append(links, domain.AccessLink{
			Token:         rec.Token,
			ProductID:     rec.ProductID,
			ProductName:   rec.ProductName,
			URL:           s.access.AccessURL(rec.Token),
			DeliveryType:  rec.DeliveryType,
			DeliveryValue: rec.DeliveryValue,
			Instructions:  rec.Instructions,
			PDFURL:        rec.PDFURL,
		})
	}

	committed, stored, err := s.repo.CommitMarker(ctx, domain.Marker{
		SessionID:     sessionID,
		Email:         email,
		AccessLinks:   links,
		CreatedAt:     s.clock.Now(),
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, "error", err
	}
	if !stored {
		log.Warn("another writer fulfilled the session first, discarding own access records", zap.Int("discarded", len(links)))
		return committed.Result(), "cached", nil
	}

	log.Info("session fulfilled", zap.Int("access_links", len(links)), zap.Int("line_items", len(session.LineItems)))
	// Webhook deliveries get their 200 without waiting on email and CRM.
	if trigger == domain.TriggerWebhook {
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			s.notify(ctx, log, session, email, links, issued)
		}()
	} else {
		s.notify(ctx, log, session, email, links, issued)
	}
	return committed.Result(), "fulfilled", nil
}

// notify is best effort: the purchase is already committed.
func (s *Service) notify(ctx context.Context, log *zap.Logger, session *paymentdomain.Session, email string, links []domain.AccessLink, issued map[string]catalogdomain.Product) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if len(links) > 0 {
		msg := notification.AccessEmail{
			To:        email,
			BuyerName: buyerName(session),
		}
		for _, link := range links {
			msg.Links = append(msg.Links, productLink(issued[link.Token], link.URL))
		}
		if err := s.notifier.SendAccessEmail(ctx, msg); err != nil {
			log.Error("access email failed", zap.Error(err))
		}
	}

	lead := leadFromSession(session, crm.StageCompleted)
	lead.Email = email
	if err := s.notifier.CreateLead(ctx, lead); err != nil {
		log.Warn("crm lead failed", zap.String("stage", string(lead.Stage)), zap.Error(err))
	}
}

// SendProductEmail mails a product's access email outside a checkout. No
// access record is issued, so the email carries the product's own delivery
// details only.
func (s *Service) SendProductEmail(ctx context.Context, req domain.ProductEmailRequest) error {
	to := strings.TrimSpace(req.Email)
	productID := strings.TrimSpace(req.ProductID)
	if to == "" || productID == "" {
		return domain.ErrInvalidProductEmail
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return domain.ErrInvalidProductEmail
	}

	products, err := s.catalog.Get(ctx)
	if err != nil {
		return err
	}
	idx := catalogdomain.FindByID(products, productID)
	if idx < 0 {
		return catalogdomain.ErrNotFound
	}
	product := products[idx]

	err = s.notifier.SendAccessEmail(ctx, notification.AccessEmail{
		To:        to,
		BuyerName: req.BuyerName,
		Links:     []notification.Link{productLink(product, "")},
	})
	if err != nil {
		s.log.Error("product email failed", zap.String("product_id", product.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}
	s.log.Info("product email sent", zap.String("product_id", product.ID))
	return nil
}

func productLink(product catalogdomain.Product, accessURL string) notification.Link {
	return notification.Link{
		ProductName:   product.Name,
		URL:           accessURL,
		DeliveryType:  string(product.DeliveryType),
		DeliveryValue: product.DeliveryValue,
		Instructions:  product.Instructions,
		PDFURL:        product.PDFURL,
		EmailSubject:  product.EmailSubject,
		EmailBody:     product.EmailBody,
	}
}

// HandleWebhook verifies and dispatches a provider event. Only verification
// failures are returned as errors.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*domain.WebhookOutcome, error) {
	if s.webhooks == nil || !s.webhooks.Enabled() {
		return nil, paymentdomain.ErrWebhookDisabled
	}

	event, err := s.webhooks.ConstructEvent(payload, signature)
	if err != nil {
		s.log.Warn("webhook rejected", zap.Error(err))
		if errors.Is(err, paymentdomain.ErrWebhookDisabled) {
			return nil, err
		}
		return nil, paymentdomain.ErrInvalidSignature
	}

	s.metrics.RecordWebhookEvent(ctx, "stripe", event.Type)
	out := &domain.WebhookOutcome{EventID: event.ID, EventType: event.Type, Action: domain.ActionIgnored}
	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	switch event.Type {
	case paymentdomain.EventCheckoutCompleted, paymentdomain.EventCheckoutAsyncSucceeded:
		if event.Session == nil {
			return out, nil
		}
		if !event.Session.Paid() {
			out.Action = domain.ActionPending
			log.Info("checkout completed without payment yet", zap.String("session_id", event.Session.ID))
			return out, nil
		}
		if _, err := s.Reconcile(ctx, event.Session.ID, domain.TriggerWebhook); err != nil {
			out.Action = domain.ActionFailed
			log.Error("webhook fulfillment failed", zap.String("session_id", event.Session.ID), zap.Error(err))
			return out, nil
		}
		out.Action = domain.ActionFulfilled

	case paymentdomain.EventCheckoutExpired, paymentdomain.EventCheckoutAsyncFailed:
		if event.Session == nil {
			return out, nil
		}
		stage := crm.StageExpired
		if event.Type == paymentdomain.EventCheckoutAsyncFailed {
			stage = crm.StageRejected
		}
		out.Action = s.createLead(ctx, log, leadFromSession(event.Session, stage))

	case paymentdomain.EventPaymentIntentPaymentFailed:
		if event.Payment == nil {
			return out, nil
		}
		out.Action = s.createLead(ctx, log, crm.Lead{
			Stage:       crm.StageRejected,
			Email:       event.Payment.Email,
			Name:        event.Payment.BuyerName,
			WhatsApp:    event.Payment.Metadata["buyer_whatsapp"],
			AmountCents: event.Payment.Amount,
			Source:      "Stripe",
		})

	default:
		log.Debug("webhook event ignored")
	}
	return out, nil
}

func (s *Service) createLead(ctx context.Context, log *zap.Logger, lead crm.Lead) string {
	if lead.Email == "" {
		log.Warn("event without buyer email, lead skipped")
		return domain.ActionIgnored
	}
	if err := s.notifier.CreateLead(ctx, lead); err != nil {
		log.Warn("crm lead failed", zap.String("stage", string(lead.Stage)), zap.Error(err))
		return domain.ActionFailed
	}
	return domain.ActionLeadCreated
}

// BuyerEmail prefers what the buyer typed at Stripe over the storefront form.
func BuyerEmail(session *paymentdomain.Session) string {
	return firstNonEmpty(
		session.CustomerDetailsEmail,
		session.CustomerEmail,
		session.Metadata["buyer_email"],
		session.Metadata["email"],
	)
}

// MatchProduct links a line item by the product id carried in Stripe product
// metadata, then by exact name.
func MatchProduct(products []catalogdomain.Product, item paymentdomain.SessionLineItem) (catalogdomain.Product, bool) {
	if item.ProductID != "" {
		if idx := catalogdomain.FindByID(products, item.ProductID); idx >= 0 {
			return products[idx], true
		}
	}
	for _, name := range []string{item.Description, item.ProductName} {
		if name == "" {
			continue
		}
		if idx := catalogdomain.FindByName(products, name); idx >= 0 {
			return products[idx], true
		}
	}
	return catalogdomain.Product{}, false
}

func buyerName(session *paymentdomain.Session) string {
	name := firstNonEmpty(session.Metadata["buyer_name"], session.CustomerDetailsName)
	if name == "" {
		return defaultBuyerName
	}
	return name
}

func leadFromSession(session *paymentdomain.Session, stage crm.Stage) crm.Lead {
	return crm.Lead{
		Stage: stage,
		Email: firstNonEmpty(
			session.Metadata["buyer_email"],
			session.CustomerDetailsEmail,
			session.Metadata["email"],
			session.CustomerEmail,
		),
		Name:        firstNonEmpty(session.Metadata["buyer_name"], session.CustomerDetailsName),
		WhatsApp:    firstNonEmpty(session.Metadata["buyer_whatsapp"], session.CustomerDetailsPhone),
		AmountCents: session.AmountTotal,
		Source:      "Stripe",
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
