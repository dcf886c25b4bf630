package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/tsfshop/storefront/internal/config"
	"github.com/tsfshop/storefront/internal/observability/metrics"
	"github.com/tsfshop/storefront/internal/providers/crm"
	"github.com/tsfshop/storefront/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var accessTemplate = template.Must(template.ParseFS(templateFS, "templates/access_email.html"))

const defaultBuyerName = "trader"

// Link is one purchased product as the buyer sees it in the email.
type Link struct {
	ProductName   string
	URL           string
	DeliveryType  string
	DeliveryValue string
	Instructions  string
	PDFURL        string
	EmailSubject  string
	EmailBody     string
}

type AccessEmail struct {
	To        string
	BuyerName string
	Links     []Link
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Email      email.Provider
	CRM        crm.Provider
	Storefront *config.StorefrontHolder `optional:"true"`
	Metrics    *metrics.Metrics         `optional:"true"`
}

type Dispatcher struct {
	log        *zap.Logger
	email      email.Provider
	crm        crm.Provider
	storefront *config.StorefrontHolder
	metrics    *metrics.Metrics
}

func New(p Params) *Dispatcher {
	crmProvider := p.CRM
	if crmProvider == nil {
		crmProvider = crm.NoOpProvider{}
	}
	emailProvider := p.Email
	if emailProvider == nil {
		emailProvider = email.NewNoOp(p.Log)
	}
	return &Dispatcher{
		log:        p.Log.Named("notification"),
		email:      emailProvider,
		crm:        crmProvider,
		storefront: p.Storefront,
		metrics:    p.Metrics,
	}
}

// SendAccessEmail mails every access link to the buyer.
func (d *Dispatcher) SendAccessEmail(ctx context.Context, msg AccessEmail) error {
	if len(msg.Links) == 0 {
		d.metrics.RecordNotification(ctx, "email", "skipped")
		return nil
	}

	brand := d.storefront.Get().Brand
	subject, body, err := Render(brand, msg)
	if err != nil {
		d.metrics.RecordNotification(ctx, "email", "failed")
		return err
	}

	err = d.email.Send(ctx, email.Message{
		To:       []string{msg.To},
		Subject:  subject,
		HTMLBody: body,
		FromName: brand.FromName,
		ReplyTo:  brand.ReplyTo,
	})
	if err != nil {
		d.metrics.RecordNotification(ctx, "email", "failed")
		return fmt.Errorf("send access email via %s: %w", d.email.Name(), err)
	}

	d.metrics.RecordNotification(ctx, "email", "sent")
	d.log.Info("access email sent", zap.String("transport", d.email.Name()), zap.Int("links", len(msg.Links)))
	return nil
}

func (d *Dispatcher) CreateLead(ctx context.Context, lead crm.Lead) error {
	if err := d.crm.CreateLead(ctx, lead); err != nil {
		d.metrics.RecordNotification(ctx, "crm", "failed")
		return err
	}
	d.metrics.RecordNotification(ctx, "crm", "sent")
	return nil
}

type templateData struct {
	BuyerName string
	Brand     config.Brand
	Links     []Link
}

// Render builds subject and HTML body. A single-product purchase uses the
// product's own subject and body when the catalog defines them.
func Render(brand config.Brand, msg AccessEmail) (string, string, error) {
	buyerName := strings.TrimSpace(msg.BuyerName)
	if buyerName == "" {
		buyerName = defaultBuyerName
	}

	subject := brand.Subject
	if len(msg.Links) == 1 {
		link := msg.Links[0]
		if link.EmailSubject != "" {
			subject = link.EmailSubject
		} else if link.EmailBody != "" && brand.ProductTitle != "" {
			subject = productSubject(brand.ProductTitle, link.ProductName)
		}
		if link.EmailBody != "" {
			return subject, expand(link.EmailBody, buyerName, link), nil
		}
	}

	var buf bytes.Buffer
	err := accessTemplate.Execute(&buf, templateData{BuyerName: buyerName, Brand: brand, Links: msg.Links})
	if err != nil {
		return "", "", fmt.Errorf("render access email: %w", err)
	}
	return subject, buf.String(), nil
}

func productSubject(title, product string) string {
	if strings.Contains(title, "%s") {
		return strings.Replace(title, "%s", product, 1)
	}
	return title + " - " + product
}

// expand fills the per-product body placeholders with escaped values.
func expand(body, buyerName string, link Link) string {
	return strings.NewReplacer(
		"{{name}}", html.EscapeString(buyerName),
		"{{product}}", html.EscapeString(link.ProductName),
		"{{delivery}}", html.EscapeString(link.DeliveryValue),
		"{{access_url}}", html.EscapeString(link.URL),
	).Replace(body)
}
