package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/tsfshop/storefront/internal/config"
	"go.uber.org/zap"
)

var ErrIncompleteLead = errors.New("crm: lead needs an email and a configured stage")

type KommoClient struct {
	cfg        config.KommoConfig
	httpClient *http.Client
	log        *zap.Logger
}

func NewKommo(cfg config.KommoConfig, httpClient *http.Client, log *zap.Logger) *KommoClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &KommoClient{cfg: cfg, httpClient: httpClient, log: log.Named("providers.crm.kommo")}
}

func (c *KommoClient) Name() string { return "kommo" }

func (c *KommoClient) statusID(stage Stage) int64 {
	switch stage {
	case StageCompleted:
		return c.cfg.StatusCompleted
	case StageExpired:
		return c.cfg.StatusExpired
	case StageRejected:
		return c.cfg.StatusRejected
	}
	return 0
}

type fieldValue struct {
	Value    string `json:"value"`
	EnumCode string `json:"enum_code,omitempty"`
}

type customField struct {
	FieldID   int64        `json:"field_id,omitempty"`
	FieldCode string       `json:"field_code,omitempty"`
	Values    []fieldValue `json:"values"`
}

type contact struct {
	Name         string        `json:"name"`
	CustomFields []customField `json:"custom_fields_values,omitempty"`
}

type embedded struct {
	Contacts []contact `json:"contacts"`
}

type leadBody struct {
	Name         string        `json:"name"`
	Price        int64         `json:"price"`
	PipelineID   int64         `json:"pipeline_id"`
	StatusID     int64         `json:"status_id"`
	CustomFields []customField `json:"custom_fields_values,omitempty"`
	Embedded     embedded      `json:"_embedded"`
}

func (c *KommoClient) buildLead(lead Lead) leadBody {
	source := lead.Source
	if source == "" {
		source = "Stripe"
	}
	name := strings.TrimSpace(lead.Name)
	if name == "" {
		name = "Cliente " + source
	}

	var leadFields []customField
	if c.cfg.EmailFieldID != 0 {
		leadFields = append(leadFields, customField{FieldID: c.cfg.EmailFieldID, Values: []fieldValue{{Value: lead.Email}}})
	}
	if c.cfg.WhatsAppFieldID != 0 && lead.WhatsApp != "" {
		leadFields = append(leadFields, customField{FieldID: c.cfg.WhatsAppFieldID, Values: []fieldValue{{Value: lead.WhatsApp}}})
	}

	var contactFields []customField
	if lead.WhatsApp != "" {
		contactFields = append(contactFields, customField{FieldCode: "PHONE", Values: []fieldValue{{Value: lead.WhatsApp, EnumCode: "OTHER"}}})
	}
	contactFields = append(contactFields, customField{FieldCode: "EMAIL", Values: []fieldValue{{Value: lead.Email, EnumCode: "WORK"}}})

	return leadBody{
		Name:         source + " · " + lead.Email,
		Price:        int64(math.Round(float64(lead.AmountCents) / 100)),
		PipelineID:   c.cfg.PipelineID,
		StatusID:     c.statusID(lead.Stage),
		CustomFields: leadFields,
		Embedded:     embedded{Contacts: []contact{{Name: name, CustomFields: contactFields}}},
	}
}

// CreateLead is a no-op when Kommo is not configured.
func (c *KommoClient) CreateLead(ctx context.Context, lead Lead) error {
	if c.cfg.BaseURL == "" || c.cfg.APIToken == "" || c.cfg.PipelineID == 0 {
		c.log.Debug("kommo not configured, lead skipped", zap.String("stage", string(lead.Stage)))
		return nil
	}
	lead.Email = strings.TrimSpace(lead.Email)
	if lead.Email == "" || c.statusID(lead.Stage) == 0 {
		return ErrIncompleteLead
	}

	payload, err := json.Marshal([]leadBody{c.buildLead(lead)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v4/leads", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kommo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("kommo: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	c.log.Info("kommo lead created", zap.String("stage", string(lead.Stage)))
	return nil
}
