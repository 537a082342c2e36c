// Package syncer pushes conversation-derived client data into the Airtable
// roster so the table stays current without manual entry.
package syncer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/clinicalopez/dashboard-api/internal/airtable"
	"github.com/clinicalopez/dashboard-api/internal/conversation"
	"github.com/clinicalopez/dashboard-api/internal/source"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

var tracer = otel.Tracer("dashboard.internal.syncer")

// fallbackName is written to Airtable when a conversation never yielded a
// usable display name. The table has no notion of the internal sentinel.
const fallbackName = "Cliente WhatsApp"

var nonDigits = regexp.MustCompile(`\D`)

// RecordStore is the Airtable read/write surface the sync needs.
// *airtable.Client satisfies it.
type RecordStore interface {
	FetchAllClients(ctx context.Context) ([]airtable.ClientRecord, error)
	CreateRecord(ctx context.Context, fields airtable.RecordFields) error
	UpdateRecord(ctx context.Context, recordID string, fields airtable.RecordFields) error
}

// ServiceStat is one row of the sync preview's per-service breakdown.
type ServiceStat struct {
	Service       string `json:"service"`
	Consultations int    `json:"consultations"`
	LinksSent     int    `json:"linksSent"`
}

// Preview is the dry-run payload: what a sync would operate on.
type Preview struct {
	TotalConversations        int           `json:"totalConversations"`
	ConversationsWithCalLink  int           `json:"conversationsWithCalLink"`
	ConversationsWithServices int           `json:"conversationsWithServices"`
	ServiceStats              []ServiceStat `json:"serviceStats"`
	LastUpdated               time.Time     `json:"lastUpdated"`
}

// Summary reports what a sync run changed.
type Summary struct {
	Synced  int       `json:"synced"`
	Created int       `json:"created"`
	Updated int       `json:"updated"`
	Errors  int       `json:"errors"`
	RunAt   time.Time `json:"runAt"`
}

// Service drives the conversation-to-roster sync. records may be nil when
// Airtable is not configured.
type Service struct {
	conversations *conversation.Service
	records       RecordStore
	logger        *logging.Logger
}

// NewService creates the sync service.
func NewService(conversations *conversation.Service, records RecordStore, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		conversations: conversations,
		records:       records,
		logger:        logger.Component("syncer"),
	}
}

// Preview reports what a sync would process without writing anything.
func (s *Service) Preview(ctx context.Context) (*Preview, error) {
	if s.conversations == nil {
		return nil, fmt.Errorf("conversation log %w", source.ErrNotConfigured)
	}

	ctx, span := tracer.Start(ctx, "syncer.preview")
	defer span.End()

	conversations, err := s.conversations.LoadConversations(ctx)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		TotalConversations: len(conversations),
		LastUpdated:        time.Now().UTC(),
	}
	stats := make(map[string]*ServiceStat)
	var order []string
	for _, conv := range conversations {
		if conv.LinkSent {
			preview.ConversationsWithCalLink++
		}
		if len(conv.ServicesConsulted) > 0 {
			preview.ConversationsWithServices++
		}
		for _, svc := range conv.ServicesConsulted {
			stat, ok := stats[svc]
			if !ok {
				stat = &ServiceStat{Service: svc}
				stats[svc] = stat
				order = append(order, svc)
			}
			stat.Consultations++
			if conv.LinkSent {
				stat.LinksSent++
			}
		}
	}

	preview.ServiceStats = make([]ServiceStat, 0, len(order))
	for _, svc := range order {
		preview.ServiceStats = append(preview.ServiceStats, *stats[svc])
	}
	sort.SliceStable(preview.ServiceStats, func(i, j int) bool {
		if preview.ServiceStats[i].Consultations != preview.ServiceStats[j].Consultations {
			return preview.ServiceStats[i].Consultations > preview.ServiceStats[j].Consultations
		}
		return preview.ServiceStats[i].Service < preview.ServiceStats[j].Service
	})
	return preview, nil
}

// Run upserts one Airtable row per conversation that consulted at least one
// service, keyed by normalized phone number. Rows for unrelated chatter are
// never created. Individual write failures are counted, not fatal.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	if s.conversations == nil {
		return nil, fmt.Errorf("conversation log %w", source.ErrNotConfigured)
	}
	if s.records == nil {
		return nil, fmt.Errorf("client roster %w", source.ErrNotConfigured)
	}

	ctx, span := tracer.Start(ctx, "syncer.run")
	defer span.End()

	conversations, err := s.conversations.LoadConversations(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.records.FetchAllClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("syncer: existing records: %w", err)
	}
	byPhone := make(map[string]string, len(existing))
	for _, rec := range existing {
		if phone := NormalizePhone(rec.Phone); phone != "" {
			byPhone[phone] = rec.ID
		}
	}

	summary := &Summary{RunAt: time.Now().UTC()}
	for _, conv := range conversations {
		if len(conv.ServicesConsulted) == 0 {
			continue
		}
		summary.Synced++

		fields := toRecordFields(conv)
		phone := NormalizePhone(conv.PhoneNumber)

		if recordID, ok := byPhone[phone]; ok && phone != "" {
			if err := s.records.UpdateRecord(ctx, recordID, fields); err != nil {
				s.logger.Warn("record update failed", "phone", phone, "error", err)
				summary.Errors++
				continue
			}
			summary.Updated++
			continue
		}

		if err := s.records.CreateRecord(ctx, fields); err != nil {
			s.logger.Warn("record create failed", "phone", phone, "error", err)
			summary.Errors++
			continue
		}
		summary.Created++
	}

	s.logger.Info("sync finished",
		"synced", summary.Synced,
		"created", summary.Created,
		"updated", summary.Updated,
		"errors", summary.Errors,
	)
	return summary, nil
}

// NormalizePhone reduces a phone column or session id to bare digits so both
// "14075551234" and "14075551234@s.whatsapp.net" key the same row.
func NormalizePhone(raw string) string {
	raw = strings.TrimSuffix(raw, "@s.whatsapp.net")
	raw = strings.TrimSuffix(raw, "@lid")
	return nonDigits.ReplaceAllString(raw, "")
}

func toRecordFields(conv *conversation.Conversation) airtable.RecordFields {
	name := conv.DisplayName
	if name == conversation.UnknownName || name == "" {
		name = fallbackName
	}
	return airtable.RecordFields{
		Nombre:             name,
		Telefono:           conv.PhoneNumber,
		ServicioConsultado: strings.Join(conv.ServicesConsulted, ", "),
		EnlaceCitaEnviado:  conv.LinkSent,
	}
}
