package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicalopez/dashboard-api/internal/airtable"
	"github.com/clinicalopez/dashboard-api/internal/conversation"
	"github.com/clinicalopez/dashboard-api/internal/source"
)

type fakeMessageStore struct {
	messages []conversation.Message
}

func (f *fakeMessageStore) FetchAllMessages(ctx context.Context) ([]conversation.Message, error) {
	return f.messages, nil
}

func (f *fakeMessageStore) FetchSessionMessages(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	return nil, nil
}

type fakeRecordStore struct {
	existing  []airtable.ClientRecord
	created   []airtable.RecordFields
	updated   map[string]airtable.RecordFields
	createErr error
}

func (f *fakeRecordStore) FetchAllClients(ctx context.Context) ([]airtable.ClientRecord, error) {
	return f.existing, nil
}

func (f *fakeRecordStore) CreateRecord(ctx context.Context, fields airtable.RecordFields) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, fields)
	return nil
}

func (f *fakeRecordStore) UpdateRecord(ctx context.Context, recordID string, fields airtable.RecordFields) error {
	if f.updated == nil {
		f.updated = make(map[string]airtable.RecordFields)
	}
	f.updated[recordID] = fields
	return nil
}

func chatLog() []conversation.Message {
	return []conversation.Message{
		{ID: 1, SessionID: "14075551234@s.whatsapp.net", Role: conversation.RoleHuman, Text: "Nombre: Ana Lopez\nquiero botox"},
		{ID: 2, SessionID: "14075551234@s.whatsapp.net", Role: conversation.RoleAI, Text: "agenda en https://cal.com/clinica"},
		{ID: 3, SessionID: "15125550000@s.whatsapp.net", Role: conversation.RoleHuman, Text: "hola, solo saludando"},
	}
}

func syncService(records RecordStore, messages []conversation.Message) *Service {
	convSvc := conversation.NewService(&fakeMessageStore{messages: messages}, nil, nil, nil)
	return NewService(convSvc, records, nil)
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"14075551234":                "14075551234",
		"14075551234@s.whatsapp.net": "14075551234",
		"18093503832@lid":            "18093503832",
		"+1 (407) 555-1234":          "14075551234",
		"":                           "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRunCreatesMissingRecords(t *testing.T) {
	records := &fakeRecordStore{}
	svc := syncService(records, chatLog())

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Synced, "only the conversation with services syncs")
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.Updated)
	require.Len(t, records.created, 1)
	assert.Equal(t, "Ana Lopez", records.created[0].Nombre)
	assert.Equal(t, "Botox", records.created[0].ServicioConsultado)
	assert.True(t, records.created[0].EnlaceCitaEnviado)
}

func TestRunUpdatesExistingRecordByPhone(t *testing.T) {
	records := &fakeRecordStore{existing: []airtable.ClientRecord{
		{ID: "rec1", Name: "Ana", Phone: "14075551234@s.whatsapp.net"},
	}}
	svc := syncService(records, chatLog())

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 0, summary.Created)
	require.Contains(t, records.updated, "rec1")
}

func TestRunCountsWriteFailures(t *testing.T) {
	records := &fakeRecordStore{createErr: errors.New("rate limited")}
	svc := syncService(records, chatLog())

	summary, err := svc.Run(context.Background())
	require.NoError(t, err, "individual write failures must not abort the run")
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 0, summary.Created)
}

func TestRunUsesFallbackName(t *testing.T) {
	msgs := []conversation.Message{
		{ID: 1, SessionID: "14075551234@s.whatsapp.net", Role: conversation.RoleHuman, Text: "quiero botox"},
	}
	records := &fakeRecordStore{}
	svc := syncService(records, msgs)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, records.created, 1)
	assert.Equal(t, "Cliente WhatsApp", records.created[0].Nombre)
}

func TestRunNotConfigured(t *testing.T) {
	svc := syncService(nil, chatLog())
	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrNotConfigured)
}

func TestPreview(t *testing.T) {
	svc := syncService(nil, chatLog())

	preview, err := svc.Preview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, preview.TotalConversations)
	assert.Equal(t, 1, preview.ConversationsWithCalLink)
	assert.Equal(t, 1, preview.ConversationsWithServices)
	require.Len(t, preview.ServiceStats, 1)
	assert.Equal(t, "Botox", preview.ServiceStats[0].Service)
	assert.Equal(t, 1, preview.ServiceStats[0].LinksSent)
}
