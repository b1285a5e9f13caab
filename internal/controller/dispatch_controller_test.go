package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/brightfund/email-backend/internal/controller"
	"github.com/brightfund/email-backend/internal/model"
	"github.com/brightfund/email-backend/internal/service"
)

// --- Mock repositories ---

type mockSequenceRepo struct {
	sequences []model.Sequence
	steps     map[string][]model.Step
}

func (m *mockSequenceRepo) GetActiveByID(id string) (*model.Sequence, error) {
	for _, s := range m.sequences {
		if s.ID == id && s.Active {
			seq := s
			return &seq, nil
		}
	}
	return nil, nil
}

func (m *mockSequenceRepo) FindMatch(triggerType, audience string, tier *string) (*model.Sequence, error) {
	for _, s := range m.sequences {
		if !s.Active || s.TriggerType != triggerType {
			continue
		}
		if s.Audience != audience && s.Audience != model.AudienceAll {
			continue
		}
		if s.TierFilter != nil && (tier == nil || *s.TierFilter != *tier) {
			continue
		}
		seq := s
		return &seq, nil
	}
	return nil, nil
}

func (m *mockSequenceRepo) ListSteps(sequenceID string) ([]model.Step, error) {
	steps := append([]model.Step{}, m.steps[sequenceID]...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps, nil
}

func (m *mockSequenceRepo) List() ([]model.Sequence, error) { return m.sequences, nil }

type mockTemplateRepo struct {
	templates []model.Template
}

func (m *mockTemplateRepo) GetActiveByID(id string) (*model.Template, error) {
	for _, t := range m.templates {
		if t.ID == id && t.Active {
			tmpl := t
			return &tmpl, nil
		}
	}
	return nil, nil
}

func (m *mockTemplateRepo) FindWelcome(tier string) (*model.Template, error) { return nil, nil }

func (m *mockTemplateRepo) List() ([]model.Template, error) { return m.templates, nil }

type mockQueueRepo struct {
	entries []model.QueueEntry
}

func (m *mockQueueRepo) CreateBatch(entries []*model.QueueEntry) error {
	for _, e := range entries {
		m.entries = append(m.entries, *e)
	}
	return nil
}
func (m *mockQueueRepo) GetByID(id string) (*model.QueueEntry, error) { return nil, nil }

func (m *mockQueueRepo) ListDue(now time.Time, limit int) ([]model.QueueEntry, error) {
	return nil, nil
}

func (m *mockQueueRepo) MarkSent(id string) error             { return nil }
func (m *mockQueueRepo) MarkFailed(id string) error           { return nil }
func (m *mockQueueRepo) ListAll() ([]model.QueueEntry, error) { return m.entries, nil }

type mockRecipientRepo struct {
	donors []model.Recipient
}

func (m *mockRecipientRepo) ListDonors(tier string) ([]model.Recipient, error) {
	return m.donors, nil
}

func (m *mockRecipientRepo) ListWaitlist(tier string) ([]model.Recipient, error) { return nil, nil }
func (m *mockRecipientRepo) ListInvestors() ([]model.Recipient, error)           { return nil, nil }

func (m *mockRecipientRepo) ListDonorsMissingWelcome() ([]model.Recipient, error) {
	return nil, nil
}

func (m *mockRecipientRepo) MarkWelcomeSent(id string) error { return nil }

func newController(queueRepo *mockQueueRepo) *controller.DispatchController {
	seqRepo := &mockSequenceRepo{
		sequences: []model.Sequence{
			{ID: "seq-1", Name: "Donor Onboarding", TriggerType: model.TriggerOnSignup,
				Audience: model.AudienceDonors, Active: true},
		},
		steps: map[string][]model.Step{
			"seq-1": {{ID: "st-1", SequenceID: "seq-1", Order: 1, TemplateID: "tpl-1", DelayHours: 0}},
		},
	}
	dispatch := &service.DispatchService{
		SequenceRepo: seqRepo,
		TemplateRepo: &mockTemplateRepo{templates: []model.Template{
			{ID: "tpl-1", Name: "Welcome", Subject: "Hi", Body: "Hello", Active: true},
		}},
		QueueRepo:     queueRepo,
		RecipientRepo: &mockRecipientRepo{donors: []model.Recipient{{ID: "d-1", Email: "a@example.com", Name: "A", Type: model.RecipientDonor}}},
	}
	return &controller.DispatchController{Dispatch: dispatch}
}

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, path string, body map[string]interface{}) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	w := httptest.NewRecorder()
	handlerFunc(w, req)
	return w.Result()
}

func TestTriggerMissingEmail(t *testing.T) {
	ctrl := newController(&mockQueueRepo{})

	resp := postJSON(t, ctrl.Trigger, "/emails/trigger", map[string]interface{}{
		"recipientType": "donor",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTriggerExplicitSequenceNotFound(t *testing.T) {
	queueRepo := &mockQueueRepo{}
	ctrl := newController(queueRepo)

	resp := postJSON(t, ctrl.Trigger, "/emails/trigger", map[string]interface{}{
		"recipientEmail": "a@example.com",
		"recipientType":  "donor",
		"sequenceId":     "seq-missing",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if len(queueRepo.entries) != 0 {
		t.Errorf("expected no entries, got %d", len(queueRepo.entries))
	}
}

func TestTriggerNoMatchReturns200(t *testing.T) {
	ctrl := newController(&mockQueueRepo{})

	resp := postJSON(t, ctrl.Trigger, "/emails/trigger", map[string]interface{}{
		"recipientEmail": "a@example.com",
		"recipientType":  "donor",
		"triggerType":    "on_backer",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res struct {
		Message string `json:"message"`
		Queued  int    `json:"queued"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Queued != 0 || res.Message != "No matching sequence found" {
		t.Errorf("unexpected body %+v", res)
	}
}

func TestTriggerEnqueues(t *testing.T) {
	queueRepo := &mockQueueRepo{}
	ctrl := newController(queueRepo)

	resp := postJSON(t, ctrl.Trigger, "/emails/trigger", map[string]interface{}{
		"recipientEmail": "a@example.com",
		"recipientName":  "A",
		"recipientType":  "donor",
		"triggerType":    "on_signup",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res struct {
		Queued int `json:"queued"`
		Steps  []struct {
			Order    int    `json:"order"`
			Template string `json:"template"`
		} `json:"steps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Queued != 1 || len(res.Steps) != 1 || res.Steps[0].Template != "Welcome" {
		t.Errorf("unexpected body %+v", res)
	}
	if len(queueRepo.entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(queueRepo.entries))
	}
}

func TestBroadcastValidation(t *testing.T) {
	ctrl := newController(&mockQueueRepo{})

	resp := postJSON(t, ctrl.Broadcast, "/emails/broadcast", map[string]interface{}{
		"audience": "donors",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing templateId: expected 400, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ctrl.Broadcast, "/emails/broadcast", map[string]interface{}{
		"templateId": "tpl-1",
		"audience":   "donors",
		"scheduleAt": "tomorrow",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad scheduleAt: expected 400, got %d", resp.StatusCode)
	}
}

func TestBroadcastEnqueues(t *testing.T) {
	queueRepo := &mockQueueRepo{}
	ctrl := newController(queueRepo)

	resp := postJSON(t, ctrl.Broadcast, "/emails/broadcast", map[string]interface{}{
		"templateId": "tpl-1",
		"audience":   "donors",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res struct {
		TemplateName string `json:"template_name"`
		Queued       int    `json:"queued"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Queued != 1 || res.TemplateName != "Welcome" {
		t.Errorf("unexpected body %+v", res)
	}
}
