package service_test

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/brightfund/email-backend/internal/mailer"
	"github.com/brightfund/email-backend/internal/model"
)

// In-memory fakes implementing the repository interfaces.

type fakeSequenceRepo struct {
	sequences []model.Sequence
	steps     map[string][]model.Step
}

func (f *fakeSequenceRepo) GetActiveByID(id string) (*model.Sequence, error) {
	for _, s := range f.sequences {
		if s.ID == id && s.Active {
			seq := s
			return &seq, nil
		}
	}
	return nil, nil
}

func (f *fakeSequenceRepo) FindMatch(triggerType, audience string, tier *string) (*model.Sequence, error) {
	matches := []model.Sequence{}
	for _, s := range f.sequences {
		if !s.Active || s.TriggerType != triggerType {
			continue
		}
		if s.Audience != audience && s.Audience != model.AudienceAll {
			continue
		}
		if s.TierFilter != nil && (tier == nil || *s.TierFilter != *tier) {
			continue
		}
		matches = append(matches, s)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if (matches[i].TierFilter != nil) != (matches[j].TierFilter != nil) {
			return matches[i].TierFilter != nil
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	seq := matches[0]
	return &seq, nil
}

func (f *fakeSequenceRepo) ListSteps(sequenceID string) ([]model.Step, error) {
	steps := append([]model.Step{}, f.steps[sequenceID]...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps, nil
}

func (f *fakeSequenceRepo) List() ([]model.Sequence, error) {
	return append([]model.Sequence{}, f.sequences...), nil
}

type fakeTemplateRepo struct {
	templates []model.Template
}

func (f *fakeTemplateRepo) GetActiveByID(id string) (*model.Template, error) {
	for _, t := range f.templates {
		if t.ID == id && t.Active {
			tmpl := t
			return &tmpl, nil
		}
	}
	return nil, nil
}

func (f *fakeTemplateRepo) FindWelcome(tier string) (*model.Template, error) {
	matches := []model.Template{}
	for _, t := range f.templates {
		if !t.Active || t.Category != "welcome" {
			continue
		}
		if t.TierSpecific != nil && *t.TierSpecific != tier {
			continue
		}
		matches = append(matches, t)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if (matches[i].TierSpecific != nil) != (matches[j].TierSpecific != nil) {
			return matches[i].TierSpecific != nil
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	tmpl := matches[0]
	return &tmpl, nil
}

func (f *fakeTemplateRepo) List() ([]model.Template, error) {
	return append([]model.Template{}, f.templates...), nil
}

type fakeQueueRepo struct {
	entries   []model.QueueEntry
	createErr error
}

func (f *fakeQueueRepo) CreateBatch(entries []*model.QueueEntry) error {
	// Atomic batch: on error nothing is inserted.
	if f.createErr != nil {
		return f.createErr
	}
	for _, e := range entries {
		f.entries = append(f.entries, *e)
	}
	return nil
}

func (f *fakeQueueRepo) GetByID(id string) (*model.QueueEntry, error) {
	for i := range f.entries {
		if f.entries[i].ID == id {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (f *fakeQueueRepo) ListDue(now time.Time, limit int) ([]model.QueueEntry, error) {
	due := []model.QueueEntry{}
	for _, e := range f.entries {
		if e.Status == model.StatusPending && !e.ScheduledAt.After(now) {
			due = append(due, e)
		}
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (f *fakeQueueRepo) MarkSent(id string) error {
	return f.transition(id, model.StatusSent)
}

func (f *fakeQueueRepo) MarkFailed(id string) error {
	return f.transition(id, model.StatusFailed)
}

func (f *fakeQueueRepo) transition(id, status string) error {
	for i := range f.entries {
		if f.entries[i].ID == id && f.entries[i].Status == model.StatusPending {
			f.entries[i].Status = status
		}
	}
	return nil
}

func (f *fakeQueueRepo) ListAll() ([]model.QueueEntry, error) {
	return append([]model.QueueEntry{}, f.entries...), nil
}

type fakeLogRepo struct {
	logs []model.EmailLog
}

func (f *fakeLogRepo) Create(l *model.EmailLog) error {
	f.logs = append(f.logs, *l)
	return nil
}

func (f *fakeLogRepo) ListAll() ([]model.EmailLog, error) {
	return append([]model.EmailLog{}, f.logs...), nil
}

func (f *fakeLogRepo) RecordEvent(recipientEmail, templateID, event string, at time.Time) error {
	for i := len(f.logs) - 1; i >= 0; i-- {
		l := &f.logs[i]
		if l.RecipientEmail != recipientEmail || l.TemplateID != templateID {
			continue
		}
		switch event {
		case "opened":
			if l.OpenedAt == nil {
				l.OpenedAt = &at
				return nil
			}
		case "clicked":
			if l.ClickedAt == nil {
				l.ClickedAt = &at
				return nil
			}
		case "bounced":
			if l.BouncedAt == nil {
				l.BouncedAt = &at
				return nil
			}
		}
	}
	return nil
}

type fakeRecipientRepo struct {
	donors   []model.Recipient
	waitlist []model.Recipient
}

func (f *fakeRecipientRepo) ListDonors(tier string) ([]model.Recipient, error) {
	return filterByTier(f.donors, tier), nil
}

func (f *fakeRecipientRepo) ListWaitlist(tier string) ([]model.Recipient, error) {
	return filterByTier(f.waitlist, tier), nil
}

func (f *fakeRecipientRepo) ListInvestors() ([]model.Recipient, error) {
	investors := []model.Recipient{}
	for _, r := range f.waitlist {
		if r.Category == "investor" {
			investors = append(investors, r)
		}
	}
	return investors, nil
}

func (f *fakeRecipientRepo) ListDonorsMissingWelcome() ([]model.Recipient, error) {
	missing := []model.Recipient{}
	for _, r := range f.donors {
		if !r.WelcomeSent {
			missing = append(missing, r)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].CreatedAt.Before(missing[j].CreatedAt) })
	return missing, nil
}

func (f *fakeRecipientRepo) MarkWelcomeSent(id string) error {
	for i := range f.donors {
		if f.donors[i].ID == id {
			f.donors[i].WelcomeSent = true
			return nil
		}
	}
	return nil
}

func filterByTier(recipients []model.Recipient, tier string) []model.Recipient {
	out := []model.Recipient{}
	for _, r := range recipients {
		if tier == "" || r.Tier == tier {
			out = append(out, r)
		}
	}
	return out
}

type fakeSender struct {
	sent    []mailer.Message
	failFor map[string]bool
}

func (f *fakeSender) Send(m mailer.Message) (string, error) {
	if f.failFor[m.To] {
		return "", errors.New("transport rejected")
	}
	f.sent = append(f.sent, m)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func strPtr(s string) *string { return &s }

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}
