package service_test

import (
	"errors"
	"testing"

	appErrors "github.com/brightfund/email-backend/internal/errors"
	"github.com/brightfund/email-backend/internal/model"
	"github.com/brightfund/email-backend/internal/service"
)

func TestResolveSequenceExplicitIDInactive(t *testing.T) {
	svc := &service.DispatchService{
		SequenceRepo: &fakeSequenceRepo{
			sequences: []model.Sequence{
				{ID: "seq-1", Name: "Old", TriggerType: model.TriggerOnSignup, Audience: model.AudienceDonors, Active: false},
			},
		},
	}

	_, err := svc.ResolveSequence("seq-1", "", model.AudienceDonors, nil)
	var notFound *appErrors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestResolveSequenceTierSpecificBeatsGeneric(t *testing.T) {
	gold := "gold"
	svc := &service.DispatchService{
		SequenceRepo: &fakeSequenceRepo{
			sequences: []model.Sequence{
				{ID: "seq-generic", TriggerType: model.TriggerOnSignup, Audience: model.AudienceDonors, Active: true, CreatedAt: at("2023-01-01T00:00:00Z")},
				{ID: "seq-gold", TriggerType: model.TriggerOnSignup, Audience: model.AudienceDonors, TierFilter: &gold, Active: true, CreatedAt: at("2023-06-01T00:00:00Z")},
			},
		},
	}

	seq, err := svc.ResolveSequence("", model.TriggerOnSignup, model.AudienceDonors, &gold)
	if err != nil {
		t.Fatal(err)
	}
	if seq == nil || seq.ID != "seq-gold" {
		t.Errorf("expected tier-specific sequence to win, got %+v", seq)
	}
}

func TestResolveSequenceEarliestCreatedWins(t *testing.T) {
	svc := &service.DispatchService{
		SequenceRepo: &fakeSequenceRepo{
			sequences: []model.Sequence{
				{ID: "seq-newer", TriggerType: model.TriggerOnSignup, Audience: model.AudienceDonors, Active: true, CreatedAt: at("2023-06-01T00:00:00Z")},
				{ID: "seq-older", TriggerType: model.TriggerOnSignup, Audience: model.AudienceAll, Active: true, CreatedAt: at("2023-01-01T00:00:00Z")},
			},
		},
	}

	seq, err := svc.ResolveSequence("", model.TriggerOnSignup, model.AudienceDonors, nil)
	if err != nil {
		t.Fatal(err)
	}
	if seq == nil || seq.ID != "seq-older" {
		t.Errorf("expected earliest sequence to win, got %+v", seq)
	}
}

func TestResolveSequenceNoMatchIsNotAnError(t *testing.T) {
	svc := &service.DispatchService{
		SequenceRepo: &fakeSequenceRepo{},
	}

	seq, err := svc.ResolveSequence("", model.TriggerOnBacker, model.AudienceDonors, nil)
	if err != nil {
		t.Fatalf("no match should not be an error, got %v", err)
	}
	if seq != nil {
		t.Errorf("expected nil sequence, got %+v", seq)
	}
}

func TestResolveSequenceTierFilteredOutForUntieredRequest(t *testing.T) {
	gold := "gold"
	svc := &service.DispatchService{
		SequenceRepo: &fakeSequenceRepo{
			sequences: []model.Sequence{
				{ID: "seq-gold", TriggerType: model.TriggerOnSignup, Audience: model.AudienceDonors, TierFilter: &gold, Active: true},
			},
		},
	}

	seq, err := svc.ResolveSequence("", model.TriggerOnSignup, model.AudienceDonors, nil)
	if err != nil {
		t.Fatal(err)
	}
	if seq != nil {
		t.Errorf("tier-filtered sequence should not match an untiered request, got %+v", seq)
	}
}
