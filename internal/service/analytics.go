// internal/service/analytics.go
package service

import (
	"time"

	appErrors "github.com/brightfund/email-backend/internal/errors"
	"github.com/brightfund/email-backend/internal/model"
	"github.com/brightfund/email-backend/internal/repository"
)

// AnalyticsService aggregates delivery and engagement metrics from the
// full queue and log history. Absence of data yields zeros, never errors.
type AnalyticsService struct {
	QueueRepo    repository.QueueRepositoryInterface
	LogRepo      repository.EmailLogRepositoryInterface
	SequenceRepo repository.SequenceRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface

	Now func() time.Time
}

type Overview struct {
	TotalSent      int `json:"total_sent"`
	TotalPending   int `json:"total_pending"`
	TotalFailed    int `json:"total_failed"`
	SentLast7Days  int `json:"sent_last_7_days"`
	SentLast30Days int `json:"sent_last_30_days"`
}

type Engagement struct {
	Opened     int     `json:"opened"`
	Clicked    int     `json:"clicked"`
	Bounced    int     `json:"bounced"`
	OpenRate   float64 `json:"open_rate"`
	ClickRate  float64 `json:"click_rate"`
	BounceRate float64 `json:"bounce_rate"`
}

type SequenceSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
	Queued  int    `json:"queued"`
	Pending int    `json:"pending"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
}

type TemplateSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Queued   int    `json:"queued"`
	Sent     int    `json:"sent"`
}

type DailyStat struct {
	Date   string `json:"date"`
	Sent   int    `json:"sent"`
	Opened int    `json:"opened"`
}

type Report struct {
	Overview   Overview          `json:"overview"`
	Engagement Engagement        `json:"engagement"`
	Sequences  []SequenceSummary `json:"sequences"`
	Templates  []TemplateSummary `json:"templates"`
	Daily      []DailyStat       `json:"daily"`
}

func (s *AnalyticsService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AnalyticsService) Report() (*Report, error) {
	entries, err := s.QueueRepo.ListAll()
	if err != nil {
		return nil, appErrors.NewStore("list queue entries", err)
	}
	logs, err := s.LogRepo.ListAll()
	if err != nil {
		return nil, appErrors.NewStore("list email logs", err)
	}
	sequences, err := s.SequenceRepo.List()
	if err != nil {
		return nil, appErrors.NewStore("list sequences", err)
	}
	templates, err := s.TemplateRepo.List()
	if err != nil {
		return nil, appErrors.NewStore("list templates", err)
	}

	now := s.now()
	report := &Report{}

	bySequence := map[string]*SequenceSummary{}
	for _, seq := range sequences {
		bySequence[seq.ID] = &SequenceSummary{ID: seq.ID, Name: seq.Name, Active: seq.Active}
	}
	byTemplate := map[string]*TemplateSummary{}
	for _, t := range templates {
		byTemplate[t.ID] = &TemplateSummary{ID: t.ID, Name: t.Name, Category: t.Category}
	}

	for _, e := range entries {
		switch e.Status {
		case model.StatusSent:
			report.Overview.TotalSent++
			if e.CreatedAt.After(now.AddDate(0, 0, -7)) {
				report.Overview.SentLast7Days++
			}
			if e.CreatedAt.After(now.AddDate(0, 0, -30)) {
				report.Overview.SentLast30Days++
			}
		case model.StatusPending:
			report.Overview.TotalPending++
		case model.StatusFailed:
			report.Overview.TotalFailed++
		}

		if e.SequenceID != nil {
			if sum, ok := bySequence[*e.SequenceID]; ok {
				sum.Queued++
				switch e.Status {
				case model.StatusPending:
					sum.Pending++
				case model.StatusSent:
					sum.Sent++
				case model.StatusFailed:
					sum.Failed++
				}
			}
		}
		if sum, ok := byTemplate[e.TemplateID]; ok {
			sum.Queued++
			if e.Status == model.StatusSent {
				sum.Sent++
			}
		}
	}

	for _, l := range logs {
		if l.OpenedAt != nil {
			report.Engagement.Opened++
		}
		if l.ClickedAt != nil {
			report.Engagement.Clicked++
		}
		if l.BouncedAt != nil {
			report.Engagement.Bounced++
		}
	}
	report.Engagement.OpenRate = rate(report.Engagement.Opened, report.Overview.TotalSent)
	report.Engagement.ClickRate = rate(report.Engagement.Clicked, report.Engagement.Opened)
	report.Engagement.BounceRate = rate(report.Engagement.Bounced, report.Overview.TotalSent)

	// Trailing 7 calendar days including today, oldest first. Day
	// comparison truncates to the UTC date.
	for i := 6; i >= 0; i-- {
		day := truncateToDay(now.AddDate(0, 0, -i))
		stat := DailyStat{Date: day.Format("2006-01-02")}
		for _, e := range entries {
			if e.Status == model.StatusSent && truncateToDay(e.CreatedAt).Equal(day) {
				stat.Sent++
			}
		}
		for _, l := range logs {
			if l.OpenedAt != nil && truncateToDay(*l.OpenedAt).Equal(day) {
				stat.Opened++
			}
		}
		report.Daily = append(report.Daily, stat)
	}

	for _, seq := range sequences {
		report.Sequences = append(report.Sequences, *bySequence[seq.ID])
	}
	for _, t := range templates {
		report.Templates = append(report.Templates, *byTemplate[t.ID])
	}

	return report, nil
}

func rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0.0
	}
	return float64(numerator) / float64(denominator) * 100
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
