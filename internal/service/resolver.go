// internal/service/resolver.go
package service

import (
	appErrors "github.com/brightfund/email-backend/internal/errors"
	"github.com/brightfund/email-backend/internal/model"
)

// Default display names for recipients with no stored name.
const (
	defaultName         = "Friend"
	defaultInvestorName = "Investor"
)

// ResolveRecipients produces the deduplicated recipient list for a
// broadcast audience. Segments resolve in a fixed order (donors before
// waitlist for audience "all") and dedupe by email with last-writer-wins:
// when the same address appears in both segments the waitlist values
// overwrite the donor values. Output order is first appearance.
func (s *DispatchService) ResolveRecipients(audience, tier string) ([]model.Recipient, error) {
	var segments [][]model.Recipient

	switch audience {
	case model.AudienceDonors:
		donors, err := s.RecipientRepo.ListDonors(tier)
		if err != nil {
			return nil, appErrors.NewStore("list donors", err)
		}
		segments = append(segments, donors)
	case model.AudienceWaitlist:
		waitlist, err := s.RecipientRepo.ListWaitlist(tier)
		if err != nil {
			return nil, appErrors.NewStore("list waitlist", err)
		}
		segments = append(segments, waitlist)
	case model.AudienceInvestors:
		investors, err := s.RecipientRepo.ListInvestors()
		if err != nil {
			return nil, appErrors.NewStore("list investors", err)
		}
		segments = append(segments, investors)
	case model.AudienceAll:
		donors, err := s.RecipientRepo.ListDonors(tier)
		if err != nil {
			return nil, appErrors.NewStore("list donors", err)
		}
		waitlist, err := s.RecipientRepo.ListWaitlist(tier)
		if err != nil {
			return nil, appErrors.NewStore("list waitlist", err)
		}
		segments = append(segments, donors, waitlist)
	default:
		return nil, appErrors.NewValidation("audience", "must be one of all, donors, waitlist, investors")
	}

	byEmail := map[string]int{}
	resolved := []model.Recipient{}
	for _, segment := range segments {
		for _, rec := range segment {
			if rec.Name == "" {
				if audience == model.AudienceInvestors {
					rec.Name = defaultInvestorName
				} else {
					rec.Name = defaultName
				}
			}
			if i, ok := byEmail[rec.Email]; ok {
				resolved[i] = rec
				continue
			}
			byEmail[rec.Email] = len(resolved)
			resolved = append(resolved, rec)
		}
	}

	return resolved, nil
}
