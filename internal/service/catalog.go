// internal/service/catalog.go
package service

import (
	"time"

	appErrors "github.com/brightfund/email-backend/internal/errors"
	"github.com/brightfund/email-backend/internal/model"
	"github.com/brightfund/email-backend/internal/repository"
)

// DispatchService owns sequence resolution, recipient resolution and
// queue scheduling. Every method is a stateless request handler; the
// service holds no locks and no mutable state beyond its repositories.
type DispatchService struct {
	SequenceRepo  repository.SequenceRepositoryInterface
	TemplateRepo  repository.TemplateRepositoryInterface
	QueueRepo     repository.QueueRepositoryInterface
	RecipientRepo repository.RecipientRepositoryInterface

	// Now is overridable in tests. Nil means time.Now.
	Now func() time.Time
}

func (s *DispatchService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ResolveSequence finds the sequence to enqueue. With an explicit id the
// lookup is exact and requires the sequence to be active; a miss is a
// NotFoundError. Otherwise the active sequences are filtered by trigger
// type, audience (requested or "all") and tier, and ties break on exact
// tier match before null tier, then earliest creation time. A filter
// miss returns (nil, nil): a valid no-sequence outcome, not an error.
func (s *DispatchService) ResolveSequence(sequenceID, triggerType, audience string, tier *string) (*model.Sequence, error) {
	if sequenceID != "" {
		seq, err := s.SequenceRepo.GetActiveByID(sequenceID)
		if err != nil {
			return nil, appErrors.NewStore("get sequence", err)
		}
		if seq == nil {
			return nil, appErrors.NewNotFound("sequence", sequenceID)
		}
		return seq, nil
	}

	seq, err := s.SequenceRepo.FindMatch(triggerType, audience, tier)
	if err != nil {
		return nil, appErrors.NewStore("find sequence", err)
	}
	return seq, nil
}
