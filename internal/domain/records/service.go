package records

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetPatientMedicalContext collects allergy titles and the titles of active
// or chronic conditions, in record order. Soft-deleted records are ignored.
func (s *Service) GetPatientMedicalContext(ctx context.Context, userID string) (*MedicalContext, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	recs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	mc := &MedicalContext{Allergies: []string{}, Conditions: []string{}}
	for _, r := range recs {
		if r.IsDeleted {
			continue
		}
		mc.RecordCount++
		switch r.RecordType {
		case TypeAllergy:
			mc.Allergies = append(mc.Allergies, r.Title)
		case TypeCondition:
			if r.Status == StatusActive || r.Status == StatusChronic {
				mc.Conditions = append(mc.Conditions, r.Title)
			}
		}
	}
	return mc, nil
}
