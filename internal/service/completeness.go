package service

import (
	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/repository"
)

// MinApprovalCompleteness минимальная заполненность для отправки на модерацию.
const MinApprovalCompleteness = 50

// ComputeCompleteness считает заполненность карточки по шкале до 100.
func ComputeCompleteness(p *models.Provider, c repository.CompletenessCounts) int {
	score := 0
	for _, filled := range []bool{
		p.BusinessName != "",
		notBlank(p.Address),
		notBlank(p.City),
		notBlank(p.PostalCode),
		notBlank(p.Phone),
		p.HasBio(),
	} {
		if filled {
			score += 5
		}
	}

	score += tiered(c.Languages, []tier{{1, 10}, {2, 5}, {3, 5}})
	score += tiered(c.Services, []tier{{1, 15}, {2, 5}, {3, 5}})
	score += tiered(c.Staff, []tier{{1, 10}, {2, 5}})
	score += tiered(c.Images, []tier{{1, 5}, {3, 5}})

	if score > 100 {
		score = 100
	}
	return score
}

type tier struct {
	min    int
	points int
}

func tiered(count int, tiers []tier) int {
	points := 0
	for _, t := range tiers {
		if count >= t.min {
			points += t.points
		}
	}
	return points
}

func notBlank(s *string) bool {
	return s != nil && *s != ""
}
