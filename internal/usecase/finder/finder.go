package finder

import (
	"context"
	"fmt"
	"sort"

	"github.com/knotless/knot-backend/internal/domain"
)

// maxAgeGap is the widest age difference, in years, a candidate may have
// from the requester.
const maxAgeGap = 4

type UserStore interface {
	FindCandidates(ctx context.Context, requester *domain.User) ([]*domain.User, error)
}

// Finder is the read-only candidate pipeline: SQL pre-filter, in-memory
// eligibility filter, deterministic scoring, sort, cap.
type Finder struct {
	userStore UserStore
	limit     int
}

func New(userStore UserStore, limit int) *Finder {
	return &Finder{
		userStore: userStore,
		limit:     limit,
	}
}

// Candidate is one scored entry of a find result.
type Candidate struct {
	UserID        int    `json:"user_id"`
	Fullname      string `json:"fullname"`
	DOB           string `json:"dob"`
	Qualification string `json:"qualification"`
	Profession    string `json:"profession"`
	Score         int    `json:"score"`
}

// Find returns eligible candidates for the requester ordered by score
// descending. Ties are broken arbitrarily.
func (f *Finder) Find(ctx context.Context, requester *domain.User) ([]Candidate, error) {
	if requester.HasPendingMatch {
		return nil, domain.ErrAlreadyPending
	}
	if requester.InConversation {
		return nil, domain.ErrAlreadyMatched
	}

	users, err := f.userStore.FindCandidates(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}

	candidates := make([]Candidate, 0, len(users))
	for _, u := range users {
		if !Eligible(requester, u) {
			continue
		}
		candidates = append(candidates, Candidate{
			UserID:        u.ID,
			Fullname:      u.Fullname,
			DOB:           u.DOB,
			Qualification: u.Qualification.Type,
			Profession:    u.Profession.Type,
			Score:         Score(requester, u),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if f.limit > 0 && len(candidates) > f.limit {
		candidates = candidates[:f.limit]
	}
	return candidates, nil
}

// Eligible applies the full filter stage. The repository pre-filters
// gender, country, flags and rejections; re-checking here keeps the rules
// in one place and makes the filter independently testable.
func Eligible(requester, candidate *domain.User) bool {
	if candidate.ID == requester.ID {
		return false
	}
	if candidate.Gender != requester.OppositeGender() {
		return false
	}
	if candidate.Location.Country != requester.Location.Country {
		return false
	}
	if candidate.HasPendingMatch || candidate.InConversation {
		return false
	}
	if AgeGap(requester, candidate) > maxAgeGap {
		return false
	}
	if !domain.TiersCompatible(requester.Qualification.Type, candidate.Qualification.Type) {
		return false
	}
	// Rejection in either direction excludes the candidate.
	if requester.HasRejected(candidate.ID) || candidate.HasRejected(requester.ID) {
		return false
	}
	return true
}

// Score computes the deterministic match score:
// 50 for the same city, one point per matching interest type occurrence,
// one point per shared hobby, 10 for the same qualification type, 10 for
// the same profession type, minus the age difference.
func Score(requester, candidate *domain.User) int {
	score := 0
	if candidate.Location.City == requester.Location.City {
		score += 50
	}
	for _, interest := range candidate.Interests {
		for _, own := range requester.Interests {
			if interest == own {
				score++
			}
		}
	}
	score += sharedHobbies(requester.Hobbies, candidate.Hobbies)
	if candidate.Qualification.Type == requester.Qualification.Type {
		score += 10
	}
	if candidate.Profession.Type == requester.Profession.Type {
		score += 10
	}
	return score - AgeGap(requester, candidate)
}

// AgeGap is the absolute age difference, with age derived as current year
// minus birth year. The current year cancels out of the difference.
func AgeGap(a, b *domain.User) int {
	gap := a.BirthYear() - b.BirthYear()
	if gap < 0 {
		gap = -gap
	}
	return gap
}

// sharedHobbies counts the set intersection of two hobby lists.
func sharedHobbies(a, b []string) int {
	seen := make(map[string]struct{}, len(a))
	for _, hobby := range a {
		seen[hobby] = struct{}{}
	}
	count := 0
	for _, hobby := range b {
		if _, ok := seen[hobby]; ok {
			count++
			delete(seen, hobby)
		}
	}
	return count
}
