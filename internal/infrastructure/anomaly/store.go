package anomaly

import (
	"sort"

	domainAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/domain/anomaly"
)

// Store owns the set of learned domains. All mutation goes through it; the
// engine never touches a Domain directly.
type Store struct {
	domains map[string]*domainAnomaly.Domain
}

// NewStore creates an empty domain store.
func NewStore() *Store {
	return &Store{
		domains: make(map[string]*domainAnomaly.Domain),
	}
}

// Count returns the number of stored domains.
func (s *Store) Count() int {
	return len(s.domains)
}

// Get retrieves a domain by id, nil when absent.
func (s *Store) Get(id string) *domainAnomaly.Domain {
	return s.domains[id]
}

// Rank computes the combined similarity of the pattern against every stored
// domain, descending. Ties break on id so ranking is deterministic.
func (s *Store) Rank(p domainAnomaly.Pattern) []Match {
	matches := make([]Match, 0, len(s.domains))
	for id, d := range s.domains {
		matches = append(matches, Match{DomainID: id, Similarity: Combined(p, d)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].DomainID < matches[j].DomainID
	})

	return matches
}

// Create inserts a new domain seeded with the pattern and enforces the soft
// capacity bound afterwards.
func (s *Store) Create(p domainAnomaly.Pattern) *domainAnomaly.Domain {
	d := domainAnomaly.NewDomain(p)
	s.domains[d.ID] = d

	if len(s.domains) > domainAnomaly.DomainCap {
		s.evictWeakest()
	}

	return d
}

// Reinforce routes the pattern into an existing domain.
func (s *Store) Reinforce(id string, p domainAnomaly.Pattern) {
	if d, ok := s.domains[id]; ok {
		d.Reinforce(p)
	}
}

// DecayExcept applies multiplicative decay to every domain outside the
// active set.
func (s *Store) DecayExcept(active map[string]struct{}, rate float64) {
	for id, d := range s.domains {
		if _, ok := active[id]; !ok {
			d.Decay(rate)
		}
	}
}

// evictWeakest removes, among domains weaker than the eviction strength,
// the one with the oldest lastSeen. If no domain qualifies the store is
// allowed to stay above its soft cap.
func (s *Store) evictWeakest() {
	var victim *domainAnomaly.Domain
	for _, d := range s.domains {
		if d.Strength >= domainAnomaly.EvictionStrength {
			continue
		}
		if victim == nil || d.LastSeen.Before(victim.LastSeen) {
			victim = d
		}
	}
	if victim != nil {
		delete(s.domains, victim.ID)
	}
}

// Profiles returns a diagnostic snapshot of every domain, ordered by id.
func (s *Store) Profiles() []domainAnomaly.DomainProfile {
	profiles := make([]domainAnomaly.DomainProfile, 0, len(s.domains))
	for _, d := range s.domains {
		profiles = append(profiles, domainAnomaly.DomainProfile{
			ID:         d.ID,
			Strength:   d.Strength,
			QueryCount: d.QueryCount,
			LastSeen:   d.LastSeen,
		})
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles
}

// Reset drops every domain.
func (s *Store) Reset() {
	s.domains = make(map[string]*domainAnomaly.Domain)
}
