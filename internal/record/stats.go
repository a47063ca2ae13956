package record

import "sort"

// PlayerStats aggregates one player's results across the collection.
type PlayerStats struct {
	Name         string         `json:"name"`
	Trophies     map[string]int `json:"trophies"`
	TotalWins    int            `json:"totalWins"`
	AverageScore float64        `json:"averageScore"`
	BestScore    int            `json:"bestScore"`
}

// Stats computes per-player aggregates, ordered by total wins descending
// (ties broken by name for stable output). Insertion order of the collection
// does not affect the aggregates.
func Stats(c Collection) []PlayerStats {
	byName := map[string]*PlayerStats{}
	scoreSum := map[string]int{}
	scoreCount := map[string]int{}

	for _, r := range c {
		ps, ok := byName[r.Name]
		if !ok {
			ps = &PlayerStats{Name: r.Name, Trophies: map[string]int{}, BestScore: r.Score}
			byName[r.Name] = ps
		}
		ps.Trophies[r.Trophy]++
		ps.TotalWins++
		if r.Score < ps.BestScore {
			ps.BestScore = r.Score
		}
		scoreSum[r.Name] += r.Score
		scoreCount[r.Name]++
	}

	out := make([]PlayerStats, 0, len(byName))
	for name, ps := range byName {
		ps.AverageScore = float64(scoreSum[name]) / float64(scoreCount[name])
		out = append(out, *ps)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalWins != out[j].TotalWins {
			return out[i].TotalWins > out[j].TotalWins
		}
		return out[i].Name < out[j].Name
	})

	return out
}
