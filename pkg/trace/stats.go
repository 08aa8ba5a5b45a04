package trace

import "fmt"

// Stats counts what happened to the rays of a batch
type Stats struct {
	Total   int // Rays in the batch
	Hit     int // Rays moved to the surface
	Failed  int // Rays that missed and were marked failed
	Skipped int // Rays that were already failed on input
}

// Add returns the sum of two stats
func (s Stats) Add(other Stats) Stats {
	return Stats{
		Total:   s.Total + other.Total,
		Hit:     s.Hit + other.Hit,
		Failed:  s.Failed + other.Failed,
		Skipped: s.Skipped + other.Skipped,
	}
}

// HitRate returns the fraction of live input rays that reached the surface
func (s Stats) HitRate() float64 {
	live := s.Total - s.Skipped
	if live == 0 {
		return 0
	}
	return float64(s.Hit) / float64(live)
}

func (s Stats) String() string {
	return fmt.Sprintf("%d rays: %d hit, %d failed, %d skipped", s.Total, s.Hit, s.Failed, s.Skipped)
}
