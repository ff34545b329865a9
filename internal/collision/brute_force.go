package collision

import "github.com/san-kum/partsim/internal/dynamo"

// BruteForceResolver tests every pair once.
type BruteForceResolver struct{}

func NewBruteForce() *BruteForceResolver {
	return &BruteForceResolver{}
}

func (b *BruteForceResolver) Strategy() Strategy { return BruteForce }

func (b *BruteForceResolver) Resolve(ps []dynamo.Particle) error {
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			Collide(ps, i, j)
		}
	}
	return nil
}
