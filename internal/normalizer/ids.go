package normalizer

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator issues identifiers for questions and options that arrive without one.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator issues short random ids
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	return prefix + uuid.New().String()[:8]
}

// CounterGenerator issues sequential ids. Deterministic, for tests and fixtures.
type CounterGenerator struct {
	n atomic.Int64
}

func (g *CounterGenerator) NewID(prefix string) string {
	return prefix + strconv.FormatInt(g.n.Add(1), 10)
}
