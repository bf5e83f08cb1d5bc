package utils

import "github.com/google/uuid"

// UUIDGenerator produces time-ordered identifiers for traces, tasks and
// stub registrations.
type UUIDGenerator struct {
	source func() (uuid.UUID, error)
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{source: uuid.NewV7}
}

// Generate returns a UUIDv7. A random UUIDv4 is returned when the clock
// sequence cannot be read.
func (g *UUIDGenerator) Generate() string {
	id, err := g.source()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
