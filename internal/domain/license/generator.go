package license

import (
	"strings"
	"time"

	vo "keymint/internal/domain/license/valueobjects"
)

// Generator is a reusable key-pattern template: a mask with '#'
// placeholders, the charset random mode draws from, and the defaults new
// keys inherit.
type Generator struct {
	id              uint
	name            string
	pattern         string
	charset         string
	validFor        int
	activationLimit int
	status          vo.GeneratorStatus
	createdAt       time.Time
	updatedAt       time.Time

	dirty map[string]struct{}
}

// NewGenerator creates a template. Name, pattern and charset are required;
// there are no further behavioral invariants.
func NewGenerator(name, pattern, charset string) (*Generator, error) {
	name = strings.TrimSpace(name)
	pattern = strings.TrimSpace(pattern)
	charset = strings.TrimSpace(charset)
	if name == "" || pattern == "" || charset == "" {
		return nil, ErrMissingGeneratorFields
	}

	return &Generator{
		name:    name,
		pattern: pattern,
		charset: charset,
		status:  vo.GeneratorStatusActive,
		dirty:   map[string]struct{}{},
	}, nil
}

// GeneratorReconstructParams carries a persisted generator row.
type GeneratorReconstructParams struct {
	ID              uint
	Name            string
	Pattern         string
	Charset         string
	ValidFor        int
	ActivationLimit int
	Status          vo.GeneratorStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReconstructGenerator rebuilds a generator from persistence.
func ReconstructGenerator(p GeneratorReconstructParams) (*Generator, error) {
	if p.Name == "" || p.Pattern == "" || p.Charset == "" {
		return nil, ErrMissingGeneratorFields
	}
	status := p.Status
	if !vo.ValidGeneratorStatuses[status] {
		status = vo.GeneratorStatusActive
	}

	return &Generator{
		id:              p.ID,
		name:            p.Name,
		pattern:         p.Pattern,
		charset:         p.Charset,
		validFor:        p.ValidFor,
		activationLimit: p.ActivationLimit,
		status:          status,
		createdAt:       p.CreatedAt,
		updatedAt:       p.UpdatedAt,
		dirty:           map[string]struct{}{},
	}, nil
}

func (g *Generator) ID() uint                   { return g.id }
func (g *Generator) Name() string               { return g.name }
func (g *Generator) Pattern() string            { return g.pattern }
func (g *Generator) Charset() string            { return g.charset }
func (g *Generator) ValidFor() int              { return g.validFor }
func (g *Generator) ActivationLimit() int       { return g.activationLimit }
func (g *Generator) Status() vo.GeneratorStatus { return g.status }
func (g *Generator) CreatedAt() time.Time       { return g.createdAt }
func (g *Generator) UpdatedAt() time.Time       { return g.updatedAt }

// SetID sets the generator ID (only for persistence layer use).
func (g *Generator) SetID(id uint) {
	if g.id == 0 {
		g.id = id
	}
}

func (g *Generator) mark(column string) {
	g.dirty[column] = struct{}{}
}

func (g *Generator) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrMissingGeneratorFields
	}
	if name != g.name {
		g.name = name
		g.mark("name")
	}
	return nil
}

func (g *Generator) SetPattern(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return ErrMissingGeneratorFields
	}
	if pattern != g.pattern {
		g.pattern = pattern
		g.mark("pattern")
	}
	return nil
}

func (g *Generator) SetCharset(charset string) error {
	charset = strings.TrimSpace(charset)
	if charset == "" {
		return ErrMissingGeneratorFields
	}
	if charset != g.charset {
		g.charset = charset
		g.mark("charset")
	}
	return nil
}

func (g *Generator) SetValidFor(days int) {
	if days < 0 {
		days = 0
	}
	if days != g.validFor {
		g.validFor = days
		g.mark("valid_for")
	}
}

func (g *Generator) SetActivationLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	if limit != g.activationLimit {
		g.activationLimit = limit
		g.mark("activation_limit")
	}
}

func (g *Generator) SetStatus(status vo.GeneratorStatus) {
	if vo.ValidGeneratorStatuses[status] && status != g.status {
		g.status = status
		g.mark("status")
	}
}

// Dirty returns the persisted column names changed since load.
func (g *Generator) Dirty() []string {
	cols := make([]string, 0, len(g.dirty))
	for c := range g.dirty {
		cols = append(cols, c)
	}
	return cols
}

// IsDirty reports whether any persisted column changed.
func (g *Generator) IsDirty() bool {
	return len(g.dirty) > 0
}

// MarkClean resets the dirty set after a successful save.
func (g *Generator) MarkClean() {
	g.dirty = map[string]struct{}{}
}

// TouchCreated stamps created_at once, on first insert.
func (g *Generator) TouchCreated(now time.Time) {
	if g.createdAt.IsZero() {
		g.createdAt = now
		g.updatedAt = now
	}
}

// TouchUpdated stamps updated_at.
func (g *Generator) TouchUpdated(now time.Time) {
	g.updatedAt = now
}
