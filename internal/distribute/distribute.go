// Package distribute implements round-robin assignment of end users to a
// tier's destination links, with the rotation cursor persisted in the
// configuration document.
package distribute

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"reviewrouter/internal/document"
)

// ErrUnsupportedTier reports a tier key outside the known set.
var ErrUnsupportedTier = errors.New("unsupported tier")

// ErrNoLinks reports a known tier with no configured destination links.
var ErrNoLinks = errors.New("no links configured for tier")

// Assignment is the outcome of one distribution decision.
type Assignment struct {
	URL   string `json:"url"`
	Tier  string `json:"tier"`
	Label string `json:"label"`
}

// Engine serves links round-robin. The store has no compare-and-swap, so
// the whole operation is a read-modify-write of the document: concurrent
// requests from separate processes can observe the same cursor and both
// advance it. That is the documented best-effort contract; the mutex below
// only serializes writers within this process.
type Engine struct {
	repo   *document.Repository
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewEngine builds a distribution engine over the document repository.
func NewEngine(repo *document.Repository, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{repo: repo, logger: logger, now: time.Now}
}

// Distribute picks the next link for tierKey, advances the persisted
// cursor, and stamps lastServedAt. The cursor update is persisted before
// the assignment is returned. On a tier with zero links the document is
// left untouched.
func (e *Engine) Distribute(ctx context.Context, tierKey string) (Assignment, error) {
	key := strings.ToLower(strings.TrimSpace(tierKey))

	e.mu.Lock()
	defer e.mu.Unlock()

	doc := e.repo.Load(ctx)
	tier, ok := doc.Tiers[key]
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %s", ErrUnsupportedTier, key)
	}
	if len(tier.Links) == 0 {
		return Assignment{}, fmt.Errorf("%w: %s", ErrNoLinks, key)
	}

	// The stored cursor can be stale relative to the current link list.
	safeIndex := tier.NextIndex % len(tier.Links)
	if safeIndex < 0 {
		safeIndex += len(tier.Links)
	}
	destination := tier.Links[safeIndex]

	timestamp := e.now().UTC().Format(time.RFC3339)
	tier.NextIndex = (safeIndex + 1) % len(tier.Links)
	tier.LastServedAt = timestamp
	doc.Tiers[key] = tier
	doc.UpdatedAt = &timestamp

	if err := e.repo.Save(ctx, doc); err != nil {
		return Assignment{}, fmt.Errorf("failed to persist rotation cursor: %w", err)
	}

	label := doc.Labels[key]
	if label == "" {
		label = key
	}

	e.logger.Debug("served tier link",
		zap.String("tier", key),
		zap.Int("index", safeIndex),
		zap.Int("next_index", tier.NextIndex))

	return Assignment{URL: destination, Tier: key, Label: label}, nil
}
