// Package compose orchestrates subprompt resolution against live data,
// layering token counts and trigger-word matching on top of the resolver.
package compose

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lukaszraczylo/prompt-companion/internal/resolve"
	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// ErrNotFound is returned when the requested subprompt does not exist.
var ErrNotFound = errors.New("subprompt not found")

// SnapshotProvider supplies a consistent view of the library.
type SnapshotProvider interface {
	LoadSnapshot(ctx context.Context) (*models.Snapshot, error)
}

// Result is the outcome of composing a subprompt.
type Result struct {
	Text           models.ResolvedText `json:"text"`
	Warnings       []models.Warning    `json:"warnings,omitempty"`
	PositiveTokens int                 `json:"positive_tokens"`
	NegativeTokens int                 `json:"negative_tokens"`
}

// Composer resolves subprompts from snapshots and annotates the output.
type Composer struct {
	snapshots SnapshotProvider
	tokens    *TokenCounter
}

// NewComposer builds a Composer. The token counter may be nil, in which
// case token counts are reported as zero.
func NewComposer(snapshots SnapshotProvider, tokens *TokenCounter) *Composer {
	return &Composer{snapshots: snapshots, tokens: tokens}
}

// Compose resolves the subprompt with the given ID.
func (c *Composer) Compose(ctx context.Context, id string) (*Result, error) {
	snap, err := c.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	sp := snap.Subprompt(id)
	if sp == nil {
		return nil, ErrNotFound
	}
	return c.compose(sp, snap), nil
}

// ComposeByName resolves the subprompt with the given name.
func (c *Composer) ComposeByName(ctx context.Context, name string) (*Result, error) {
	snap, err := c.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	sp := snap.SubpromptByName(name)
	if sp == nil {
		return nil, ErrNotFound
	}
	return c.compose(sp, snap), nil
}

func (c *Composer) compose(sp *models.Subprompt, snap *models.Snapshot) *Result {
	text, warnings := resolve.Resolve(sp, snap)
	if len(warnings) > 0 {
		log.Warn().
			Str("subprompt", sp.Name).
			Int("warnings", len(warnings)).
			Msg("Resolution produced warnings")
	}
	return c.result(text, warnings)
}

func (c *Composer) result(text models.ResolvedText, warnings []models.Warning) *Result {
	res := &Result{Text: text, Warnings: warnings}
	if c.tokens != nil {
		res.PositiveTokens = c.tokens.Count(text.Positive)
		res.NegativeTokens = c.tokens.Count(text.Negative)
	}
	return res
}

// TriggerMatch is a single trigger-word hit against a checkpoint name.
type TriggerMatch struct {
	SubpromptID string `json:"subprompt_id"`
	Name        string `json:"name"`
	TriggerWord string `json:"trigger_word"`
}

// MatchTriggerWords finds subprompts whose trigger words appear in the
// checkpoint name (case-insensitive substring match), resolves each hit
// and merges the resolved text in subprompt name order.
func (c *Composer) MatchTriggerWords(ctx context.Context, checkpointName string) (*Result, []TriggerMatch, error) {
	snap, err := c.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}

	needle := strings.ToLower(checkpointName)

	var matches []TriggerMatch
	var matched []*models.Subprompt
	for _, sp := range snap.Subprompts {
		for _, word := range sp.TriggerWords {
			word = strings.TrimSpace(word)
			if word == "" {
				continue
			}
			if strings.Contains(needle, strings.ToLower(word)) {
				matches = append(matches, TriggerMatch{
					SubpromptID: sp.ID,
					Name:        sp.Name,
					TriggerWord: word,
				})
				matched = append(matched, sp)
				break
			}
		}
	}

	// Merge in name order so output does not depend on map iteration.
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	var positives, negatives []string
	var warnings []models.Warning
	for _, sp := range matched {
		text, w := resolve.Resolve(sp, snap)
		warnings = append(warnings, w...)
		if text.Positive != "" {
			positives = append(positives, text.Positive)
		}
		if text.Negative != "" {
			negatives = append(negatives, text.Negative)
		}
	}

	merged := models.ResolvedText{
		Positive: resolve.DedupeTerms(strings.Join(positives, ", ")),
		Negative: resolve.DedupeTerms(strings.Join(negatives, ", ")),
	}

	log.Debug().
		Str("checkpoint", checkpointName).
		Int("matches", len(matches)).
		Msg("Trigger word scan complete")

	return c.result(merged, warnings), matches, nil
}
