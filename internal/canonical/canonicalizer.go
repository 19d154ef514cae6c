// Package canonical persists stable product identities across broadcast
// reports. It collects the distinct raw product names in a window, asks the
// classifier which of them describe the same physical product, and stamps
// each group's shortest name onto every matching line record so later
// aggregations can group by an exact key instead of re-running fuzzy
// matching.
package canonical

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/classify"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/db"
)

// Store is the persistence surface the canonicalizer needs. *db.Pool
// satisfies it.
type Store interface {
	FetchLineRecords(ctx context.Context, filter db.Filter) ([]db.ProductLineRecord, error)
	StampCanonicalNames(ctx context.Context, recordIDs []int64, canonicalName string) (int64, error)
	ClearCanonicalNames(ctx context.Context, filter db.Filter) (int64, error)
}

// Classifier decides which distinct product names describe the same physical
// product. *classify.Client satisfies it.
type Classifier interface {
	Partition(ctx context.Context, items []classify.Item) ([][]int, error)
}

// MergedGroup records one committed identity merge: the name that was
// stamped and the raw names it absorbed.
type MergedGroup struct {
	CanonicalName string   `json:"canonicalName"`
	MemberNames   []string `json:"memberNames"`
	Records       int64    `json:"records"`
}

// RunResult reports what a canonicalization pass did. When storage fails
// mid-run the counts reflect the groups committed before the failure.
type RunResult struct {
	RunID          string        `json:"runId"`
	DistinctNames  int           `json:"distinctNames"`
	Groups         int           `json:"groups"`
	MergedGroups   int           `json:"mergedGroups"`
	UpdatedRecords int64         `json:"updatedRecords"`
	Merged         []MergedGroup `json:"merged,omitempty"`
	Skipped        bool          `json:"skipped"`
	SkipReason     string        `json:"skipReason,omitempty"`
}

// UndoResult reports how many records had their canonical name cleared.
type UndoResult struct {
	ClearedRecords int64 `json:"clearedRecords"`
}

type Canonicalizer struct {
	store      Store
	classifier Classifier
	logger     zerolog.Logger
}

// NewCanonicalizer wires the canonicalizer over its collaborators. classifier
// may be nil when no endpoint is configured: Run then fails with
// classify.ErrNotConfigured before touching storage, while Undo keeps
// working since clearing needs no classification.
func NewCanonicalizer(store Store, classifier Classifier, logger zerolog.Logger) (*Canonicalizer, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Canonicalizer{
		store:      store,
		classifier: classifier,
		logger:     logger.With().Str("component", "canonicalizer").Logger(),
	}, nil
}

// nameEntry tracks one distinct raw name: the first price and external id
// seen for it, and every record id that carries it.
type nameEntry struct {
	name       string
	price      *float64
	externalID *string
	recordIDs  []int64
}

// Run canonicalizes every line record matched by filter. Distinct raw names
// are collected in first-seen storage order, partitioned by the classifier,
// and each multi-name group is stamped with its shortest member name.
// Single-name groups are left untouched. Writes go group by group; a storage
// failure stops the run and the returned result carries the counts committed
// so far alongside the error.
func (c *Canonicalizer) Run(ctx context.Context, filter db.Filter) (RunResult, error) {
	if c == nil {
		return RunResult{}, fmt.Errorf("canonicalizer is not initialized")
	}
	result := RunResult{RunID: uuid.NewString()}
	if c.classifier == nil {
		return result, classify.ErrNotConfigured
	}

	records, err := c.store.FetchLineRecords(ctx, filter)
	if err != nil {
		return result, fmt.Errorf("fetch line records: %w", err)
	}

	entries := collectDistinctNames(records)
	result.DistinctNames = len(entries)
	if len(entries) < 2 {
		result.Skipped = true
		result.SkipReason = "fewer than 2 distinct product names in window"
		c.logger.Info().
			Str("run_id", result.RunID).
			Int("distinct_names", len(entries)).
			Msg("canonicalization skipped")
		return result, nil
	}

	items := make([]classify.Item, len(entries))
	for i, e := range entries {
		items[i] = classify.Item{
			Index:      i,
			Name:       e.name,
			Price:      e.price,
			ExternalID: e.externalID,
		}
	}

	partition, err := c.classifier.Partition(ctx, items)
	if err != nil {
		return result, fmt.Errorf("classify product names: %w", err)
	}
	result.Groups = len(partition)

	for _, group := range partition {
		if len(group) < 2 {
			continue
		}
		canonicalName := shortestName(entries, group)
		recordIDs := make([]int64, 0, len(group))
		memberNames := make([]string, 0, len(group))
		for _, idx := range group {
			recordIDs = append(recordIDs, entries[idx].recordIDs...)
			memberNames = append(memberNames, entries[idx].name)
		}

		updated, err := c.store.StampCanonicalNames(ctx, recordIDs, canonicalName)
		result.UpdatedRecords += updated
		if err != nil {
			c.logger.Error().Err(err).
				Str("run_id", result.RunID).
				Str("canonical_name", canonicalName).
				Int("merged_groups", result.MergedGroups).
				Int64("updated_records", result.UpdatedRecords).
				Msg("canonicalization aborted on storage failure")
			return result, fmt.Errorf("stamp canonical name %q: %w", canonicalName, err)
		}
		result.MergedGroups++
		result.Merged = append(result.Merged, MergedGroup{
			CanonicalName: canonicalName,
			MemberNames:   memberNames,
			Records:       updated,
		})
	}

	c.logger.Info().
		Str("run_id", result.RunID).
		Int("distinct_names", result.DistinctNames).
		Int("groups", result.Groups).
		Int("merged_groups", result.MergedGroups).
		Int64("updated_records", result.UpdatedRecords).
		Msg("canonicalization complete")
	return result, nil
}

// Undo clears the canonical name of every record matched by filter. Records
// without a canonical name are left alone, so re-running it is harmless.
func (c *Canonicalizer) Undo(ctx context.Context, filter db.Filter) (UndoResult, error) {
	if c == nil {
		return UndoResult{}, fmt.Errorf("canonicalizer is not initialized")
	}
	cleared, err := c.store.ClearCanonicalNames(ctx, filter)
	if err != nil {
		return UndoResult{}, fmt.Errorf("clear canonical names: %w", err)
	}
	c.logger.Info().Int64("cleared_records", cleared).Msg("canonicalization undone")
	return UndoResult{ClearedRecords: cleared}, nil
}

// collectDistinctNames folds records into one entry per raw name, keeping
// storage order. The first record seen for a name supplies its
// representative price and external id.
func collectDistinctNames(records []db.ProductLineRecord) []nameEntry {
	index := make(map[string]int, len(records))
	entries := make([]nameEntry, 0, len(records))
	for _, rec := range records {
		if i, ok := index[rec.RawName]; ok {
			entries[i].recordIDs = append(entries[i].recordIDs, rec.RecordID)
			continue
		}
		index[rec.RawName] = len(entries)
		price := rec.Price
		entries = append(entries, nameEntry{
			name:       rec.RawName,
			price:      &price,
			externalID: rec.ExternalID,
			recordIDs:  []int64{rec.RecordID},
		})
	}
	return entries
}

// shortestName picks the canonical name for a group: fewest runes wins,
// earlier group position wins ties.
func shortestName(entries []nameEntry, group []int) string {
	best := entries[group[0]].name
	bestLen := utf8.RuneCountInString(best)
	for _, idx := range group[1:] {
		name := entries[idx].name
		if n := utf8.RuneCountInString(name); n < bestLen {
			best = name
			bestLen = n
		}
	}
	return best
}
