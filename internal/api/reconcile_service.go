package api

import (
	"bytes"
	"fmt"
	"log/slog"

	"cadence/internal/dataset"
	"cadence/internal/logging"
	"cadence/internal/reconcile"
	"cadence/internal/snapshot"
)

// ReconcileService runs ground-truth reconciliation over snapshot payloads.
type ReconcileService struct {
	col    *dataset.Collection
	logger *slog.Logger
}

// NewReconcileService wraps the loaded collection.
func NewReconcileService(col *dataset.Collection, logger *slog.Logger) *ReconcileService {
	if col == nil {
		return nil
	}
	return &ReconcileService{col: col, logger: logging.WithComponent(logger, "reconcile")}
}

// ParseSets decodes raw snapshot payloads into decision sets. Every payload
// must validate against the active dataset; identity is deliberately not
// checked since these are other annotators' files.
func (s *ReconcileService) ParseSets(payloads [][]byte) ([]reconcile.DecisionSet, error) {
	sets := make([]reconcile.DecisionSet, 0, len(payloads))
	for i, payload := range payloads {
		snap, err := snapshot.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("file %d: %w", i+1, err)
		}
		if err := snap.Validate(s.col.SourceID, snapshot.Identity{}, false); err != nil {
			return nil, fmt.Errorf("file %d: %w", i+1, err)
		}
		set, err := reconcile.FromSnapshot(snap)
		if err != nil {
			return nil, fmt.Errorf("file %d: %w", i+1, err)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// Report computes accuracy against truth and pairwise agreement between the
// imported sets.
func (s *ReconcileService) Report(truth reconcile.DecisionSet, sets []reconcile.DecisionSet) ReconcileView {
	view := ReconcileView{
		Accuracy:  FromAccuracy(reconcile.AccuracyReport(truth, sets)),
		Agreement: FromAgreement(reconcile.PairwiseAgreement(sets)),
	}
	s.logger.Info("reconciliation computed",
		slog.Int("sources", len(sets)),
		slog.Int("truth_decisions", len(truth.Decisions)))
	return view
}

// FinalizeResult carries the derived-label export payloads.
type FinalizeResult struct {
	Labels    int    `json:"labels"`
	Summaries int    `json:"summaries"`
	LabelsCSV []byte `json:"-"`
	Summary   []byte `json:"-"`
}

// Finalize expands a complete authoritative set into derived labels and
// renders both tabular forms. It fails, naming the missing battles, while
// any valid battle lacks a decision.
func (s *ReconcileService) Finalize(truth reconcile.DecisionSet) (*FinalizeResult, error) {
	labels, summaries, err := reconcile.ExpandDerived(s.col, truth)
	if err != nil {
		return nil, err
	}
	var labelsCSV, summaryCSV bytes.Buffer
	if err := reconcile.WriteDerivedCSV(&labelsCSV, labels); err != nil {
		return nil, err
	}
	if err := reconcile.WriteSummaryCSV(&summaryCSV, summaries); err != nil {
		return nil, err
	}
	s.logger.Info("derived labels expanded",
		slog.Int("labels", len(labels)),
		slog.Int("battles", len(summaries)))
	return &FinalizeResult{
		Labels:    len(labels),
		Summaries: len(summaries),
		LabelsCSV: labelsCSV.Bytes(),
		Summary:   summaryCSV.Bytes(),
	}, nil
}
