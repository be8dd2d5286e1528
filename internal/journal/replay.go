package journal

import "cadence/internal/snapshot"

// replay folds a session's event log into the snapshot the annotator would
// have exported at the time of the last event.
func replay(meta SessionMeta, events []Event) *snapshot.Snapshot {
	snap := &snapshot.Snapshot{
		Format:    snapshot.FormatTag,
		Dataset:   meta.Dataset,
		Identity:  meta.Identity,
		Salt:      meta.Dataset,
		Mode:      meta.Mode,
		Cursor:    -1,
		CreatedAt: snapshot.Millis(meta.StartedAt),
		UpdatedAt: snapshot.Millis(meta.UpdatedAt),
	}

	if meta.Mode == snapshot.ModeBattle {
		snap.Decisions = make(map[string]snapshot.Submission)
		for _, event := range events {
			snap.Cursor = event.Cursor
			switch event.Kind {
			case "clear":
				delete(snap.Decisions, event.Video)
			case "submit":
				snap.Decisions[event.Video] = snapshot.Submission{
					Winner: event.Winner,
					Score:  event.Score,
					At:     snapshot.Millis(event.At),
				}
			}
		}
		return snap
	}

	index := make(map[string]int)
	for _, event := range events {
		snap.Cursor = event.Cursor
		pos, exists := index[event.Key]
		if !exists {
			pos = len(snap.Pairs)
			index[event.Key] = pos
			snap.Pairs = append(snap.Pairs, snapshot.PairEntry{Left: event.Left, Right: event.Right})
		}
		switch event.Kind {
		case "clear":
			snap.Pairs[pos].Submission = nil
		case "submit":
			level := event.Level
			snap.Pairs[pos].Submission = &snapshot.Submission{
				Level: &level,
				Score: event.Score,
				At:    snapshot.Millis(event.At),
			}
		}
	}
	return snap
}
