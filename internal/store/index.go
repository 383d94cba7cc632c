package store

// runIndex keeps a running summary per run as lines are appended, so a run
// can be reported on without reading the file back.
type runIndex struct {
	order []string // run IDs in first-seen order
	spans map[string]*RunSpan
}

func newRunIndex() *runIndex {
	return &runIndex{spans: make(map[string]*RunSpan)}
}

func (idx *runIndex) onAppend(rec Record) {
	span, ok := idx.spans[rec.RunID]
	if !ok {
		span = &RunSpan{RunID: rec.RunID, FirstAt: rec.Time}
		idx.spans[rec.RunID] = span
		idx.order = append(idx.order, rec.RunID)
	}
	span.Lines++
	if rec.Stream == "stderr" {
		span.Stderr++
	}
	span.LastAt = rec.Time
}

func (idx *runIndex) summaries() []RunSpan {
	out := make([]RunSpan, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, *idx.spans[id])
	}
	return out
}
