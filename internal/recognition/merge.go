package recognition

// FinalResultSet holds at most one classified detection per resolved label.
type FinalResultSet struct {
	order []string
	items map[string]ClassifiedDetection
}

// Merge collapses detections sharing a resolved label, keeping the one with
// the strictly highest score. On a tie the earlier entry stays. When an entry
// is replaced, its label moves to the end of the iteration order.
func Merge(dets []ClassifiedDetection) *FinalResultSet {
	fs := &FinalResultSet{items: make(map[string]ClassifiedDetection, len(dets))}
	for _, d := range dets {
		fs.add(d)
	}
	return fs
}

func (fs *FinalResultSet) add(d ClassifiedDetection) {
	label := d.Label()
	d.ResolvedLabel = label

	prev, exists := fs.items[label]
	if !exists {
		fs.items[label] = d
		fs.order = append(fs.order, label)
		return
	}
	if d.Score() <= prev.Score() {
		return
	}

	for i, l := range fs.order {
		if l == label {
			fs.order = append(fs.order[:i], fs.order[i+1:]...)
			break
		}
	}
	fs.items[label] = d
	fs.order = append(fs.order, label)
}

// Get returns the entry for label.
func (fs *FinalResultSet) Get(label string) (ClassifiedDetection, bool) {
	d, ok := fs.items[label]
	return d, ok
}

// Labels returns the resolved labels in iteration order.
func (fs *FinalResultSet) Labels() []string {
	out := make([]string, len(fs.order))
	copy(out, fs.order)
	return out
}

// Items returns the entries in iteration order.
func (fs *FinalResultSet) Items() []ClassifiedDetection {
	out := make([]ClassifiedDetection, 0, len(fs.order))
	for _, l := range fs.order {
		out = append(out, fs.items[l])
	}
	return out
}

// Len is the number of distinct labels.
func (fs *FinalResultSet) Len() int {
	return len(fs.order)
}
