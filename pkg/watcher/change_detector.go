package watcher

// ChangeAnalysis describes what changed and how much of the snapshot must be rebuilt
type ChangeAnalysis struct {
	// NeedReload means exported state changed and the snapshot is reloaded from disk
	NeedReload bool
	// NeedRescan means only the script and scene file lists may be stale
	NeedRescan   bool
	ChangedFiles []string
}

// AnalyzeChanges determines what to rebuild for a change event. Script
// contents are read on demand, so edits to existing files need no rebuild
// beyond refreshing the file lists.
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeSnapshot:
		analysis.NeedReload = true
	case ChangeTypeSource, ChangeTypeScene:
		analysis.NeedRescan = true
	}

	return analysis
}

// Merge folds another analysis into a
func (a *ChangeAnalysis) Merge(other *ChangeAnalysis) {
	a.NeedReload = a.NeedReload || other.NeedReload
	a.NeedRescan = a.NeedRescan || other.NeedRescan
	a.ChangedFiles = append(a.ChangedFiles, other.ChangedFiles...)
}
