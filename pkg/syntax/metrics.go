package syntax

import (
	"sort"
	"strings"
)

// DefaultTopN is the number of files kept in detail by AnalyzeMetrics
const DefaultTopN = 10

// Method length buckets, in lines
var lengthBuckets = []struct {
	label string
	max   int
}{
	{"1-10", 10},
	{"11-25", 25},
	{"26-50", 50},
	{"51-100", 100},
	{"100+", int(^uint(0) >> 1)},
}

// FileMetrics are the line and method counts of one script
type FileMetrics struct {
	File            string  `json:"file"`
	TotalLines      int     `json:"totalLines"`
	CodeLines       int     `json:"codeLines"`
	CommentLines    int     `json:"commentLines"`
	BlankLines      int     `json:"blankLines"`
	TypeCount       int     `json:"typeCount"`
	MethodCount     int     `json:"methodCount"`
	AvgMethodLength float64 `json:"avgMethodLength"`
	MaxMethodLength int     `json:"maxMethodLength"`
	LongestMethod   string  `json:"longestMethod,omitempty"`
	MaxNestingDepth int     `json:"maxNestingDepth"`
}

// MetricsResult aggregates metrics over every script in scope
type MetricsResult struct {
	Scope           string         `json:"scope,omitempty"`
	FileCount       int            `json:"fileCount"`
	TotalLines      int            `json:"totalLines"`
	CodeLines       int            `json:"codeLines"`
	CommentLines    int            `json:"commentLines"`
	BlankLines      int            `json:"blankLines"`
	TypeCount       int            `json:"typeCount"`
	MethodCount     int            `json:"methodCount"`
	AvgMethodLength float64        `json:"avgMethodLength"`
	MaxNestingDepth int            `json:"maxNestingDepth"`
	MethodLengths   map[string]int `json:"methodLengthDistribution"`
	Files           []FileMetrics  `json:"files"`
	FilesOmitted    int            `json:"filesOmitted"`
}

// AnalyzeMetrics counts lines, method lengths and nesting across scripts in
// scope. Only the topN largest files are kept in Files; topN <= 0 uses
// DefaultTopN.
func (a *Analyzer) AnalyzeMetrics(scope string, topN int) (*MetricsResult, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	files, err := a.load(scope)
	if err != nil {
		return nil, err
	}

	result := &MetricsResult{
		Scope:         scope,
		FileCount:     len(files),
		MethodLengths: make(map[string]int, len(lengthBuckets)),
		Files:         []FileMetrics{},
	}
	for _, b := range lengthBuckets {
		result.MethodLengths[b.label] = 0
	}

	totalMethodLines := 0
	all := make([]FileMetrics, 0, len(files))
	for _, f := range files {
		fm := fileMetrics(f)
		fileMethodLines := 0
		for _, t := range f.info.Types {
			for _, m := range t.Methods {
				n := m.Length()
				fileMethodLines += n
				result.MethodLengths[bucketOf(n)]++
			}
		}
		totalMethodLines += fileMethodLines

		result.TotalLines += fm.TotalLines
		result.CodeLines += fm.CodeLines
		result.CommentLines += fm.CommentLines
		result.BlankLines += fm.BlankLines
		result.TypeCount += fm.TypeCount
		result.MethodCount += fm.MethodCount
		result.MaxNestingDepth = max(result.MaxNestingDepth, fm.MaxNestingDepth)
		all = append(all, fm)
	}
	if result.MethodCount > 0 {
		result.AvgMethodLength = round1(float64(totalMethodLines) / float64(result.MethodCount))
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CodeLines != all[j].CodeLines {
			return all[i].CodeLines > all[j].CodeLines
		}
		if all[i].MaxNestingDepth != all[j].MaxNestingDepth {
			return all[i].MaxNestingDepth > all[j].MaxNestingDepth
		}
		return all[i].File < all[j].File
	})
	if len(all) > topN {
		result.FilesOmitted = len(all) - topN
		all = all[:topN]
	}
	result.Files = append(result.Files, all...)
	return result, nil
}

func fileMetrics(f *scriptFile) FileMetrics {
	fm := FileMetrics{File: f.path, TotalLines: f.src.lineCount(), TypeCount: len(f.info.Types)}

	stripped := strings.Split(f.src.text, "\n")
	raw := strings.Split(f.src.raw, "\n")
	for i := 0; i < fm.TotalLines && i < len(raw); i++ {
		r := strings.TrimSpace(raw[i])
		s := ""
		if i < len(stripped) {
			s = strings.TrimSpace(stripped[i])
		}
		switch {
		case r == "":
			fm.BlankLines++
		case s == "":
			fm.CommentLines++
		default:
			fm.CodeLines++
		}
	}

	methodLines := 0
	for _, t := range f.info.Types {
		for _, m := range t.Methods {
			n := m.Length()
			fm.MethodCount++
			methodLines += n
			if n > fm.MaxMethodLength {
				fm.MaxMethodLength = n
				fm.LongestMethod = t.Name + "." + m.Name
			}
		}
	}
	if fm.MethodCount > 0 {
		fm.AvgMethodLength = round1(float64(methodLines) / float64(fm.MethodCount))
	}
	for _, d := range f.src.depth {
		fm.MaxNestingDepth = max(fm.MaxNestingDepth, d)
	}
	return fm
}

func bucketOf(n int) string {
	for _, b := range lengthBuckets {
		if n <= b.max {
			return b.label
		}
	}
	return lengthBuckets[len(lengthBuckets)-1].label
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
