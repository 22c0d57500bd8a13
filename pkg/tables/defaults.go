package tables

import "regexp"

// =================================
// Output defaults
// =================================
const (
	TotalOutputDir   = "total_bin"
	DynamicOutputDir = "dynamic_bin"
	FilePerms        = 0o644
	DirPerms         = 0o755

	// Artifact file name timestamp
	TimestampLayout = "20060102_150405"
	ArtifactExt     = ".bin"
)

// =================================
// Artifact labels
// =================================
const (
	LabelHeader      = "Header"
	LabelTotalTable  = "TotalTable"
	LabelFinal       = "Header+3TotalTable"
	LabelActionTotal = "TotalActionTable"
	LabelDynTotal    = "TotalDynamicTable"
)

// Labels names the artifacts written by the assembler.
type Labels struct {
	Header       string
	TotalTable   string
	Final        string
	ActionTotal  string
	DynamicTotal string
}

// DefaultLabels returns the stock artifact labels.
func DefaultLabels() Labels {
	return Labels{
		Header:       LabelHeader,
		TotalTable:   LabelTotalTable,
		Final:        LabelFinal,
		ActionTotal:  LabelActionTotal,
		DynamicTotal: LabelDynTotal,
	}
}

// =================================
// Naming conventions
// =================================

// DefaultMatchers returns the file naming conventions of the controller
// tooling: ST*静态表* for the static table, AT folders with a 4-hex-digit
// tag, DT folders with a 4-decimal-digit tag and zt*.bin monitoring tables.
func DefaultMatchers() map[Category]Matcher {
	return map[Category]Matcher{
		CategoryStatic: {
			Prefix:   "ST",
			Contains: "静态表",
		},
		CategoryAction: {
			Suffix:  ArtifactExt,
			Pattern: regexp.MustCompile(`^AT.*?([0-9A-Fa-f]{4}).*?\.bin$`),
		},
		CategoryDynamic: {
			Suffix:  ArtifactExt,
			Pattern: regexp.MustCompile(`^DT.*?(\d{4}).*?\.bin$`),
		},
		CategoryMonitoring: {
			Prefix: "zt",
			Suffix: ArtifactExt,
		},
	}
}

// FolderCategory reports whether a category is collected from a folder
// rather than a single file.
func FolderCategory(c Category) bool {
	return c == CategoryAction || c == CategoryDynamic
}
