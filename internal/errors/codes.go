package errors

// Code is a unique identifier for a grading failure mode.
//
// Codes are closed: every code defined here belongs to exactly one Category,
// and a step result always carries one of them. The executor classifies
// failures by code, never by matching message text.
type Code string

const (
	// CodeNone marks a successful or skipped step.
	CodeNone Code = "NONE-000"

	// Suite errors (SUITE-001 to SUITE-099)
	CodeSuiteLoadFailed Code = "SUITE-001"
	CodeSuiteInvalid    Code = "SUITE-002"

	// Parse errors (PARSE-001 to PARSE-099)
	CodeUnsupportedAction Code = "PARSE-001"
	CodeBadStepID         Code = "PARSE-002"

	// Environment errors (ENV-001 to ENV-099)
	CodeEnvResetFailed      Code = "ENV-001"
	CodeConfigRestoreFailed Code = "ENV-002"

	// Process errors (PROC-001 to PROC-099)
	CodeExecutableMissing  Code = "PROC-001"
	CodeProcessStartFailed Code = "PROC-002"
	CodeProcessCrashed     Code = "PROC-003"
	CodeProcessKillFailed  Code = "PROC-004"
	CodeStartTimeout       Code = "PROC-005"

	// Network errors (NET-001 to NET-099)
	CodeHTTPSpecMalformed    Code = "NET-001"
	CodeHTTPRequestFailed    Code = "NET-002"
	CodeHTTPStatusUnexpected Code = "NET-003"
	CodeRelayFailed          Code = "NET-004"

	// File I/O errors (IO-001 to IO-099)
	CodeFileMissing     Code = "IO-001"
	CodeFileReadFailed  Code = "IO-002"
	CodeFileWriteFailed Code = "IO-003"
	CodeCopyFailed      Code = "IO-004"

	// Comparison mismatches (CMP-001 to CMP-099)
	CodeTextMismatch     Code = "CMP-001"
	CodeJSONMismatch     Code = "CMP-002"
	CodeCSVMismatch      Code = "CMP-003"
	CodeFileSizeMismatch Code = "CMP-004"
	CodeFileHashMismatch Code = "CMP-005"
	CodeMethodMismatch   Code = "CMP-006"
	CodeStatusMismatch   Code = "CMP-007"
	CodeByteSizeMismatch Code = "CMP-008"

	// Timeouts and cancellation (TIMEOUT-001 to TIMEOUT-099)
	CodeTimeout   Code = "TIMEOUT-001"
	CodeCancelled Code = "TIMEOUT-002"

	// CodeUnknown is the fallback for failures with no better classification.
	CodeUnknown Code = "UNKNOWN-001"
)

// Category groups codes for reporting and exit-code mapping.
type Category string

const (
	CategoryNone    Category = "none"
	CategorySuite   Category = "suite"
	CategoryParse   Category = "parse"
	CategoryEnv     Category = "env"
	CategoryProcess Category = "process"
	CategoryNetwork Category = "network"
	CategoryIO      Category = "io"
	CategoryCompare Category = "compare"
	CategoryTimeout Category = "timeout"
	CategoryUnknown Category = "unknown"
)

// categories maps every defined code to its category. The mapping is total;
// TestCategoryTotality fails if a code is added without an entry here.
var categories = map[Code]Category{
	CodeNone:                 CategoryNone,
	CodeSuiteLoadFailed:      CategorySuite,
	CodeSuiteInvalid:         CategorySuite,
	CodeUnsupportedAction:    CategoryParse,
	CodeBadStepID:            CategoryParse,
	CodeEnvResetFailed:       CategoryEnv,
	CodeConfigRestoreFailed:  CategoryEnv,
	CodeExecutableMissing:    CategoryProcess,
	CodeProcessStartFailed:   CategoryProcess,
	CodeProcessCrashed:       CategoryProcess,
	CodeProcessKillFailed:    CategoryProcess,
	CodeStartTimeout:         CategoryProcess,
	CodeHTTPSpecMalformed:    CategoryNetwork,
	CodeHTTPRequestFailed:    CategoryNetwork,
	CodeHTTPStatusUnexpected: CategoryNetwork,
	CodeRelayFailed:          CategoryNetwork,
	CodeFileMissing:          CategoryIO,
	CodeFileReadFailed:       CategoryIO,
	CodeFileWriteFailed:      CategoryIO,
	CodeCopyFailed:           CategoryIO,
	CodeTextMismatch:         CategoryCompare,
	CodeJSONMismatch:         CategoryCompare,
	CodeCSVMismatch:          CategoryCompare,
	CodeFileSizeMismatch:     CategoryCompare,
	CodeFileHashMismatch:     CategoryCompare,
	CodeMethodMismatch:       CategoryCompare,
	CodeStatusMismatch:       CategoryCompare,
	CodeByteSizeMismatch:     CategoryCompare,
	CodeTimeout:              CategoryTimeout,
	CodeCancelled:            CategoryTimeout,
	CodeUnknown:              CategoryUnknown,
}

// Category returns the category the code belongs to. Codes constructed
// outside this package fall back to CategoryUnknown.
func (c Code) Category() Category {
	if cat, ok := categories[c]; ok {
		return cat
	}
	return CategoryUnknown
}

// AllCodes returns every defined code. Used by reporting and by the
// totality test.
func AllCodes() []Code {
	codes := make([]Code, 0, len(categories))
	for c := range categories {
		codes = append(codes, c)
	}
	return codes
}
