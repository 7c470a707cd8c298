package suite

// ValidationKind names one category of validation a step can require.
type ValidationKind string

const (
	ValidationClientOutput ValidationKind = "client-output"
	ValidationServerOutput ValidationKind = "server-output"
	ValidationDataRequest  ValidationKind = "data-request"
	ValidationDataResponse ValidationKind = "data-response"
	ValidationHTTPMethod   ValidationKind = "http-method"
	ValidationStatusCode   ValidationKind = "status-code"
	ValidationByteSize     ValidationKind = "byte-size"
	ValidationDataType     ValidationKind = "data-type"
	// ValidationNone marks control steps that validate nothing.
	ValidationNone ValidationKind = "none"
)

// GradingConfig is an immutable snapshot of grading toggles. Both gate
// functions are pure and total; the snapshot is never mutated mid-run.
type GradingConfig struct {
	ValidateClientOutput bool `yaml:"validate_client_output"`
	ValidateServerOutput bool `yaml:"validate_server_output"`
	ValidateDataRequest  bool `yaml:"validate_data_request"`
	ValidateDataResponse bool `yaml:"validate_data_response"`
	ValidateHTTPMethod   bool `yaml:"validate_http_method"`
	ValidateStatusCode   bool `yaml:"validate_status_code"`
	ValidateByteSize     bool `yaml:"validate_byte_size"`
	ValidateDataType     bool `yaml:"validate_data_type"`

	// Sheet-level gates. A step whose ID prefix belongs to a disabled
	// sheet is skipped without scoring.
	GradeOutputClientsSheet bool `yaml:"grade_output_clients_sheet"`
	GradeOutputServersSheet bool `yaml:"grade_output_servers_sheet"`
}

// DefaultGradingConfig enables every validation and both sheets.
func DefaultGradingConfig() GradingConfig {
	return GradingConfig{
		ValidateClientOutput:    true,
		ValidateServerOutput:    true,
		ValidateDataRequest:     true,
		ValidateDataResponse:    true,
		ValidateHTTPMethod:      true,
		ValidateStatusCode:      true,
		ValidateByteSize:        true,
		ValidateDataType:        true,
		GradeOutputClientsSheet: true,
		GradeOutputServersSheet: true,
	}
}

// IsEnabled reports whether a validation kind is switched on.
// ValidationNone is always enabled: control steps are never kind-gated.
func (c GradingConfig) IsEnabled(kind ValidationKind) bool {
	switch kind {
	case ValidationClientOutput:
		return c.ValidateClientOutput
	case ValidationServerOutput:
		return c.ValidateServerOutput
	case ValidationDataRequest:
		return c.ValidateDataRequest
	case ValidationDataResponse:
		return c.ValidateDataResponse
	case ValidationHTTPMethod:
		return c.ValidateHTTPMethod
	case ValidationStatusCode:
		return c.ValidateStatusCode
	case ValidationByteSize:
		return c.ValidateByteSize
	case ValidationDataType:
		return c.ValidateDataType
	default:
		return true
	}
}

// ShouldGradeStep applies the sheet-level gate for a step ID. IDs with an
// unrecognized prefix are graded; only a disabled sheet suppresses scoring.
func (c GradingConfig) ShouldGradeStep(stepID string) bool {
	switch (Step{ID: stepID}).SheetPrefix() {
	case "OC":
		return c.GradeOutputClientsSheet
	case "OS":
		return c.GradeOutputServersSheet
	default:
		return true
	}
}

// ValidationKind derives the validation category a step requires from its
// sheet prefix. Control actions require none.
func (s Step) ValidationKind() ValidationKind {
	if !s.Action.IsCompare() {
		return ValidationNone
	}
	switch s.SheetPrefix() {
	case "OC":
		return ValidationClientOutput
	case "OS":
		return ValidationServerOutput
	case "RQ":
		return ValidationDataRequest
	case "RS":
		return ValidationDataResponse
	default:
		return ValidationNone
	}
}
