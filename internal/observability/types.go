package observability

// Severity represents the severity level of an error or message.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ErrorContext carries export-domain context for error reporting.
type ErrorContext struct {
	// Component identifies where the error occurred, e.g. "export",
	// "manifest", "mysql", "clickhouse".
	Component string

	// Operation describes the specific operation that failed, e.g.
	// "fetch_range", "offset_save".
	Operation string

	// Table and Column identify the export stream, if applicable.
	Table  string
	Column string

	// Offset is the 1-based byte offset in flight when the error occurred;
	// zero means not applicable.
	Offset int64

	// RunID identifies the export invocation.
	RunID string

	// Extra contains any additional key-value pairs to include.
	Extra map[string]interface{}
}

// NewErrorContext creates a new ErrorContext with the given component and operation.
func NewErrorContext(component, operation string) *ErrorContext {
	return &ErrorContext{
		Component: component,
		Operation: operation,
		Extra:     make(map[string]interface{}),
	}
}

// WithTable adds the table name to the error context.
func (ec *ErrorContext) WithTable(table string) *ErrorContext {
	ec.Table = table
	return ec
}

// WithColumn adds the column name to the error context.
func (ec *ErrorContext) WithColumn(column string) *ErrorContext {
	ec.Column = column
	return ec
}

// WithOffset adds the in-flight byte offset to the error context.
func (ec *ErrorContext) WithOffset(offset int64) *ErrorContext {
	ec.Offset = offset
	return ec
}

// WithRunID adds the export run identifier to the error context.
func (ec *ErrorContext) WithRunID(runID string) *ErrorContext {
	ec.RunID = runID
	return ec
}

// WithExtra adds extra key-value pairs to the error context.
func (ec *ErrorContext) WithExtra(key string, value interface{}) *ErrorContext {
	if ec.Extra == nil {
		ec.Extra = make(map[string]interface{})
	}
	ec.Extra[key] = value
	return ec
}

// ToMap flattens the ErrorContext for providers that take plain key-values.
func (ec *ErrorContext) ToMap() map[string]interface{} {
	result := make(map[string]interface{})

	if ec.Component != "" {
		result["component"] = ec.Component
	}
	if ec.Operation != "" {
		result["operation"] = ec.Operation
	}
	if ec.Table != "" {
		result["table"] = ec.Table
	}
	if ec.Column != "" {
		result["column"] = ec.Column
	}
	if ec.Offset > 0 {
		result["offset"] = ec.Offset
	}
	if ec.RunID != "" {
		result["run_id"] = ec.RunID
	}

	for k, v := range ec.Extra {
		result[k] = v
	}

	return result
}
