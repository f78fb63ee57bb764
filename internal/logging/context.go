package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a record for filtering, e.g. "assembly_decode_failed".
	FieldEventType = "event_type"
	// FieldErrorHint is the next step a user should take after a warning or error.
	FieldErrorHint = "error_hint"
	// FieldPath is the standardized key for file system paths.
	FieldPath = "path"
	// FieldAssemblyID is the standardized key for assembly identity strings.
	FieldAssemblyID = "assembly_id"
	// FieldRoot is the standardized key for search roots.
	FieldRoot = "root"
)
