package memutils

// Validatable is implemented by every structure that can check its own internal consistency.
// DebugValidate accepts any Validatable.
type Validatable interface {
	Validate() error
}
