package nlu

// ConfigurationError reports an invalid NLU configuration. It is returned
// at construction, never at call time.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return "nlu configuration: " + e.Reason + ": " + e.Err.Error()
	}
	return "nlu configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// AuthenticationError is returned when the QnA service rejects the
// configured credentials.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return "qna authentication failed: " + e.Err.Error()
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
