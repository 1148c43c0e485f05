package intent

// SdkError is returned when an intent is constructed from malformed data.
// It indicates a programming or upstream data error.
type SdkError struct {
	Reason string
}

func (e *SdkError) Error() string {
	return "intent: " + e.Reason
}
