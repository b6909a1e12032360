package errors

// BusinessError is a transport-neutral error with a stable code clients
// can switch on, such as "SGT001".
type BusinessError struct {
	Code    string
	Message string
}

func NewBusinessError(code string, message string) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
	}
}

func (e BusinessError) Error() string {
	return e.Code + " - " + e.Message
}
