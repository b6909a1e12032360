package errors

type HTTPError struct {
	Code       string
	Message    string
	StatusCode int
}

func NewHTTPError(statusCode int, be *BusinessError) *HTTPError {
	return &HTTPError{
		Code:       be.Code,
		Message:    be.Message,
		StatusCode: statusCode,
	}
}

func (e HTTPError) Error() string {
	return e.Message
}
