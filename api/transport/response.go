package transport

// ErrorBody is returned for every failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageBody confirms a command without returning a resource.
type MessageBody struct {
	Message string `json:"message"`
}

// AccessBody is the refresh endpoint response.
type AccessBody struct {
	Access string `json:"access"`
}

// NewError builds the error body returned for a failed request.
func NewError(code, message string) ErrorBody {
	return ErrorBody{Error: message, Code: code}
}

// NewMessage wraps a user-facing confirmation message.
func NewMessage(message string) MessageBody {
	return MessageBody{Message: message}
}
