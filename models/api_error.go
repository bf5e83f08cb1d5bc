package models

// Error codes returned by the push backend in [APIError.MessageID].
const (
	ErrorCodeNoRegistration = "NO_REGISTRATION"
	ErrorCodeBadRequest     = "BAD_REQUEST"
	ErrorCodeUnauthorized   = "UNAUTHORIZED"
)

// APIError is the error payload of the push backend.
type APIError struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
}

// ErrorResponse wraps [APIError] the way the backend sends it:
//
//	{"requestError":{"serviceException":{"messageId":"NO_REGISTRATION","text":"..."}}}
type ErrorResponse struct {
	RequestError struct {
		ServiceException APIError `json:"serviceException"`
	} `json:"requestError"`
}

// NewErrorResponse builds an error payload.
func NewErrorResponse(code, text string) ErrorResponse {
	var r ErrorResponse
	r.RequestError.ServiceException = APIError{MessageID: code, Text: text}
	return r
}

// PersonalizeRequest is the body of the personalize call.
type PersonalizeRequest struct {
	UserIdentity   map[string]any `json:"userIdentity"`
	UserAttributes map[string]any `json:"userAttributes,omitempty"`
}
