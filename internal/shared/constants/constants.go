package constants

const (
	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Authorization scheme
	BearerScheme = "Bearer"

	// Context keys set by the HTTP middleware chain
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeySessionID = "session_id"
	ContextKeyProfile   = "profile"
	ContextKeyUserRole  = "user_role"
	ContextKeyRequestID = "request_id"

	// Multipart form fields
	FormFieldContent = "content"
	FormFieldFile    = "file"
	FormFieldFiles   = "files"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgUnauthorized        = "authentication required"
	ErrMsgForbidden           = "insufficient permissions"
	ErrMsgTicketNotFound      = "ticket not found"
)
