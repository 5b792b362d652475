package handler

const (
	errInternalServer     = "Internal server error"
	errTokenInvalid       = "Token is invalid or expired"
	errInvalidCredentials = "Invalid email or password"
	errUnknownDocument    = "Unknown document kind"

	// Signup and forgot-password always answer with this envelope so the
	// response never reveals whether an account exists.
	msgCheckEmail = "If an account exists for this email, a message is on its way"
)
