package chat

import "github.com/w-h-a/tutor/internal/fault"

const (
	unauthorizedText = "I'm sorry, but I'm currently unable to connect to the AI service. Please check that your API keys are configured correctly."
	rateLimitedText  = "I'm sorry, but I've reached the rate limit for the AI service. Please try again later."
	timeoutText      = "I'm sorry, but the request timed out. Please try again."
	storageText      = "I'm sorry, but there's a connection issue with the database. Please try again later."
	genericText      = "I'm sorry, there was an error processing your request. Please try again."
)

func fallbackText(kind fault.Kind) string {
	switch kind {
	case fault.KindUnauthorized:
		return unauthorizedText
	case fault.KindRateLimited:
		return rateLimitedText
	case fault.KindTimeout:
		return timeoutText
	case fault.KindStorage:
		return storageText
	default:
		return genericText
	}
}
