package errors

import "fmt"

// Domain error constructors. Each one is a thin *AppError factory named
// after the failure kind in the generation/confirmation pipeline, so
// call sites read like the state machine they implement and the HTTP
// surface needs nothing beyond GetStatusCode to map a response.

func SchemaViolation(field, reason string) *AppError {
	return NewValidationError(fmt.Sprintf("%s: %s", field, reason)).WithDetails(field)
}

func Unauthenticated(reason string) *AppError {
	return NewAuthError(reason)
}

func RuleNotFound(tier, ageGroup string) *AppError {
	return NewValidationError(fmt.Sprintf("no active selection rule for tier=%s, age_group=%s", tier, ageGroup))
}

func InsufficientInput(reason string) *AppError {
	return NewValidationError(reason)
}

func CodeInactive(code string) *AppError {
	return NewValidationError(fmt.Sprintf("procedure code %s is missing or inactive", code))
}

func ParentNotFound(previousVersionUUID string) *AppError {
	return NewNotFoundError(fmt.Sprintf("parent generation %s", previousVersionUUID))
}

func RegenerationMissingParent() *AppError {
	return NewValidationError("is_regeneration=true requires previous_version_uuid")
}

func LLMCallFailed(reason string, cause error) *AppError {
	return Wrap(cause, ErrorTypeUpstream, fmt.Sprintf("LLM call failed: %s", reason))
}

func LLMTimeout(operation string) *AppError {
	err := New(ErrorTypeUpstreamTimeout, fmt.Sprintf("LLM call timed out: %s", operation))
	return err
}

func AlreadyConfirmed(generationID string) *AppError {
	return NewConflictError(fmt.Sprintf("generation %s is already confirmed", generationID))
}

func GenerationNotFound(generationID string) *AppError {
	return NewNotFoundError(fmt.Sprintf("generation %s", generationID))
}

func GenerationNotSuccessful(generationID string) *AppError {
	return NewConflictError(fmt.Sprintf("generation %s did not complete successfully", generationID))
}
