package shell

const (
	MessageConfigIssue    = "App configuration issue. Please contact support if this persists."
	MessageLimited        = "Some features may be limited due to initialization issues."
	MessageInitCrashed    = "App initialization encountered issues. Some features may be limited."
	MessageLinkFailed     = "Unable to process invitation link"
	errEnvironmentInvalid = "Environment validation failed"
)
