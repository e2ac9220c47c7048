// Package account implements the account lifecycle of a web backend:
// registration, email confirmation, credential checks, session issuance,
// password reset, and profile lookup.
//
// Lifecycle:
//   - A User starts inactive with a confirm token. ConfirmAccount activates
//     it while the token is still active, ResendConfirmation replaces the
//     token of an inactive account.
//   - ForgotPassword issues a reset token and mails it without waiting for
//     delivery. CheckResetLink and ResetPassword honor the token expiry, a
//     successful reset pins the expiry to the reset time.
//   - Tokens are opaque 96 character hex strings, see TokenState for how
//     the stored expiry maps to active, expired and consumed.
//
// Errors:
//   - Every failure is a *errors.Error from go-errors carrying a stable
//     TextCode and an HTTP status code. NewErrorHandler renders them as
//     ErrorResponse.
//
// Activity sinks:
//   - ActivitySink receives an ActivityEvent for every lifecycle step.
//     Sinks run best-effort (errors are logged) so you can forward events
//     to a queue without blocking the request, see activity/natssink.
package account
