/*
Package identity implements the identity oracle of the application.

The caller of every operation is represented by a single condition that is
stored in the context before the operation is executed. Authenticator reveals
that condition to the handlers.

Remote callers prove who they are with a JSON Web Token. A verified token
subject is turned into the condition jwt/sub/<subject>.
*/
package identity
