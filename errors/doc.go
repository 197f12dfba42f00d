/*
Package errors implements error handling for the trade finance application.

All errors returned by handlers and controllers should be created by wrapping
one of the registered root errors. A root error carries a numeric code, which
allows clients (ie. the HTTP API) to distinguish the kind of failure without
parsing the message.

Extensions may declare their own root errors using Register. Codes must be
unique across the whole application, attempt to register a code twice panics.

	var ErrNoFunds = errors.Register(1110, "no funds")

Create an error instance using the Wrap family of functions. The innermost
wrap attaches a stack trace.

	return errors.Wrapf(errors.ErrNotFound, "trade %d", id)

Use the Is method of the root error to test the kind of an error.

	if errors.ErrNotFound.Is(err) { ... }

Once you have an error, you can use fmt to get more context
	%s is just the error message
	%+v is the full stack trace
*/
package errors
