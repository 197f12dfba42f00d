/*
Package x contains some standard extensions

Extensions implement common functionality (Handler, Decorator, etc.) for use
in the application. The authentication contract shared by all extensions is
declared here as well.
*/
package x
