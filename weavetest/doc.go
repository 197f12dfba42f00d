/*
Package weavetest provides mocks and helpers for testing handlers,
decorators and the engine.
*/
package weavetest
