// Package errors provides the unified error type used across ollamacmd.
// Every failure an invocation can meet (launch, stream, timeout, exit
// status, validation) is expressed as an AppError with a machine-readable
// code, so the command layer can turn it into exactly one feedback message
// and the HTTP bridge can render it as a JSON body.
package errors
