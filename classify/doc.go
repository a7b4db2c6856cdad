// Package classify interprets raw execution results into structured outcomes.
//
// The classify package turns the envelope's uninterpreted result (exit
// status, captured streams, limit flags) into a tagged outcome: success,
// syntax error, runtime error, timeout, resource limit breach, policy
// violation, or an internal sandbox fault. Python error reports are parsed
// into a structured traceback (exception type, message, frame list);
// captured text is otherwise surfaced verbatim and never interpreted.
package classify
