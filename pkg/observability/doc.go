/*
Package observability provides tools for monitoring the flowbot compiler.

It bridges the compiler lifecycle hooks (domain.CompileHooks) to Prometheus
collectors and to structured logs, so services can expose compile activity on
/metrics and audit warnings as they happen.
*/
package observability
