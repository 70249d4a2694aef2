// Package function is a small function host. Handlers are registered on a
// Blueprint against a trigger (an HTTP route, a cron timer or an in-memory
// queue) and served by an App, locally over HTTP or inside AWS Lambda.
//
// Two handler kinds are supported. A Handler receives the invocation context
// and is the asynchronous kind: the host waits for it and it may block on
// I/O. A SyncHandler receives only the Invocation.
package function
