// Package handler contains the gin handlers of the public HTTP API. It is the
// only place where service errors are turned into status codes and bodies.
package handler
