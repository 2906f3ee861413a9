package server

import "strings"

// isExpectedCloseError checks if an error is expected during connection
// closure, so teardown paths do not log routine socket churn.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
