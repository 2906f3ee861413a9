// Package server implements the realtime session and broadcast engine of
// sketchdeck, plus the REST surface around it.
//
// The implementation is organized into specialized files: connection
// admission (handlers.go), the frame router (router.go), the hub and fan-out
// loop (hub.go), client pumps (client.go), room resolution (rooms.go), and
// the HTTP endpoints (api.go, routes.go). Room membership itself lives in
// the session package; durable state lives in the store package.
package server
