package instance

import "os"

// GetID identifies this worker process in logs. It prefers the WORKER_ID
// environment variable, then the hostname, then a fixed default.
func GetID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
