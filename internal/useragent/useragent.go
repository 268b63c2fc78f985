// Package useragent extracts coarse device info from User-Agent strings for
// session metadata. Pure and stateless.
package useragent

import (
	"strings"

	ua "github.com/mileusna/useragent"
)

// Device describes the client coarsely: OS plus browser name/version.
type Device struct {
	OS      string
	Name    string
	Version string
}

// Parse detects OS and browser from a User-Agent string. Unknown fields come
// back as "unknown" so session rows never hold empty descriptive columns.
func Parse(userAgent string) Device {
	parsed := ua.Parse(userAgent)
	d := Device{
		OS:      parsed.OS,
		Name:    parsed.Name,
		Version: majorVersion(parsed.Version),
	}
	if d.OS == "" {
		d.OS = "unknown"
	}
	if d.Name == "" {
		d.Name = "unknown"
	}
	if d.Version == "" {
		d.Version = "unknown"
	}
	return d
}

// Browser formats the device's browser as "Name Version" for display.
func (d Device) Browser() string {
	return d.Name + " " + d.Version
}

func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i > 0 {
		return v[:i]
	}
	return v
}
