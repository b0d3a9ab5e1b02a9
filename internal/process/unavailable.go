package process

import "strings"

// servicesUnavailableMarker is what tf prints on stderr when the server
// refuses service. The text is server-version and locale specific.
const servicesUnavailableMarker = "TF400324: Team Foundation services are not available from server"

// IsServicesUnavailable reports whether a line of tf error output signals that
// the legacy server is temporarily unavailable.
func IsServicesUnavailable(line string) bool {
	return strings.Contains(line, servicesUnavailableMarker)
}
