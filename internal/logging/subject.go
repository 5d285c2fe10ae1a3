package logging

import "strings"

const shortRequestIDLength = 8

// FormatSubject builds the operation/request subject shown in console output,
// e.g. "encode (req 3f2a9c1b)".
func FormatSubject(operation, requestID string) string {
	operation = strings.TrimSpace(operation)
	requestID = strings.TrimSpace(requestID)
	if len(requestID) > shortRequestIDLength {
		requestID = requestID[:shortRequestIDLength]
	}
	switch {
	case operation != "" && requestID != "":
		return operation + " (req " + requestID + ")"
	case operation != "":
		return operation
	case requestID != "":
		return "req " + requestID
	default:
		return ""
	}
}
