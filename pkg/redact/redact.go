// Package redact implements the field-level and whole-payload
// redaction policy applied to AuditRecord and ConfirmationRecord
// payloads before persistence (spec.md §4.7).
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const markerPrefix = "[REDACTED:"

// Fields replaces the value of each named field in data with
// "[REDACTED:<8-hex-chars>]" when the value is a non-empty string. Non-
// string and missing values are left untouched. Nested objects are not
// recursed into. The operation is idempotent: a value already carrying
// the marker prefix is left unchanged rather than re-hashed.
func Fields(data map[string]interface{}, fieldNames []string) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	redactSet := make(map[string]struct{}, len(fieldNames))
	for _, f := range fieldNames {
		redactSet[f] = struct{}{}
	}
	for field := range redactSet {
		v, ok := out[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if strings.HasPrefix(s, markerPrefix) {
			continue
		}
		out[field] = Marker(s)
	}
	return out
}

// Marker computes the "[REDACTED:<8-hex-chars>]" marker for a value,
// where the hex is the first 8 characters of the hex-encoded SHA-256 of
// the UTF-8 value.
func Marker(value string) string {
	sum := sha256.Sum256([]byte(value))
	return markerPrefix + hex.EncodeToString(sum[:])[:8] + "]"
}

// FullPayloadMarker is the payload substituted for the entire
// input/output document when store_full_audit_data=false.
func FullPayloadMarker() map[string]interface{} {
	return map[string]interface{}{"redacted": true}
}

// IsRedacted reports whether a string value is already a redaction
// marker, supporting the idempotence guarantee.
func IsRedacted(value string) bool {
	return strings.HasPrefix(value, markerPrefix)
}
