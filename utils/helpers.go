package utils

import (
	"strconv"
	"strings"
	"time"
)

// ===================================================================
// TIME HELPERS
// ===================================================================

// GetUnixTimestamp returns current Unix timestamp
func GetUnixTimestamp() int64 {
	return time.Now().Unix()
}

// ===================================================================
// PARSING HELPERS
// ===================================================================

// GetInt64OrDefault returns the parsed value if valid, otherwise defaultValue
func GetInt64OrDefault(valueStr string, defaultValue int64) int64 {
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

// GetIntOrDefault returns the parsed value if valid, otherwise defaultValue
func GetIntOrDefault(valueStr string, defaultValue int) int {
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// GetFloatOrDefault returns the parsed value if valid, otherwise defaultValue
func GetFloatOrDefault(valueStr string, defaultValue float64) float64 {
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// ParseStatusCodes parses a comma-separated list of status codes. Both decimal
// and 0x-prefixed hex forms are accepted; unparseable entries are skipped.
func ParseStatusCodes(csv string) []int {
	if csv == "" {
		return nil
	}
	var codes []int
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if code, err := strconv.ParseInt(part, 0, 32); err == nil {
			codes = append(codes, int(code))
		}
	}
	return codes
}

// ===================================================================
// RESPONSE HELPERS
// ===================================================================

// StandardResponse represents a standard API response
type StandardResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse creates a success response
func SuccessResponse(message string, data interface{}) StandardResponse {
	return StandardResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// ErrorResponse creates an error response
func ErrorResponse(message string) StandardResponse {
	return StandardResponse{
		Status:  "error",
		Message: message,
	}
}
