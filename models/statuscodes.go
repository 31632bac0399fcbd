package models

// Status codes classify the cause of an event. The values follow the common
// telematics convention of a 16-bit code space.
const (
	// StatusNone is a heartbeat/keepalive. It is consumed by ingestion but
	// never persisted.
	StatusNone = 0x0000

	StatusLocation       = 0xF020
	StatusMotionStart    = 0xF111
	StatusMotionStop     = 0xF113
	StatusGeofenceArrive = 0xF210
	StatusGeofenceDepart = 0xF230
	StatusIgnitionOn     = 0xF401
	StatusIgnitionOff    = 0xF403
	StatusLowBattery     = 0xFD10
	StatusConnect        = 0xF311
	StatusDisconnect     = 0xF313
)

// IsGeofenceTransition reports whether the code is a client-generated
// geofence arrival or departure.
func IsGeofenceTransition(code int) bool {
	return code == StatusGeofenceArrive || code == StatusGeofenceDepart
}

// IsHighPriority reports whether the code warrants synchronous reverse
// geocoding when the geocoder runs in partial mode.
func IsHighPriority(code int) bool {
	switch code {
	case StatusGeofenceArrive, StatusGeofenceDepart,
		StatusMotionStart, StatusMotionStop,
		StatusIgnitionOn, StatusIgnitionOff:
		return true
	}
	return false
}
