package models

import "testing"

func TestGeoPointIsValid(t *testing.T) {
	cases := []struct {
		name  string
		point GeoPoint
		want  bool
	}{
		{"origin is the no-fix sentinel", GeoPoint{0, 0}, false},
		{"typical fix", GeoPoint{39.2, -77.3}, true},
		{"zero latitude only", GeoPoint{0, -77.3}, true},
		{"zero longitude only", GeoPoint{39.2, 0}, true},
		{"negative coordinates", GeoPoint{-33.9, 151.2}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.point.IsValid(); got != tc.want {
				t.Errorf("IsValid(%+v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}

func TestEventRecordHasValidFix(t *testing.T) {
	ev := &EventRecord{Latitude: 0, Longitude: 0}
	if ev.HasValidFix() {
		t.Error("(0,0) must not count as a valid fix")
	}
	ev.Latitude = 39.2
	if !ev.HasValidFix() {
		t.Error("non-zero latitude must count as a valid fix")
	}
}

func TestApplyAddress(t *testing.T) {
	ev := &EventRecord{
		AccountID:  "acme",
		DeviceID:   "truck-1",
		Timestamp:  900,
		StatusCode: StatusLocation,
	}

	ev.ApplyAddress(&ReverseGeocode{
		FullAddress:   "1 Main St, Rockville",
		StreetAddress: "1 Main St",
		City:          "Rockville",
		StateProvince: "MD",
		PostalCode:    "20850",
		Country:       "US",
	})

	if !ev.HasAddress() {
		t.Fatal("address not applied")
	}
	if ev.City != "Rockville" || ev.PostalCode != "20850" {
		t.Errorf("address fields not copied: %+v", ev)
	}
	if ev.Timestamp != 900 || ev.StatusCode != StatusLocation {
		t.Error("key fields must never change during enrichment")
	}

	t.Run("nil is a no-op", func(t *testing.T) {
		before := *ev
		ev.ApplyAddress(nil)
		if *ev != before {
			t.Error("ApplyAddress(nil) changed the event")
		}
	})
}

func TestStatusCodePredicates(t *testing.T) {
	if !IsGeofenceTransition(StatusGeofenceArrive) || !IsGeofenceTransition(StatusGeofenceDepart) {
		t.Error("arrive/depart are geofence transitions")
	}
	if IsGeofenceTransition(StatusLocation) {
		t.Error("periodic location is not a geofence transition")
	}
	if IsHighPriority(StatusLocation) {
		t.Error("periodic location is not high priority")
	}
	for _, code := range []int{StatusGeofenceArrive, StatusGeofenceDepart, StatusMotionStart, StatusMotionStop, StatusIgnitionOn, StatusIgnitionOff} {
		if !IsHighPriority(code) {
			t.Errorf("status 0x%04X should be high priority", code)
		}
	}
	if IsHighPriority(StatusLowBattery) {
		t.Error("low battery does not need a synchronous address")
	}
}
