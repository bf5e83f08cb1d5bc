package models

import "github.com/MKhiriev/go-push-sync/internal/delta"

// SystemData holds device, OS and SDK facts. They are attached to an
// installation request only when their fingerprint changed.
type SystemData struct {
	SDKVersion         string `json:"sdkVersion,omitempty"`
	AppVersion         string `json:"appVersion,omitempty"`
	OS                 string `json:"os,omitempty"`
	OSVersion          string `json:"osVersion,omitempty"`
	DeviceManufacturer string `json:"deviceManufacturer,omitempty"`
	DeviceModel        string `json:"deviceModel,omitempty"`
	DeviceName         string `json:"deviceName,omitempty"`
	Language           string `json:"language,omitempty"`
	Timezone           string `json:"timezone,omitempty"`
}

// ToMap converts the system data to the delta representation.
func (s SystemData) ToMap() (delta.Map, error) {
	return toMap(s)
}
