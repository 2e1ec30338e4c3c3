package dto

import "github.com/shopnotify/backend/internal/domain/device"

// SaveTokenRequest registers a device. At least one token must be present.
type SaveTokenRequest struct {
	ExpoPushToken string `json:"expoPushToken" binding:"required_without=FCMToken"`
	FCMToken      string `json:"fcmToken" binding:"required_without=ExpoPushToken"`
}

// ToToken converts the request to a domain token
func (r SaveTokenRequest) ToToken() device.Token {
	return device.Token{ExpoPushToken: r.ExpoPushToken, FCMToken: r.FCMToken}
}

// SaveTokenResponse reports whether the device was new
type SaveTokenResponse struct {
	Success  bool `json:"success"`
	Inserted bool `json:"inserted"`
}

// TestNotificationResponse reports a diagnostic fan-out
type TestNotificationResponse struct {
	Success       bool `json:"success"`
	Messages      int  `json:"messages"`
	Batches       int  `json:"batches"`
	FailedBatches int  `json:"failedBatches"`
}
