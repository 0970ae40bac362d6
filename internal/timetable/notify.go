package timetable

import (
	"fmt"
	"time"
)

const (
	TransportFailureMessage = "通信に失敗しました。再読込して下さい。"
	LocationFailureMessage  = "位置情報の取得に失敗しました。"
)

type NotificationKind string

const (
	NotifyTransport NotificationKind = "transport"
	NotifyLocation  NotificationKind = "location"
)

// Notification is the user facing signal for a failed operation.
type Notification struct {
	Kind    NotificationKind
	Message string
	At      time.Time
}

type Notifier interface {
	Notify(notification Notification)
}

type NotifierFunc func(notification Notification)

func (fn NotifierFunc) Notify(notification Notification) {
	fn(notification)
}

// Position is the user's location. Views keep it but nothing reads it yet.
type Position struct {
	Latitude  float64
	Longitude float64
}

// LocationError carries the platform error code of a failed geolocation
// lookup (1 permission denied, 2 unavailable, 3 timeout).
type LocationError struct {
	Code int
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("geolocation failed with code %d", err.Code)
}

func transportNotification(err error, at time.Time) Notification {
	return Notification{
		Kind:    NotifyTransport,
		Message: TransportFailureMessage + "\n" + err.Error(),
		At:      at,
	}
}

func locationNotification(err *LocationError, at time.Time) Notification {
	return Notification{
		Kind:    NotifyLocation,
		Message: fmt.Sprintf("%s\nエラーコード: %d", LocationFailureMessage, err.Code),
		At:      at,
	}
}
