package notify

import (
	logrus "github.com/sirupsen/logrus"
)

// Event describes a committed route mutation handed to the notifier.
type Event struct {
	OrgID     uint   `json:"org_id"`
	RouteID   uint   `json:"route_id"`
	VehicleID uint   `json:"vehicle_id"`
	RouteName string `json:"route_name"`
	Date      string `json:"date"`
}

// Notifier is the delivery collaborator called after a successful mutation.
// Delivery is best effort: the committed route is the source of truth, so a
// returned error is logged by the caller and never unwinds the mutation.
type Notifier interface {
	RouteCreated(e Event) error
	RouteStopsUpdated(e Event) error
	RouteDeleted(e Event) error
}

// LogNotifier is the default sink: it just records the event. Real
// deployments swap in a push/adaptive-card transport behind the same
// interface.
type LogNotifier struct{}

func (LogNotifier) RouteCreated(e Event) error {
	logrus.WithFields(logrus.Fields{"org_id": e.OrgID, "route_id": e.RouteID, "vehicle_id": e.VehicleID}).
		Info("route created")
	return nil
}

func (LogNotifier) RouteStopsUpdated(e Event) error {
	logrus.WithFields(logrus.Fields{"org_id": e.OrgID, "route_id": e.RouteID}).
		Info("route stops updated")
	return nil
}

func (LogNotifier) RouteDeleted(e Event) error {
	logrus.WithFields(logrus.Fields{"org_id": e.OrgID, "route_id": e.RouteID}).
		Info("route deleted")
	return nil
}
