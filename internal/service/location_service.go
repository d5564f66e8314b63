package service

import (
	"errors"
	"fmt"
	"time"

	"kindred/internal/domain"
	"kindred/internal/events"
	"kindred/internal/models"
	"kindred/pkg/geo"

	"gorm.io/gorm"
)

type DeviceStore interface {
	GetByUUID(uuid string) (*models.Device, error)
}

type SampleStore interface {
	RecordSample(device *models.Device, lat, lng float64, battery *int, capturedAt time.Time) error
}

type EventPublisher interface {
	Publish(e events.Event)
}

// LocationService is the ingestion path: validate, persist atomically, then
// emit LocationChanged. The event goes out only after RecordSample returns,
// i.e. after the write is durable; fan-out never observes uncommitted state.
type LocationService struct {
	devices DeviceStore
	samples SampleStore
	bus     EventPublisher
	now     func() time.Time
}

func NewLocationService(devices DeviceStore, samples SampleStore, bus EventPublisher) *LocationService {
	return &LocationService{devices: devices, samples: samples, bus: bus, now: time.Now}
}

func (s *LocationService) SubmitLocation(userID uint, deviceUUID string, lat, lng float64, battery *int) error {
	if !geo.ValidCoordinate(lat, lng) {
		return fmt.Errorf("%w: coordinates out of range (%.4f, %.4f)", domain.ErrValidation, lat, lng)
	}
	if battery != nil && (*battery < 0 || *battery > 100) {
		return fmt.Errorf("%w: battery level must be 0-100", domain.ErrValidation)
	}
	device, err := s.devices.GetByUUID(deviceUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: unknown device", domain.ErrNotFound)
		}
		return err
	}
	// Another user's device UUID is indistinguishable from an unknown one;
	// samples only ever come from the device owner.
	if device.UserID != userID {
		return fmt.Errorf("%w: unknown device", domain.ErrNotFound)
	}
	if !device.IsActive {
		return fmt.Errorf("%w: device deactivated", domain.ErrNotFound)
	}
	if err := s.samples.RecordSample(device, lat, lng, battery, s.now()); err != nil {
		return err
	}
	s.bus.Publish(events.LocationChanged{SubjectID: device.UserID})
	return nil
}
