package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"kindred/internal/domain"
	"kindred/internal/events"
	"kindred/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *fakeBus) Publish(e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}

func (b *fakeBus) events() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.published...)
}

type fakeDeviceStore struct {
	devices map[string]*models.Device
}

func (s *fakeDeviceStore) GetByUUID(uuid string) (*models.Device, error) {
	d, ok := s.devices[uuid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

type recordedSample struct {
	deviceID uint
	lat, lng float64
	battery  *int
}

type fakeSampleStore struct {
	err      error
	recorded []recordedSample
}

func (s *fakeSampleStore) RecordSample(device *models.Device, lat, lng float64, battery *int, _ time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, recordedSample{deviceID: device.ID, lat: lat, lng: lng, battery: battery})
	return nil
}

func newIngestor() (*LocationService, *fakeDeviceStore, *fakeSampleStore, *fakeBus) {
	devices := &fakeDeviceStore{devices: map[string]*models.Device{
		"dev-1": {ID: 10, UserID: 100, UUID: "dev-1", IsActive: true},
		"dev-2": {ID: 11, UserID: 101, UUID: "dev-2", IsActive: false},
	}}
	samples := &fakeSampleStore{}
	bus := &fakeBus{}
	return NewLocationService(devices, samples, bus), devices, samples, bus
}

func TestSubmitLocationRejectsBadCoordinates(t *testing.T) {
	svc, _, samples, bus := newIngestor()
	tests := []struct{ lat, lng float64 }{
		{91, 0}, {-91, 0}, {0, 181}, {0, -181},
	}
	for _, tt := range tests {
		err := svc.SubmitLocation(100, "dev-1", tt.lat, tt.lng, nil)
		assert.ErrorIs(t, err, domain.ErrValidation, "(%f,%f)", tt.lat, tt.lng)
	}
	assert.Empty(t, samples.recorded, "no partial writes on validation failure")
	assert.Empty(t, bus.events())
}

func TestSubmitLocationRejectsBadBattery(t *testing.T) {
	svc, _, _, _ := newIngestor()
	bad := -1
	assert.ErrorIs(t, svc.SubmitLocation(100, "dev-1", 10, 10, &bad), domain.ErrValidation)
	bad = 101
	assert.ErrorIs(t, svc.SubmitLocation(100, "dev-1", 10, 10, &bad), domain.ErrValidation)
}

func TestSubmitLocationUnknownDevice(t *testing.T) {
	svc, _, samples, bus := newIngestor()
	err := svc.SubmitLocation(100, "nope", 10, 10, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, samples.recorded)
	assert.Empty(t, bus.events())
}

func TestSubmitLocationRejectsUnownedDevice(t *testing.T) {
	svc, _, samples, bus := newIngestor()
	// dev-1 belongs to user 100; user 101 knowing its UUID must not be able to
	// write samples that fan out as user 100's position.
	err := svc.SubmitLocation(101, "dev-1", 37.5665, 126.9780, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, samples.recorded)
	assert.Empty(t, bus.events())
}

func TestSubmitLocationInactiveDevice(t *testing.T) {
	svc, _, _, bus := newIngestor()
	err := svc.SubmitLocation(101, "dev-2", 10, 10, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, bus.events())
}

func TestSubmitLocationPersistsThenEmits(t *testing.T) {
	svc, _, samples, bus := newIngestor()
	battery := 77
	require.NoError(t, svc.SubmitLocation(100, "dev-1", 37.5665, 126.9780, &battery))

	require.Len(t, samples.recorded, 1)
	rec := samples.recorded[0]
	assert.Equal(t, uint(10), rec.deviceID)
	assert.Equal(t, 37.5665, rec.lat)
	assert.Equal(t, 126.9780, rec.lng)
	require.NotNil(t, rec.battery)
	assert.Equal(t, 77, *rec.battery)

	evs := bus.events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.LocationChanged{SubjectID: 100}, evs[0])
}

func TestSubmitLocationNoEventWhenWriteFails(t *testing.T) {
	svc, _, samples, bus := newIngestor()
	samples.err = errors.New("deadlock")
	err := svc.SubmitLocation(100, "dev-1", 37.5665, 126.9780, nil)
	assert.Error(t, err)
	// LocationChanged is only emitted after the write is durable.
	assert.Empty(t, bus.events())
}
