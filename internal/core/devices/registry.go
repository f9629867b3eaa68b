package devices

import (
	"sort"
	"sync"
	"time"

	"github.com/hestia-ops/hestia-backend-go/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MutateFunc receives a private copy of the committed record and returns
// the state to commit. Returning an error aborts the mutation without
// touching the committed record.
type MutateFunc func(d *Device) (DeviceState, error)

// Registry owns the canonical device records. Each device has its own
// serialization slot: at most one mutation is in flight per id, and
// reads only ever observe committed state.
type Registry struct {
	mu     sync.RWMutex
	slots  map[string]*deviceSlot
	logger *logrus.Logger
}

type deviceSlot struct {
	mu     sync.Mutex
	device *Device
}

// NewRegistry creates an empty device registry.
func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		slots:  make(map[string]*deviceSlot),
		logger: logger,
	}
}

// Add registers a device. The state defaults from the type when nil.
func (r *Registry) Add(d *Device) error {
	if d == nil || d.ID == "" {
		return errors.InvalidArgumentf("device and device id are required")
	}
	if !ValidDeviceType(string(d.Type)) {
		return errors.InvalidArgumentf("unknown device type: %s", d.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slots[d.ID]; exists {
		return errors.InvalidArgumentf("device %s already registered", d.ID)
	}

	record := d.Clone()
	if record.State == nil {
		record.State = DefaultState(record.Type)
	}
	if record.State.DeviceType() != record.Type {
		return errors.InvalidArgumentf("state does not match device type %s", record.Type)
	}
	if err := NormalizeState(record.State); err != nil {
		return err
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}

	r.slots[d.ID] = &deviceSlot{device: record}

	r.logger.WithFields(logrus.Fields{
		"device_id":   d.ID,
		"device_type": d.Type,
		"room_id":     d.RoomID,
	}).Debug("Device registered")

	return nil
}

// Remove deletes a device record.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slots[id]; !exists {
		return errors.NotFoundf("device %s not found", id)
	}
	delete(r.slots, id)

	r.logger.WithField("device_id", id).Debug("Device removed")
	return nil
}

// Get returns a copy of the committed record.
func (r *Registry) Get(id string) (*Device, error) {
	slot, err := r.slot(id)
	if err != nil {
		return nil, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.device.Clone(), nil
}

// Mutate applies fn to a copy of the committed record and commits the
// returned state. The slot lock guarantees a user action and a
// simulation tick targeting the same device never interleave.
func (r *Registry) Mutate(id string, fn MutateFunc) (*Device, error) {
	slot, err := r.slot(id)
	if err != nil {
		return nil, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	working := slot.device.Clone()
	newState, err := fn(working)
	if err != nil {
		return nil, err
	}

	working.State = newState
	working.UpdatedAt = time.Now()
	slot.device = working

	return working.Clone(), nil
}

// List returns copies of all committed records ordered by id.
func (r *Registry) List() []*Device {
	return r.collect(func(*Device) bool { return true })
}

// ListByRoom returns the devices assigned to a room.
func (r *Registry) ListByRoom(roomID string) []*Device {
	return r.collect(func(d *Device) bool { return d.RoomID == roomID })
}

// ListByType returns the devices of one type.
func (r *Registry) ListByType(t DeviceType) []*Device {
	return r.collect(func(d *Device) bool { return d.Type == t })
}

// AssignRoom moves a device to a room (empty roomID unassigns).
func (r *Registry) AssignRoom(id, roomID string) (*Device, error) {
	slot, err := r.slot(id)
	if err != nil {
		return nil, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	working := slot.device.Clone()
	working.RoomID = roomID
	working.UpdatedAt = time.Now()
	slot.device = working

	return working.Clone(), nil
}

func (r *Registry) slot(id string) (*deviceSlot, error) {
	r.mu.RLock()
	slot, exists := r.slots[id]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.NotFoundf("device %s not found", id)
	}
	return slot, nil
}

func (r *Registry) collect(match func(*Device) bool) []*Device {
	r.mu.RLock()
	slots := make([]*deviceSlot, 0, len(r.slots))
	for _, slot := range r.slots {
		slots = append(slots, slot)
	}
	r.mu.RUnlock()

	out := make([]*Device, 0, len(slots))
	for _, slot := range slots {
		slot.mu.Lock()
		if match(slot.device) {
			out = append(out, slot.device.Clone())
		}
		slot.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
