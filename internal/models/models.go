package models

// User is a person known to the remote service.
type User struct {
	// ID is the remote service's numeric identifier.
	ID int64 `json:"id"`

	// Identifier is the human-readable identity (badge name, username).
	Identifier string `json:"identifier"`

	// ExpiresAt is an optional ISO-8601 timestamp after which access is
	// denied. Kept as a string: the remote service emits timestamps with
	// and without zone offsets, and a malformed value must degrade to
	// "not expired" rather than fail decoding of the whole cache.
	ExpiresAt string `json:"expires_at,omitempty"`
}

// Photo describes a source photo in the remote catalog. Embeddings are
// derived locally from the fetched bytes; the descriptor itself is kept in
// the cache for informational purposes only.
type Photo struct {
	UserID     *int64 `json:"user_id,omitempty"`
	PersonName string `json:"person_name"`
	URL        string `json:"url"`
	Filename   string `json:"filename,omitempty"`
}

// Enrollment is a stored biometric vector bound to an identity, produced by
// one recognizer model. Multiple enrollments may share a PersonName.
type Enrollment struct {
	// UserID links to a User for remote enrollments; nil for local ones.
	UserID *int64 `json:"user_id,omitempty"`

	PersonName string    `json:"person_name"`
	Vector     []float32 `json:"vector"`

	// ModelName records which recognizer produced the vector. Probes are
	// only compared against enrollments from the same model.
	ModelName string `json:"model_name"`

	Filename string `json:"filename,omitempty"`

	// IsLocal marks enrollments built from the on-device photo directory.
	IsLocal bool `json:"is_local,omitempty"`
}

// AccessWindow restricts a user's access to a weekly time window.
// DayOfWeek is 0-6 with Monday=0, matching the remote service's convention.
// Start and end are "HH:MM" or "HH:MM:SS" strings, inclusive on both ends.
type AccessWindow struct {
	UserID    int64  `json:"user_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// RemoteConfig carries per-device overrides from the sync payload. Pointer
// fields distinguish "absent" from zero; an absent field leaves the current
// setting untouched.
type RemoteConfig struct {
	Threshold       *float64 `json:"threshold,omitempty"`
	GPIOPin         *int     `json:"gpio_pin,omitempty"`
	GPIOPulseMs     *int     `json:"gpio_pulse_ms,omitempty"`
	SyncIntervalSec *int     `json:"sync_interval_sec,omitempty"`
}

// Cache is the full local snapshot of enrolled identities. It is replaced
// wholesale on every successful sync, never patched incrementally.
type Cache struct {
	Users         []User         `json:"users"`
	Photos        []Photo        `json:"photos"`
	Embeddings    []Enrollment   `json:"embeddings"`
	AccessWindows []AccessWindow `json:"access_windows"`
	Config        *RemoteConfig  `json:"config,omitempty"`
}

// NewCache returns an empty, well-formed cache with all sequences non-nil.
func NewCache() *Cache {
	return &Cache{
		Users:         []User{},
		Photos:        []Photo{},
		Embeddings:    []Enrollment{},
		AccessWindows: []AccessWindow{},
	}
}

// UserByID returns the user with the given ID, or nil if unknown.
func (c *Cache) UserByID(id int64) *User {
	for i := range c.Users {
		if c.Users[i].ID == id {
			return &c.Users[i]
		}
	}
	return nil
}

// WindowsForUser returns all access windows configured for a user.
// An empty result means unrestricted access.
func (c *Cache) WindowsForUser(id int64) []AccessWindow {
	var windows []AccessWindow
	for _, w := range c.AccessWindows {
		if w.UserID == id {
			windows = append(windows, w)
		}
	}
	return windows
}

// Clone returns a copy of the cache with freshly allocated slices, so the
// copy can be extended without mutating a snapshot concurrent readers hold.
func (c *Cache) Clone() *Cache {
	clone := &Cache{
		Users:         append([]User{}, c.Users...),
		Photos:        append([]Photo{}, c.Photos...),
		Embeddings:    append([]Enrollment{}, c.Embeddings...),
		AccessWindows: append([]AccessWindow{}, c.AccessWindows...),
	}
	if c.Config != nil {
		cfg := *c.Config
		clone.Config = &cfg
	}
	return clone
}

// Event statuses reported to the remote service.
const (
	StatusSuccess = "success"
	StatusDenied  = "denied"
)

// AccessEvent is the outcome of one access decision.
type AccessEvent struct {
	// ID is assigned locally (UUID) so the journal can dedup reports.
	ID string `json:"-"`

	Identifier string  `json:"identifier"`
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	DeviceID   string  `json:"device_id"`
	Confidence float64 `json:"confidence"`

	// CreatedAt is a Unix timestamp, set when the event is journaled.
	CreatedAt int64 `json:"-"`
}
