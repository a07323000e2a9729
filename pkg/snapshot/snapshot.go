package snapshot

// Snapshot is an immutable versioned payload published by a producer.
type Snapshot struct {
	Version int64 `json:"version"`
	Payload any   `json:"payload"`
}

// New returns a snapshot for the given version.
func New(version int64, payload any) *Snapshot {
	return &Snapshot{
		Version: version,
		Payload: payload,
	}
}
