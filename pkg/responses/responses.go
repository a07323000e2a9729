// Package responses holds the json bodies of the snapshot http api.
package responses

// LatestVersion is the reply of the latest route
type LatestVersion struct {
	Version int64 `json:"version"`
}

// Versions is the reply of the versions route
type Versions []int64
