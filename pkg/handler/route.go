package handler

import (
	"strings"

	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/pkg/errors"
)

// Route type
type Route string

const (
	// RouteLatest get the latest version
	RouteLatest Route = "latest"
	// RouteSnapshot get a snapshot by version
	RouteSnapshot Route = "snapshot"
	// RoutePatch get the patch stored under a version
	RoutePatch Route = "patch"
	// RouteVersions list all stored versions
	RouteVersions Route = "versions"
)

var errUnknownRoute = errors.New("unknown route")

// ParseRoute resolves a path relative to the handler base path, e.g.
// "latest", "snapshots/3" or "snapshots/3/patch".
func ParseRoute(path string) (Route, int64, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == string(RouteLatest):
		return RouteLatest, 0, nil
	case len(parts) == 1 && parts[0] == string(RouteVersions):
		return RouteVersions, 0, nil
	case len(parts) == 2 && parts[0] == "snapshots":
		version, err := snapshot.ParseVersion(parts[1])
		return RouteSnapshot, version, err
	case len(parts) == 3 && parts[0] == "snapshots" && parts[2] == "patch":
		version, err := snapshot.ParseVersion(parts[1])
		return RoutePatch, version, err
	default:
		return "", 0, errors.Wrap(errUnknownRoute, path)
	}
}
