// Package client reads snapshots from the snapshotstore http api.
package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foomo/snapshotstore/pkg/responses"
	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/foomo/snapshotstore/pkg/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Client implements store.Storage and store.Collector against a remote
	// snapshotstore. Write operations fail with store.ErrUnsupported.
	Client struct {
		endpoint   string
		httpClient *http.Client
	}
	Option func(*Client)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHTTPClient(v *http.Client) Option {
	return func(o *Client) {
		o.httpClient = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New creates a client for endpoint including the handler path, e.g.
// "http://localhost:8080/snapshotstore".
// Caution: the provided url is not validated!
func New(endpoint string, opts ...Option) *Client {
	inst := &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (c *Client) GetLatestVersion(ctx context.Context) (int64, error) {
	reply := responses.LatestVersion{}
	if err := c.call(ctx, store.OpGetLatestVersion, "/latest", &reply); err != nil {
		return 0, err
	}
	return reply.Version, nil
}

func (c *Client) GetSnapshotByVersion(ctx context.Context, version int64) (*snapshot.Snapshot, error) {
	reply := &snapshot.Snapshot{}
	if err := c.call(ctx, store.OpGetSnapshotByVersion, "/snapshots/"+snapshot.FormatVersion(version), reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) GetPatchByVersion(ctx context.Context, version int64) (*snapshot.Patch, error) {
	reply := &snapshot.Patch{}
	if err := c.call(ctx, store.OpGetPatchByVersion, "/snapshots/"+snapshot.FormatVersion(version)+"/patch", reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) GetAllVersions(ctx context.Context) ([]int64, error) {
	reply := responses.Versions{}
	if err := c.call(ctx, store.OpGetAllVersions, "/versions", &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) SetLatestVersion(context.Context, int64) error {
	return readOnly(store.OpSetLatestVersion)
}

func (c *Client) SetSnapshotByVersion(context.Context, int64, *snapshot.Snapshot) error {
	return readOnly(store.OpSetSnapshotByVersion)
}

func (c *Client) SetPatchByVersion(context.Context, int64, *snapshot.Patch) error {
	return readOnly(store.OpSetPatchByVersion)
}

func (c *Client) RemoveSnapshotsAndPatchesByVersions(context.Context, []int64) error {
	return readOnly(store.OpRemoveVersions)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Client) call(ctx context.Context, op, path string, reply any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return &store.StorageError{Op: op, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &store.StorageError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &store.StorageError{Op: op, Err: errors.Wrap(err, "failed to read response")}
	}
	if resp.StatusCode != http.StatusOK {
		return &store.StorageError{Op: op, Err: replyError(resp.StatusCode, body)}
	}
	if err := json.Unmarshal(body, reply); err != nil {
		return &store.StorageError{Op: op, Err: errors.Wrap(err, "failed to unmarshal response")}
	}
	return nil
}

// replyError restores the sentinel matching the reply code
func replyError(status int, body []byte) error {
	reply := responses.Error{}
	if err := json.Unmarshal(body, &reply); err != nil || reply.Code == 0 {
		return errors.Errorf("unexpected status %d", status)
	}
	var sentinel error
	switch reply.Code {
	case responses.CodeLocked:
		sentinel = store.ErrLocked
	case responses.CodeNotFound:
		sentinel = store.ErrNotFound
	case responses.CodeInvalidVersion:
		sentinel = snapshot.ErrInvalidVersion
	case responses.CodeUnsupported:
		sentinel = store.ErrUnsupported
	default:
		return reply
	}
	return errors.Wrap(sentinel, reply.Message)
}

func readOnly(op string) error {
	return &store.StorageError{Op: op, Err: errors.Wrap(store.ErrUnsupported, "client is read only")}
}
