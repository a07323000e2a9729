package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/foomo/snapshotstore/pkg/metrics"
	"github.com/foomo/snapshotstore/pkg/responses"
	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/foomo/snapshotstore/pkg/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	HTTP struct {
		l       *zap.Logger
		path    string
		storage store.Storage
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP serves the read side of storage
func NewHTTP(l *zap.Logger, storage store.Storage, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:       l.Named("http"),
		path:    "/snapshotstore",
		storage: storage,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithPath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = strings.TrimSuffix(v, "/")
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, responses.NewError(http.StatusMethodNotAllowed, responses.CodeBadRequest, "method not allowed"))
		return
	}
	if !strings.HasPrefix(r.URL.Path, h.path+"/") {
		h.writeError(w, responses.NewError(http.StatusNotFound, responses.CodeNotFound, "unknown path: "+r.URL.Path))
		return
	}

	route, version, err := ParseRoute(strings.TrimPrefix(r.URL.Path, h.path+"/"))
	if errors.Is(err, errUnknownRoute) {
		h.writeError(w, responses.NewError(http.StatusNotFound, responses.CodeNotFound, err.Error()))
		return
	} else if err != nil {
		h.writeError(w, replyError(err))
		return
	}

	start := time.Now()
	reply, err := h.executeRequest(r, route, version)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ServiceRequestCounter.WithLabelValues(string(route), status).Inc()
	metrics.ServiceRequestDuration.WithLabelValues(string(route), status).Observe(time.Since(start).Seconds())

	if err != nil {
		errReply := replyError(err)
		if errReply.Status == http.StatusInternalServerError {
			h.l.Error("request failed", zap.String("route", string(route)), zap.Error(err))
		} else {
			h.l.Debug("request rejected", zap.String("route", string(route)), zap.Error(err))
		}
		h.writeError(w, errReply)
		return
	}
	h.writeJSON(w, http.StatusOK, reply)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) executeRequest(r *http.Request, route Route, version int64) (any, error) {
	ctx := r.Context()
	switch route {
	case RouteLatest:
		latest, err := h.storage.GetLatestVersion(ctx)
		if err != nil {
			return nil, err
		}
		return responses.LatestVersion{Version: latest}, nil
	case RouteSnapshot:
		return h.storage.GetSnapshotByVersion(ctx, version)
	case RoutePatch:
		return h.storage.GetPatchByVersion(ctx, version)
	case RouteVersions:
		collector, ok := h.storage.(store.Collector)
		if !ok {
			return nil, &store.StorageError{Op: store.OpGetAllVersions, Err: store.ErrUnsupported}
		}
		versions, err := collector.GetAllVersions(ctx)
		if err != nil {
			return nil, err
		}
		return responses.Versions(versions), nil
	default:
		return nil, errors.Wrap(errUnknownRoute, string(route))
	}
}

func (h *HTTP) writeError(w http.ResponseWriter, reply *responses.Error) {
	h.writeJSON(w, reply.Status, reply)
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		h.l.Error("failed to marshal reply", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(bytes); err != nil {
		h.l.Debug("failed to write reply", zap.Error(err))
	}
}

// replyError maps storage error causes onto http status codes
func replyError(err error) *responses.Error {
	switch {
	case errors.Is(err, store.ErrLocked):
		return responses.NewError(http.StatusTooManyRequests, responses.CodeLocked, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return responses.NewError(http.StatusNotFound, responses.CodeNotFound, err.Error())
	case errors.Is(err, snapshot.ErrInvalidVersion):
		return responses.NewError(http.StatusBadRequest, responses.CodeInvalidVersion, err.Error())
	case errors.Is(err, store.ErrUnsupported):
		return responses.NewError(http.StatusNotImplemented, responses.CodeUnsupported, err.Error())
	default:
		return responses.NewError(http.StatusInternalServerError, responses.CodeInternal, err.Error())
	}
}
