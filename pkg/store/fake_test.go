package store

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/foomo/snapshotstore/pkg/store/kv"
)

// fakeKV is an in-memory kv.Client recording calls. err fails every
// operation, scriptErr fails lock script registration only.
type fakeKV struct {
	mu          sync.Mutex
	data        map[string][]byte
	held        bool
	err         error
	scriptErr   error
	scriptLoads int
	acquires    int
	delCalls    [][]string
	keysCalls   []string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	value, ok := f.data[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return value, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delCalls = append(f.delCalls, keys)
	if f.err != nil {
		return f.err
	}
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeKV) Keys(_ context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keysCalls = append(f.keysCalls, pattern)
	if f.err != nil {
		return nil, f.err
	}
	var keys []string
	for key := range f.data {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeKV) LockScript(_ context.Context) (kv.LockScript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scriptLoads++
	if f.scriptErr != nil {
		return nil, f.scriptErr
	}
	if f.err != nil {
		return nil, f.err
	}
	return f, nil
}

// Acquire grants the lock once until release is called.
func (f *fakeKV) Acquire(_ context.Context, _ string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeKV) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = false
}

func (f *fakeKV) Close() error {
	return nil
}
