package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

type fakeDetector struct {
	out   *port.DetectorOutput
	err   error
	calls int
	opts  port.DetectOptions
}

func (f *fakeDetector) Detect(ctx context.Context, imageData []byte, opts port.DetectOptions) (*port.DetectorOutput, error) {
	f.calls++
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeHeuristic struct {
	signal *entity.CrackSignal
	err    error
}

func (f *fakeHeuristic) DetectCrack(ctx context.Context, imageData []byte) (*entity.CrackSignal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.signal, nil
}

type memoryArchive struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{files: make(map[string][]byte)}
}

func (a *memoryArchive) Put(ctx context.Context, name string, data []byte) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	a.files[name] = data
	a.mu.Unlock()
	return nil
}

type failingStore struct{}

func (failingStore) Append(ctx context.Context, rows ...entity.LabeledExample) error {
	return errors.Join(entity.ErrStoreWrite, errors.New("disk full"))
}

func (failingStore) List(ctx context.Context) ([]entity.LabeledExample, error) {
	return nil, errors.New("disk full")
}

func (failingStore) Close() error { return nil }

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: uint8(x * 3), B: uint8(y * 5), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
