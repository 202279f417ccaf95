package vision

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

type fakeDetector struct {
	out *port.DetectorOutput
	err error
}

func (f *fakeDetector) Detect(ctx context.Context, imageData []byte, opts port.DetectOptions) (*port.DetectorOutput, error) {
	return f.out, f.err
}

func TestLazyDetector_LoadsOnce(t *testing.T) {
	var loads int32
	want := &port.DetectorOutput{Detections: []entity.Detection{{ClassID: 1, Confidence: 0.7}}}
	lazy := NewLazyDetector(func() (port.DefectDetector, error) {
		atomic.AddInt32(&loads, 1)
		return &fakeDetector{out: want}, nil
	}, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = lazy.Detect(context.Background(), []byte("x"), port.DetectOptions{})
		}()
	}
	wg.Wait()

	out, err := lazy.Detect(context.Background(), []byte("x"), port.DetectOptions{})
	require.NoError(t, err)
	require.Equal(t, want, out)
	require.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestLazyDetector_LoadFailureIsCached(t *testing.T) {
	var loads int32
	lazy := NewLazyDetector(func() (port.DefectDetector, error) {
		atomic.AddInt32(&loads, 1)
		return nil, errors.New("best.onnx: no such file")
	}, zap.NewNop())

	_, err := lazy.Detect(context.Background(), []byte("x"), port.DetectOptions{})
	require.ErrorIs(t, err, entity.ErrDetectorUnavailable)

	_, err = lazy.Detect(context.Background(), []byte("x"), port.DetectOptions{})
	require.ErrorIs(t, err, entity.ErrDetectorUnavailable)
	require.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestLazyDetector_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"runtime failure", errors.New("forward failed"), entity.ErrDetectorUnavailable},
		{"invalid image", fmt.Errorf("%w: bad", entity.ErrInvalidImage), entity.ErrInvalidImage},
		{"cancelled", context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lazy := NewLazyDetector(func() (port.DefectDetector, error) {
				return &fakeDetector{err: tt.err}, nil
			}, zap.NewNop())

			_, err := lazy.Detect(context.Background(), []byte("x"), port.DetectOptions{})
			require.ErrorIs(t, err, tt.want)
		})
	}
}
