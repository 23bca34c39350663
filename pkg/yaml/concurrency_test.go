package yaml

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestConcurrentParsing(t *testing.T) {
	defer goleak.VerifyNone(t)

	const workers = 16
	inputs := make([]string, workers)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("id: %d\nbase: &b {n: %d}\ncopy: *b\nlist: [%d, x]\n", i, i, i)
	}

	var wg sync.WaitGroup
	results := make([]any, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				results[i], errs[i] = Parse(inputs[i])
				if errs[i] != nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		n := int64(i)
		assert.Equal(t, MapSlice{
			{Key: "id", Value: n},
			{Key: "base", Value: MapSlice{{Key: "n", Value: n}}},
			{Key: "copy", Value: MapSlice{{Key: "n", Value: n}}},
			{Key: "list", Value: []any{n, "x"}},
		}, results[i])
	}
}

func TestConcurrentAnchorsAreIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	var wg sync.WaitGroup
	failures := make(chan error, 2*20)
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := Parse("a: &x 1\nb: *x\n"); err != nil {
				failures <- err
			}
		}()
		go func() {
			defer wg.Done()
			// *x must not resolve against an anchor from another parse.
			if _, err := Parse("b: *x\n"); err == nil {
				failures <- fmt.Errorf("alias resolved across parses")
			}
		}()
	}
	wg.Wait()
	close(failures)

	for err := range failures {
		t.Error(err)
	}
}
