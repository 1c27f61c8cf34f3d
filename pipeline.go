package spritekey

import (
	"fmt"
	"log"
	"runtime"
	"sync"
)

// BatchPolicy decides what ProcessBatch does when one image fails.
type BatchPolicy int

const (
	// AbortOnError discards every output when any image fails.
	AbortOnError BatchPolicy = iota
	// PartialSuccess keeps the images that succeeded and reports the rest.
	PartialSuccess
)

func (p BatchPolicy) String() string {
	switch p {
	case PartialSuccess:
		return "partial"
	default:
		return "abort"
	}
}

type ProcessOptions struct {
	ChromaKey bool
	Grid      Grid
	Matte     Options
	PNG       PNGOptions
	Policy    BatchPolicy
	// Concurrent images in ProcessBatch. Zero means runtime.NumCPU().
	Workers int
}

func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{
		ChromaKey: true,
		Matte:     DefaultOptions(),
		PNG:       DefaultPNGOptions(),
		Policy:    AbortOnError,
	}
}

// ProcessDataURL decodes one image data URL, clears its chroma backdrop when
// enabled and returns optimized PNG bytes.
func ProcessDataURL(dataURL string, opt ProcessOptions) ([]byte, error) {
	data, err := ParseDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	return ProcessBytes(data, opt)
}

// ProcessBytes is ProcessDataURL for raw encoded image bytes.
func ProcessBytes(data []byte, opt ProcessOptions) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if opt.ChromaKey {
		RemoveBackground(img, opt.Grid, opt.Matte)
	}
	return EncodePNG(img, opt.PNG)
}

// Output is the result for one input of ProcessBatch.
type Output struct {
	Index int
	PNG   []byte
	Err   error
}

// ProcessBatch processes every data URL on a pool of workers. Images share no
// state, so they run fully in parallel; outputs keep input order.
//
// With AbortOnError the first failure by input index is returned and no
// outputs are. With PartialSuccess failures are logged and carried in
// Output.Err, and the returned error is nil.
func ProcessBatch(dataURLs []string, opt ProcessOptions) ([]Output, error) {
	outputs := make([]Output, len(dataURLs))
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(dataURLs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				data, err := ProcessDataURL(dataURLs[i], opt)
				outputs[i] = Output{Index: i, PNG: data, Err: err}
			}
		}()
	}
	for i := range dataURLs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, out := range outputs {
		if out.Err == nil {
			continue
		}
		if opt.Policy == AbortOnError {
			return nil, fmt.Errorf("image %d: %w", out.Index, out.Err)
		}
		log.Printf("spritekey: image %d skipped: %v", out.Index, out.Err)
	}
	return outputs, nil
}
