package systems

import (
	"runtime"
	"sync"
)

// passScratch holds per-chunk reusable buffers. Each chunk owns one scratch so
// deltas can be summed in a fixed order after the pass.
type passScratch struct {
	delta   []float32
	shadow  [AngleBuckets]float32
	skipped int
	used    bool
}

// passChunk is a range of the pass's source list for one worker.
type passChunk struct {
	start, end int
	index      int // scratch slot
}

// passPool runs propagation chunks on persistent worker goroutines.
type passPool struct {
	scratches  []passScratch
	numWorkers int

	// Set before dispatch, read by workers
	job func(i0, i1 int, scratch *passScratch)

	// Worker pool channels
	workChan chan passChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newPassPool(workers int) *passPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &passPool{
		numWorkers: workers,
		scratches:  make([]passScratch, workers),
	}
}

// resize makes every scratch delta buffer n cells long.
func (p *passPool) resize(n int) {
	for i := range p.scratches {
		if cap(p.scratches[i].delta) < n {
			p.scratches[i].delta = make([]float32, n)
		}
		p.scratches[i].delta = p.scratches[i].delta[:n]
		clear(p.scratches[i].delta)
		p.scratches[i].used = false
	}
}

// startWorkers launches persistent worker goroutines.
func (p *passPool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan passChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *passPool) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *passPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.job(chunk.start, chunk.end, &p.scratches[chunk.index])
			p.doneChan <- struct{}{}
		}
	}
}

// run clears the scratches and executes job over n sources. Below threshold the
// work runs on the calling goroutine in a single chunk.
func (p *passPool) run(n, threshold int, job func(i0, i1 int, scratch *passScratch)) {
	for i := range p.scratches {
		s := &p.scratches[i]
		if s.used {
			clear(s.delta)
			s.used = false
		}
		s.skipped = 0
	}
	if n == 0 {
		return
	}

	if n < threshold || p.numWorkers == 1 {
		p.scratches[0].used = true
		job(0, n, &p.scratches[0])
		return
	}

	if !p.running {
		p.startWorkers()
	}
	p.job = job

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.scratches[w].used = true
		p.workChan <- passChunk{start: start, end: end, index: w}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// sumInto adds every used scratch delta to base, in scratch order.
func (p *passPool) sumInto(base []float32) {
	for i := range p.scratches {
		s := &p.scratches[i]
		if !s.used {
			continue
		}
		for j, d := range s.delta {
			base[j] += d
		}
	}
}
