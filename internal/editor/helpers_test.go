package editor

import (
	"context"
	"sync"
)

type uploadResult struct {
	url string
	err error
}

// fakeUploader blocks every upload until a result is sent on the gate keyed
// by the uploaded bytes.
type fakeUploader struct {
	mu      sync.Mutex
	gates   map[string]chan uploadResult
	folders []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{gates: make(map[string]chan uploadResult)}
}

func (f *fakeUploader) gate(key string) chan uploadResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gates[key]
	if !ok {
		g = make(chan uploadResult, 1)
		f.gates[key] = g
	}
	return g
}

func (f *fakeUploader) UploadImage(_ context.Context, data []byte, _ string, folder string) (string, error) {
	f.mu.Lock()
	f.folders = append(f.folders, folder)
	f.mu.Unlock()
	r := <-f.gate(string(data))
	return r.url, r.err
}

// changeLog records onChange notifications.
type changeLog struct {
	mu    sync.Mutex
	texts []string
}

func (c *changeLog) record(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
}

func (c *changeLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}
