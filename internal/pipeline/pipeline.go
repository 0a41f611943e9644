// Package pipeline fans a batch of documents out over a bounded worker pool.
package pipeline

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
)

// Document is one batch entry. Index is its position in the caller's batch.
type Document struct {
	Index  int
	Source string
}

type Analyzer func(doc Document) error

// DocumentError ties a failure to the document that produced it.
type DocumentError struct {
	Document Document
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Document.Source, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Documents numbers sources in order.
func Documents(sources []string) []Document {
	docs := make([]Document, len(sources))
	for i, src := range sources {
		docs[i] = Document{Index: i, Source: src}
	}
	return docs
}

// AnalyzeDocuments runs fn for every document. A failing document does not
// stop the batch; its error is returned as a *DocumentError, ordered by
// document index.
func AnalyzeDocuments(docs []Document, workers int, fn Analyzer) []error {
	if len(docs) == 0 || fn == nil {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}
	if workers > len(docs) {
		workers = len(docs)
	}

	jobs := make(chan Document)
	errs := make(chan *DocumentError, len(docs))
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				if err := run(fn, doc); err != nil {
					errs <- &DocumentError{Document: doc, Err: err}
				}
			}
		}()
	}

	for _, doc := range docs {
		jobs <- doc
	}
	close(jobs)
	wg.Wait()
	close(errs)

	collected := make([]*DocumentError, 0, len(errs))
	for err := range errs {
		collected = append(collected, err)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].Document.Index < collected[j].Document.Index })

	out := make([]error, len(collected))
	for i, err := range collected {
		out[i] = err
	}
	return out
}

func run(fn Analyzer, doc Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(doc)
}
