package extract

import (
	"context"

	"github.com/alitto/pond/v2"

	"gridsync/internal/inference"
	"gridsync/pkg/models"
)

// SchemaResult is the outcome of inferring one image in a batch.
type SchemaResult struct {
	Schema models.Schema
	Err    error
}

// InferAll infers a schema for each image independently, at most workers at a
// time. Results line up with images; one failure does not stop the others.
func (e *Extractor) InferAll(ctx context.Context, images []inference.Image, workers int) []SchemaResult {
	if workers <= 0 {
		workers = 1
	}
	results := make([]SchemaResult, len(images))

	pool := pond.NewPool(workers)
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for i, img := range images {
		group.Submit(func() {
			schema, err := e.InferSchema(ctx, img)
			results[i] = SchemaResult{Schema: schema, Err: err}
		})
	}
	_ = group.Wait()
	return results
}
