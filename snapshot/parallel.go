package snapshot

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/notargets/simread/utils"
)

// DecodeAll decodes fileNames on up to workers goroutines, each taking a
// contiguous run of files. Results keep the input order and carry the index
// given by FileIndex. The first failure cancels the files not yet started
// and is returned.
func DecodeAll(ctx context.Context, dec *Decoder, fileNames []string, workers int) ([]*SimData, error) {
	if len(fileNames) == 0 {
		return nil, nil
	}
	workers = max(1, min(workers, len(fileNames)))
	var (
		pm     = utils.NewPartitionMap(workers, len(fileNames))
		out    = make([]*SimData, len(fileNames))
		g, gtx = errgroup.WithContext(ctx)
	)
	for np := 0; np < pm.ParallelDegree; np++ {
		kMin, kMax := pm.GetBucketRange(np)
		g.Go(func() error {
			for k := kMin; k < kMax; k++ {
				if err := gtx.Err(); err != nil {
					return err
				}
				sd, err := dec.ReadFile(fileNames[k])
				if err != nil {
					return err
				}
				sd.Index = FileIndex(fileNames[k])
				out[k] = sd
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("decoded snapshots", "count", len(out), "workers", workers)
	return out, nil
}
