package store

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	listDatasetsSQL = "SELECT id, dataset_id, name, description FROM dataset"
	countByDataset  = "SELECT dataset_id, COUNT(reaction_id) FROM reaction GROUP BY dataset_id"
)

// Dataset describes one dataset and its reaction count.
type Dataset struct {
	DatasetID   string `json:"Dataset ID"`
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Size        int64  `json:"Size"`
}

// ListDatasets returns every dataset ordered by dataset id. Datasets without
// reactions have Size 0.
//
// The dataset rows and the per-dataset counts are fetched concurrently, each
// on its own connection.
func ListDatasets(ctx context.Context, pool Pool) ([]Dataset, error) {
	type datasetRow struct {
		id int64
		Dataset
	}

	var (
		rows   []datasetRow
		counts = make(map[int64]int64)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return queryEach(gctx, pool, listDatasetsSQL, func(scan func(...any) error) error {
			var (
				r           datasetRow
				description *string
			)
			if err := scan(&r.id, &r.DatasetID, &r.Name, &description); err != nil {
				return err
			}
			if description != nil {
				r.Description = *description
			}
			rows = append(rows, r)
			return nil
		})
	})
	g.Go(func() error {
		return queryEach(gctx, pool, countByDataset, func(scan func(...any) error) error {
			var id, n int64
			if err := scan(&id, &n); err != nil {
				return err
			}
			counts[id] = n
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	datasets := make([]Dataset, 0, len(rows))
	for _, r := range rows {
		r.Size = counts[r.id]
		datasets = append(datasets, r.Dataset)
	}
	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].DatasetID < datasets[j].DatasetID
	})
	return datasets, nil
}

// queryEach runs sql on a fresh connection and calls fn for every row.
func queryEach(ctx context.Context, pool Pool, sql string, fn func(scan func(...any) error) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return ClassifyError(OpAcquire, err, "")
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return ClassifyError(OpQuery, err, sql)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return ClassifyError(OpScan, err, sql)
		}
	}
	if err := rows.Err(); err != nil {
		return ClassifyError(OpQuery, err, sql)
	}
	return nil
}
