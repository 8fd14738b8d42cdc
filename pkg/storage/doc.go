/*
Package storage persists reconciliation run reports in a BoltDB file.

Reports are written by `printq apply` and the agent after every pass and
read back by `printq history`. The reconciler itself never consults them:
discovered state is always re-queried from the print server.

# Layout

The database lives at <data-dir>/printq.db with two buckets:

	runs     <start time in ns, zero padded>-<run id>  ->  JSON RunReport
	run_ids  <run id>                                   ->  key in runs

Keys in runs sort chronologically, so listing newest first is a reverse
cursor walk. Saving a report with an existing ID replaces it.

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	recent, err := store.ListReports(10)
*/
package storage
