package docdb

import (
	"context"
	"time"
)

// SyncNow checkpoints the write-ahead log into the main database file and
// truncates it.
func (d *DB) SyncNow(ctx context.Context) (err error) {
	defer d.observe("sync", time.Now(), &err)

	var busy, logFrames, checkpointed int
	row := d.db.QueryRowContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	if err := row.Scan(&busy, &logFrames, &checkpointed); err != nil {
		return ioError("wal checkpoint", err)
	}
	if busy != 0 {
		d.log.Warn("wal checkpoint incomplete", "log_frames", logFrames, "checkpointed", checkpointed)
	}
	return nil
}
