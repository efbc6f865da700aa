package media

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ourlineintime/lineintime/storage/object"
)

// KeyLister reports every storage key referenced by a persisted record.
type KeyLister interface {
	ListStorageKeys(ctx context.Context) ([]string, error)
}

// ReconcileOrphans removes objects under the media and thumbnail
// prefixes that no record references. Failed ingestions can leave such
// objects behind; this sweep reclaims them. It returns the number of
// objects removed.
func ReconcileOrphans(ctx context.Context, objects object.Store, records KeyLister, log *zap.SugaredLogger) (int, error) {
	keys, err := records.ListStorageKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing referenced keys: %w", err)
	}

	referenced := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		referenced[k] = struct{}{}
	}

	removed := 0
	for _, prefix := range []string{"media/", "thumbnails/"} {
		for entry := range objects.List(ctx, prefix) {
			if entry.Err != nil {
				return removed, fmt.Errorf("listing %s: %w", prefix, entry.Err)
			}
			if _, ok := referenced[entry.Key]; ok {
				continue
			}
			if err := objects.Remove(ctx, entry.Key); err != nil {
				log.Warnw("could not remove orphaned object", "key", entry.Key, "error", err)
				continue
			}
			log.Infow("removed orphaned object", "key", entry.Key, "size", entry.Size)
			removed++
		}
	}

	return removed, nil
}
