package ops

import (
	"github.com/hpungsan/satchel/internal/db"
)

// GCOutput contains the result of the CollectGarbage operation.
type GCOutput struct {
	Scanned int      `json:"scanned"`
	Removed []string `json:"removed"`
}

// CollectGarbage removes object-store directories whose artifact record no
// longer exists, which can happen when a hard delete's storage cleanup
// failed. Soft-deleted artifacts keep their data.
func CollectGarbage(env *Env) (*GCOutput, error) {
	ids, err := env.Store.IDs()
	if err != nil {
		return nil, err
	}

	out := &GCOutput{Scanned: len(ids), Removed: make([]string, 0)}
	for _, id := range ids {
		exists, err := db.ArtifactIDExists(env.DB, id)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		if _, err := env.Store.Delete(id); err != nil {
			env.Logger.Error("failed to remove orphaned storage", "artifact_id", id, "error", err)
			continue
		}
		out.Removed = append(out.Removed, id)
	}

	if len(out.Removed) > 0 {
		env.Logger.Info("storage garbage collected", "scanned", out.Scanned, "removed", len(out.Removed))
	}
	return out, nil
}
