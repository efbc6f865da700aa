package memories

import (
	"net/http"

	"github.com/ourlineintime/lineintime/server/auth"
	"github.com/ourlineintime/lineintime/server/handler/common"
	"github.com/ourlineintime/lineintime/server/resp"
	"github.com/ourlineintime/lineintime/server/state"
)

func HandleDelete(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())
		id := r.PathValue("id")

		existing, err := st.Memories.GetByID(r.Context(), id)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "delete memory", err)
			return
		}
		if existing.CreatedBy != identity.ID && !identity.IsAdmin() {
			resp.WriteForbidden(w, "Only the creator may delete a memory")
			return
		}

		// Objects go first. A crash in between leaves dangling records
		// pointing at missing objects, never unreferenced objects that
		// no sweep would find.
		items, err := st.Media.ListByMemory(r.Context(), id)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "delete memory media", err)
			return
		}
		for _, item := range items {
			if err := st.Objects.Remove(r.Context(), item.StorageKey); err != nil {
				common.LogAndWriteError(w, r, st.Log, "delete memory media", err)
				return
			}
			if item.ThumbnailKey != "" {
				if err := st.Objects.Remove(r.Context(), item.ThumbnailKey); err != nil {
					common.LogAndWriteError(w, r, st.Log, "delete memory media", err)
					return
				}
			}
		}

		existed, err := st.Memories.Delete(r.Context(), id)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "delete memory", err)
			return
		}
		if !existed {
			resp.WriteNotFound(w, "not found")
			return
		}

		resp.WriteNoContent(w)
	}
}
