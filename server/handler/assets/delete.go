package assets

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

		item, err := st.Media.GetByID(r.Context(), id)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "delete media", err)
			return
		}
		if item.UploadedBy != identity.ID && !identity.IsAdmin() {
			resp.WriteForbidden(w, "Only the uploader may delete a media item")
			return
		}

		// Objects first, record last. A crash in between leaves a
		// record pointing at nothing, never an unreferenced object.
		if err := st.Objects.Remove(r.Context(), item.StorageKey); err != nil {
			common.LogAndWriteError(w, r, st.Log, "delete media object", err)
			return
		}
		if item.ThumbnailKey != "" {
			if err := st.Objects.Remove(r.Context(), item.ThumbnailKey); err != nil {
				common.LogAndWriteError(w, r, st.Log, "delete media thumbnail", err)
				return
			}
		}

		existed, err := st.Media.Delete(r.Context(), id)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "delete media", err)
			return
		}
		if !existed {
			resp.WriteNotFound(w, "not found")
			return
		}

		resp.WriteNoContent(w)
	}
}
