package memories

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/ourlineintime/lineintime/model"
	"github.com/ourlineintime/lineintime/server/auth"
	"github.com/ourlineintime/lineintime/server/handler/common"
	"github.com/ourlineintime/lineintime/server/resp"
	"github.com/ourlineintime/lineintime/server/state"
)

// canView applies the read-side privacy rule: public memories are open,
// everything else is limited to the creator, explicitly shared members
// and admins.
func canView(m *model.Memory, identity *auth.Identity) bool {
	if m.PrivacyLevel == model.PrivacyPublic {
		return true
	}
	if identity == nil {
		return false
	}
	return identity.IsAdmin() || m.CreatedBy == identity.ID || slices.Contains(m.FamilyMembers, identity.ID)
}

func HandleGet(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())
		id := r.PathValue("id")

		m, err := st.Memories.GetByID(r.Context(), id)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "get memory", err)
			return
		}

		members, err := st.Memories.MembersFor(r.Context(), id)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "get memory members", err)
			return
		}
		m.FamilyMembers = members

		// Hidden memories read as absent rather than forbidden.
		if !canView(m, identity) {
			resp.WriteNotFound(w, "not found")
			return
		}

		resp.WriteOK(w, m)
	}
}

func HandleList(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())

		limit := intQueryParam(r, "limit", 50)
		if limit < 1 || limit > 200 {
			resp.WriteBadRequest(w, "limit must be between 1 and 200")
			return
		}
		offset := intQueryParam(r, "offset", 0)
		if offset < 0 {
			resp.WriteBadRequest(w, "offset must not be negative")
			return
		}

		list, err := st.Memories.ListForUser(r.Context(), identity.ID, limit, offset)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "list memories", err)
			return
		}

		resp.WriteOK(w, list)
	}
}

func intQueryParam(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}
