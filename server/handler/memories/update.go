package memories

import (
	"errors"
	"net/http"

	"github.com/ourlineintime/lineintime/server/auth"
	"github.com/ourlineintime/lineintime/server/handler/common"
	"github.com/ourlineintime/lineintime/server/resp"
	"github.com/ourlineintime/lineintime/server/state"
	"github.com/ourlineintime/lineintime/storage/memorydb"
)

func HandleUpdate(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())
		id := r.PathValue("id")

		existing, err := st.Memories.GetByID(r.Context(), id)
		if err != nil {
			common.LogAndWriteError(w, r, st.Log, "update memory", err)
			return
		}
		if existing.CreatedBy != identity.ID && !identity.IsAdmin() {
			resp.WriteForbidden(w, "Only the creator may modify a memory")
			return
		}

		body, err := decodeBody(w, r, int64(st.Cfg.Server.Limits.MaxPayloadSize))
		if err != nil {
			resp.WriteBadRequest(w, "Could not parse request body")
			return
		}

		if body.DateType != nil && !validDateType(*body.DateType) {
			resp.WriteBadRequest(w, "Unknown date type")
			return
		}
		if body.PrivacyLevel != nil && !validPrivacyLevel(*body.PrivacyLevel) {
			resp.WriteBadRequest(w, "Unknown privacy level")
			return
		}
		if body.Location != nil && !validCoordinates(*body.Location) {
			resp.WriteBadRequest(w, "Location coordinates are out of range")
			return
		}

		update := memorydb.Update{
			Title:        body.Title,
			Narrative:    body.Narrative,
			DateType:     body.DateType,
			StartDate:    body.StartDate,
			EndDate:      body.EndDate,
			Location:     body.Location,
			LocationName: body.LocationName,
			PrivacyLevel: body.PrivacyLevel,
			Tags:         body.Tags,
		}

		updated, err := st.Memories.UpdateFields(r.Context(), id, update, identity.ID)
		if err != nil {
			if errors.Is(err, memorydb.ErrNotFound) {
				resp.WriteNotFound(w, "not found")
				return
			}
			common.LogAndWriteError(w, r, st.Log, "update memory", err)
			return
		}

		if body.FamilyMembers != nil {
			if err := st.Memories.ReplaceMembers(r.Context(), id, body.FamilyMembers); err != nil {
				common.LogAndWriteError(w, r, st.Log, "share memory", err)
				return
			}
			updated.FamilyMembers = body.FamilyMembers
		} else {
			members, err := st.Memories.MembersFor(r.Context(), id)
			if err != nil {
				common.LogAndWriteError(w, r, st.Log, "get memory members", err)
				return
			}
			updated.FamilyMembers = members
		}

		resp.WriteOK(w, updated)
	}
}
