package memories

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ourlineintime/lineintime/model"
	"github.com/ourlineintime/lineintime/server/auth"
	"github.com/ourlineintime/lineintime/server/handler/common"
	"github.com/ourlineintime/lineintime/server/resp"
	"github.com/ourlineintime/lineintime/server/state"
)

func HandleCreate(st *state.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())

		body, err := decodeBody(w, r, int64(st.Cfg.Server.Limits.MaxPayloadSize))
		if err != nil {
			resp.WriteBadRequest(w, "Could not parse request body")
			return
		}

		if body.Title == nil || strings.TrimSpace(*body.Title) == "" {
			resp.WriteBadRequest(w, "A title is required")
			return
		}
		if body.StartDate == nil {
			resp.WriteBadRequest(w, "A start date is required")
			return
		}
		if body.Location == nil {
			resp.WriteBadRequest(w, "A location is required")
			return
		}
		if !validCoordinates(*body.Location) {
			resp.WriteBadRequest(w, "Location coordinates are out of range")
			return
		}

		m := &model.Memory{
			ID:             uuid.NewString(),
			Title:          strings.TrimSpace(*body.Title),
			DateType:       model.DateExact,
			StartDate:      *body.StartDate,
			EndDate:        body.EndDate,
			Location:       *body.Location,
			PrivacyLevel:   model.PrivacyFamily,
			Tags:           []string{},
			FamilyMembers:  []string{},
			CreatedBy:      identity.ID,
			LastModifiedBy: identity.ID,
		}

		if body.Narrative != nil {
			m.Narrative = *body.Narrative
		}
		if body.LocationName != nil {
			m.LocationName = *body.LocationName
		}
		if body.Tags != nil {
			m.Tags = body.Tags
		}
		if body.DateType != nil {
			if !validDateType(*body.DateType) {
				resp.WriteBadRequest(w, "Unknown date type")
				return
			}
			m.DateType = *body.DateType
		}
		if body.PrivacyLevel != nil {
			if !validPrivacyLevel(*body.PrivacyLevel) {
				resp.WriteBadRequest(w, "Unknown privacy level")
				return
			}
			m.PrivacyLevel = *body.PrivacyLevel
		}

		if err := st.Memories.Create(r.Context(), m); err != nil {
			common.LogAndWriteError(w, r, st.Log, "create memory", err)
			return
		}

		if len(body.FamilyMembers) > 0 {
			if err := st.Memories.ReplaceMembers(r.Context(), m.ID, body.FamilyMembers); err != nil {
				common.LogAndWriteError(w, r, st.Log, "share memory", err)
				return
			}
			m.FamilyMembers = body.FamilyMembers
		}

		resp.WriteCreated(w, "/api/memories/"+m.ID, m)
	}
}
