package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyloom/internal/api"
	"github.com/storyloom/storyloom/internal/parse"
	"github.com/storyloom/storyloom/internal/store"
	"github.com/storyloom/storyloom/internal/svcctx"
)

// GetWorkEndpoint handles GET /api/works/{id}.
type GetWorkEndpoint struct{}

func (e *GetWorkEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/works/{id}", e.handler
}

func (e *GetWorkEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get work by ID
//	@Description	Returns the work with its decoded characters and ordered scenes. Fields fill in as the pipeline progresses.
//	@Tags			works
//	@Produce		json
//	@Param			id	path		string	true	"Work ID"
//	@Success		200	{object}	WorkDetail
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/works/{id} [get]
func (e *GetWorkEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "work id is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	work, err := st.GetWork(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "work not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	scenes, err := st.GetScenes(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	characters, err := parse.UnmarshalManifest(work.CharacterManifest)
	if err != nil {
		// a corrupt manifest should not hide the rest of the work
		characters = nil
	}

	writeJSON(w, http.StatusOK, WorkDetail{Work: *work, Characters: characters, Scenes: scenes})
}

func (e *GetWorkEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a work and its scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var detail WorkDetail
			if err := client.Get(cmd.Context(), "/api/works/"+args[0], &detail); err != nil {
				return err
			}
			return api.Output(detail)
		},
	}
}
