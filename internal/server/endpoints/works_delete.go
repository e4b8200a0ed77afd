package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyloom/internal/api"
	"github.com/storyloom/storyloom/internal/svcctx"
)

// DeleteWorkEndpoint handles DELETE /api/works/{id}.
type DeleteWorkEndpoint struct{}

func (e *DeleteWorkEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/works/{id}", e.handler
}

func (e *DeleteWorkEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a work
//	@Description	Deletes the work and all its scenes. Deleting an unknown ID succeeds.
//	@Tags			works
//	@Produce		json
//	@Param			id	path		string	true	"Work ID"
//	@Success		200	{object}	DeleteResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/works/{id} [delete]
func (e *DeleteWorkEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "work id is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if err := st.DeleteWork(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{ID: id, Status: "deleted"})
}

func (e *DeleteWorkEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a work and its scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/works/"+args[0]); err != nil {
				return err
			}
			cmd.Println("deleted", args[0])
			return nil
		},
	}
}
