package endpoints

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyloom/internal/api"
	"github.com/storyloom/storyloom/internal/svcctx"
)

const defaultListLimit = 20

// ListWorksEndpoint handles GET /api/works.
type ListWorksEndpoint struct{}

func (e *ListWorksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/works", e.handler
}

func (e *ListWorksEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List works
//	@Description	Lists recent works, newest first, with a thumbnail falling back to the first scene illustration.
//	@Tags			works
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of works to return"
//	@Success		200		{object}	WorkListResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/works [get]
func (e *ListWorksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	st := svcctx.StoreFrom(r.Context())
	works, err := st.ListWorks(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, WorkListResponse{Works: works, Count: len(works)})
}

func (e *ListWorksEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated works",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp WorkListResponse
			path := fmt.Sprintf("/api/works?limit=%d", limit)
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultListLimit, "Maximum number of works")
	return cmd
}
