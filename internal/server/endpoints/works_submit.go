package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyloom/internal/api"
	"github.com/storyloom/storyloom/internal/pipeline"
	"github.com/storyloom/storyloom/internal/store"
	"github.com/storyloom/storyloom/internal/svcctx"
)

// SubmitWorkEndpoint handles POST /api/works.
type SubmitWorkEndpoint struct{}

func (e *SubmitWorkEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/works", e.handler
}

func (e *SubmitWorkEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Submit a generation request
//	@Description	Starts the generation pipeline for a topic and returns immediately with the work ID. Poll GET /api/works/{id} for progress.
//	@Tags			works
//	@Accept			json
//	@Produce		json
//	@Param			request	body		pipeline.Request	true	"Generation request"
//	@Success		202		{object}	SubmitResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/works [post]
func (e *SubmitWorkEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	runner := svcctx.RunnerFrom(r.Context())
	if runner == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline runner not initialized")
		return
	}

	id, err := runner.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyTopic) || errors.Is(err, pipeline.ErrBadRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, SubmitResponse{ID: id, Status: store.StatusPending})
}

func (e *SubmitWorkEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		characters int
		hints      string
		scenes     int
		length     string
	)
	cmd := &cobra.Command{
		Use:   "submit <topic>",
		Short: "Submit a topic for story generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := pipeline.Request{
				Topic:          args[0],
				CharacterCount: characters,
				CharacterHints: hints,
				SceneCount:     scenes,
				LengthHint:     length,
			}
			var resp SubmitResponse
			if err := client.Post(cmd.Context(), "/api/works", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&characters, "characters", 0, "Number of characters to design")
	cmd.Flags().StringVar(&hints, "hints", "", "Character design hints")
	cmd.Flags().IntVar(&scenes, "scenes", 0, "Target scene count")
	cmd.Flags().StringVar(&length, "length", "", "Length hint (short, medium, long)")
	return cmd
}
