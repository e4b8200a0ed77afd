package endpoints

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyloom/internal/api"
	"github.com/storyloom/storyloom/internal/export"
	"github.com/storyloom/storyloom/internal/store"
	"github.com/storyloom/storyloom/internal/svcctx"
)

// ExportWorkEndpoint handles GET /api/works/{id}/export/pdf.
type ExportWorkEndpoint struct{}

func (e *ExportWorkEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/works/{id}/export/pdf", e.handler
}

func (e *ExportWorkEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Export a work as a PDF storybook
//	@Description	Assembles the cover and scene illustrations into a PDF, one image per page.
//	@Tags			works
//	@Produce		application/pdf
//	@Param			id	path	string	true	"Work ID"
//	@Success		200	{file}	binary
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/works/{id}/export/pdf [get]
func (e *ExportWorkEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "work id is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	homeDir := svcctx.HomeFrom(r.Context())
	if homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}

	tmp, err := os.CreateTemp("", "storyloom-export-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := export.Storybook(r.Context(), st, homeDir, id, tmpPath); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "work not found")
		case errors.Is(err, export.ErrNoImages):
			writeError(w, http.StatusBadRequest, "work has no images to export")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.pdf"`)
	http.ServeFile(w, r, tmpPath)
}

func (e *ExportWorkEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Download a work as a PDF storybook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			out := outputFile
			if out == "" {
				out = args[0] + ".pdf"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := client.GetRaw(cmd.Context(), "/api/works/"+args[0]+"/export/pdf", f); err != nil {
				os.Remove(out)
				return err
			}
			cmd.Println("wrote", filepath.Clean(out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output-file", "f", "", "Output file path (default: <id>.pdf)")
	return cmd
}
