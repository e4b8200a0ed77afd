package endpoints

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyloom/internal/api"
	"github.com/storyloom/storyloom/internal/home"
	"github.com/storyloom/storyloom/internal/svcctx"
)

// ImageEndpoint handles GET /api/images/{kind}/{filename}, serving stored
// cover, character, and scene illustrations.
type ImageEndpoint struct{}

func (e *ImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/images/{kind}/{filename}", e.handler
}

func (e *ImageEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Fetch a generated image
//	@Description	Serves a stored image by kind (covers, characters, scenes) and filename.
//	@Tags			images
//	@Produce		png
//	@Param			kind		path	string	true	"Image kind"
//	@Param			filename	path	string	true	"Image filename"
//	@Success		200	{file}	binary
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/images/{kind}/{filename} [get]
func (e *ImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	filename := r.PathValue("filename")
	if !home.ValidKind(kind) {
		writeError(w, http.StatusBadRequest, "unknown image kind")
		return
	}

	homeDir := svcctx.HomeFrom(r.Context())
	if homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}

	path := homeDir.ImagePath(home.ImageKind(kind), filename)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	http.ServeFile(w, r, path)
}

func (e *ImageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "image <kind> <filename>",
		Short: "Download a generated image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			out := outputFile
			if out == "" {
				out = args[1]
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := client.GetRaw(cmd.Context(), "/api/images/"+args[0]+"/"+args[1], f); err != nil {
				os.Remove(out)
				return err
			}
			cmd.Println("wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output-file", "f", "", "Output file path (default: the image filename)")
	return cmd
}
