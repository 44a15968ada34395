package report

import (
	"archive/zip"
	"io"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/rs/zerolog/log"
)

// RenderFunc renders one assignment into (bytes, filename).
type RenderFunc func(a *model.Assignment) ([]byte, string, error)

// WriteZip streams one rendered report per assignment into a zip archive.
// A failed render skips that entry and the batch continues; the counts let
// the caller report a partial-failure summary.
func WriteZip(w io.Writer, assignments []*model.Assignment, render RenderFunc) (succeeded, failed int, err error) {
	zw := zip.NewWriter(w)
	for _, a := range assignments {
		content, name, rerr := render(a)
		if rerr != nil {
			log.Error().Err(rerr).Uint("assignmentID", a.ID).Msg("WriteZip: report render failed, skipping entry")
			failed++
			continue
		}
		entry, werr := zw.Create(name)
		if werr != nil {
			err = werr
			break
		}
		if _, werr = entry.Write(content); werr != nil {
			err = werr
			break
		}
		succeeded++
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	return succeeded, failed, err
}
