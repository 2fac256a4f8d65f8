package report

import (
	"bytes"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/internal/record"
	"github.com/rohmanhakim/nps-explorer/internal/resultcache"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
	"github.com/rohmanhakim/nps-explorer/pkg/fileutil"
)

// MarkdownWriter renders one cached region as a Markdown document:
// a title, a site table, and one section per cached nearby list.
type MarkdownWriter struct {
	output io.Writer
}

func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

func (w *MarkdownWriter) Write(listing resultcache.Listing, generatedAt time.Time) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("National sites in " + record.DisplayName(listing.Region))
	md.PlainText("")
	md.PlainText("Generated " + generatedAt.Format("2006-01-02 15:04:05 MST") + ".")
	md.PlainText("")

	if len(listing.Info) == 0 {
		md.PlainText("No national sites listed.")
		md.PlainText("")
	} else {
		rows := make([][]string, 0, len(listing.Info))
		for i, info := range listing.Info {
			rows = append(rows, []string{strconv.Itoa(i + 1), info, listing.SiteURLs[i]})
		}
		md.Table(markdown.TableSet{
			Header: []string{"#", "Site", "URL"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	for _, name := range listing.NearbySites {
		md.H2("Places near " + name)
		md.PlainText("")
		places := listing.Nearby[name]
		if len(places) == 0 {
			md.PlainText("No places found.")
			md.PlainText("")
			continue
		}
		items := make([]string, 0, len(places))
		for _, place := range places {
			items = append(items, place.Info())
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	return md.Build()
}

// WriteFile renders listing and atomically replaces the file at path.
func WriteFile(
	path string,
	listing resultcache.Listing,
	generatedAt time.Time,
	metadataSink metadata.MetadataSink,
) failure.ClassifiedError {
	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).Write(listing, generatedAt); err != nil {
		return &ReportError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseRenderFailure,
		}
	}

	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		reportErr := &ReportError{
			Message:   err.Error(),
			Retryable: failure.IsRecoverable(err),
			Cause:     ErrCauseWriteFailure,
		}
		metadataSink.RecordError(
			time.Now(),
			"report",
			"WriteFile",
			mapReportErrorToMetadataCause(reportErr),
			reportErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrPath, path),
				metadata.NewAttr(metadata.AttrRegion, listing.Region),
			},
		)
		return reportErr
	}

	metadataSink.RecordArtifact(
		metadata.ArtifactReport,
		path,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrRegion, listing.Region),
		},
	)
	return nil
}
