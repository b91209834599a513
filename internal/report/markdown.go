package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/playcrawl/internal/model"
)

// MarkdownWriter renders the crawl summary as Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary.
func (w *MarkdownWriter) Write(summary *model.CrawlSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Keywords", strconv.Itoa(len(summary.Keywords))},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration().Round(timeRounding).String()},
			{"Result", Title(summary.Reason.String())},
			{"Items", itemsText(summary)},
			{"Failed", strconv.Itoa(summary.Failed)},
			{"Listing Pages", strconv.Itoa(summary.ListingPages)},
			{"Detail Requests", strconv.Itoa(summary.DetailRequests)},
		},
	})
	md.PlainText("")

	w.writeKeywords(md, summary)
	w.writePieChart(md, summary)
	w.writeAlert(md, summary)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeKeywords(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Keywords")
	md.PlainText("")

	stats := summary.Stats()
	rows := make([][]string, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, []string{
			"`" + st.Keyword + "`",
			strconv.Itoa(st.Items),
			strconv.Itoa(st.Pages),
			strconv.Itoa(st.Links),
			strconv.Itoa(st.Failed),
			Title(string(st.CloseReason)),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Keyword", "Items", "Pages", "Links", "Failed", "Closed"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of items per keyword.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.CrawlSummary) {
	if summary.Items == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Items per Keyword"),
		piechart.WithShowData(true),
	)
	for _, st := range summary.Stats() {
		if st.Items > 0 {
			chart.LabelAndIntValue(st.Keyword, uint64(st.Items))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.CrawlSummary) {
	switch {
	case summary.Reason == model.ReasonExternallyStopped:
		md.Warningf("The crawl was stopped before completion. %d item(s) were saved.", summary.Items)
	case summary.Items == 0:
		md.Note("No items were produced.")
	case summary.Failed > 0:
		md.Importantf("%d detail page(s) could not be loaded.", summary.Failed)
	default:
		md.Tip("All fetched detail pages were loaded.")
	}
	md.PlainText("")
}
