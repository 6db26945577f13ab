// Package export builds the read-only projection a document renderer
// consumes: activities in time order, pendings split into inherited and new,
// priority-sorted, plus the suggested output filename.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/example/rdo/internal/schema"
)

// Document is the render-ready projection of one report.
type Document struct {
	Report     schema.Report     `json:"report"`
	Activities []schema.Activity `json:"activities"`
	Inherited  []schema.Pending  `json:"inherited"`
	New        []schema.Pending  `json:"new"`
	Open       int               `json:"open"`
	Resolved   int               `json:"resolved"`
	Filename   string            `json:"filename"`
}

// BuildDocument assembles the projection. Hidden pendings are left out; the
// caller passes rows as stored and gets them back sorted and partitioned.
func BuildDocument(r schema.Report, activities []schema.Activity, pendings []schema.Pending) Document {
	doc := Document{
		Report:     r,
		Activities: append([]schema.Activity(nil), activities...),
		Filename:   suggestedFilename(r),
	}

	sort.SliceStable(doc.Activities, func(i, j int) bool {
		a, b := doc.Activities[i], doc.Activities[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	for _, p := range pendings {
		if p.DeletedAt != nil {
			continue
		}
		if p.Status == schema.PendingResolvido {
			doc.Resolved++
		} else {
			doc.Open++
		}
		if p.Origin == schema.OriginHerdada {
			doc.Inherited = append(doc.Inherited, p)
		} else {
			doc.New = append(doc.New, p)
		}
	}
	sortByPriority(doc.Inherited)
	sortByPriority(doc.New)
	return doc
}

func sortByPriority(pendings []schema.Pending) {
	sort.SliceStable(pendings, func(i, j int) bool {
		a, b := pendings[i], pendings[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func suggestedFilename(r schema.Report) string {
	letter := strings.ReplaceAll(string(r.ShiftLetter), " ", "-")
	return fmt.Sprintf("relatorio_%s_%s.pdf", letter, r.Date)
}

// Render writes the document as plain text. It stands in for the PDF
// renderer in the CLI; both consume the same Document.
func Render(w io.Writer, doc Document) error {
	r := doc.Report
	var b strings.Builder

	fmt.Fprintf(&b, "RELATORIO DE TURNO — %s\n", r.Date)
	fmt.Fprintf(&b, "Turno: %s (%s)  %s–%s\n", r.Shift, r.ShiftLetter, r.StartTime, r.EndTime)
	fmt.Fprintf(&b, "Status: %s\n", r.Status)
	if r.SignatureName != "" {
		fmt.Fprintf(&b, "Assinatura: %s\n", r.SignatureName)
	}

	fmt.Fprintf(&b, "\nATIVIDADES (%d)\n", len(doc.Activities))
	for _, a := range doc.Activities {
		fmt.Fprintf(&b, "  %s  %s\n", a.Time, a.Description)
	}

	fmt.Fprintf(&b, "\nPENDENCIAS HERDADAS (%d)\n", len(doc.Inherited))
	writePendings(&b, doc.Inherited)
	fmt.Fprintf(&b, "\nPENDENCIAS NOVAS (%d)\n", len(doc.New))
	writePendings(&b, doc.New)

	fmt.Fprintf(&b, "\nAbertas: %d  Resolvidas: %d\n", doc.Open, doc.Resolved)

	_, err := io.WriteString(w, b.String())
	return err
}

func writePendings(b *strings.Builder, pendings []schema.Pending) {
	for _, p := range pendings {
		fmt.Fprintf(b, "  [%s] %s — %s\n", p.Priority, p.Status, p.Description)
	}
}
