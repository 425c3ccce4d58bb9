package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/courtsched/models"
)

var (
	rowMatcher  = cascadia.MustCompile("tr")
	cellMatcher = cascadia.MustCompile("td")
)

// ParseTable turns the results table's outer HTML into one ScheduleRow per
// <tr>, each holding the whitespace-collapsed text of its <td> cells. Rows
// made only of <th> cells come back empty; callers drop the header rows.
func ParseTable(tableHTML string) ([]models.ScheduleRow, error) {
	root, err := html.Parse(strings.NewReader(tableHTML))
	if err != nil {
		return nil, err
	}
	doc := goquery.NewDocumentFromNode(root)

	rows := make([]models.ScheduleRow, 0)
	doc.FindMatcher(rowMatcher).Each(func(_ int, tr *goquery.Selection) {
		row := make(models.ScheduleRow, 0, 5)
		tr.ChildrenMatcher(cellMatcher).Each(func(_ int, td *goquery.Selection) {
			row = append(row, collapseSpace(td.Text()))
		})
		rows = append(rows, row)
	})
	return rows, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
