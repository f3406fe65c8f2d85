package inject

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/pagedom"
)

// RootID marks the overlay's root element in the host document.
const RootID = "gamelens-hltb-root"

const rootSelector = "#" + RootID

// displayState is the overlay's terminal UI state. "No data" is distinct
// from "couldn't detect" is distinct from "something went wrong"; they are
// never collapsed into one generic failure.
type displayState string

const (
	stateLoading displayState = "loading"
	stateSuccess displayState = "success"
	stateNoData  displayState = "nodata"
	stateError   displayState = "error"
)

// display is the mounted overlay instance. The manager owns exactly one at
// a time; the host page around it is never assumed owned.
type display struct {
	page  *pagedom.Page
	state displayState
}

// mountDisplay inserts a fresh overlay at the anchor and returns the
// instance, or false when the anchor vanished between selection and mount.
func mountDisplay(page *pagedom.Page, point InjectionPoint, theme string) (*display, bool) {
	shell := fmt.Sprintf(
		`<div id=%q class="gamelens-overlay" data-theme=%q></div>`, RootID, theme)

	mounted := false
	page.Mutate(func(doc *goquery.Document) {
		anchor := doc.Find(point.Selector).First()
		if anchor.Length() == 0 {
			return
		}
		switch point.Position {
		case PositionBefore:
			anchor.BeforeHtml(shell)
		case PositionAfter:
			anchor.AfterHtml(shell)
		case PositionPrepend:
			anchor.PrependHtml(shell)
		default:
			anchor.AppendHtml(shell)
		}
		mounted = true
	})
	if !mounted {
		return nil, false
	}
	return &display{page: page}, true
}

func (d *display) setContent(state displayState, inner string) {
	d.state = state
	d.page.Mutate(func(doc *goquery.Document) {
		root := doc.Find(rootSelector).First()
		if root.Length() == 0 {
			return
		}
		root.SetAttr("data-state", string(state))
		root.SetHtml(inner)
	})
}

func (d *display) showLoading() {
	d.setContent(stateLoading, `<div class="gamelens-spinner">Loading completion times…</div>`)
}

func (d *display) showError(msg string) {
	d.setContent(stateError, fmt.Sprintf(
		`<div class="gamelens-error">%s</div>`, html.EscapeString(msg)))
}

func (d *display) showNoData(title string) {
	d.setContent(stateNoData, fmt.Sprintf(
		`<div class="gamelens-nodata">No completion data available for %s</div>`,
		html.EscapeString(title)))
}

func (d *display) showData(data *models.HLTBData, title string) {
	var rows strings.Builder
	writeRow := func(label string, hours *float64) {
		if hours == nil {
			return
		}
		fmt.Fprintf(&rows,
			`<div class="gamelens-row"><span class="gamelens-label">%s</span><span class="gamelens-hours">%s</span></div>`,
			label, formatHours(*hours))
	}
	writeRow("Main Story", data.MainStory)
	writeRow("Main + Extra", data.MainExtra)
	writeRow("Completionist", data.Completionist)
	writeRow("All Styles", data.AllStyles)

	badge := ""
	if data.Confidence == models.ConfidenceLow {
		// Low-confidence matches are surfaced, not silently trusted.
		badge = fmt.Sprintf(
			`<div class="gamelens-confidence">Uncertain match: %s</div>`,
			html.EscapeString(data.MatchedTitle))
	}

	d.setContent(stateSuccess, fmt.Sprintf(
		`<div class="gamelens-title">%s</div>%s%s`,
		html.EscapeString(title), rows.String(), badge))
}

// remove tears the overlay out of the document. Idempotent.
func (d *display) remove() {
	d.page.Mutate(func(doc *goquery.Document) {
		doc.Find(rootSelector).Remove()
	})
}

func formatHours(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	return s + "h"
}
