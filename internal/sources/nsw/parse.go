package nsw

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

var (
	orgIDPattern    = regexp.MustCompile(`Organisationid=(\d+)`)
	postBackPattern = regexp.MustCompile(`__doPostBack\('([^']+)'`)
)

// page is a parsed register page.
type page struct {
	root *html.Node
}

func parsePage(r io.Reader) (*page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapParse("html", "register page", err)
	}
	return &page{root: root}, nil
}

// formFields returns the postback fields of the ASP.NET form: every named
// input with its value, and every named select with its selected (or first)
// option value.
func (p *page) formFields() (map[string]string, error) {
	form := find(p.root, withID(atom.Form, "aspnetForm"))
	if form == nil {
		return nil, errors.NewParseError("html", "register page", "form not found", nil)
	}

	fields := make(map[string]string)
	for _, in := range findAll(form, element(atom.Input)) {
		if name, _ := attr(in, "name"); name != "" {
			value, _ := attr(in, "value")
			fields[name] = value
		}
	}
	for _, sel := range findAll(form, element(atom.Select)) {
		name, _ := attr(sel, "name")
		options := findAll(sel, element(atom.Option))
		if name == "" || len(options) == 0 {
			continue
		}
		chosen := options[0]
		for _, opt := range options {
			if _, ok := attr(opt, "selected"); ok {
				chosen = opt
				break
			}
		}
		value, _ := attr(chosen, "value")
		fields[name] = value
	}
	return fields, nil
}

// results returns the associations listed on a results page.
func (p *page) results() []records.NSW {
	list := find(p.root, withID(atom.Span, "ctl00_MainArea_ResultDataList"))
	if list == nil {
		return nil
	}

	var out []records.NSW
	for _, row := range findAll(list, withClass(atom.Div, "row")) {
		main := find(row, withClass(atom.Div, "col-md-10"))
		status := find(row, withClass(atom.Div, "col-md-2"))
		if main == nil || status == nil {
			continue
		}

		link := find(main, element(atom.A))
		if link == nil {
			continue
		}
		org := records.NSW{Name: text(link, "")}
		if org.Name == "" {
			continue
		}
		if href, ok := attr(link, "href"); ok {
			if m := orgIDPattern.FindStringSubmatch(href); m != nil {
				org.OrganisationID = m[1]
			}
		}

		for _, info := range findAll(main, withClass(atom.Div, "row")) {
			for _, col := range findAll(info, element(atom.Div)) {
				t := text(col, " ")
				if strings.Contains(t, "Organisation Number:") {
					org.OrganisationNumber = after(t, "Organisation Number:")
				}
				if strings.Contains(t, "Organisation Type:") {
					org.OrganisationType = after(t, "Organisation Type:")
				}
				if strings.Contains(t, "Date Registered:") {
					org.DateRegistered = after(t, "Date Registered:")
				}
				if strings.Contains(t, "Date Removed:") {
					org.DateRemoved = after(t, "Date Removed:")
				}
			}
		}

		if addr := find(main, withIDSuffix(atom.Div, "RegisteredAddress")); addr != nil {
			org.RegisteredOfficeAddress = after(text(addr, ""), "Registered Office Address:")
		}
		if fc := find(status, element(atom.Figcaption)); fc != nil {
			org.Status = text(fc, "")
		}
		out = append(out, org)
	}
	return out
}

// nextTarget returns the postback target of the next-page link, if any.
func (p *page) nextTarget() string {
	for _, a := range findAll(p.root, element(atom.A)) {
		href, ok := attr(a, "href")
		if !ok {
			continue
		}
		id, _ := attr(a, "id")
		if !strings.HasSuffix(id, "PageNextLink") || !strings.Contains(href, "javascript:__doPostBack") {
			continue
		}
		if m := postBackPattern.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	return ""
}

// details returns the label/value pairs of an association details page.
func (p *page) details() (map[string]string, error) {
	card := find(p.root, withClass(atom.Div, "card-body"))
	if card == nil {
		return nil, errors.NewParseError("html", "details page", "details area not found", nil)
	}

	out := make(map[string]string)
	for _, row := range findAll(card, withClass(atom.Div, "row")) {
		for _, label := range findAll(row, withClass(atom.Span, "font-weight-bold")) {
			key := strings.TrimSpace(strings.ReplaceAll(text(label, ""), ":", ""))
			if key == "" {
				continue
			}
			if value := siblingValue(label); value != "" {
				out[key] = value
			}
		}
	}
	return out, nil
}

// siblingValue reads the value following a label: the next sibling element's
// text, or the next text node.
func siblingValue(label *html.Node) string {
	for sib := label.NextSibling; sib != nil; sib = sib.NextSibling {
		switch sib.Type {
		case html.ElementNode:
			return text(sib, "")
		case html.TextNode:
			if v := strings.TrimSpace(sib.Data); v != "" {
				return v
			}
		}
	}
	return ""
}
