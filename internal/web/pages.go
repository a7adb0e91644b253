package web

import apperrors "chengdumed/pkg/errors"

// Page is a static informational page with no data dependency
type Page struct {
	Path     string
	Template string
	Title    string
}

// Pages lists the marketing pages served by the router
var Pages = []Page{
	{Path: "/", Template: "landing.html", Title: "Medical Tourism and Wellness in Chengdu"},
	{Path: "/services", Template: "services.html", Title: "Our Services"},
	{Path: "/process", Template: "process.html", Title: "How It Works"},
	{Path: "/about", Template: "about.html", Title: "About Us"},
	{Path: "/contact", Template: "contact.html", Title: "Contact Us"},
}

// CheckTemplates fails when a routed page or view has no template
func CheckTemplates(r *Renderer) error {
	names := []string{successTemplate, inquiriesTemplate}
	for _, p := range Pages {
		names = append(names, p.Template)
	}
	for _, name := range names {
		if !r.Has(name) {
			return apperrors.New(apperrors.ErrCodeInternalError, "template "+name+" not found")
		}
	}
	return nil
}
