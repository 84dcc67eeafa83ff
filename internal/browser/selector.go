package browser

import "github.com/chromedp/chromedp"

// Key names accepted by Press.
const (
	KeyEnter = "\r"
	KeyTab   = "\t"
)

// Selector addresses DOM nodes either by CSS query or by XPath expression.
type Selector struct {
	Expr  string
	XPath bool
}

// CSS returns a CSS query selector.
func CSS(expr string) Selector {
	return Selector{Expr: expr}
}

// XPath returns an XPath selector.
func XPath(expr string) Selector {
	return Selector{Expr: expr, XPath: true}
}

func (s Selector) String() string {
	if s.XPath {
		return "xpath:" + s.Expr
	}
	return s.Expr
}

func (s Selector) by() chromedp.QueryOption {
	if s.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
