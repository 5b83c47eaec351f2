package issues

import "strings"

// Result is the outcome of filtering one unit's diagnostics.
type Result struct {
	Count int
	Text  string
}

// Filter drops every diagnostic containing an ignore entry and joins the
// rest, each with a leading newline, in their original order.
func Filter(diagnostics []string, ignore IgnoreList) Result {
	var res Result
	var b strings.Builder
	for _, d := range diagnostics {
		if ignore.Suppresses(d) {
			continue
		}
		res.Count++
		b.WriteByte('\n')
		b.WriteString(d)
	}
	res.Text = b.String()
	return res
}
