package diag

// Reporter принимает готовые диагностики от парсера и чекеров.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// BagReporter пишет в Bag; лишнее сверх лимита отбрасывается.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// SliceReporter собирает всё без лимита.
type SliceReporter struct {
	Items []Diagnostic
}

func (r *SliceReporter) Report(d Diagnostic) {
	r.Items = append(r.Items, d)
}
