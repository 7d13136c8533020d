package checkers

import (
	"slices"

	"loa/internal/diag"
)

func checkPrivateAccess(c *Context) {
	for _, msg := range c.Nav.AllMessages() {
		method := c.Types.MethodFromMessage(msg)
		if method == nil || c.Nav.MethodIsVisibleFrom(method, msg) {
			continue
		}
		selector, _ := c.Nav.MessageSelector(msg)
		class, ok := c.Nav.QualifiedNameOf(c.Nav.ClosestClassUpwards(method))
		if !ok {
			continue
		}
		c.Report(diag.NewInvalidPrivateAccess(msg.Span, selector, class))
	}
}

// checkInitializers makes every initializer assign each variable of its
// class exactly through the keywords of its body, and nothing else.
func checkInitializers(c *Context) {
	for _, class := range c.Nav.AllClasses() {
		inits := c.Nav.InitializersOf(class)
		if len(inits) == 0 {
			continue
		}
		className, _, _ := c.Nav.SymbolOf(class)
		variables := make(map[string]bool)
		for _, v := range c.Nav.VariablesOfClass(class) {
			if name, _, ok := c.Nav.SymbolOf(v); ok {
				variables[name] = true
			}
		}

		for _, init := range inits {
			assigned := make(map[string]bool)
			for _, a := range c.Nav.InitializerAssignments(init) {
				assigned[a.Name] = true
				if !variables[a.Name] {
					c.Report(diag.NewUndefinedInitializedVariable(a.Keyword.Span, a.Name, className))
				}
			}
			var missing []string
			for name := range variables {
				if !assigned[name] {
					missing = append(missing, name)
				}
			}
			if len(missing) == 0 {
				continue
			}
			slices.Sort(missing)
			span := init.Span
			if pattern := c.Nav.MessagePatternOf(init); pattern != nil {
				span = pattern.Span
			}
			c.Report(diag.NewIncompleteInitializer(span, missing))
		}
	}
}
