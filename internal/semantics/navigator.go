package semantics

import (
	"slices"
	"strings"

	"loa/internal/ast"
	"loa/internal/source"
)

// NodeSource is the storage a Navigator reads from. Ids are process-unique,
// so FindNode does not need to know which tree a node lives in.
type NodeSource interface {
	FindNode(id ast.Id) *ast.Node
	// TraverseAll walks every tree in pre-order, roots first. fn returns false
	// to skip the children of the visited node.
	TraverseAll(fn func(*ast.Node) bool)
}

// ModuleNavigator exposes a single tree.
type ModuleNavigator struct {
	Tree *ast.Tree
}

func (m ModuleNavigator) FindNode(id ast.Id) *ast.Node { return m.Tree.Get(id) }

func (m ModuleNavigator) TraverseAll(fn func(*ast.Node) bool) { m.Tree.TraverseAll(fn) }

// ProgramNavigator exposes every tree of a program, keyed by URI. The map is
// treated as immutable once the navigator is built.
type ProgramNavigator struct {
	trees map[source.URI]*ast.Tree
	uris  []source.URI
}

// NewProgramNavigator indexes trees in a deterministic (URI) order.
func NewProgramNavigator(trees map[source.URI]*ast.Tree) *ProgramNavigator {
	uris := make([]source.URI, 0, len(trees))
	for uri := range trees {
		uris = append(uris, uri)
	}
	slices.Sort(uris)
	return &ProgramNavigator{trees: trees, uris: uris}
}

func (p *ProgramNavigator) FindNode(id ast.Id) *ast.Node {
	for _, uri := range p.uris {
		if n := p.trees[uri].Get(id); n != nil {
			return n
		}
	}
	return nil
}

func (p *ProgramNavigator) TraverseAll(fn func(*ast.Node) bool) {
	for _, uri := range p.uris {
		p.trees[uri].TraverseAll(fn)
	}
}

// Tree returns the tree stored under uri.
func (p *ProgramNavigator) Tree(uri source.URI) *ast.Tree { return p.trees[uri] }

// URIs returns the program's URIs in traversal order.
func (p *ProgramNavigator) URIs() []source.URI { return p.uris }

// Navigator answers read-only structural questions about a program. Every
// query treats absence as a normal result and reports it with nil or false.
type Navigator struct {
	src NodeSource

	stdlibClasses *Cache[string, map[string]*ast.Node]
	globals       *Cache[string, map[string]*ast.Node]
}

// NewNavigator wraps a node source.
func NewNavigator(src NodeSource) *Navigator {
	return &Navigator{
		src:           src,
		stdlibClasses: NewCache[string, map[string]*ast.Node](),
		globals:       NewCache[string, map[string]*ast.Node](),
	}
}

// ===== Примитивы обхода =====

func (n *Navigator) FindNode(id ast.Id) *ast.Node {
	if !id.IsValid() {
		return nil
	}
	return n.src.FindNode(id)
}

// FindChild resolves id as a child of parent.
func (n *Navigator) FindChild(parent *ast.Node, id ast.Id) *ast.Node {
	if parent == nil {
		return nil
	}
	return n.FindNode(id)
}

func (n *Navigator) Parent(node *ast.Node) *ast.Node {
	if node == nil {
		return nil
	}
	return n.FindNode(node.Parent)
}

func (n *Navigator) Children(node *ast.Node) []*ast.Node {
	ids := node.Children()
	out := make([]*ast.Node, 0, len(ids))
	for _, id := range ids {
		if c := n.FindNode(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Traverse walks below from in pre-order; fn returns false to prune.
func (n *Navigator) Traverse(from *ast.Node, fn func(*ast.Node) bool) {
	if from == nil || !fn(from) {
		return
	}
	for _, c := range n.Children(from) {
		n.Traverse(c, fn)
	}
}

func (n *Navigator) TraverseAll(fn func(*ast.Node) bool) {
	n.src.TraverseAll(fn)
}

// traverseREPLLines walks every REPL line; REPL lines share one scope.
func (n *Navigator) traverseREPLLines(fn func(*ast.Node) bool) {
	n.TraverseAll(func(node *ast.Node) bool {
		if !node.Parent.IsValid() {
			if _, ok := node.Kind.(ast.REPLLine); !ok {
				return false
			}
		}
		return fn(node)
	})
}

// Roots returns the root of every tree.
func (n *Navigator) Roots() []*ast.Node {
	var roots []*ast.Node
	n.TraverseAll(func(node *ast.Node) bool {
		if !node.Parent.IsValid() {
			roots = append(roots, node)
		}
		return false
	})
	return roots
}

// Modules returns the roots that are modules (not REPL lines).
func (n *Navigator) Modules() []*ast.Node {
	var out []*ast.Node
	for _, root := range n.Roots() {
		if _, ok := root.Kind.(ast.Module); ok {
			out = append(out, root)
		}
	}
	return out
}

// RootOf climbs to the root of the tree containing node.
func (n *Navigator) RootOf(node *ast.Node) *ast.Node {
	for node != nil {
		parent := n.Parent(node)
		if parent == nil {
			return node
		}
		node = parent
	}
	return nil
}

// RootOfURI returns the root of the tree for uri.
func (n *Navigator) RootOfURI(uri source.URI) *ast.Node {
	for _, root := range n.Roots() {
		if root.Span.URI() == uri {
			return root
		}
	}
	return nil
}

func (n *Navigator) ClosestUpwards(node *ast.Node, pred func(*ast.Node) bool) *ast.Node {
	for cur := node; cur != nil; cur = n.Parent(cur) {
		if pred(cur) {
			return cur
		}
	}
	return nil
}

func (n *Navigator) AllDownwards(from *ast.Node, pred func(*ast.Node) bool) []*ast.Node {
	var out []*ast.Node
	n.Traverse(from, func(c *ast.Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

func (n *Navigator) AnyDownwards(from *ast.Node, pred func(*ast.Node) bool) bool {
	found := false
	n.Traverse(from, func(c *ast.Node) bool {
		if found {
			return false
		}
		if pred(c) {
			found = true
			return false
		}
		return true
	})
	return found
}

// AllMatching collects every node of the program satisfying pred.
func (n *Navigator) AllMatching(pred func(*ast.Node) bool) []*ast.Node {
	var out []*ast.Node
	n.TraverseAll(func(c *ast.Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// IsWithin reports whether needle is haystack or one of its descendants.
func (n *Navigator) IsWithin(needle, haystack *ast.Node) bool {
	for cur := needle; cur != nil; cur = n.Parent(cur) {
		if cur.ID == haystack.ID {
			return true
		}
	}
	return false
}

func (n *Navigator) ClosestScopeRoot(node *ast.Node) *ast.Node {
	return n.ClosestUpwards(node, (*ast.Node).IsScopeRoot)
}

func (n *Navigator) ClosestClassUpwards(node *ast.Node) *ast.Node {
	return n.ClosestUpwards(node, isClass)
}

// ===== Символы и селекторы =====

// SymbolOf returns the name a node introduces or refers to, and the node
// carrying that name.
func (n *Navigator) SymbolOf(node *ast.Node) (string, *ast.Node, bool) {
	if node == nil {
		return "", nil, false
	}
	switch k := node.Kind.(type) {
	case ast.Symbol:
		return k.Token.Text, node, true
	case ast.Operator:
		return k.Token.Text, node, true
	case ast.SelfExpression, ast.SelfTypeExpression:
		return "self", node, true
	case ast.Class:
		return n.SymbolOf(n.FindChild(node, k.Symbol))
	case ast.LetBinding:
		return n.SymbolOf(n.FindChild(node, k.Symbol))
	case ast.ReferenceTypeExpression:
		return n.SymbolOf(n.FindChild(node, k.Symbol))
	case ast.ReferenceExpression:
		return n.SymbolOf(n.FindChild(node, k.Symbol))
	case ast.TypeParameter:
		return n.SymbolOf(n.FindChild(node, k.Symbol))
	case ast.ParameterPattern:
		return n.SymbolOf(n.FindChild(node, k.Symbol))
	case ast.Variable:
		return n.SymbolOf(n.FindChild(node, k.Symbol))
	case ast.ImportDirective:
		if k.Alias.IsValid() {
			return n.SymbolOf(n.FindChild(node, k.Alias))
		}
		qs := n.FindChild(node, k.QualifiedSymbol)
		if qs == nil {
			return "", nil, false
		}
		syms := qs.Kind.(ast.QualifiedSymbol).Symbols
		if len(syms) == 0 {
			return "", nil, false
		}
		return n.SymbolOf(n.FindChild(qs, syms[len(syms)-1]))
	default:
		return "", nil, false
	}
}

// QualifiedSymbolString joins the parts of a QualifiedSymbol with '/'.
func (n *Navigator) QualifiedSymbolString(qs *ast.Node) string {
	return strings.Join(n.qualifiedSymbolParts(qs), "/")
}

func (n *Navigator) qualifiedSymbolParts(qs *ast.Node) []string {
	if qs == nil {
		return nil
	}
	k, ok := qs.Kind.(ast.QualifiedSymbol)
	if !ok {
		return nil
	}
	parts := make([]string, 0, len(k.Symbols))
	for _, id := range k.Symbols {
		if name, _, ok := n.SymbolOf(n.FindChild(qs, id)); ok {
			parts = append(parts, name)
		}
	}
	return parts
}

// MessageSelector builds the selector of a message or a message pattern:
// `foo`, `+`, `at:put:`.
func (n *Navigator) MessageSelector(message *ast.Node) (string, bool) {
	if message == nil {
		return "", false
	}
	switch k := message.Kind.(type) {
	case ast.UnaryMessage:
		name, _, ok := n.SymbolOf(n.FindChild(message, k.Symbol))
		return name, ok
	case ast.UnaryMessagePattern:
		name, _, ok := n.SymbolOf(n.FindChild(message, k.Symbol))
		return name, ok
	case ast.BinaryMessage:
		name, _, ok := n.SymbolOf(n.FindChild(message, k.Operator))
		return name, ok
	case ast.BinaryMessagePattern:
		name, _, ok := n.SymbolOf(n.FindChild(message, k.Operator))
		return name, ok
	case ast.KeywordMessage:
		return n.keywordSelector(message, k.KeywordPairs)
	case ast.KeywordMessagePattern:
		return n.keywordSelector(message, k.KeywordPairs)
	default:
		return "", false
	}
}

// MessagePatternSelector is MessageSelector restricted to patterns.
func (n *Navigator) MessagePatternSelector(pattern *ast.Node) (string, bool) {
	if pattern == nil || !pattern.IsMessagePattern() {
		return "", false
	}
	return n.MessageSelector(pattern)
}

func (n *Navigator) keywordSelector(parent *ast.Node, pairs []ast.Id) (string, bool) {
	var sb strings.Builder
	for _, id := range pairs {
		pair := n.FindChild(parent, id)
		if pair == nil {
			return "", false
		}
		kw, _, ok := n.SymbolOf(n.FindChild(pair, pair.Kind.(ast.KeywordPair).Keyword))
		if !ok {
			return "", false
		}
		sb.WriteString(kw)
		sb.WriteByte(':')
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

// KeywordPairs resolves (keyword, value) pairs of a keyword message,
// keyword pattern or initializer.
func (n *Navigator) KeywordPairs(parent *ast.Node, ids []ast.Id) [][2]*ast.Node {
	out := make([][2]*ast.Node, 0, len(ids))
	for _, id := range ids {
		pair := n.FindChild(parent, id)
		if pair == nil {
			continue
		}
		kp, ok := pair.Kind.(ast.KeywordPair)
		if !ok {
			continue
		}
		kw, val := n.FindChild(pair, kp.Keyword), n.FindChild(pair, kp.Value)
		if kw == nil || val == nil {
			continue
		}
		out = append(out, [2]*ast.Node{kw, val})
	}
	return out
}

// MessageArguments returns the argument expressions of a message in order.
func (n *Navigator) MessageArguments(message *ast.Node) []*ast.Node {
	switch k := message.Kind.(type) {
	case ast.BinaryMessage:
		if e := n.FindChild(message, k.Expression); e != nil {
			return []*ast.Node{e}
		}
	case ast.KeywordMessage:
		pairs := n.KeywordPairs(message, k.KeywordPairs)
		out := make([]*ast.Node, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, p[1])
		}
		return out
	}
	return nil
}

// MessagePatternParameters returns the ParameterPatterns of a pattern in order.
func (n *Navigator) MessagePatternParameters(pattern *ast.Node) []*ast.Node {
	if pattern == nil {
		return nil
	}
	switch k := pattern.Kind.(type) {
	case ast.BinaryMessagePattern:
		if p := n.FindChild(pattern, k.Parameter); p != nil {
			return []*ast.Node{p}
		}
	case ast.KeywordMessagePattern:
		pairs := n.KeywordPairs(pattern, k.KeywordPairs)
		out := make([]*ast.Node, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, p[1])
		}
		return out
	}
	return nil
}

// MessageArity counts the receiver: unary 1, binary 2, keyword 1+pairs.
func (n *Navigator) MessageArity(message *ast.Node) (int, bool) {
	switch k := message.Kind.(type) {
	case ast.UnaryMessage, ast.UnaryMessagePattern:
		return 1, true
	case ast.BinaryMessage, ast.BinaryMessagePattern:
		return 2, true
	case ast.KeywordMessage:
		return len(k.KeywordPairs) + 1, true
	case ast.KeywordMessagePattern:
		return len(k.KeywordPairs) + 1, true
	default:
		return 0, false
	}
}

// IndexOfParameter returns the position of a parameter inside its pattern.
func (n *Navigator) IndexOfParameter(param *ast.Node) (int, bool) {
	parent := n.Parent(param)
	if parent == nil {
		return 0, false
	}
	switch parent.Kind.(type) {
	case ast.BinaryMessagePattern:
		return 0, true
	case ast.KeywordPair:
		pattern := n.Parent(parent)
		if pattern == nil {
			return 0, false
		}
		if kp, ok := pattern.Kind.(ast.KeywordMessagePattern); ok {
			if i := slices.Index(kp.KeywordPairs, parent.ID); i >= 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// ===== Классификация узлов =====

func isClass(n *ast.Node) bool {
	_, ok := n.Kind.(ast.Class)
	return ok
}

func isImport(n *ast.Node) bool {
	_, ok := n.Kind.(ast.ImportDirective)
	return ok
}

func isREPLLine(n *ast.Node) bool {
	_, ok := n.Kind.(ast.REPLLine)
	return ok
}

// DeclarationKind separates the value and type namespaces.
type DeclarationKind uint8

const (
	DeclAny DeclarationKind = iota
	DeclValue
	DeclType
)

// IsDeclarationOf reports whether node declares a name in the kind's namespace.
// Classes live in both namespaces.
func IsDeclarationOf(node *ast.Node, kind DeclarationKind) bool {
	switch node.Kind.(type) {
	case ast.Class:
		return true
	case ast.TypeParameter:
		return kind != DeclValue
	case ast.ParameterPattern, ast.LetBinding, ast.Variable:
		return kind != DeclType
	default:
		return false
	}
}

// IsReferenceOf reports whether node refers to a name in the kind's namespace.
func IsReferenceOf(node *ast.Node, kind DeclarationKind) bool {
	switch node.Kind.(type) {
	case ast.ReferenceExpression:
		return kind != DeclType
	case ast.ReferenceTypeExpression:
		return kind != DeclValue
	default:
		return false
	}
}

// DeclarationKindOf picks the namespace a reference or declaration lives in.
func DeclarationKindOf(node *ast.Node) DeclarationKind {
	switch node.Kind.(type) {
	case ast.ReferenceTypeExpression, ast.TypeParameter:
		return DeclType
	case ast.ReferenceExpression, ast.ParameterPattern, ast.LetBinding, ast.Variable:
		return DeclValue
	default:
		return DeclAny
	}
}

// ===== Сборщики по всей программе =====

func (n *Navigator) AllClasses() []*ast.Node { return n.AllMatching(isClass) }

func (n *Navigator) AllImports() []*ast.Node { return n.AllMatching(isImport) }

func (n *Navigator) AllMessageSends() []*ast.Node {
	return n.AllMatching(func(c *ast.Node) bool {
		_, ok := c.Kind.(ast.MessageSendExpression)
		return ok
	})
}

func (n *Navigator) AllCascades() []*ast.Node {
	return n.AllMatching(func(c *ast.Node) bool {
		_, ok := c.Kind.(ast.CascadeExpression)
		return ok
	})
}

func (n *Navigator) AllMessages() []*ast.Node { return n.AllMatching((*ast.Node).IsMessage) }

func (n *Navigator) AllNumberLiterals() []*ast.Node {
	return n.AllMatching(func(c *ast.Node) bool {
		switch c.Kind.(type) {
		case ast.IntegerExpression, ast.FloatExpression:
			return true
		}
		return false
	})
}

func (n *Navigator) AllReferenceTypeExpressions() []*ast.Node {
	return n.AllMatching(func(c *ast.Node) bool {
		_, ok := c.Kind.(ast.ReferenceTypeExpression)
		return ok
	})
}

func (n *Navigator) AllTypeParameters() []*ast.Node {
	return n.AllMatching(func(c *ast.Node) bool {
		_, ok := c.Kind.(ast.TypeParameter)
		return ok
	})
}

func (n *Navigator) AllInitializers() []*ast.Node {
	return n.AllMatching(func(c *ast.Node) bool {
		_, ok := c.Kind.(ast.Initializer)
		return ok
	})
}

func (n *Navigator) AllMethods() []*ast.Node {
	return n.AllMatching(func(c *ast.Node) bool {
		_, ok := c.Kind.(ast.Method)
		return ok
	})
}

func (n *Navigator) AllScopeRoots() []*ast.Node { return n.AllMatching((*ast.Node).IsScopeRoot) }

func (n *Navigator) AllReferences(kind DeclarationKind) []*ast.Node {
	return n.AllMatching(func(c *ast.Node) bool { return IsReferenceOf(c, kind) })
}

// AllReferenceSymbols returns the Symbol nodes of every reference.
func (n *Navigator) AllReferenceSymbols(kind DeclarationKind) []*ast.Node {
	refs := n.AllReferences(kind)
	out := make([]*ast.Node, 0, len(refs))
	for _, r := range refs {
		if _, sym, ok := n.SymbolOf(r); ok {
			out = append(out, sym)
		}
	}
	return out
}
