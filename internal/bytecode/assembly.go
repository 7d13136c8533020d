package bytecode

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"loa/internal/ast"
	"loa/internal/generation"
)

// Format renders is as assembly text. Lazy bodies are moved to labelled
// sections after the main stream and referenced as `@lazyN`.
//
//	BeginMethod 8C9F0F5D4B7E1A2B "Main#run"
//	  LoadLazy 1 @lazy1
//	...
//	@lazy1:
//	  LoadLocal 0
//	  ReturnLazy 1
func Format(is generation.Instructions) string {
	f := &formatter{}
	f.section(is)
	for i := 0; i < len(f.pending); i++ {
		p := f.pending[i]
		fmt.Fprintf(&f.sb, "\n@%s:\n", p.label)
		f.section(p.body)
	}
	return f.sb.String()
}

type pendingBody struct {
	label string
	body  generation.Instructions
}

type formatter struct {
	sb      strings.Builder
	pending []pendingBody
}

func (f *formatter) section(is generation.Instructions) {
	indent := ""
	for _, in := range is {
		if in.Op == generation.OpEndMethod {
			indent = ""
		}
		f.sb.WriteString(indent)
		f.sb.WriteString(f.line(in))
		f.sb.WriteByte('\n')
		if in.Op == generation.OpBeginMethod {
			indent = "  "
		}
	}
}

func hex64(v uint64) string { return fmt.Sprintf("%016X", v) }

func (f *formatter) line(in generation.Instruction) string {
	op := in.Op
	parts := []string{op.String()}
	switch {
	case op == generation.OpDeclareClass, op == generation.OpDeclareVariable:
		parts = append(parts, in.ID.String(), strconv.Quote(in.Name))
	case op == generation.OpBeginMethod:
		parts = append(parts, hex64(in.Hash), strconv.Quote(in.Name))
	case op == generation.OpInheritMethod:
		parts = append(parts, in.ID.String(), in.To.String(), hex64(in.Hash))
	case op == generation.OpLoadObject, op == generation.OpStoreGlobal, op == generation.OpLoadGlobal, op.IsMarkClass():
		parts = append(parts, in.ID.String())
	case op == generation.OpLoadLocal, op == generation.OpDropLocal, op == generation.OpReturn, op == generation.OpReturnLazy:
		parts = append(parts, strconv.Itoa(int(in.Index)))
	case op == generation.OpCallMethod:
		parts = append(parts, hex64(in.Hash), strconv.Quote(in.Name),
			strconv.FormatUint(uint64(in.Line), 10), strconv.FormatUint(uint64(in.Character), 10))
	case op == generation.OpCallNative:
		parts = append(parts, in.Native.String())
	case op == generation.OpLoadLazy:
		label := fmt.Sprintf("lazy%d", len(f.pending)+1)
		f.pending = append(f.pending, pendingBody{label: label, body: in.Body})
		parts = append(parts, strconv.Itoa(int(in.Index)), "@"+label)
	case op == generation.OpLoadConstString, op == generation.OpLoadConstSymbol:
		parts = append(parts, strconv.Quote(in.Name))
	case op == generation.OpLoadConstCharacter:
		parts = append(parts, strconv.QuoteRune(in.Char))
	case op.IsIntegerConst():
		parts = append(parts, in.Int.String())
	case op == generation.OpLoadConstF32:
		parts = append(parts, strconv.FormatFloat(in.Float, 'g', -1, 32))
	case op == generation.OpLoadConstF64:
		parts = append(parts, strconv.FormatFloat(in.Float, 'g', -1, 64))
	case op == generation.OpLoadConstFBig:
		parts = append(parts, in.Rat.RatString())
	}
	return strings.Join(parts, " ")
}

// AssemblyError points at the offending line of an assembly text.
type AssemblyError struct {
	Line    int
	Message string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly:%d: %s", e.Line, e.Message)
}

type asmLine struct {
	number int
	fields []string
}

type asmSection struct {
	lines []asmLine
	done  generation.Instructions
	state uint8 // 0 не собрана, 1 собирается, 2 готова
}

// ParseAssembly reads the text produced by Format. Labels are collected in a
// first pass and resolved in a second one, so a section may be referenced
// before it is defined.
func ParseAssembly(text string) (generation.Instructions, error) {
	main := &asmSection{}
	sections := map[string]*asmSection{}
	current := main
	for i, raw := range strings.Split(text, "\n") {
		fields, err := splitFields(raw)
		if err != nil {
			return nil, &AssemblyError{Line: i + 1, Message: err.Error()}
		}
		if len(fields) == 0 {
			continue
		}
		if label, ok := strings.CutPrefix(fields[0], "@"); ok && strings.HasSuffix(label, ":") && len(fields) == 1 {
			label = strings.TrimSuffix(label, ":")
			if _, dup := sections[label]; dup {
				return nil, &AssemblyError{Line: i + 1, Message: "duplicate label @" + label}
			}
			current = &asmSection{}
			sections[label] = current
			continue
		}
		current.lines = append(current.lines, asmLine{number: i + 1, fields: fields})
	}
	return assemble(main, sections)
}

func assemble(s *asmSection, sections map[string]*asmSection) (generation.Instructions, error) {
	switch s.state {
	case 2:
		return s.done, nil
	case 1:
		return nil, &AssemblyError{Line: s.lines[0].number, Message: "lazy body refers to itself"}
	}
	s.state = 1
	out := make(generation.Instructions, 0, len(s.lines))
	for _, l := range s.lines {
		in, err := parseInstruction(l, sections)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	s.done, s.state = out, 2
	return out, nil
}

// splitFields splits a line on blanks, keeping quoted strings and characters
// whole and dropping everything after an unquoted `;`.
func splitFields(line string) ([]string, error) {
	var out []string
	for {
		line = strings.TrimLeft(line, " \t\r")
		if line == "" || line[0] == ';' {
			return out, nil
		}
		if line[0] == '"' || line[0] == '\'' {
			q, err := strconv.QuotedPrefix(line)
			if err != nil {
				return nil, fmt.Errorf("unterminated quote in %q", line)
			}
			out = append(out, q)
			line = line[len(q):]
			continue
		}
		end := strings.IndexAny(line, " \t\r;")
		if end < 0 {
			end = len(line)
		}
		out = append(out, line[:end])
		line = line[end:]
	}
}

func parseInstruction(l asmLine, sections map[string]*asmSection) (generation.Instruction, error) {
	fail := func(format string, args ...any) (generation.Instruction, error) {
		return generation.Instruction{}, &AssemblyError{Line: l.number, Message: fmt.Sprintf(format, args...)}
	}
	op, ok := generation.OpByName(l.fields[0])
	if !ok {
		return fail("unknown instruction %q", l.fields[0])
	}
	args := l.fields[1:]
	want := operandCount(op)
	if len(args) != want {
		return fail("%s takes %d operands, got %d", op, want, len(args))
	}

	in := generation.Instruction{Op: op}
	var err error
	switch {
	case op == generation.OpDeclareClass, op == generation.OpDeclareVariable:
		if in.ID, err = parseID(args[0]); err == nil {
			in.Name, err = strconv.Unquote(args[1])
		}
	case op == generation.OpBeginMethod:
		if in.Hash, err = strconv.ParseUint(args[0], 16, 64); err == nil {
			in.Name, err = strconv.Unquote(args[1])
		}
	case op == generation.OpInheritMethod:
		if in.ID, err = parseID(args[0]); err != nil {
			break
		}
		if in.To, err = parseID(args[1]); err != nil {
			break
		}
		in.Hash, err = strconv.ParseUint(args[2], 16, 64)
	case op == generation.OpLoadObject, op == generation.OpStoreGlobal, op == generation.OpLoadGlobal, op.IsMarkClass():
		in.ID, err = parseID(args[0])
	case op == generation.OpLoadLocal, op == generation.OpDropLocal, op == generation.OpReturn, op == generation.OpReturnLazy:
		in.Index, err = parseU16(args[0])
	case op == generation.OpCallMethod:
		in, err = parseCallMethod(in, args)
	case op == generation.OpCallNative:
		n, ok := generation.NativeByName(args[0])
		if !ok {
			return fail("unknown native %q", args[0])
		}
		in.Native = n
	case op == generation.OpLoadLazy:
		if in.Index, err = parseU16(args[0]); err != nil {
			break
		}
		label, ok := strings.CutPrefix(args[1], "@")
		section := sections[label]
		if !ok || section == nil {
			return fail("undefined label %s", args[1])
		}
		if in.Body, err = assemble(section, sections); err != nil {
			return generation.Instruction{}, err
		}
	case op == generation.OpLoadConstString, op == generation.OpLoadConstSymbol:
		in.Name, err = strconv.Unquote(args[0])
	case op == generation.OpLoadConstCharacter:
		var s string
		if s, err = strconv.Unquote(args[0]); err == nil {
			r := []rune(s)
			if len(r) != 1 {
				return fail("expected one character, got %q", s)
			}
			in.Char = r[0]
		}
	case op.IsIntegerConst():
		v, ok := new(big.Int).SetString(args[0], 10)
		if !ok {
			return fail("invalid integer %q", args[0])
		}
		in.Int = v
	case op == generation.OpLoadConstF32:
		in.Float, err = strconv.ParseFloat(args[0], 32)
	case op == generation.OpLoadConstF64:
		in.Float, err = strconv.ParseFloat(args[0], 64)
	case op == generation.OpLoadConstFBig:
		v, ok := new(big.Rat).SetString(args[0])
		if !ok {
			return fail("invalid rational %q", args[0])
		}
		in.Rat = v
	}
	if err != nil {
		return fail("%s: %v", op, err)
	}
	return in, nil
}

func parseCallMethod(in generation.Instruction, args []string) (generation.Instruction, error) {
	var err error
	if in.Hash, err = strconv.ParseUint(args[0], 16, 64); err != nil {
		return in, err
	}
	if in.Name, err = strconv.Unquote(args[1]); err != nil {
		return in, err
	}
	line, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return in, err
	}
	char, err := strconv.ParseUint(args[3], 10, 32)
	if err != nil {
		return in, err
	}
	in.Line, in.Character = uint32(line), uint32(char)
	return in, nil
}

func operandCount(op generation.Op) int {
	switch {
	case op == generation.OpCallMethod:
		return 4
	case op == generation.OpInheritMethod:
		return 3
	case op == generation.OpDeclareClass, op == generation.OpDeclareVariable,
		op == generation.OpBeginMethod, op == generation.OpLoadLazy:
		return 2
	case op == generation.OpNoop, op == generation.OpHalt, op == generation.OpPanic, op == generation.OpEndMethod:
		return 0
	}
	return 1
}

func parseID(s string) (ast.Id, error) {
	h, ok := strings.CutPrefix(s, "#")
	if !ok {
		return 0, fmt.Errorf("id %q must start with #", s)
	}
	v, err := strconv.ParseUint(h, 16, 64)
	return ast.Id(v), err
}

func parseU16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	return uint16(v), err
}
