// Package bytecode serializes instruction streams.
//
// Every instruction starts with one tag byte, 0xa0 plus its operation code.
// Operands follow in a fixed order:
//   - ids and selector hashes are big-endian u64;
//   - local indices and arities are u16;
//   - callsite lines and characters are u32;
//   - strings are a u16 byte length followed by UTF-8;
//   - fixed-width integers use their natural width in two's complement;
//   - big integers are a sign byte and a u16-prefixed magnitude;
//   - big floats are a rational tag, a sign byte, then numerator and
//     denominator magnitudes;
//   - a lazy body is a u32 instruction count followed by the instructions.
package bytecode

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	"fortio.org/safecast"

	"loa/internal/ast"
	"loa/internal/generation"
)

const tagBase = 0xa0

const (
	ratTag   = 0xea
	signPos  = 0x00
	signNeg  = 0x01
	maxDepth = 256
)

var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrTruncated     = errors.New("truncated bytecode")
	ErrOutOfRange    = errors.New("operand out of range")
)

// Tag returns the byte that introduces op.
func Tag(op generation.Op) byte { return tagBase + byte(op) }

// OpOfTag is the inverse of Tag.
func OpOfTag(tag byte) (generation.Op, bool) {
	if tag < tagBase {
		return 0, false
	}
	op := generation.Op(tag - tagBase)
	return op, op.Valid()
}

var intWidths = map[generation.Op]struct {
	bytes  int
	signed bool
}{
	generation.OpLoadConstU8:   {1, false},
	generation.OpLoadConstU16:  {2, false},
	generation.OpLoadConstU32:  {4, false},
	generation.OpLoadConstU64:  {8, false},
	generation.OpLoadConstU128: {16, false},
	generation.OpLoadConstI8:   {1, true},
	generation.OpLoadConstI16:  {2, true},
	generation.OpLoadConstI32:  {4, true},
	generation.OpLoadConstI64:  {8, true},
	generation.OpLoadConstI128: {16, true},
}

// Marshal encodes is into a fresh byte slice.
func Marshal(is generation.Instructions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, is); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes is to w.
func Encode(w io.Writer, is generation.Instructions) error {
	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}
	for _, in := range is {
		e.instruction(in)
		if e.err != nil {
			return e.err
		}
	}
	return bw.Flush()
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *encoder) byte(b byte) {
	if e.err == nil {
		e.fail(e.w.WriteByte(b))
	}
}

func (e *encoder) raw(b []byte) {
	if e.err == nil {
		_, err := e.w.Write(b)
		e.fail(err)
	}
}

func (e *encoder) u16(v uint16) { e.raw(binary.BigEndian.AppendUint16(nil, v)) }
func (e *encoder) u32(v uint32) { e.raw(binary.BigEndian.AppendUint32(nil, v)) }
func (e *encoder) u64(v uint64) { e.raw(binary.BigEndian.AppendUint64(nil, v)) }

func (e *encoder) length(n int) {
	l, err := safecast.Conv[uint16](n)
	if err != nil {
		e.fail(fmt.Errorf("%w: length %d", ErrOutOfRange, n))
		return
	}
	e.u16(l)
}

func (e *encoder) string(s string) {
	e.length(len(s))
	e.raw([]byte(s))
}

func (e *encoder) magnitude(v *big.Int) {
	b := new(big.Int).Abs(v).Bytes()
	e.length(len(b))
	e.raw(b)
}

func (e *encoder) bigInt(v *big.Int) {
	if v.Sign() < 0 {
		e.byte(signNeg)
	} else {
		e.byte(signPos)
	}
	e.magnitude(v)
}

// fixed writes v as a two's complement integer of n bytes.
func (e *encoder) fixed(v *big.Int, n int, signed bool) {
	bits := uint(n * 8)
	lo, hi := new(big.Int), new(big.Int).Lsh(big.NewInt(1), bits)
	if signed {
		hi.Rsh(hi, 1)
		lo.Neg(hi)
	}
	if v.Cmp(lo) < 0 || v.Cmp(hi) >= 0 {
		e.fail(fmt.Errorf("%w: %s does not fit in %d bytes", ErrOutOfRange, v, n))
		return
	}
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, new(big.Int).Lsh(big.NewInt(1), bits))
	}
	e.raw(u.FillBytes(make([]byte, n)))
}

func (e *encoder) instruction(in generation.Instruction) {
	if !in.Op.Valid() {
		e.fail(fmt.Errorf("%w: %d", ErrUnknownOpcode, in.Op))
		return
	}
	e.byte(Tag(in.Op))
	switch op := in.Op; {
	case op == generation.OpDeclareClass, op == generation.OpDeclareVariable:
		e.u64(uint64(in.ID))
		e.string(in.Name)
	case op == generation.OpBeginMethod:
		e.u64(in.Hash)
		e.string(in.Name)
	case op == generation.OpInheritMethod:
		e.u64(uint64(in.ID))
		e.u64(uint64(in.To))
		e.u64(in.Hash)
	case op == generation.OpLoadObject, op == generation.OpStoreGlobal, op == generation.OpLoadGlobal, op.IsMarkClass():
		e.u64(uint64(in.ID))
	case op == generation.OpLoadLocal, op == generation.OpDropLocal, op == generation.OpReturn, op == generation.OpReturnLazy:
		e.u16(in.Index)
	case op == generation.OpCallMethod:
		e.u64(in.Hash)
		e.string(in.Name)
		e.u32(in.Line)
		e.u32(in.Character)
	case op == generation.OpCallNative:
		e.byte(byte(in.Native))
	case op == generation.OpLoadLazy:
		e.u16(in.Index)
		n, err := safecast.Conv[uint32](len(in.Body))
		if err != nil {
			e.fail(fmt.Errorf("%w: lazy body of %d instructions", ErrOutOfRange, len(in.Body)))
			return
		}
		e.u32(n)
		for _, b := range in.Body {
			e.instruction(b)
		}
	case op == generation.OpLoadConstString, op == generation.OpLoadConstSymbol:
		e.string(in.Name)
	case op == generation.OpLoadConstCharacter:
		e.u32(uint32(in.Char))
	case op == generation.OpLoadConstUBig:
		if in.Int.Sign() < 0 {
			e.fail(fmt.Errorf("%w: negative natural %s", ErrOutOfRange, in.Int))
			return
		}
		e.magnitude(in.Int)
	case op == generation.OpLoadConstIBig:
		e.bigInt(in.Int)
	case op.IsIntegerConst():
		w := intWidths[op]
		e.fixed(in.Int, w.bytes, w.signed)
	case op == generation.OpLoadConstF32:
		e.u32(math.Float32bits(float32(in.Float)))
	case op == generation.OpLoadConstF64:
		e.u64(math.Float64bits(in.Float))
	case op == generation.OpLoadConstFBig:
		e.byte(ratTag)
		if in.Rat.Sign() < 0 {
			e.byte(signNeg)
		} else {
			e.byte(signPos)
		}
		e.magnitude(in.Rat.Num())
		e.magnitude(in.Rat.Denom())
	}
}

// Unmarshal decodes a whole byte slice.
func Unmarshal(b []byte) (generation.Instructions, error) {
	return Decode(bytes.NewReader(b))
}

// Decode reads instructions until a clean EOF between two instructions.
func Decode(r io.Reader) (generation.Instructions, error) {
	d := &decoder{r: bufio.NewReader(r)}
	var out generation.Instructions
	for {
		tag, err := d.r.ReadByte()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		in, err := d.instruction(tag, 0)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", len(out), err)
		}
		out = append(out, in)
	}
}

type decoder struct {
	r *bufio.Reader
}

func (d *decoder) full(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return b, nil
}

func (d *decoder) byte() (byte, error) {
	b, err := d.full(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u16() (uint16, error) {
	b, err := d.full(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.full(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.full(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *decoder) id() (ast.Id, error) {
	v, err := d.u64()
	return ast.Id(v), err
}

func (d *decoder) string() (string, error) {
	n, err := d.u16()
	if err != nil {
		return "", err
	}
	b, err := d.full(int(n))
	return string(b), err
}

func (d *decoder) magnitude() (*big.Int, error) {
	n, err := d.u16()
	if err != nil {
		return nil, err
	}
	b, err := d.full(int(n))
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func (d *decoder) sign() (bool, error) {
	s, err := d.byte()
	if err != nil {
		return false, err
	}
	switch s {
	case signPos:
		return false, nil
	case signNeg:
		return true, nil
	}
	return false, fmt.Errorf("invalid sign byte %#x", s)
}

func (d *decoder) bigInt() (*big.Int, error) {
	neg, err := d.sign()
	if err != nil {
		return nil, err
	}
	v, err := d.magnitude()
	if err != nil {
		return nil, err
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}

func (d *decoder) fixed(n int, signed bool) (*big.Int, error) {
	b, err := d.full(n)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(b)
	if signed && b[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(n*8)))
	}
	return v, nil
}

func (d *decoder) rat() (*big.Rat, error) {
	tag, err := d.byte()
	if err != nil {
		return nil, err
	}
	if tag != ratTag {
		return nil, fmt.Errorf("invalid big float tag %#x", tag)
	}
	neg, err := d.sign()
	if err != nil {
		return nil, err
	}
	num, err := d.magnitude()
	if err != nil {
		return nil, err
	}
	den, err := d.magnitude()
	if err != nil {
		return nil, err
	}
	if den.Sign() == 0 {
		return nil, errors.New("big float with zero denominator")
	}
	if neg {
		num.Neg(num)
	}
	return new(big.Rat).SetFrac(num, den), nil
}

func (d *decoder) instruction(tag byte, depth int) (generation.Instruction, error) {
	op, ok := OpOfTag(tag)
	if !ok {
		return generation.Instruction{}, fmt.Errorf("%w: %#x", ErrUnknownOpcode, tag)
	}
	in := generation.Instruction{Op: op}
	var err error
	switch {
	case op == generation.OpDeclareClass, op == generation.OpDeclareVariable:
		if in.ID, err = d.id(); err == nil {
			in.Name, err = d.string()
		}
	case op == generation.OpBeginMethod:
		if in.Hash, err = d.u64(); err == nil {
			in.Name, err = d.string()
		}
	case op == generation.OpInheritMethod:
		if in.ID, err = d.id(); err == nil {
			if in.To, err = d.id(); err == nil {
				in.Hash, err = d.u64()
			}
		}
	case op == generation.OpLoadObject, op == generation.OpStoreGlobal, op == generation.OpLoadGlobal, op.IsMarkClass():
		in.ID, err = d.id()
	case op == generation.OpLoadLocal, op == generation.OpDropLocal, op == generation.OpReturn, op == generation.OpReturnLazy:
		in.Index, err = d.u16()
	case op == generation.OpCallMethod:
		if in.Hash, err = d.u64(); err != nil {
			break
		}
		if in.Name, err = d.string(); err != nil {
			break
		}
		if in.Line, err = d.u32(); err != nil {
			break
		}
		in.Character, err = d.u32()
	case op == generation.OpCallNative:
		var b byte
		if b, err = d.byte(); err == nil {
			in.Native = generation.Native(b)
			if !in.Native.Valid() {
				err = fmt.Errorf("%w: native %d", ErrUnknownOpcode, b)
			}
		}
	case op == generation.OpLoadLazy:
		in.Index, in.Body, err = d.lazy(depth)
	case op == generation.OpLoadConstString, op == generation.OpLoadConstSymbol:
		in.Name, err = d.string()
	case op == generation.OpLoadConstCharacter:
		var c uint32
		if c, err = d.u32(); err == nil {
			in.Char, err = safecast.Conv[rune](c)
		}
	case op == generation.OpLoadConstUBig:
		in.Int, err = d.magnitude()
	case op == generation.OpLoadConstIBig:
		in.Int, err = d.bigInt()
	case op.IsIntegerConst():
		w := intWidths[op]
		in.Int, err = d.fixed(w.bytes, w.signed)
	case op == generation.OpLoadConstF32:
		var bits uint32
		if bits, err = d.u32(); err == nil {
			in.Float = float64(math.Float32frombits(bits))
		}
	case op == generation.OpLoadConstF64:
		var bits uint64
		if bits, err = d.u64(); err == nil {
			in.Float = math.Float64frombits(bits)
		}
	case op == generation.OpLoadConstFBig:
		in.Rat, err = d.rat()
	}
	if err != nil {
		return generation.Instruction{}, fmt.Errorf("%s: %w", op, err)
	}
	return in, nil
}

func (d *decoder) lazy(depth int) (uint16, generation.Instructions, error) {
	if depth >= maxDepth {
		return 0, nil, errors.New("lazy bodies nested too deeply")
	}
	arity, err := d.u16()
	if err != nil {
		return 0, nil, err
	}
	n, err := d.u32()
	if err != nil {
		return 0, nil, err
	}
	var body generation.Instructions
	for range n {
		tag, err := d.byte()
		if err != nil {
			return 0, nil, err
		}
		in, err := d.instruction(tag, depth+1)
		if err != nil {
			return 0, nil, err
		}
		body = append(body, in)
	}
	return arity, body, nil
}
