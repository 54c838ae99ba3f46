package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"unicode/utf16"
)

// ErrNotClassFile is returned when the input does not start with 0xCAFEBABE.
var ErrNotClassFile = errors.New("not a class file")

type reader struct {
	r   io.Reader
	err error
}

func (r *reader) readU1() uint8 {
	if r.err != nil {
		return 0
	}
	var buf [1]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return buf[0]
}

func (r *reader) readU2() uint16 {
	if r.err != nil {
		return 0
	}
	var buf [2]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

func (r *reader) readU4() uint32 {
	if r.err != nil {
		return 0
	}
	var buf [4]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

func (r *reader) readBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	_, r.err = io.ReadFull(r.r, buf)
	return buf
}

func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(rd io.Reader) (*ClassFile, error) {
	r := &reader{r: rd}

	magic := r.readU4()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", r.err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: magic 0x%X", ErrNotClassFile, magic)
	}

	cf := &ClassFile{
		MinorVersion: r.readU2(),
		MajorVersion: r.readU2(),
	}
	count := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read header: %w", r.err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: empty constant pool", ErrNotClassFile)
	}

	cf.ConstantPool = make(ConstantPool, count-1)
	for i := uint16(1); i < count; i++ {
		entry, wide, err := readConstantPoolEntry(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read constant pool entry %d: %w", i, err)
		}
		cf.ConstantPool[i-1] = entry
		if wide {
			i++
		}
	}

	cf.AccessFlags = AccessFlags(r.readU2())
	cf.ThisClass = r.readU2()
	cf.SuperClass = r.readU2()
	cf.Interfaces = make([]uint16, r.readU2())
	for i := range cf.Interfaces {
		cf.Interfaces[i] = r.readU2()
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read class info: %w", r.err)
	}

	var err error
	if cf.Fields, err = readMembers(r, cf.ConstantPool); err != nil {
		return nil, fmt.Errorf("failed to read fields: %w", err)
	}
	if cf.Methods, err = readMembers(r, cf.ConstantPool); err != nil {
		return nil, fmt.Errorf("failed to read methods: %w", err)
	}
	if cf.Attributes, err = readAttributes(r, cf.ConstantPool); err != nil {
		return nil, fmt.Errorf("failed to read attributes: %w", err)
	}
	return cf, nil
}

func readConstantPoolEntry(r *reader) (ConstantPoolEntry, bool, error) {
	tag := ConstantTag(r.readU1())
	if r.err != nil {
		return nil, false, r.err
	}

	var entry ConstantPoolEntry
	wide := false
	switch tag {
	case ConstantUtf8:
		entry = &ConstantUtf8Info{Value: decodeModifiedUtf8(r.readBytes(int(r.readU2())))}
	case ConstantInteger:
		entry = &ConstantIntegerInfo{Value: int32(r.readU4())}
	case ConstantFloat:
		entry = &ConstantFloatInfo{Value: math.Float32frombits(r.readU4())}
	case ConstantLong:
		hi, lo := r.readU4(), r.readU4()
		entry = &ConstantLongInfo{Value: int64(uint64(hi)<<32 | uint64(lo))}
		wide = true
	case ConstantDouble:
		hi, lo := r.readU4(), r.readU4()
		entry = &ConstantDoubleInfo{Value: math.Float64frombits(uint64(hi)<<32 | uint64(lo))}
		wide = true
	case ConstantClass:
		entry = &ConstantClassInfo{NameIndex: r.readU2()}
	case ConstantString:
		entry = &ConstantStringInfo{StringIndex: r.readU2()}
	case ConstantFieldref, ConstantMethodref, ConstantInterfaceMethodref, ConstantNameAndType,
		ConstantDynamic, ConstantInvokeDynamic:
		entry = &ConstantRefInfo{Kind: tag, First: r.readU2(), Second: r.readU2()}
	case ConstantMethodHandle:
		entry = &ConstantRefInfo{Kind: tag, First: uint16(r.readU1()), Second: r.readU2()}
	case ConstantMethodType, ConstantModule, ConstantPackage:
		entry = &ConstantRefInfo{Kind: tag, First: r.readU2()}
	default:
		return nil, false, fmt.Errorf("unknown constant pool tag %d", tag)
	}
	return entry, wide, r.err
}

func readMembers(r *reader, cp ConstantPool) ([]Member, error) {
	members := make([]Member, r.readU2())
	for i := range members {
		m := &members[i]
		m.AccessFlags = AccessFlags(r.readU2())
		m.Name = cp.GetUtf8(r.readU2())
		m.Descriptor = cp.GetUtf8(r.readU2())
		attrs, err := readAttributes(r, cp)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		m.Attributes = attrs
	}
	return members, r.err
}

func readAttributes(r *reader, cp ConstantPool) ([]Attribute, error) {
	attrs := make([]Attribute, r.readU2())
	for i := range attrs {
		attrs[i].Name = cp.GetUtf8(r.readU2())
		attrs[i].Info = r.readBytes(int(r.readU4()))
		if r.err != nil {
			return nil, r.err
		}
	}
	return attrs, r.err
}

// InnerClass is one row of the InnerClasses attribute.
type InnerClass struct {
	InnerClassName string
	OuterClassName string
	InnerName      string
	AccessFlags    AccessFlags
}

// InnerClasses decodes the class's InnerClasses attribute, if any.
func (cf *ClassFile) InnerClasses() ([]InnerClass, error) {
	attr := cf.Attribute("InnerClasses")
	if attr == nil {
		return nil, nil
	}
	r := &reader{r: bytes.NewReader(attr.Info)}
	classes := make([]InnerClass, r.readU2())
	for i := range classes {
		classes[i] = InnerClass{
			InnerClassName: cf.ConstantPool.GetClassName(r.readU2()),
			OuterClassName: cf.ConstantPool.GetClassName(r.readU2()),
			InnerName:      cf.ConstantPool.GetUtf8(r.readU2()),
			AccessFlags:    AccessFlags(r.readU2()),
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("malformed InnerClasses attribute: %w", r.err)
	}
	return classes, nil
}

// ConstantLongValue returns the value of a long field's ConstantValue
// attribute.
func (cf *ClassFile) ConstantLongValue(m *Member) (int64, bool) {
	attr := m.Attribute("ConstantValue")
	if attr == nil || len(attr.Info) != 2 {
		return 0, false
	}
	return cf.ConstantPool.GetLong(binary.BigEndian.Uint16(attr.Info))
}

// decodeModifiedUtf8 decodes the JVM's variant of UTF-8, where NUL takes two
// bytes and supplementary characters are stored as surrogate pairs.
func decodeModifiedUtf8(b []byte) string {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, 0xFFFD)
			i++
		}
	}
	return string(utf16.Decode(units))
}

// encodeModifiedUtf8 is the inverse of decodeModifiedUtf8, matching
// java.io.DataOutputStream.writeUTF without the length prefix.
func encodeModifiedUtf8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u >= 0x0001 && u <= 0x007F:
			out = append(out, byte(u))
		case u <= 0x07FF:
			out = append(out, byte(0xC0|u>>6&0x1F), byte(0x80|u&0x3F))
		default:
			out = append(out, byte(0xE0|u>>12&0x0F), byte(0x80|u>>6&0x3F), byte(0x80|u&0x3F))
		}
	}
	return out
}
