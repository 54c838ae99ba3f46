package classfile

import (
	"bytes"
	"encoding/binary"
)

// classBuilder assembles class file bytes for tests.
type classBuilder struct {
	pool    bytes.Buffer
	count   uint16
	utf8s   map[string]uint16
	classes map[string]uint16

	access  AccessFlags
	this    uint16
	super   uint16
	ifaces  []uint16
	fields  bytes.Buffer
	nfields uint16
	methods bytes.Buffer
	nmethod uint16
	attrs   bytes.Buffer
	nattrs  uint16
}

func newClass(name string, access AccessFlags) *classBuilder {
	b := &classBuilder{count: 1, utf8s: map[string]uint16{}, classes: map[string]uint16{}, access: access}
	b.this = b.class(name)
	b.super = b.class("java/lang/Object")
	return b
}

func (b *classBuilder) utf8(s string) uint16 {
	if i, ok := b.utf8s[s]; ok {
		return i
	}
	enc := encodeModifiedUtf8(s)
	b.pool.WriteByte(byte(ConstantUtf8))
	b.u2(&b.pool, uint16(len(enc)))
	b.pool.Write(enc)
	b.utf8s[s] = b.count
	b.count++
	return b.utf8s[s]
}

func (b *classBuilder) class(name string) uint16 {
	if i, ok := b.classes[name]; ok {
		return i
	}
	n := b.utf8(name)
	b.pool.WriteByte(byte(ConstantClass))
	b.u2(&b.pool, n)
	b.classes[name] = b.count
	b.count++
	return b.classes[name]
}

func (b *classBuilder) long(v int64) uint16 {
	b.pool.WriteByte(byte(ConstantLong))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	b.pool.Write(buf[:])
	i := b.count
	b.count += 2
	return i
}

func (b *classBuilder) implements(names ...string) *classBuilder {
	for _, n := range names {
		b.ifaces = append(b.ifaces, b.class(n))
	}
	return b
}

type attr struct {
	name string
	info []byte
}

func (b *classBuilder) field(access AccessFlags, name, desc string, attrs ...attr) *classBuilder {
	b.member(&b.fields, access, name, desc, attrs)
	b.nfields++
	return b
}

func (b *classBuilder) method(access AccessFlags, name, desc string) *classBuilder {
	b.member(&b.methods, access, name, desc, nil)
	b.nmethod++
	return b
}

func (b *classBuilder) attribute(name string, info []byte) *classBuilder {
	b.writeAttr(&b.attrs, attr{name, info})
	b.nattrs++
	return b
}

// innerClass records the InnerClasses row describing the class itself.
func (b *classBuilder) innerClass(outer, simple string, access AccessFlags) *classBuilder {
	var info bytes.Buffer
	b.u2(&info, 1)
	b.u2(&info, b.this)
	b.u2(&info, b.class(outer))
	b.u2(&info, b.utf8(simple))
	b.u2(&info, uint16(access))
	return b.attribute("InnerClasses", info.Bytes())
}

func (b *classBuilder) constantValue(v int64) attr {
	var info bytes.Buffer
	b.u2(&info, b.long(v))
	return attr{"ConstantValue", info.Bytes()}
}

func (b *classBuilder) member(w *bytes.Buffer, access AccessFlags, name, desc string, attrs []attr) {
	b.u2(w, uint16(access))
	b.u2(w, b.utf8(name))
	b.u2(w, b.utf8(desc))
	b.u2(w, uint16(len(attrs)))
	for _, a := range attrs {
		b.writeAttr(w, a)
	}
}

func (b *classBuilder) writeAttr(w *bytes.Buffer, a attr) {
	b.u2(w, b.utf8(a.name))
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(a.info)))
	w.Write(n[:])
	w.Write(a.info)
}

func (b *classBuilder) u2(w *bytes.Buffer, v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.Write(buf[:])
}

func (b *classBuilder) bytes() []byte {
	var out bytes.Buffer
	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], Magic)
	out.Write(u4[:])
	b.u2(&out, 0)
	b.u2(&out, 61)
	b.u2(&out, b.count)
	out.Write(b.pool.Bytes())
	b.u2(&out, uint16(b.access))
	b.u2(&out, b.this)
	b.u2(&out, b.super)
	b.u2(&out, uint16(len(b.ifaces)))
	for _, i := range b.ifaces {
		b.u2(&out, i)
	}
	b.u2(&out, b.nfields)
	out.Write(b.fields.Bytes())
	b.u2(&out, b.nmethod)
	out.Write(b.methods.Bytes())
	b.u2(&out, b.nattrs)
	out.Write(b.attrs.Bytes())
	return out.Bytes()
}
