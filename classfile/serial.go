package classfile

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"sort"
	"strings"
)

const (
	classModifierMask  = AccPublic | AccFinal | AccInterface | AccAbstract
	fieldModifierMask  = AccPublic | AccPrivate | AccProtected | AccStatic | AccFinal | AccVolatile | AccTransient
	methodModifierMask = AccPublic | AccPrivate | AccProtected | AccStatic | AccFinal | AccSynchronized | AccNative | AccAbstract | AccStrict
)

// SerialVersionUID returns the serialVersionUID the Java runtime would use for
// cf: a declared static final long field wins; enums and records are 0;
// otherwise the default value is computed from the class layout.
func (cf *ClassFile) SerialVersionUID() int64 {
	if f := cf.Field("serialVersionUID"); f != nil && f.AccessFlags.IsStatic() && f.AccessFlags.IsFinal() && f.Descriptor == "J" {
		if v, ok := cf.ConstantLongValue(f); ok {
			return v
		}
	}
	if cf.IsEnum() || cf.IsRecord() {
		return 0
	}
	return cf.DefaultSerialVersionUID()
}

// DefaultSerialVersionUID hashes the class layout the way
// java.io.ObjectStreamClass does when no serialVersionUID is declared.
func (cf *ClassFile) DefaultSerialVersionUID() int64 {
	var buf bytes.Buffer
	w := dataWriter{&buf}

	w.writeUTF(cf.BinaryName())

	mods := cf.AccessFlags
	if inner := cf.innerFlags(); inner != nil {
		mods = *inner
	}
	mods &= classModifierMask
	if mods&AccInterface != 0 {
		if cf.hasDeclaredMethods() {
			mods |= AccAbstract
		} else {
			mods &^= AccAbstract
		}
	}
	w.writeInt(uint32(mods))

	ifaces := cf.InterfaceNames()
	for i := range ifaces {
		ifaces[i] = InternalToBinaryName(ifaces[i])
	}
	sort.Strings(ifaces)
	for _, name := range ifaces {
		w.writeUTF(name)
	}

	fields := append([]Member(nil), cf.Fields...)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	for _, f := range fields {
		m := f.AccessFlags & fieldModifierMask
		if m&AccPrivate != 0 && m&(AccStatic|AccTransient) != 0 {
			continue
		}
		w.writeUTF(f.Name)
		w.writeInt(uint32(m))
		w.writeUTF(f.Descriptor)
	}

	if cf.HasStaticInitializer() {
		w.writeUTF("<clinit>")
		w.writeInt(uint32(AccStatic))
		w.writeUTF("()V")
	}

	var ctors, methods []Member
	for _, m := range cf.Methods {
		switch m.Name {
		case "<clinit>":
		case "<init>":
			ctors = append(ctors, m)
		default:
			methods = append(methods, m)
		}
	}
	sort.SliceStable(ctors, func(i, j int) bool { return ctors[i].Descriptor < ctors[j].Descriptor })
	sort.SliceStable(methods, func(i, j int) bool {
		if methods[i].Name != methods[j].Name {
			return methods[i].Name < methods[j].Name
		}
		return methods[i].Descriptor < methods[j].Descriptor
	})
	for _, group := range [][]Member{ctors, methods} {
		for _, m := range group {
			mods := m.AccessFlags & methodModifierMask
			if mods&AccPrivate != 0 {
				continue
			}
			w.writeUTF(m.Name)
			w.writeInt(uint32(mods))
			w.writeUTF(strings.ReplaceAll(m.Descriptor, "/", "."))
		}
	}

	sum := sha1.Sum(buf.Bytes())
	var hash int64
	for i := 7; i >= 0; i-- {
		hash = hash<<8 | int64(sum[i])
	}
	return hash
}

// innerFlags returns the access flags recorded for this class in its own
// InnerClasses attribute, which carry the source-level modifiers of a
// nested class.
func (cf *ClassFile) innerFlags() *AccessFlags {
	inner, err := cf.InnerClasses()
	if err != nil {
		return nil
	}
	name := cf.ClassName()
	for _, ic := range inner {
		if ic.InnerClassName == name {
			flags := ic.AccessFlags
			return &flags
		}
	}
	return nil
}

func (cf *ClassFile) hasDeclaredMethods() bool {
	for _, m := range cf.Methods {
		if m.Name != "<init>" && m.Name != "<clinit>" {
			return true
		}
	}
	return false
}

// dataWriter mirrors java.io.DataOutputStream for the two primitives the
// hash input needs.
type dataWriter struct {
	buf *bytes.Buffer
}

func (w dataWriter) writeInt(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w dataWriter) writeUTF(s string) {
	enc := encodeModifiedUtf8(s)
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(len(enc)))
	w.buf.Write(b[:])
	w.buf.Write(enc)
}
