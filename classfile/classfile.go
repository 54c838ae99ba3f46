// Package classfile reads the parts of a compiled Java class that groom
// needs: the class name for repository verification and the member layout
// for computing the default serialVersionUID.
package classfile

import "strings"

type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
}

// Member is a field or method with its name and descriptor resolved.
type Member struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Attributes  []Attribute
}

// Attribute keeps the raw bytes of an attribute; only the few groom looks
// at are decoded, on demand.
type Attribute struct {
	Name string
	Info []byte
}

// ClassName returns the internal name, e.g. "java/util/Map$Entry".
func (cf *ClassFile) ClassName() string {
	return cf.ConstantPool.GetClassName(cf.ThisClass)
}

// BinaryName returns the class name with dots, e.g. "java.util.Map$Entry".
func (cf *ClassFile) BinaryName() string {
	return InternalToBinaryName(cf.ClassName())
}

func (cf *ClassFile) SuperClassName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	return cf.ConstantPool.GetClassName(cf.SuperClass)
}

func (cf *ClassFile) InterfaceNames() []string {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		names[i] = cf.ConstantPool.GetClassName(idx)
	}
	return names
}

func (cf *ClassFile) IsEnum() bool {
	return cf.AccessFlags.IsEnum()
}

func (cf *ClassFile) IsRecord() bool {
	return cf.Attribute("Record") != nil
}

func (cf *ClassFile) Field(name string) *Member {
	for i := range cf.Fields {
		if cf.Fields[i].Name == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

func (cf *ClassFile) Method(name, descriptor string) *Member {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name && (descriptor == "" || cf.Methods[i].Descriptor == descriptor) {
			return &cf.Methods[i]
		}
	}
	return nil
}

func (cf *ClassFile) HasStaticInitializer() bool {
	return cf.Method("<clinit>", "") != nil
}

func (cf *ClassFile) Attribute(name string) *Attribute {
	return findAttribute(cf.Attributes, name)
}

func (m *Member) Attribute(name string) *Attribute {
	return findAttribute(m.Attributes, name)
}

func findAttribute(attrs []Attribute, name string) *Attribute {
	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i]
		}
	}
	return nil
}

// InternalToBinaryName converts "a/b/C$D" to "a.b.C$D".
func InternalToBinaryName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// BinaryToInternalName converts "a.b.C$D" to "a/b/C$D".
func BinaryToInternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
